// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Environment variables consulted when resolving credentials.
const (
	EnvAuthenticationType      = "AUTHENTICATION_TYPE"
	EnvManagedIdentityClientID = "OVERRIDE_USE_MI_FIC_ASSERTION_CLIENTID"
)

// Environment represents the identity settings read from the process
// environment.
type Environment struct {
	// AuthenticationType is the authentication mode of the deployment.
	// It is reported in logs only.
	AuthenticationType string `env:"AUTHENTICATION_TYPE"`

	// ManagedIdentityClientID pins credential resolution to the managed
	// identity with this client id, if set.
	ManagedIdentityClientID string `env:"OVERRIDE_USE_MI_FIC_ASSERTION_CLIENTID"`
}

// LoadEnvironment parses the [Environment] from the given variables. When
// vars is nil the process environment is used.
func LoadEnvironment(vars map[string]string) (Environment, error) {
	var e Environment
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Environment{}, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	return e, nil
}
