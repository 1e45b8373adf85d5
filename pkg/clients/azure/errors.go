// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// ErrConfiguration is an error, which is returned when the connection string
// is missing or malformed, or the requested resource name is empty.
var ErrConfiguration = errors.New("invalid storage configuration")

// ErrAuthentication is an error, which is returned when a credential cannot
// be built, or a token cannot be acquired.
var ErrAuthentication = errors.New("authentication failed")

// ErrStorageUnavailable is an error, which is returned when the storage
// service cannot be reached, or denies the request.
var ErrStorageUnavailable = errors.New("storage unavailable")

// classify wraps err with [ErrAuthentication] or [ErrStorageUnavailable]. The
// original error is always kept in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrAuthentication) {
		return err
	}

	var authErr *azidentity.AuthenticationFailedError
	if errors.As(err, &authErr) {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}
