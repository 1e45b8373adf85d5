// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// CredentialBuilder builds the token credentials used by the storage clients.
type CredentialBuilder interface {
	// Default returns a credential using the ambient identity resolution.
	Default() (azcore.TokenCredential, error)

	// ManagedIdentity returns a credential using the ambient identity
	// resolution, with the managed identity pinned to the given client id.
	ManagedIdentity(clientID string) (azcore.TokenCredential, error)
}

// IdentityCredentialBuilder is a [CredentialBuilder] backed by azidentity.
type IdentityCredentialBuilder struct {
	// Options are passed to every credential, which uses an HTTP pipeline.
	Options azcore.ClientOptions
}

var _ CredentialBuilder = IdentityCredentialBuilder{}

// Default implements the [CredentialBuilder] interface.
func (b IdentityCredentialBuilder) Default() (azcore.TokenCredential, error) {
	return azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		ClientOptions: b.Options,
	})
}

// ManagedIdentity implements the [CredentialBuilder] interface. The returned
// credential chains the same sources as the default one. Sources, which are
// not configured in the environment, are skipped.
func (b IdentityCredentialBuilder) ManagedIdentity(clientID string) (azcore.TokenCredential, error) {
	sources := make([]azcore.TokenCredential, 0, 4)

	envCreds, err := azidentity.NewEnvironmentCredential(&azidentity.EnvironmentCredentialOptions{
		ClientOptions: b.Options,
	})
	if err == nil {
		sources = append(sources, envCreds)
	}

	wiCreds, err := azidentity.NewWorkloadIdentityCredential(&azidentity.WorkloadIdentityCredentialOptions{
		ClientOptions: b.Options,
	})
	if err == nil {
		sources = append(sources, wiCreds)
	}

	miCreds, err := azidentity.NewManagedIdentityCredential(&azidentity.ManagedIdentityCredentialOptions{
		ClientOptions: b.Options,
		ID:            azidentity.ClientID(clientID),
	})
	if err != nil {
		return nil, err
	}
	sources = append(sources, miCreds)

	cliCreds, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{})
	if err == nil {
		sources = append(sources, cliCreds)
	}

	return azidentity.NewChainedTokenCredential(sources, &azidentity.ChainedTokenCredentialOptions{})
}

// ResolveCredential returns a credential pinned to the managed identity
// identityOverride. An empty or blank override is treated as unset and
// results in the default credential.
func ResolveCredential(b CredentialBuilder, identityOverride string) (azcore.TokenCredential, error) {
	var (
		creds azcore.TokenCredential
		err   error
	)

	clientID := strings.TrimSpace(identityOverride)
	if clientID == "" {
		creds, err = b.Default()
	} else {
		creds, err = b.ManagedIdentity(clientID)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return creds, nil
}

// authenticatingCredential marks token acquisition failures with
// [ErrAuthentication], so that they can be told apart from storage failures.
type authenticatingCredential struct {
	creds azcore.TokenCredential
}

// GetToken implements the [azcore.TokenCredential] interface.
func (c authenticatingCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := c.creds.GetToken(ctx, opts)
	if err != nil {
		return token, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	return token, nil
}
