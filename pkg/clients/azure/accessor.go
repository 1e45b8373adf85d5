// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/gardener/sdaf-landscapes/pkg/core/registry"
	"github.com/gardener/sdaf-landscapes/pkg/metrics"
)

// ConnectionStrings provides connection strings by key.
type ConnectionStrings interface {
	// ConnectionString returns the connection string for the given key,
	// and a boolean indicating whether it was found.
	ConnectionString(key string) (string, bool)
}

// Accessor resolves table and blob container names to authenticated clients,
// creating the table or container if needed.
//
// By default every call resolves the credential and the service client from
// scratch and nothing is kept between calls. Caching of clients has to be
// enabled explicitly via [WithClientCache].
type Accessor struct {
	conns         ConnectionStrings
	key           string
	logger        *slog.Logger
	credentials   CredentialBuilder
	environ       map[string]string
	clientOptions azcore.ClientOptions
	cache         *registry.Registry[string, any]

	newTableService serviceFactory[*aztables.Client]
	newBlobService  serviceFactory[*container.Client]
}

// Option is a function which configures the [Accessor].
type Option func(a *Accessor)

// WithLogger configures the [Accessor] to use the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Accessor) {
		a.logger = logger
	}
}

// WithCredentialBuilder configures the [Accessor] to build credentials using
// the given [CredentialBuilder].
func WithCredentialBuilder(b CredentialBuilder) Option {
	return func(a *Accessor) {
		a.credentials = b
	}
}

// WithEnvironment configures the [Accessor] to read the identity settings
// from the given variables instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(a *Accessor) {
		a.environ = vars
	}
}

// WithClientOptions configures the options passed to the storage clients.
func WithClientOptions(opts azcore.ClientOptions) Option {
	return func(a *Accessor) {
		a.clientOptions = opts
	}
}

// WithClientCache enables caching of resolved clients keyed by resource kind,
// name and endpoint. Cached clients keep the credential they were created
// with, until they are removed via [Accessor.Invalidate] or [Accessor.Purge].
func WithClientCache() Option {
	return func(a *Accessor) {
		a.cache = registry.New[string, any]()
	}
}

// NewAccessor creates a new [Accessor], which reads the storage endpoint from
// conns using the given key.
func NewAccessor(conns ConnectionStrings, key string, opts ...Option) *Accessor {
	a := &Accessor{
		conns:           conns,
		key:             key,
		logger:          slog.Default(),
		credentials:     IdentityCredentialBuilder{},
		newTableService: newTableProvisioner,
		newBlobService:  newContainerProvisioner,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// GetTableClient returns a client for the given table, creating the table if
// it does not exist.
func (a *Accessor) GetTableClient(ctx context.Context, table string) (*Handle[*aztables.Client], error) {
	return getClient(ctx, a, TableResource, table, a.newTableService)
}

// GetBlobClient returns a client for the given blob container, creating the
// container if it does not exist.
func (a *Accessor) GetBlobClient(ctx context.Context, containerName string) (*Handle[*container.Client], error) {
	return getClient(ctx, a, BlobResource, containerName, a.newBlobService)
}

// Invalidate removes the cached clients for the given resource and returns
// the number of removed clients.
func (a *Accessor) Invalidate(kind Kind, name string) int {
	if a.cache == nil {
		return 0
	}

	prefix := cacheKeyPrefix(kind, name)

	return a.cache.DeleteFunc(func(key string, _ any) bool {
		return strings.HasPrefix(key, prefix)
	})
}

// Purge removes all cached clients.
func (a *Accessor) Purge() {
	if a.cache != nil {
		a.cache.Clear()
	}
}

// cacheKeyPrefix returns the prefix of the cache keys for the given resource.
func cacheKeyPrefix(kind Kind, name string) string {
	return string(kind) + "/" + name + "/"
}

// getClient resolves the endpoint and the credential for the given resource,
// makes sure that the resource exists, and returns a client scoped to it.
func getClient[T any](ctx context.Context, a *Accessor, rc ResourceConfig, name string, factory serviceFactory[T]) (handle *Handle[T], err error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		if err != nil {
			result = metrics.ResultError
		}
		metrics.ClientResolutionsTotal.WithLabelValues(string(rc.Kind), result).Inc()
		metrics.ClientResolutionDuration.WithLabelValues(string(rc.Kind)).Observe(time.Since(start).Seconds())
	}()

	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: no %s name specified", ErrConfiguration, rc.Kind)
	}

	conn, ok := a.conns.ConnectionString(a.key)
	if !ok {
		return nil, fmt.Errorf("%w: no connection string for key %s", ErrConfiguration, a.key)
	}

	endpoint, err := rc.ResolveEndpoint(conn)
	if err != nil {
		return nil, err
	}

	cacheKey := cacheKeyPrefix(rc.Kind, name) + endpoint
	if a.cache != nil {
		if val, ok := a.cache.Get(cacheKey); ok {
			if cached, ok := val.(*Handle[T]); ok {
				result = metrics.ResultCached
				return cached, nil
			}
		}
	}

	environment, err := LoadEnvironment(a.environ)
	if err != nil {
		return nil, err
	}

	logger := a.logger.With(
		"kind", rc.Kind,
		"name", name,
		"endpoint", endpoint,
	)
	logger.Debug(
		"resolving storage client",
		"authentication_type", environment.AuthenticationType,
		"managed_identity_override", strings.TrimSpace(environment.ManagedIdentityClientID) != "",
	)

	creds, err := ResolveCredential(a.credentials, environment.ManagedIdentityClientID)
	if err != nil {
		logger.Error("failed to resolve credentials", "reason", err)
		return nil, err
	}

	svc, err := factory(endpoint, authenticatingCredential{creds: creds}, a.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if err := svc.Ensure(ctx, name); err != nil {
		logger.Error("failed to ensure storage resource", "reason", err)
		return nil, classify(err)
	}

	handle = &Handle[T]{
		Kind:     rc.Kind,
		Name:     name,
		Endpoint: endpoint,
		Client:   svc.Scoped(name),
	}

	if a.cache != nil {
		a.cache.Overwrite(cacheKey, handle)
	}

	logger.Info("resolved storage client")

	return handle, nil
}
