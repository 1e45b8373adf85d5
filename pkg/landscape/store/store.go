// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/gardener/sdaf-landscapes/pkg/clients/azure"
	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
	"github.com/gardener/sdaf-landscapes/pkg/metrics"
)

// ErrNotFound is an error, which is returned when a landscape or an exported
// landscape does not exist.
var ErrNotFound = errors.New("landscape not found")

// ErrConflict is an error, which is returned when a landscape was modified
// since it has been read.
var ErrConflict = errors.New("landscape was modified concurrently")

// ErrInvalidKey is an error, which is returned when the environment or the id
// of a landscape is empty.
var ErrInvalidKey = errors.New("invalid landscape key")

// ClientProvider provides the storage clients used by the [Store].
// It is implemented by [azure.Accessor].
type ClientProvider interface {
	GetTableClient(ctx context.Context, name string) (*azure.Handle[*aztables.Client], error)
	GetBlobClient(ctx context.Context, name string) (*azure.Handle[*container.Client], error)
}

var _ ClientProvider = &azure.Accessor{}

// entityClient is the subset of [aztables.Client] used by the [Store].
type entityClient interface {
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
	UpdateEntity(ctx context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error)
	GetEntity(ctx context.Context, partitionKey string, rowKey string, options *aztables.GetEntityOptions) (aztables.GetEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey string, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
	NewListEntitiesPager(listOptions *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
}

// Config configures the [Store].
type Config struct {
	// Table is the name of the table, which holds the landscapes.
	Table string

	// Container is the name of the blob container used for exports.
	Container string

	// Serializer configures how landscapes are rendered into records.
	Serializer models.SerializerOptions
}

// Store persists landscapes in a table and exports them to a blob container.
// Clients are requested from the [ClientProvider] for every operation.
type Store struct {
	conf    Config
	logger  *slog.Logger
	tables  func(ctx context.Context) (entityClient, error)
	objects func(ctx context.Context) (objectStore, error)
}

// Option is a function which configures the [Store].
type Option func(s *Store)

// WithLogger configures the [Store] to use the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new [Store], which gets its clients from the given provider.
func New(provider ClientProvider, conf Config, opts ...Option) *Store {
	tables := func(ctx context.Context) (entityClient, error) {
		handle, err := provider.GetTableClient(ctx, conf.Table)
		if err != nil {
			return nil, err
		}

		return handle.Client, nil
	}

	objects := func(ctx context.Context) (objectStore, error) {
		handle, err := provider.GetBlobClient(ctx, conf.Container)
		if err != nil {
			return nil, err
		}

		return &containerObjects{client: handle.Client}, nil
	}

	return newStore(conf, tables, objects, opts...)
}

func newStore(conf Config, tables func(context.Context) (entityClient, error), objects func(context.Context) (objectStore, error), opts ...Option) *Store {
	s := &Store{
		conf:    conf,
		logger:  slog.Default(),
		tables:  tables,
		objects: objects,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// observe records the result of a store operation.
func observe(operation string, err error) {
	metrics.StoreOperationsTotal.WithLabelValues(operation, metrics.Result(err)).Inc()
}

// validateKey returns [ErrInvalidKey], if either part of the key is empty.
func validateKey(env, id string) error {
	if strings.TrimSpace(env) == "" {
		return fmt.Errorf("%w: no environment specified", ErrInvalidKey)
	}

	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: no id specified", ErrInvalidKey)
	}

	return nil
}

// Put stores the landscape, replacing any existing landscape with the same
// environment and id.
func (s *Store) Put(ctx context.Context, l *models.Landscape) (rec models.Record, err error) {
	defer func() { observe("put", err) }()

	if l == nil {
		return models.Record{}, fmt.Errorf("%w: no landscape specified", ErrInvalidKey)
	}

	if err := validateKey(l.Environment, l.ID); err != nil {
		return models.Record{}, err
	}

	rec, err = models.NewRecord(l, s.conf.Serializer)
	if err != nil {
		return models.Record{}, err
	}

	data, err := rec.MarshalEntity()
	if err != nil {
		return models.Record{}, err
	}

	client, err := s.tables(ctx)
	if err != nil {
		return models.Record{}, err
	}

	resp, err := client.UpsertEntity(ctx, data, &aztables.UpsertEntityOptions{
		UpdateMode: aztables.UpdateModeReplace,
	})
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to store landscape %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}

	rec.ETag = resp.ETag
	s.logger.Info(
		"stored landscape",
		"environment", rec.PartitionKey,
		"id", rec.RowKey,
	)

	return rec, nil
}

// Get returns the landscape record for the given environment and id.
func (s *Store) Get(ctx context.Context, env, id string) (rec models.Record, err error) {
	defer func() { observe("get", err) }()

	if err := validateKey(env, id); err != nil {
		return models.Record{}, err
	}

	client, err := s.tables(ctx)
	if err != nil {
		return models.Record{}, err
	}

	return s.get(ctx, client, env, id)
}

func (s *Store) get(ctx context.Context, client entityClient, env, id string) (models.Record, error) {
	resp, err := client.GetEntity(ctx, env, id, &aztables.GetEntityOptions{})
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return models.Record{}, fmt.Errorf("%w: %s/%s", ErrNotFound, env, id)
		}
		return models.Record{}, fmt.Errorf("failed to get landscape %s/%s: %w", env, id, err)
	}

	return models.UnmarshalEntity(resp.Value, resp.ETag)
}

// List returns the landscape records of the given environment, or of all
// environments if env is empty.
func (s *Store) List(ctx context.Context, env string) (items []models.Record, err error) {
	defer func() { observe("list", err) }()

	client, err := s.tables(ctx)
	if err != nil {
		return nil, err
	}

	var f filter
	if env != "" {
		f = f.Eq("PartitionKey", env)
	}

	items, err = s.list(ctx, client, f)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	if env != "" {
		counts[env] = 0
	}
	for _, item := range items {
		counts[item.PartitionKey]++
	}

	for name, count := range counts {
		if err := metrics.DefaultCollector.Observe(metrics.LandscapesDesc, float64(count), name); err != nil {
			s.logger.Warn("failed to observe landscapes", "environment", name, "reason", err)
		}
	}

	return items, nil
}

func (s *Store) list(ctx context.Context, client entityClient, f filter) ([]models.Record, error) {
	opts := &aztables.ListEntitiesOptions{}
	if !f.Empty() {
		expr := f.String()
		opts.Filter = &expr
	}

	items := make([]models.Record, 0)
	pager := client.NewListEntitiesPager(opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list landscapes: %w", err)
		}

		for _, data := range page.Entities {
			etag, err := entityETag(data)
			if err != nil {
				return nil, err
			}

			rec, err := models.UnmarshalEntity(data, etag)
			if err != nil {
				return nil, err
			}
			items = append(items, rec)
		}
	}

	return items, nil
}

// Update replaces the stored landscape, provided that it has not been
// modified since rec was read. A record without an ETag replaces the stored
// landscape unconditionally.
func (s *Store) Update(ctx context.Context, rec models.Record) (updated models.Record, err error) {
	defer func() { observe("update", err) }()

	if err := validateKey(rec.PartitionKey, rec.RowKey); err != nil {
		return models.Record{}, err
	}

	client, err := s.tables(ctx)
	if err != nil {
		return models.Record{}, err
	}

	return s.update(ctx, client, rec)
}

func (s *Store) update(ctx context.Context, client entityClient, rec models.Record) (models.Record, error) {
	data, err := rec.MarshalEntity()
	if err != nil {
		return models.Record{}, err
	}

	etag := rec.ETag
	if etag == "" {
		etag = azcore.ETagAny
	}

	resp, err := client.UpdateEntity(ctx, data, &aztables.UpdateEntityOptions{
		IfMatch:    &etag,
		UpdateMode: aztables.UpdateModeReplace,
	})
	switch {
	case hasStatus(err, http.StatusPreconditionFailed):
		return models.Record{}, fmt.Errorf("%w: %s/%s", ErrConflict, rec.PartitionKey, rec.RowKey)
	case hasStatus(err, http.StatusNotFound):
		return models.Record{}, fmt.Errorf("%w: %s/%s", ErrNotFound, rec.PartitionKey, rec.RowKey)
	case err != nil:
		return models.Record{}, fmt.Errorf("failed to update landscape %s/%s: %w", rec.PartitionKey, rec.RowKey, err)
	}

	rec.ETag = resp.ETag
	s.logger.Info(
		"updated landscape",
		"environment", rec.PartitionKey,
		"id", rec.RowKey,
	)

	return rec, nil
}

// Delete removes the landscape. Deleting a landscape, which does not exist,
// is not an error.
func (s *Store) Delete(ctx context.Context, env, id string) (err error) {
	defer func() { observe("delete", err) }()

	if err := validateKey(env, id); err != nil {
		return err
	}

	client, err := s.tables(ctx)
	if err != nil {
		return err
	}

	_, err = client.DeleteEntity(ctx, env, id, &aztables.DeleteEntityOptions{})
	if err != nil && !hasStatus(err, http.StatusNotFound) {
		return fmt.Errorf("failed to delete landscape %s/%s: %w", env, id, err)
	}

	s.logger.Info("deleted landscape", "environment", env, "id", id)

	return nil
}

// hasStatus returns true, if err is a response error with the given status
// code.
func hasStatus(err error, status int) bool {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return false
	}

	return respErr.StatusCode == status
}
