// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
)

// GetDefault returns the default landscape of the given environment.
func (s *Store) GetDefault(ctx context.Context, env string) (rec models.Record, err error) {
	defer func() { observe("get_default", err) }()

	if strings.TrimSpace(env) == "" {
		return models.Record{}, fmt.Errorf("%w: no environment specified", ErrInvalidKey)
	}

	client, err := s.tables(ctx)
	if err != nil {
		return models.Record{}, err
	}

	items, err := s.list(ctx, client, filter{}.Eq("PartitionKey", env).EqBool("IsDefault", true))
	if err != nil {
		return models.Record{}, err
	}

	if len(items) == 0 {
		return models.Record{}, fmt.Errorf("%w: no default landscape in %s", ErrNotFound, env)
	}

	return items[0], nil
}

// SetDefault marks the given landscape as the default of its environment,
// and clears the mark on every other landscape of the environment. Each
// record is updated conditionally, so a concurrent modification results in
// [ErrConflict].
func (s *Store) SetDefault(ctx context.Context, env, id string) (rec models.Record, err error) {
	defer func() { observe("set_default", err) }()

	if err := validateKey(env, id); err != nil {
		return models.Record{}, err
	}

	client, err := s.tables(ctx)
	if err != nil {
		return models.Record{}, err
	}

	target, err := s.get(ctx, client, env, id)
	if err != nil {
		return models.Record{}, err
	}

	defaults, err := s.list(ctx, client, filter{}.Eq("PartitionKey", env).EqBool("IsDefault", true))
	if err != nil {
		return models.Record{}, err
	}

	rec = target
	if !target.IsDefault {
		rec, err = s.mark(ctx, client, target, true)
		if err != nil {
			return models.Record{}, err
		}
	}

	for _, other := range defaults {
		if other.RowKey == id {
			continue
		}

		if _, err := s.mark(ctx, client, other, false); err != nil {
			return models.Record{}, err
		}
	}

	s.logger.Info("default landscape set", "environment", env, "id", id)

	return rec, nil
}

// mark sets the default flag of the record and of its payload, and stores
// the record.
func (s *Store) mark(ctx context.Context, client entityClient, rec models.Record, isDefault bool) (models.Record, error) {
	l, err := rec.Decode()
	if err != nil {
		return models.Record{}, err
	}

	l.IsDefault = isDefault
	marked, err := models.NewRecord(l, s.conf.Serializer)
	if err != nil {
		return models.Record{}, err
	}

	// Keep the keys of the stored record.
	marked.PartitionKey = rec.PartitionKey
	marked.RowKey = rec.RowKey
	marked.ETag = rec.ETag

	return s.update(ctx, client, marked)
}
