// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
)

// fakeTimestamp is the timestamp reported for every entity.
var fakeTimestamp = time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC)

// fakeTable is an in-memory table, which understands conjunctions of
// equality filters.
type fakeTable struct {
	mu       sync.Mutex
	rows     map[string]map[string]any
	etags    map[string]azcore.ETag
	seq      int
	pageSize int
	filters  []string
}

var _ entityClient = &fakeTable{}

func newFakeTable() *fakeTable {
	return &fakeTable{
		rows:     make(map[string]map[string]any),
		etags:    make(map[string]azcore.ETag),
		pageSize: 2,
	}
}

func entityKey(pk, rk string) string {
	return pk + "\x00" + rk
}

func responseError(status int, code string) error {
	return &azcore.ResponseError{StatusCode: status, ErrorCode: code}
}

func (t *fakeTable) store(entity []byte) (azcore.ETag, error) {
	var row map[string]any
	if err := json.Unmarshal(entity, &row); err != nil {
		return "", responseError(http.StatusBadRequest, "InvalidInput")
	}

	pk, _ := row["PartitionKey"].(string)
	rk, _ := row["RowKey"].(string)
	key := entityKey(pk, rk)

	t.seq++
	etag := azcore.ETag(fmt.Sprintf("W/\"datetime'%d'\"", t.seq))
	t.rows[key] = row
	t.etags[key] = etag

	return etag, nil
}

func (t *fakeTable) UpsertEntity(_ context.Context, entity []byte, _ *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	etag, err := t.store(entity)
	if err != nil {
		return aztables.UpsertEntityResponse{}, err
	}

	return aztables.UpsertEntityResponse{ETag: etag}, nil
}

func (t *fakeTable) UpdateEntity(_ context.Context, entity []byte, options *aztables.UpdateEntityOptions) (aztables.UpdateEntityResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var keys struct {
		PartitionKey string
		RowKey       string
	}
	if err := json.Unmarshal(entity, &keys); err != nil {
		return aztables.UpdateEntityResponse{}, responseError(http.StatusBadRequest, "InvalidInput")
	}

	current, ok := t.etags[entityKey(keys.PartitionKey, keys.RowKey)]
	if !ok {
		return aztables.UpdateEntityResponse{}, responseError(http.StatusNotFound, "ResourceNotFound")
	}

	if options != nil && options.IfMatch != nil && *options.IfMatch != azcore.ETagAny && *options.IfMatch != current {
		return aztables.UpdateEntityResponse{}, responseError(http.StatusPreconditionFailed, "UpdateConditionNotSatisfied")
	}

	etag, err := t.store(entity)
	if err != nil {
		return aztables.UpdateEntityResponse{}, err
	}

	return aztables.UpdateEntityResponse{ETag: etag}, nil
}

func (t *fakeTable) entity(key string) []byte {
	row := make(map[string]any, len(t.rows[key])+2)
	for k, v := range t.rows[key] {
		row[k] = v
	}
	row["odata.etag"] = string(t.etags[key])
	row["Timestamp"] = fakeTimestamp.Format(time.RFC3339Nano)

	data, err := json.Marshal(row)
	if err != nil {
		panic(err)
	}

	return data
}

func (t *fakeTable) GetEntity(_ context.Context, partitionKey string, rk string, _ *aztables.GetEntityOptions) (aztables.GetEntityResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := entityKey(partitionKey, rk)
	if _, ok := t.rows[key]; !ok {
		return aztables.GetEntityResponse{}, responseError(http.StatusNotFound, "ResourceNotFound")
	}

	return aztables.GetEntityResponse{ETag: t.etags[key], Value: t.entity(key)}, nil
}

func (t *fakeTable) DeleteEntity(_ context.Context, partitionKey string, rk string, _ *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := entityKey(partitionKey, rk)
	if _, ok := t.rows[key]; !ok {
		return aztables.DeleteEntityResponse{}, responseError(http.StatusNotFound, "ResourceNotFound")
	}

	delete(t.rows, key)
	delete(t.etags, key)

	return aztables.DeleteEntityResponse{}, nil
}

// matches evaluates a filter built by [filter] against the row.
func matches(row map[string]any, expr string) bool {
	if expr == "" {
		return true
	}

	for _, clause := range strings.Split(expr, " and ") {
		property, literal, ok := strings.Cut(clause, " eq ")
		if !ok {
			panic("unsupported filter: " + expr)
		}

		if strings.HasPrefix(literal, "'") {
			want := strings.ReplaceAll(strings.Trim(literal, "'"), "''", "'")
			if got, _ := row[property].(string); got != want {
				return false
			}
			continue
		}

		want, err := strconv.ParseBool(literal)
		if err != nil {
			panic("unsupported literal: " + literal)
		}
		if got, _ := row[property].(bool); got != want {
			return false
		}
	}

	return true
}

func (t *fakeTable) NewListEntitiesPager(listOptions *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse] {
	var expr string
	if listOptions != nil && listOptions.Filter != nil {
		expr = *listOptions.Filter
	}

	t.mu.Lock()
	t.filters = append(t.filters, expr)
	keys := make([]string, 0, len(t.rows))
	for key, row := range t.rows {
		if matches(row, expr) {
			keys = append(keys, key)
		}
	}
	t.mu.Unlock()
	slices.Sort(keys)

	return runtime.NewPager(runtime.PagingHandler[aztables.ListEntitiesResponse]{
		More: func(page aztables.ListEntitiesResponse) bool {
			return page.NextRowKey != nil
		},
		Fetcher: func(_ context.Context, page *aztables.ListEntitiesResponse) (aztables.ListEntitiesResponse, error) {
			t.mu.Lock()
			defer t.mu.Unlock()

			start := 0
			if page != nil && page.NextRowKey != nil {
				start, _ = strconv.Atoi(*page.NextRowKey)
			}
			end := min(start+t.pageSize, len(keys))

			var resp aztables.ListEntitiesResponse
			for _, key := range keys[start:end] {
				if _, ok := t.rows[key]; ok {
					resp.Entities = append(resp.Entities, t.entity(key))
				}
			}
			if end < len(keys) {
				resp.NextRowKey = to.Ptr(strconv.Itoa(end))
			}

			return resp, nil
		},
	})
}

// fakeObjects is an in-memory [objectStore].
type fakeObjects struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ objectStore = &fakeObjects{}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{blobs: make(map[string][]byte)}
}

func (o *fakeObjects) Upload(_ context.Context, name string, data []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.blobs[name] = slices.Clone(data)

	return nil
}

func (o *fakeObjects) Download(_ context.Context, name string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, ok := o.blobs[name]
	if !ok {
		return nil, responseError(http.StatusNotFound, "BlobNotFound")
	}

	return slices.Clone(data), nil
}
