// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/gardener/sdaf-landscapes/pkg/clients/azure"
	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
	"github.com/gardener/sdaf-landscapes/pkg/metrics"
)

type testStore struct {
	*Store
	table   *fakeTable
	objects *fakeObjects
}

func newTestStore(opts models.SerializerOptions) *testStore {
	ts := &testStore{
		table:   newFakeTable(),
		objects: newFakeObjects(),
	}

	conf := Config{
		Table:      "Landscapes",
		Container:  "landscape-exports",
		Serializer: opts,
	}

	tables := func(context.Context) (entityClient, error) { return ts.table, nil }
	objects := func(context.Context) (objectStore, error) { return ts.objects, nil }
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts.Store = newStore(conf, tables, objects, WithLogger(logger))

	return ts
}

func newLandscape(env, id string) *models.Landscape {
	return &models.Landscape{
		ID:                  id,
		Environment:         env,
		Location:            "westeurope",
		NetworkLogicalName:  "SAP01",
		NetworkAddressSpace: to.Ptr("10.110.0.0/16"),
		UsePrivateEndpoint:  to.Ptr(true),
		Tags:                map[string]string{"owner": "basis"},
	}
}

func mustPut(t *testing.T, s *testStore, l *models.Landscape) models.Record {
	t.Helper()

	rec, err := s.Put(context.Background(), l)
	if err != nil {
		t.Fatalf("failed to put landscape: %s", err)
	}

	return rec
}

func mustDecode(t *testing.T, rec models.Record) *models.Landscape {
	t.Helper()

	l, err := rec.Decode()
	if err != nil {
		t.Fatalf("failed to decode landscape: %s", err)
	}

	return l
}

func TestPutGet(t *testing.T) {
	optSets := []models.SerializerOptions{
		{},
		{Naming: models.NamingCamelCase, OmitNull: true},
		{Indent: "  "},
	}

	for _, opts := range optSets {
		s := newTestStore(opts)
		ctx := context.Background()
		want := newLandscape("DEV", "WEEU-SAP01")
		want.IsDefault = true

		put := mustPut(t, s, want)
		if put.ETag == "" {
			t.Fatal("want etag after put")
		}

		got, err := s.Get(ctx, "DEV", "WEEU-SAP01")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if got.ETag != put.ETag {
			t.Fatalf("want etag %s, got %s", put.ETag, got.ETag)
		}

		if !got.IsDefault || got.PartitionKey != "DEV" || got.RowKey != "WEEU-SAP01" {
			t.Fatalf("unexpected record %+v", got)
		}

		if got.Timestamp == nil || !got.Timestamp.Equal(fakeTimestamp) {
			t.Fatalf("want timestamp %s, got %v", fakeTimestamp, got.Timestamp)
		}

		if diff := cmp.Diff(want, mustDecode(t, got)); diff != "" {
			t.Fatalf("landscape mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestPutErrors(t *testing.T) {
	s := newTestStore(models.SerializerOptions{})
	ctx := context.Background()

	if _, err := s.Put(ctx, nil); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want error %v, got %v", ErrInvalidKey, err)
	}

	if _, err := s.Put(ctx, newLandscape("", "WEEU-SAP01")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want error %v, got %v", ErrInvalidKey, err)
	}

	l := newLandscape("DEV", "WEEU-SAP01")
	l.Additional = map[string]any{"ratio": math.NaN()}
	if _, err := s.Put(ctx, l); !errors.Is(err, models.ErrSerialization) {
		t.Fatalf("want error %v, got %v", models.ErrSerialization, err)
	}

	if len(s.table.rows) != 0 {
		t.Fatal("nothing must be stored on error")
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(models.SerializerOptions{})

	_, err := s.Get(context.Background(), "DEV", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want error %v, got %v", ErrNotFound, err)
	}

	if _, err := s.Get(context.Background(), "DEV", " "); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want error %v, got %v", ErrInvalidKey, err)
	}
}

func TestList(t *testing.T) {
	s := newTestStore(models.SerializerOptions{})
	ctx := context.Background()

	for _, key := range [][2]string{
		{"DEV", "WEEU-SAP01"},
		{"DEV", "WEEU-SAP02"},
		{"DEV", "WEEU-SAP03"},
		{"PRD", "WEEU-SAP01"},
		{"O'Brien", "WEEU-SAP01"},
	} {
		mustPut(t, s, newLandscape(key[0], key[1]))
	}

	testCases := []struct {
		desc       string
		env        string
		wantIDs    []string
		wantFilter string
	}{
		{
			desc:       "single environment spanning pages",
			env:        "DEV",
			wantIDs:    []string{"WEEU-SAP01", "WEEU-SAP02", "WEEU-SAP03"},
			wantFilter: "PartitionKey eq 'DEV'",
		},
		{
			desc:       "environment with quote",
			env:        "O'Brien",
			wantIDs:    []string{"WEEU-SAP01"},
			wantFilter: "PartitionKey eq 'O''Brien'",
		},
		{
			desc:       "unknown environment",
			env:        "QA",
			wantIDs:    []string{},
			wantFilter: "PartitionKey eq 'QA'",
		},
		{
			desc:    "all environments",
			env:     "",
			wantIDs: []string{"WEEU-SAP01", "WEEU-SAP02", "WEEU-SAP03", "WEEU-SAP01", "WEEU-SAP01"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			items, err := s.List(ctx, tc.env)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			ids := make([]string, 0, len(items))
			for _, item := range items {
				if item.ETag == "" {
					t.Fatalf("want etag for %s/%s", item.PartitionKey, item.RowKey)
				}
				ids = append(ids, item.RowKey)
			}

			if diff := cmp.Diff(tc.wantIDs, ids); diff != "" {
				t.Fatalf("ids mismatch (-want +got):\n%s", diff)
			}

			gotFilter := s.table.filters[len(s.table.filters)-1]
			if gotFilter != tc.wantFilter {
				t.Fatalf("want filter %q, got %q", tc.wantFilter, gotFilter)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(models.SerializerOptions{})
	ctx := context.Background()

	rec := mustPut(t, s, newLandscape("DEV", "WEEU-SAP01"))
	stale := rec

	l := mustDecode(t, rec)
	l.Location = "northeurope"
	changed, err := models.NewRecord(l, models.SerializerOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	changed.ETag = rec.ETag

	updated, err := s.Update(ctx, changed)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if updated.ETag == rec.ETag {
		t.Fatal("want new etag after update")
	}

	got, err := s.Get(ctx, "DEV", "WEEU-SAP01")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if loc := mustDecode(t, got).Location; loc != "northeurope" {
		t.Fatalf("want updated location, got %s", loc)
	}

	if _, err := s.Update(ctx, stale); !errors.Is(err, ErrConflict) {
		t.Fatalf("want error %v, got %v", ErrConflict, err)
	}

	stale.ETag = ""
	if _, err := s.Update(ctx, stale); err != nil {
		t.Fatalf("want unconditional update, got %v", err)
	}

	missing, err := models.NewRecord(newLandscape("DEV", "missing"), models.SerializerOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if _, err := s.Update(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want error %v, got %v", ErrNotFound, err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(models.SerializerOptions{})
	ctx := context.Background()

	mustPut(t, s, newLandscape("DEV", "WEEU-SAP01"))

	for j := 0; j < 2; j++ {
		if err := s.Delete(ctx, "DEV", "WEEU-SAP01"); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	if _, err := s.Get(ctx, "DEV", "WEEU-SAP01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want error %v, got %v", ErrNotFound, err)
	}
}

func TestDefaults(t *testing.T) {
	s := newTestStore(models.SerializerOptions{Naming: models.NamingCamelCase})
	ctx := context.Background()

	if _, err := s.GetDefault(ctx, "DEV"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want error %v, got %v", ErrNotFound, err)
	}

	first := newLandscape("DEV", "WEEU-SAP01")
	first.IsDefault = true
	mustPut(t, s, first)
	mustPut(t, s, newLandscape("DEV", "WEEU-SAP02"))

	other := newLandscape("PRD", "WEEU-SAP01")
	other.IsDefault = true
	mustPut(t, s, other)

	got, err := s.GetDefault(ctx, "DEV")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got.RowKey != "WEEU-SAP01" {
		t.Fatalf("want default WEEU-SAP01, got %s", got.RowKey)
	}

	rec, err := s.SetDefault(ctx, "DEV", "WEEU-SAP02")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !rec.IsDefault || !mustDecode(t, rec).IsDefault {
		t.Fatal("want new default marked in record and payload")
	}

	got, err = s.GetDefault(ctx, "DEV")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got.RowKey != "WEEU-SAP02" {
		t.Fatalf("want default WEEU-SAP02, got %s", got.RowKey)
	}

	previous, err := s.Get(ctx, "DEV", "WEEU-SAP01")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if previous.IsDefault || mustDecode(t, previous).IsDefault {
		t.Fatal("want previous default cleared in record and payload")
	}

	prd, err := s.GetDefault(ctx, "PRD")
	if err != nil || prd.RowKey != "WEEU-SAP01" {
		t.Fatalf("default of other environment changed: %v", err)
	}

	// Setting the current default again is a no-op.
	again, err := s.SetDefault(ctx, "DEV", "WEEU-SAP02")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if again.ETag != rec.ETag {
		t.Fatal("want unchanged record")
	}

	if _, err := s.SetDefault(ctx, "DEV", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want error %v, got %v", ErrNotFound, err)
	}
}

func TestRewritesKeepNumbers(t *testing.T) {
	s := newTestStore(models.SerializerOptions{Naming: models.NamingCamelCase})
	ctx := context.Background()

	const big = "9007199254740993"

	first := newLandscape("DEV", "WEEU-SAP01")
	first.IsDefault = true
	first.Additional = map[string]any{"iops": int64(9007199254740993)}
	mustPut(t, s, first)

	second := newLandscape("DEV", "WEEU-SAP02")
	second.Additional = map[string]any{"iops": int64(9007199254740993)}
	mustPut(t, s, second)

	if _, err := s.SetDefault(ctx, "DEV", "WEEU-SAP02"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	for _, id := range []string{"WEEU-SAP01", "WEEU-SAP02"} {
		rec, err := s.Get(ctx, "DEV", id)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if !strings.Contains(rec.Landscape, `"iops":`+big) {
			t.Fatalf("number changed in payload of %s: %s", id, rec.Landscape)
		}
	}

	name, err := s.Export(ctx, "DEV", "WEEU-SAP01")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	imported, err := s.Import(ctx, name)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !strings.Contains(imported.Landscape, `"iops":`+big) {
		t.Fatalf("number changed in imported payload: %s", imported.Landscape)
	}
}

func TestExportImport(t *testing.T) {
	s := newTestStore(models.SerializerOptions{OmitNull: true})
	ctx := context.Background()

	want := newLandscape("DEV", "WEEU-SAP01")
	rec := mustPut(t, s, want)

	name, err := s.Export(ctx, "DEV", "WEEU-SAP01")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if !strings.HasPrefix(name, "DEV/WEEU-SAP01/") || !strings.HasSuffix(name, ".json") {
		t.Fatalf("unexpected export name %s", name)
	}

	if payload := string(s.objects.blobs[name]); payload != rec.Landscape {
		t.Fatalf("want exported payload %s, got %s", rec.Landscape, payload)
	}

	second, err := s.Export(ctx, "DEV", "WEEU-SAP01")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if second == name {
		t.Fatal("want distinct export names")
	}

	if err := s.Delete(ctx, "DEV", "WEEU-SAP01"); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	imported, err := s.Import(ctx, name)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if diff := cmp.Diff(want, mustDecode(t, imported)); diff != "" {
		t.Fatalf("landscape mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.Get(ctx, "DEV", "WEEU-SAP01"); err != nil {
		t.Fatalf("imported landscape not stored: %s", err)
	}

	if _, err := s.Import(ctx, "DEV/WEEU-SAP01/missing.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want error %v, got %v", ErrNotFound, err)
	}

	if _, err := s.Export(ctx, "DEV", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want error %v, got %v", ErrNotFound, err)
	}

	if _, err := s.Export(ctx, "DEV", "a/b"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("want error %v, got %v", ErrInvalidKey, err)
	}
}

// fakeProvider fails every client request with the configured error.
type fakeProvider struct {
	err        error
	tables     []string
	containers []string
}

func (p *fakeProvider) GetTableClient(_ context.Context, name string) (*azure.Handle[*aztables.Client], error) {
	p.tables = append(p.tables, name)
	return nil, p.err
}

func (p *fakeProvider) GetBlobClient(_ context.Context, name string) (*azure.Handle[*container.Client], error) {
	p.containers = append(p.containers, name)
	return nil, p.err
}

func TestProviderErrors(t *testing.T) {
	provider := &fakeProvider{
		err: errors.Join(azure.ErrAuthentication, errors.New("token request failed")),
	}
	s := New(provider, Config{Table: "Landscapes", Container: "landscape-exports"})
	ctx := context.Background()
	failures := metrics.StoreOperationsTotal.WithLabelValues("get", metrics.ResultError)
	before := testutil.ToFloat64(failures)

	if _, err := s.Get(ctx, "DEV", "WEEU-SAP01"); !errors.Is(err, azure.ErrAuthentication) {
		t.Fatalf("want error %v, got %v", azure.ErrAuthentication, err)
	}

	if _, err := s.Import(ctx, "DEV/WEEU-SAP01/export.json"); !errors.Is(err, azure.ErrAuthentication) {
		t.Fatalf("want error %v, got %v", azure.ErrAuthentication, err)
	}

	if diff := cmp.Diff([]string{"Landscapes"}, provider.tables); diff != "" {
		t.Fatalf("table names mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"landscape-exports"}, provider.containers); diff != "" {
		t.Fatalf("container names mismatch (-want +got):\n%s", diff)
	}

	if got := testutil.ToFloat64(failures); got != before+1 {
		t.Fatalf("want %v failed get operations, got %v", before+1, got)
	}
}

func TestFilter(t *testing.T) {
	testCases := []struct {
		desc string
		f    filter
		want string
	}{
		{
			desc: "empty",
			f:    filter{},
			want: "",
		},
		{
			desc: "string",
			f:    filter{}.Eq("PartitionKey", "DEV"),
			want: "PartitionKey eq 'DEV'",
		},
		{
			desc: "quoted string",
			f:    filter{}.Eq("RowKey", "it's"),
			want: "RowKey eq 'it''s'",
		},
		{
			desc: "conjunction",
			f:    filter{}.Eq("PartitionKey", "DEV").EqBool("IsDefault", true),
			want: "PartitionKey eq 'DEV' and IsDefault eq true",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if got := tc.f.String(); got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}

			if tc.f.Empty() != (tc.want == "") {
				t.Fatalf("unexpected Empty() for %q", tc.want)
			}
		})
	}
}
