// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// ErrNotMapped is an error, which is returned when the record of an [Entity]
// is requested before the landscape has been mapped.
var ErrNotMapped = errors.New("landscape is not mapped")

// Record is the table row representation of a [Landscape].
type Record struct {
	// RowKey is the ID of the landscape.
	RowKey string

	// PartitionKey is the environment of the landscape.
	PartitionKey string

	// IsDefault specifies whether the landscape is the default one for its
	// partition.
	IsDefault bool

	// Landscape is the landscape rendered as JSON text.
	Landscape string

	// ETag is the concurrency token assigned by the table service on
	// write. It is required for conditional updates.
	ETag azcore.ETag

	// Timestamp is the time of the last modification as reported by the
	// table service.
	Timestamp *time.Time
}

// entity is the wire format of a [Record] in the table service.
type entity struct {
	PartitionKey string     `json:"PartitionKey"`
	RowKey       string     `json:"RowKey"`
	IsDefault    bool       `json:"IsDefault"`
	Landscape    string     `json:"Landscape"`
	Timestamp    *time.Time `json:"Timestamp,omitempty"`
}

// NewRecord maps the given landscape to a [Record], rendering the landscape
// using the given options.
func NewRecord(l *Landscape, opts SerializerOptions) (Record, error) {
	if l == nil {
		return Record{}, fmt.Errorf("%w: no landscape specified", ErrSerialization)
	}

	payload, err := Marshal(l, opts)
	if err != nil {
		return Record{}, err
	}

	rec := Record{
		RowKey:       l.ID,
		PartitionKey: l.Environment,
		IsDefault:    l.IsDefault,
		Landscape:    string(payload),
	}

	return rec, nil
}

// Decode parses the payload of the record back into a [Landscape].
func (r Record) Decode() (*Landscape, error) {
	var l Landscape
	if err := Unmarshal([]byte(r.Landscape), &l); err != nil {
		return nil, err
	}

	return &l, nil
}

// MarshalEntity returns the table entity for the record. Properties assigned
// by the table service are not included.
func (r Record) MarshalEntity() ([]byte, error) {
	e := entity{
		PartitionKey: r.PartitionKey,
		RowKey:       r.RowKey,
		IsDefault:    r.IsDefault,
		Landscape:    r.Landscape,
	}

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	return data, nil
}

// UnmarshalEntity parses a table entity as returned by the table service
// into a [Record] with the given ETag.
func UnmarshalEntity(data []byte, etag azcore.ETag) (Record, error) {
	var e entity
	if err := json.Unmarshal(data, &e); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrSerialization, err)
	}

	rec := Record{
		RowKey:       e.RowKey,
		PartitionKey: e.PartitionKey,
		IsDefault:    e.IsDefault,
		Landscape:    e.Landscape,
		ETag:         etag,
		Timestamp:    e.Timestamp,
	}

	return rec, nil
}

// Entity attaches a [Landscape] and maps it to a [Record] on demand. The zero
// value has no landscape attached.
type Entity struct {
	landscape *Landscape
	record    *Record
}

// NewEntity returns an [Entity] with the given landscape attached, but not
// yet mapped.
func NewEntity(l *Landscape) *Entity {
	return &Entity{landscape: l}
}

// Landscape returns the attached landscape, if any.
func (e *Entity) Landscape() *Landscape {
	return e.landscape
}

// Mapped reports whether the attached landscape has been mapped.
func (e *Entity) Mapped() bool {
	return e.record != nil
}

// Map maps the attached landscape using the given options and keeps the
// resulting record. Mapping again replaces the previous record.
func (e *Entity) Map(opts SerializerOptions) (Record, error) {
	rec, err := NewRecord(e.landscape, opts)
	if err != nil {
		return Record{}, err
	}

	e.record = &rec

	return rec, nil
}

// Record returns the mapped record, or [ErrNotMapped] if [Entity.Map] has not
// been called successfully.
func (e *Entity) Record() (Record, error) {
	if e.record == nil {
		return Record{}, ErrNotMapped
	}

	return *e.record, nil
}
