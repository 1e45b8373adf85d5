// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
)

// filter is a conjunction of OData equality comparisons.
type filter []string

// Eq returns a new filter, which additionally requires the property to
// equal the given string.
func (f filter) Eq(property, value string) filter {
	return append(f[:len(f):len(f)], fmt.Sprintf("%s eq %s", property, quote(value)))
}

// EqBool returns a new filter, which additionally requires the property to
// equal the given boolean.
func (f filter) EqBool(property string, value bool) filter {
	return append(f[:len(f):len(f)], fmt.Sprintf("%s eq %s", property, strconv.FormatBool(value)))
}

// Empty returns true, if the filter matches everything.
func (f filter) Empty() bool {
	return len(f) == 0
}

// String returns the filter expression.
func (f filter) String() string {
	return strings.Join(f, " and ")
}

// quote returns v as an OData string literal.
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

// entityETag returns the ETag carried in the metadata of a listed entity.
func entityETag(data []byte) (azcore.ETag, error) {
	var meta struct {
		ETag string `json:"odata.etag"`
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrSerialization, err)
	}

	return azcore.ETag(meta.ETag), nil
}
