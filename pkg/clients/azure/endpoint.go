// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind represents the kind of a storage resource.
type Kind string

const (
	// KindTable represents a table in the table service.
	KindTable Kind = "table"

	// KindBlob represents a container in the blob service.
	KindBlob Kind = "blob"
)

// RewriteRule replaces every occurrence of Old with New.
type RewriteRule struct {
	Old string
	New string
}

// ResourceConfig parameterizes how the endpoint of a storage resource kind is
// derived from the configured connection string.
type ResourceConfig struct {
	// Kind is the kind of the storage resource.
	Kind Kind

	// Rewrites are applied in order to the connection string.
	Rewrites []RewriteRule
}

// TableResource adapts a blob endpoint, possibly a private link one, to the
// table endpoint of the same storage account.
var TableResource = ResourceConfig{
	Kind: KindTable,
	Rewrites: []RewriteRule{
		{Old: "blob", New: "table"},
		{Old: ".privatelink", New: ""},
	},
}

// BlobResource uses the connection string as it is.
var BlobResource = ResourceConfig{
	Kind: KindBlob,
}

// ResolveEndpoint applies the rewrite rules to the given connection string
// and validates that the result is an absolute HTTP(S) URL.
func (rc ResourceConfig) ResolveEndpoint(conn string) (string, error) {
	endpoint := strings.TrimSpace(conn)
	if endpoint == "" {
		return "", fmt.Errorf("%w: empty connection string", ErrConfiguration)
	}

	for _, rule := range rc.Rewrites {
		endpoint = strings.ReplaceAll(endpoint, rule.Old, rule.New)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: malformed connection string: %w", ErrConfiguration, err)
	}

	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("%w: unsupported scheme %q in connection string", ErrConfiguration, u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: no host in connection string", ErrConfiguration)
	}

	return endpoint, nil
}
