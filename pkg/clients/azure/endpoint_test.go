// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"errors"
	"testing"
)

func TestResolveEndpoint(t *testing.T) {
	testCases := []struct {
		desc    string
		rc      ResourceConfig
		conn    string
		want    string
		wantErr error
	}{
		{
			desc: "table endpoint from blob endpoint",
			rc:   TableResource,
			conn: "https://acct.blob.core.windows.net",
			want: "https://acct.table.core.windows.net",
		},
		{
			desc: "table endpoint from private link blob endpoint",
			rc:   TableResource,
			conn: "https://acct.privatelink.blob.core.windows.net",
			want: "https://acct.table.core.windows.net",
		},
		{
			desc: "table endpoint with trailing slash",
			rc:   TableResource,
			conn: "https://acct.blob.core.windows.net/",
			want: "https://acct.table.core.windows.net/",
		},
		{
			desc: "blob endpoint is used as is",
			rc:   BlobResource,
			conn: "https://acct.privatelink.blob.core.windows.net",
			want: "https://acct.privatelink.blob.core.windows.net",
		},
		{
			desc: "surrounding whitespace is trimmed",
			rc:   BlobResource,
			conn: "  http://127.0.0.1:10000/devstoreaccount1 \n",
			want: "http://127.0.0.1:10000/devstoreaccount1",
		},
		{
			desc:    "empty connection string",
			rc:      TableResource,
			conn:    "   ",
			wantErr: ErrConfiguration,
		},
		{
			desc:    "connection string without scheme",
			rc:      BlobResource,
			conn:    "acct.blob.core.windows.net",
			wantErr: ErrConfiguration,
		},
		{
			desc:    "unsupported scheme",
			rc:      BlobResource,
			conn:    "ftp://acct.blob.core.windows.net",
			wantErr: ErrConfiguration,
		},
		{
			desc:    "no host",
			rc:      TableResource,
			conn:    "https://",
			wantErr: ErrConfiguration,
		},
		{
			desc:    "unparsable connection string",
			rc:      TableResource,
			conn:    "https://acct.blob.core.windows.net/%zz",
			wantErr: ErrConfiguration,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := tc.rc.ResolveEndpoint(tc.conn)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want error %v, got %v", tc.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			if got != tc.want {
				t.Fatalf("want endpoint %q, got %q", tc.want, got)
			}
		})
	}
}
