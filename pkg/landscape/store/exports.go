// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/google/uuid"

	"github.com/gardener/sdaf-landscapes/pkg/landscape/models"
)

// exportContentType is the content type of exported landscapes.
const exportContentType = "application/json"

// objectStore stores exported landscapes.
type objectStore interface {
	Upload(ctx context.Context, name string, data []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
}

// containerObjects is an [objectStore] backed by a blob container.
type containerObjects struct {
	client *container.Client
}

var _ objectStore = &containerObjects{}

// Upload implements the [objectStore] interface.
func (c *containerObjects) Upload(ctx context.Context, name string, data []byte) error {
	_, err := c.client.NewBlockBlobClient(name).UploadBuffer(ctx, data, &blockblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(exportContentType),
		},
	})

	return err
}

// Download implements the [objectStore] interface.
func (c *containerObjects) Download(ctx context.Context, name string) ([]byte, error) {
	resp, err := c.client.NewBlobClient(name).DownloadStream(ctx, &blob.DownloadStreamOptions{})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint: errcheck

	return io.ReadAll(resp.Body)
}

// exportName returns the blob name for a new export of the given landscape.
func exportName(env, id string) (string, error) {
	snapshot, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	return path.Join(env, id, snapshot.String()+".json"), nil
}

// Export uploads the payload of the given landscape to the exports
// container, and returns the name of the created blob.
func (s *Store) Export(ctx context.Context, env, id string) (name string, err error) {
	defer func() { observe("export", err) }()

	if err := validateKey(env, id); err != nil {
		return "", err
	}

	if strings.Contains(env, "/") || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: key must not contain a slash", ErrInvalidKey)
	}

	client, err := s.tables(ctx)
	if err != nil {
		return "", err
	}

	rec, err := s.get(ctx, client, env, id)
	if err != nil {
		return "", err
	}

	objects, err := s.objects(ctx)
	if err != nil {
		return "", err
	}

	name, err = exportName(env, id)
	if err != nil {
		return "", err
	}

	if err := objects.Upload(ctx, name, []byte(rec.Landscape)); err != nil {
		return "", fmt.Errorf("failed to export landscape %s/%s: %w", env, id, err)
	}

	s.logger.Info(
		"exported landscape",
		"environment", env,
		"id", id,
		"blob", name,
	)

	return name, nil
}

// Import downloads an exported landscape and stores it.
func (s *Store) Import(ctx context.Context, name string) (rec models.Record, err error) {
	defer func() { observe("import", err) }()

	if strings.TrimSpace(name) == "" {
		return models.Record{}, fmt.Errorf("%w: no export specified", ErrInvalidKey)
	}

	objects, err := s.objects(ctx)
	if err != nil {
		return models.Record{}, err
	}

	data, err := objects.Download(ctx, name)
	if err != nil {
		if hasStatus(err, http.StatusNotFound) {
			return models.Record{}, fmt.Errorf("%w: export %s", ErrNotFound, name)
		}
		return models.Record{}, fmt.Errorf("failed to download export %s: %w", name, err)
	}

	var l models.Landscape
	if err := models.Unmarshal(data, &l); err != nil {
		return models.Record{}, err
	}

	return s.Put(ctx, &l)
}
