// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"
)

// provisioner creates clients scoped to a single storage resource, and makes
// sure that the resource exists.
type provisioner[T any] interface {
	// Scoped returns a client scoped to the named resource.
	Scoped(name string) T

	// Ensure creates the named resource, unless it exists already.
	Ensure(ctx context.Context, name string) error
}

// serviceFactory creates a [provisioner] for the given endpoint.
type serviceFactory[T any] func(endpoint string, creds azcore.TokenCredential, opts azcore.ClientOptions) (provisioner[T], error)

// tableService is the subset of [aztables.ServiceClient] used for tables.
type tableService interface {
	NewClient(tableName string) *aztables.Client
	CreateTable(ctx context.Context, name string, options *aztables.CreateTableOptions) (aztables.CreateTableResponse, error)
}

// containerService is the subset of [service.Client] used for blob
// containers.
type containerService interface {
	NewContainerClient(containerName string) *container.Client
	CreateContainer(ctx context.Context, containerName string, options *service.CreateContainerOptions) (service.CreateContainerResponse, error)
}

// tableProvisioner provisions tables.
type tableProvisioner struct {
	svc tableService
}

var _ provisioner[*aztables.Client] = &tableProvisioner{}

// newTableProvisioner is a [serviceFactory] for tables.
func newTableProvisioner(endpoint string, creds azcore.TokenCredential, opts azcore.ClientOptions) (provisioner[*aztables.Client], error) {
	client, err := aztables.NewServiceClient(endpoint, creds, &aztables.ClientOptions{ClientOptions: opts})
	if err != nil {
		return nil, err
	}

	return &tableProvisioner{svc: client}, nil
}

// Scoped implements the [provisioner] interface.
func (p *tableProvisioner) Scoped(name string) *aztables.Client {
	return p.svc.NewClient(name)
}

// Ensure implements the [provisioner] interface.
func (p *tableProvisioner) Ensure(ctx context.Context, name string) error {
	_, err := p.svc.CreateTable(ctx, name, &aztables.CreateTableOptions{})
	if err != nil && !isTableAlreadyExists(err) {
		return err
	}

	return nil
}

// containerProvisioner provisions blob containers.
type containerProvisioner struct {
	svc containerService
}

var _ provisioner[*container.Client] = &containerProvisioner{}

// newContainerProvisioner is a [serviceFactory] for blob containers.
func newContainerProvisioner(endpoint string, creds azcore.TokenCredential, opts azcore.ClientOptions) (provisioner[*container.Client], error) {
	client, err := azblob.NewClient(endpoint, creds, &azblob.ClientOptions{ClientOptions: opts})
	if err != nil {
		return nil, err
	}

	return &containerProvisioner{svc: client.ServiceClient()}, nil
}

// Scoped implements the [provisioner] interface.
func (p *containerProvisioner) Scoped(name string) *container.Client {
	return p.svc.NewContainerClient(name)
}

// Ensure implements the [provisioner] interface.
func (p *containerProvisioner) Ensure(ctx context.Context, name string) error {
	_, err := p.svc.CreateContainer(ctx, name, &service.CreateContainerOptions{})
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return err
	}

	return nil
}

// isTableAlreadyExists returns true, if err reports a table, which exists
// already.
func isTableAlreadyExists(err error) bool {
	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return false
	}

	return respErr.StatusCode == http.StatusConflict && respErr.ErrorCode == string(aztables.TableAlreadyExists)
}
