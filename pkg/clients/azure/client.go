// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package azure

// Handle is a wrapper for an Azure storage client scoped to a single table or
// blob container, which comes with additional metadata such as the endpoint
// the client talks to.
type Handle[T any] struct {
	// Kind is the kind of storage resource the client is scoped to.
	Kind Kind

	// Name is the name of the table or blob container.
	Name string

	// Endpoint is the service endpoint, which was used to create the
	// client.
	Endpoint string

	// Client is the client used to make API calls to the storage service.
	Client T
}
