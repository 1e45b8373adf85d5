// SPDX-FileCopyrightText: 2024 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package version

// Version is the version of the landscapes tool. It is set during build via
// -ldflags "-X github.com/gardener/sdaf-landscapes/pkg/version.Version=...".
var Version = "v0.1.0-dev"
