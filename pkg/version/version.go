// SPDX-FileCopyrightText: 2020 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package version holds the build-time version string, overridden via
// -ldflags at release build time.
package version

// Version is the nimbusc build version. It defaults to "dev" for local,
// non-release builds.
var Version = "dev"
