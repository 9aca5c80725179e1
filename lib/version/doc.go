// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the assetpipe
// binaries.
//
// Three variables are injected with -ldflags -X:
//
//   - [GitCommit] -- short git SHA of the build
//   - [GitDirty] -- "true" if there were uncommitted changes
//   - [BuildTime] -- UTC timestamp of the build
//
// They default to "unknown" in development builds and tests. [Version]
// is set by hand for releases.
package version
