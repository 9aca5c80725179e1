// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for assetpipe packages.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests never hang on a channel. [Eventually] polls a
// condition with a wall-clock limit, for waiting on background import
// work that tests cannot observe through a channel.
//
// [WriteTree] materializes an asset tree under t.TempDir(), and
// [SocketDir] creates a short directory in /tmp for Unix sockets,
// whose paths are limited to 108 bytes.
//
// All helpers call t.Fatalf on failure.
package testutil
