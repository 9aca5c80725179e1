// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Assetctl inspects and prepares assets from the command line.
//
// Local commands (id, load, cat, bindings) run an asset store in
// process over --root directories and --pack files. The pack commands
// build and inspect pack files. The query command talks to a running
// assetd over its socket.
//
//	assetctl id ui/main.xml
//	assetctl load --root assets ui/main.xml config/game.json
//	assetctl pack build assets base.apk --compression zstd
//	assetctl query stats
package main
