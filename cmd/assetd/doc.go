// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package main implements assetd, a long-running asset host.
//
// assetd reads its configuration (ASSETPIPE_CONFIG or --config),
// builds a store over the configured asset roots and packs, registers
// the default importers, and runs a frame loop that pumps the store
// every frame interval. An inspection socket lets assetctl query
// request loads, read states and blobs, and read store statistics:
//
//	assetctl query --socket /run/user/1000/assetpipe/assetd.sock load ui/main.xml
//
// Paths listed with --preload are requested at startup.
package main
