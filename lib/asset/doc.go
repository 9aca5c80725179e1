// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package asset implements the content-addressed asset import pipeline:
// a logical request (path plus import settings) becomes a stable
// 128-bit identifier, a background job reads the bytes and runs the
// best matching importer, and a frame-driven caller observes completion
// by pumping the store with a bounded budget.
//
// The package is organized in layers:
//
//   - Addressing: [Key] names what to load and how. [Derive] maps a key
//     to an [ID] by hashing the normalized path and the settings hash
//     with BLAKE3. IDs never depend on memory addresses or request
//     order, so the same key yields the same ID in every process.
//
//   - Importers: [Importer] converts bytes into a typed value. The
//     [Registry] stores importers behind a type-erased wrapper that
//     records the output type, and selects among importers sharing an
//     extension by descending [Priority], then registration order.
//
//   - Sources: [Source] retrieves raw bytes for a logical path.
//     [FileSystemSource] reads below a root directory; the pack
//     subpackage reads from a packed archive. A store consults its
//     sources in order and reads from the first one that has the path.
//
//   - Store: [Store] owns the per-ID state table. [Store.Load] creates
//     a Loading row and dispatches exactly one job per ID; concurrent
//     and repeated requests for the same key coalesce onto that row.
//     Workers never touch the table: they append completions to a
//     queue that only [Store.Pump] drains, so the state a frame sees
//     cannot change mid-frame and per-frame cost is bounded by the
//     [Budget].
//
// Typical frame loop:
//
//	registry := asset.NewRegistry()
//	asset.Register[importers.Text](registry, importers.TextImporter{})
//	store := asset.NewStore(registry, asset.StoreConfig{
//	    Sources: []asset.Source{asset.NewFileSystemSource("assets")},
//	})
//	defer store.Close()
//
//	handle := asset.LoadAs[importers.Text](store, asset.NewKey("ui/title.txt", 0))
//	for frame := range frames {
//	    store.Pump(asset.Steps(8))
//	    if text, ok := asset.Get(store, handle); ok {
//	        draw(frame, text.Content)
//	    }
//	}
//
// Failures (missing file, no importer, malformed bytes) surface as a
// Failed state carrying an [Error] message and kind, plus a Failed
// [Event]. Retrieval with the wrong type returns false. Only violations
// of the store's own invariants panic.
package asset
