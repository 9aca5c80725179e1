// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package pack reads and writes asset packs: single-file archives that
// hold many assets, each compressed independently, addressed by
// normalized logical path.
//
// Layout:
//
//	[8]  magic "ASSETPK" + format version byte
//	[4]  index length, little-endian uint32
//	[n]  CBOR index (lib/codec deterministic encoding)
//	[..] entry data, in index order
//
// Every entry records its compression (none, LZ4 block, or zstd), its
// stored and raw sizes, and a BLAKE3 keyed hash of the raw bytes. Reads
// verify the hash, so a corrupt pack fails the individual asset with a
// source error instead of producing wrong data.
//
// A [Source] implements asset.Source, so a pack can be layered with
// directory sources in a store: put a mod directory first and the
// shipped pack after it.
package pack
