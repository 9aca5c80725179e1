// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import "fmt"

// formatVersion is the current pack layout. Readers reject other
// versions.
const formatVersion = 1

// magic is the 8-byte file signature: "ASSETPK" plus the version.
var magic = [8]byte{'A', 'S', 'S', 'E', 'T', 'P', 'K', formatVersion}

const (
	headerSize = 12

	// maxIndexSize bounds the index length read from a header, so a
	// corrupt length cannot trigger a huge allocation.
	maxIndexSize = 64 << 20

	// maxEntrySize bounds the raw size of one entry. Readers reject
	// larger sizes before allocating for them.
	maxEntrySize = 1 << 30

	// lz4MaxExpansion is the most raw bytes one LZ4 block byte can
	// decode to: a run-length byte extends a match by 255.
	lz4MaxExpansion = 255
)

// Extension is the conventional file extension for packs.
const Extension = ".apk"

// Entry describes one asset stored in a pack.
type Entry struct {
	// Path is the normalized logical path (asset.NormalizePath).
	Path string `cbor:"path"`

	// Offset is the position of the stored bytes relative to the
	// start of the data section.
	Offset uint64 `cbor:"offset"`

	// StoredSize is the length of the stored (possibly compressed)
	// bytes; Size is the length of the raw bytes.
	StoredSize uint64 `cbor:"stored_size"`
	Size       uint64 `cbor:"size"`

	Compression Compression `cbor:"compression"`

	// Hash is HashEntry of the raw bytes.
	Hash Hash `cbor:"hash"`
}

// index is the CBOR document following the header.
type index struct {
	Entries []Entry `cbor:"entries"`
}

// checkSize rejects an entry whose raw size cannot follow from its
// stored size and compression.
func (e Entry) checkSize() error {
	if e.Size > maxEntrySize {
		return fmt.Errorf("raw size %d exceeds the %d-byte entry limit", e.Size, maxEntrySize)
	}
	switch e.Compression {
	case CompressionNone:
		if e.Size != e.StoredSize {
			return fmt.Errorf("uncompressed entry stores %d bytes but records raw size %d", e.StoredSize, e.Size)
		}
	case CompressionLZ4:
		if e.Size > e.StoredSize*lz4MaxExpansion {
			return fmt.Errorf("lz4 entry of %d bytes cannot decode to %d bytes", e.StoredSize, e.Size)
		}
	case CompressionZstd:
	default:
		return fmt.Errorf("unsupported compression %s", e.Compression)
	}
	return nil
}
