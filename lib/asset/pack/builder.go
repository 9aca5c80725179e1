// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/codec"
)

// Builder accumulates entries in memory and writes them as a pack.
// Entries are written sorted by path, so the same inputs always
// produce the same bytes.
type Builder struct {
	entries map[string]pendingEntry
}

type pendingEntry struct {
	stored      []byte
	size        int
	compression Compression
	hash        Hash
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[string]pendingEntry)}
}

// Add compresses data with compression and stores it under the
// normalized form of logicalPath. CompressionAuto selects per entry.
// When compression would not shrink the data the entry is stored raw.
// Adding a path twice is an error.
func (b *Builder) Add(logicalPath string, data []byte, compression Compression) error {
	if err := asset.NewKey(logicalPath, 0).Validate(); err != nil {
		return fmt.Errorf("adding %q: %w", logicalPath, err)
	}
	if len(data) > maxEntrySize {
		return fmt.Errorf("adding %q: %d bytes exceeds the %d-byte entry limit", logicalPath, len(data), maxEntrySize)
	}
	normalized := asset.NormalizePath(logicalPath)
	if _, exists := b.entries[normalized]; exists {
		return fmt.Errorf("adding %q: pack already has an entry for %q", logicalPath, normalized)
	}

	if compression == CompressionAuto {
		compression = SelectCompression(normalized, data)
	}
	stored, used, err := compress(data, compression)
	if err != nil {
		return fmt.Errorf("adding %q: %w", logicalPath, err)
	}

	b.entries[normalized] = pendingEntry{
		stored:      stored,
		size:        len(data),
		compression: used,
		hash:        HashEntry(data),
	}
	return nil
}

// AddAuto is Add with CompressionAuto.
func (b *Builder) AddAuto(logicalPath string, data []byte) error {
	return b.Add(logicalPath, data, CompressionAuto)
}

// Len returns the number of entries added.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Entries returns the index the builder would write.
func (b *Builder) Entries() []Entry {
	paths := make([]string, 0, len(b.entries))
	for path := range b.entries {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	entries := make([]Entry, 0, len(paths))
	var offset uint64
	for _, path := range paths {
		pending := b.entries[path]
		entries = append(entries, Entry{
			Path:        path,
			Offset:      offset,
			StoredSize:  uint64(len(pending.stored)),
			Size:        uint64(pending.size),
			Compression: pending.compression,
			Hash:        pending.hash,
		})
		offset += uint64(len(pending.stored))
	}
	return entries
}

// WriteTo writes the pack to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	entries := b.Entries()
	encodedIndex, err := codec.Marshal(index{Entries: entries})
	if err != nil {
		return 0, fmt.Errorf("encoding pack index: %w", err)
	}
	if len(encodedIndex) > maxIndexSize {
		return 0, fmt.Errorf("pack index is %d bytes, limit is %d", len(encodedIndex), maxIndexSize)
	}

	var header [headerSize]byte
	copy(header[:8], magic[:])
	binary.LittleEndian.PutUint32(header[8:], uint32(len(encodedIndex)))

	var written int64
	write := func(data []byte, what string) error {
		n, err := w.Write(data)
		written += int64(n)
		if err != nil {
			return fmt.Errorf("writing %s: %w", what, err)
		}
		return nil
	}

	if err := write(header[:], "pack header"); err != nil {
		return written, err
	}
	if err := write(encodedIndex, "pack index"); err != nil {
		return written, err
	}
	for _, entry := range entries {
		if err := write(b.entries[entry.Path].stored, "entry "+entry.Path); err != nil {
			return written, err
		}
	}
	return written, nil
}

// WriteFile writes the pack to path, replacing it atomically.
func (b *Builder) WriteFile(path string) error {
	temporary, err := os.CreateTemp(filepath.Dir(path), ".pack-*")
	if err != nil {
		return fmt.Errorf("creating temporary pack file: %w", err)
	}
	defer os.Remove(temporary.Name())

	if _, err := b.WriteTo(temporary); err != nil {
		temporary.Close()
		return err
	}
	if err := temporary.Close(); err != nil {
		return fmt.Errorf("closing temporary pack file: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		return fmt.Errorf("renaming pack into place: %w", err)
	}
	return nil
}

// BuildDirectory adds every regular file under root to a new builder,
// using the slash-separated path relative to root as the logical path.
// Hidden files and directories (leading ".") are skipped.
func BuildDirectory(root string, compression Compression) (*Builder, error) {
	builder := NewBuilder()
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		relative, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		return builder.Add(filepath.ToSlash(relative), data, compression)
	})
	if err != nil {
		return nil, fmt.Errorf("building pack from %s: %w", root, err)
	}
	return builder, nil
}
