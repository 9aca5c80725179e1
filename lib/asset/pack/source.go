// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"

	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/codec"
)

// Source serves assets from a pack. It implements asset.Source and
// asset.Locator and is safe for concurrent use: reads go through
// io.ReaderAt.
type Source struct {
	name       string
	reader     io.ReaderAt
	closer     io.Closer
	dataOffset int64
	entries    []Entry
	byPath     map[string]int
}

// Open opens the pack file at path.
func Open(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pack: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening pack: %w", err)
	}
	source, err := NewSource(path, file, info.Size())
	if err != nil {
		file.Close()
		return nil, err
	}
	source.closer = file
	return source, nil
}

// NewSource reads the pack header and index from reader, which holds
// size bytes. name identifies the pack in located paths.
func NewSource(name string, reader io.ReaderAt, size int64) (*Source, error) {
	var header [headerSize]byte
	if _, err := reader.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("reading pack header of %s: %w", name, err)
	}
	if [8]byte(header[:8]) != magic {
		if string(header[:7]) == string(magic[:7]) {
			return nil, fmt.Errorf("%s: pack format version %d is not supported (this build reads version %d)",
				name, header[7], formatVersion)
		}
		return nil, fmt.Errorf("%s: not an asset pack (invalid magic bytes)", name)
	}

	indexSize := int64(binary.LittleEndian.Uint32(header[8:]))
	if indexSize > maxIndexSize || headerSize+indexSize > size {
		return nil, fmt.Errorf("%s: index length %d does not fit in a %d-byte pack", name, indexSize, size)
	}
	encodedIndex := make([]byte, indexSize)
	if _, err := reader.ReadAt(encodedIndex, headerSize); err != nil {
		return nil, fmt.Errorf("reading pack index of %s: %w", name, err)
	}
	var decoded index
	if err := codec.Unmarshal(encodedIndex, &decoded); err != nil {
		return nil, fmt.Errorf("decoding pack index of %s: %w", name, err)
	}

	source := &Source{
		name:       name,
		reader:     reader,
		dataOffset: headerSize + indexSize,
		entries:    decoded.Entries,
		byPath:     make(map[string]int, len(decoded.Entries)),
	}
	dataSize := uint64(size - source.dataOffset)
	for i, entry := range decoded.Entries {
		if entry.Offset > dataSize || entry.StoredSize > dataSize-entry.Offset {
			return nil, fmt.Errorf("%s: entry %q extends past the end of the pack", name, entry.Path)
		}
		if err := entry.checkSize(); err != nil {
			return nil, fmt.Errorf("%s: entry %q: %w", name, entry.Path, err)
		}
		if _, duplicate := source.byPath[entry.Path]; duplicate {
			return nil, fmt.Errorf("%s: duplicate entry %q", name, entry.Path)
		}
		source.byPath[entry.Path] = i
	}
	return source, nil
}

// Name returns the name the pack was opened with.
func (s *Source) Name() string {
	return s.name
}

// Entries returns the pack index in path order.
func (s *Source) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Locate returns "<pack>!<normalized path>".
func (s *Source) Locate(logicalPath string) string {
	return s.name + "!" + asset.NormalizePath(logicalPath)
}

func (s *Source) Exists(logicalPath string) bool {
	_, ok := s.byPath[asset.NormalizePath(logicalPath)]
	return ok
}

// Read returns the raw bytes of logicalPath after decompressing them
// and verifying their hash.
func (s *Source) Read(logicalPath string) ([]byte, error) {
	position, ok := s.byPath[asset.NormalizePath(logicalPath)]
	if !ok {
		return nil, &asset.Error{
			Kind:    asset.KindSource,
			Path:    s.Locate(logicalPath),
			Message: "failed to read",
			Err:     fs.ErrNotExist,
		}
	}
	entry := s.entries[position]

	data, err := s.readEntry(entry)
	if err != nil {
		return nil, &asset.Error{
			Kind:    asset.KindSource,
			Path:    s.Locate(logicalPath),
			Message: "corrupt pack entry",
			Err:     err,
		}
	}
	return data, nil
}

// ErrHashMismatch reports that an entry's bytes do not match the hash
// recorded in the index.
var ErrHashMismatch = errors.New("entry hash mismatch")

func (s *Source) readEntry(entry Entry) ([]byte, error) {
	stored := make([]byte, entry.StoredSize)
	if len(stored) > 0 {
		if _, err := s.reader.ReadAt(stored, s.dataOffset+int64(entry.Offset)); err != nil {
			return nil, fmt.Errorf("reading %d bytes at offset %d: %w", entry.StoredSize, entry.Offset, err)
		}
	}
	data, err := decompress(stored, entry.Compression, int(entry.Size))
	if err != nil {
		return nil, err
	}
	if actual := HashEntry(data); actual != entry.Hash {
		return nil, fmt.Errorf("%w: index has %s, data hashes to %s", ErrHashMismatch, entry.Hash.Short(), actual.Short())
	}
	return data, nil
}

// Verify reads every entry and returns the first integrity error.
func (s *Source) Verify() error {
	for _, entry := range s.entries {
		if _, err := s.readEntry(entry); err != nil {
			return fmt.Errorf("%s: entry %q: %w", s.name, entry.Path, err)
		}
	}
	return nil
}

// Close releases the underlying file when the source was created with
// Open.
func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
