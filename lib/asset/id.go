// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// ID is a 128-bit content-derived asset identifier. It is the only
// lookup key in a [Store]. The value is the little-endian
// interpretation of the first 16 bytes of a BLAKE3 digest: Lo holds
// bytes 0..8, Hi holds bytes 8..16.
type ID struct {
	Hi uint64
	Lo uint64
}

// Derive computes the identifier of a key. The hash input is the
// normalized logical path (see [NormalizePath]) followed by the 8
// little-endian bytes of the settings hash, so keys that differ only
// in settings always hash differently. Derive performs no I/O and
// cannot fail; an empty path hashes to a fixed value.
func Derive(key Key) ID {
	hasher := blake3.New()
	hasher.Write([]byte(NormalizePath(key.LogicalPath)))

	var settings [8]byte
	binary.LittleEndian.PutUint64(settings[:], key.SettingsHash)
	hasher.Write(settings[:])

	digest := hasher.Sum(nil)
	return ID{
		Lo: binary.LittleEndian.Uint64(digest[0:8]),
		Hi: binary.LittleEndian.Uint64(digest[8:16]),
	}
}

// IsZero reports whether the ID is the zero value. Derive never
// returns the zero ID in practice; it marks "no asset" in wire
// structures.
func (id ID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

// String returns the 128-bit value as 32 lowercase hex digits, most
// significant first.
func (id ID) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// MarshalText implements encoding.TextMarshaler so IDs serialize as
// their hex form in JSON, CBOR, and structured logs.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseID parses the 32-hex-digit form produced by [ID.String].
func ParseID(text string) (ID, error) {
	if len(text) != 32 {
		return ID{}, fmt.Errorf("asset id is %d characters, want 32", len(text))
	}
	decoded, err := hex.DecodeString(text)
	if err != nil {
		return ID{}, fmt.Errorf("parsing asset id: %w", err)
	}
	return ID{
		Hi: binary.BigEndian.Uint64(decoded[0:8]),
		Lo: binary.BigEndian.Uint64(decoded[8:16]),
	}, nil
}
