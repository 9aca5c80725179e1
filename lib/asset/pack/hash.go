// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest of an entry's raw bytes.
type Hash [32]byte

// entryDomainKey keys the entry hash so pack hashes never collide with
// BLAKE3 digests computed for other purposes. The bytes are the ASCII
// domain name, zero-padded.
var entryDomainKey = [32]byte{
	'a', 's', 's', 'e', 't', 'p', 'i', 'p', 'e', '.', 'p', 'a', 'c', 'k', '.', 'e',
	'n', 't', 'r', 'y', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// HashEntry computes the entry-domain hash of raw entry bytes.
func HashEntry(data []byte) Hash {
	hasher, err := blake3.NewKeyed(entryDomainKey[:])
	if err != nil {
		// NewKeyed fails only for keys that are not 32 bytes.
		panic("pack: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first 12 hex digits, for listings.
func (h Hash) Short() string {
	return hex.EncodeToString(h[:6])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) != 64 {
		return fmt.Errorf("entry hash is %d characters, want 64", len(text))
	}
	if _, err := hex.Decode(h[:], text); err != nil {
		return fmt.Errorf("parsing entry hash: %w", err)
	}
	return nil
}
