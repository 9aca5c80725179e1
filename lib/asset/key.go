// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"path"
	"strings"
)

// Key identifies what to load (a logical path inside the asset tree)
// and how (import settings folded into a 64-bit hash). Keys are plain
// comparable values.
//
// The logical path keeps the caller's spelling so that sources on
// case-sensitive filesystems can find the file. Identity is decided by
// [Derive], which normalizes case and separators.
type Key struct {
	LogicalPath  string
	SettingsHash uint64
}

// NewKey returns a key for logicalPath with the given settings hash.
// Backslash separators are converted to forward slashes.
func NewKey(logicalPath string, settingsHash uint64) Key {
	return Key{
		LogicalPath:  strings.ReplaceAll(logicalPath, `\`, "/"),
		SettingsHash: settingsHash,
	}
}

// ID returns the content-derived identifier for the key.
func (k Key) ID() ID {
	return Derive(k)
}

// Extension returns the lowercase file extension of the logical path
// without the leading dot, or "" when the last path component has
// none.
func (k Key) Extension() string {
	base := path.Base(strings.ReplaceAll(k.LogicalPath, `\`, "/"))
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 || dot == len(base)-1 {
		return ""
	}
	return asciiLower(base[dot+1:])
}

// Validate reports whether the key can be resolved by a source. The
// logical path must be non-empty, relative, and free of ".."
// components. Derive accepts any key; Validate is the gate the store
// applies before reading.
func (k Key) Validate() error {
	logicalPath := strings.ReplaceAll(k.LogicalPath, `\`, "/")
	if strings.TrimSpace(logicalPath) == "" {
		return &Error{Kind: KindInvalidKey, Message: "empty logical path"}
	}
	if strings.HasPrefix(logicalPath, "/") || hasDrivePrefix(logicalPath) {
		return &Error{
			Kind:    KindInvalidKey,
			Path:    k.LogicalPath,
			Message: "logical path must be relative",
		}
	}
	for _, component := range strings.Split(logicalPath, "/") {
		if component == ".." {
			return &Error{
				Kind:    KindInvalidKey,
				Path:    k.LogicalPath,
				Message: "logical path must not contain '..'",
			}
		}
	}
	if NormalizePath(logicalPath) == "" {
		return &Error{
			Kind:    KindInvalidKey,
			Path:    k.LogicalPath,
			Message: "logical path has no components",
		}
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s#%016x", k.LogicalPath, k.SettingsHash)
}

// NormalizePath returns the canonical form of a logical path used for
// identity: components split on '/' or '\', empty and "." components
// dropped, every ASCII byte lowercased, joined with '/'. Non-ASCII
// bytes pass through unchanged so the result is identical on every
// platform regardless of locale or filesystem case rules.
func NormalizePath(logicalPath string) string {
	var builder strings.Builder
	builder.Grow(len(logicalPath))
	first := true
	for _, component := range strings.FieldsFunc(logicalPath, isSeparator) {
		if component == "." {
			continue
		}
		if !first {
			builder.WriteByte('/')
		}
		first = false
		builder.WriteString(asciiLower(component))
	}
	return builder.String()
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

func asciiLower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			lowered := []byte(s)
			for j := i; j < len(lowered); j++ {
				if c := lowered[j]; c >= 'A' && c <= 'Z' {
					lowered[j] = c + ('a' - 'A')
				}
			}
			return string(lowered)
		}
	}
	return s
}

// hasDrivePrefix detects Windows-style "C:" prefixes, which would make
// a logical path absolute on that platform.
func hasDrivePrefix(logicalPath string) bool {
	if len(logicalPath) < 2 || logicalPath[1] != ':' {
		return false
	}
	c := logicalPath[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
