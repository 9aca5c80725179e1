// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a recoverable asset failure. The kind travels
// with the Failed state so callers can branch without parsing
// messages.
type ErrorKind uint8

const (
	// KindUnknown is reported for errors that did not originate in
	// this package (for example a plain error returned by an importer
	// and later wrapped).
	KindUnknown ErrorKind = iota

	// KindSource means the bytes could not be retrieved: the path is
	// missing from every source, unreadable, or a packed entry is
	// corrupt.
	KindSource

	// KindNoSource means the store has no sources configured.
	KindNoSource

	// KindNoImporter means no registered importer handles the key's
	// extension (for the requested output type, if any).
	KindNoImporter

	// KindDecode means the importer rejected the bytes.
	KindDecode

	// KindInvalidKey means the logical path cannot be resolved (empty,
	// absolute, or containing "..").
	KindInvalidKey
)

// String returns the kind name used in logs and wire messages.
func (kind ErrorKind) String() string {
	switch kind {
	case KindSource:
		return "source"
	case KindNoSource:
		return "no_source"
	case KindNoImporter:
		return "no_importer"
	case KindDecode:
		return "decode"
	case KindInvalidKey:
		return "invalid_key"
	default:
		return "unknown"
	}
}

// Error is the failure type of the import pipeline. Error() renders
// one diagnostic line that includes the path involved (the resolved
// filesystem path for source errors) and the underlying cause. That
// line becomes [State].Message and the Failed event's error text.
type Error struct {
	Kind ErrorKind

	// Path is the logical or resolved path the failure concerns.
	// Empty when no path is involved.
	Path string

	// Message describes the failure without the cause.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	message := e.Message
	if message == "" {
		message = e.Kind.String() + " error"
	}
	if e.Path != "" {
		message = fmt.Sprintf("%s '%s'", message, e.Path)
	}
	if e.Err != nil {
		message = fmt.Sprintf("%s: %v", message, e.Err)
	}
	return message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindUnknown.
func KindOf(err error) ErrorKind {
	var assetError *Error
	if errors.As(err, &assetError) {
		return assetError.Kind
	}
	return KindUnknown
}

// asError converts any error into an *Error, tagging foreign errors
// with fallback.
func asError(err error, fallback ErrorKind) *Error {
	var assetError *Error
	if errors.As(err, &assetError) {
		return assetError
	}
	return &Error{Kind: fallback, Err: err}
}
