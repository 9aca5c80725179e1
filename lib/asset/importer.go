// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"reflect"
	"strings"
)

// Priority orders importers that share an extension. Higher wins.
type Priority int32

// Importer converts raw bytes into a value of type T. Implementations
// must be safe for concurrent use: the store calls Import from worker
// goroutines. An importer is registered once, at startup, with
// [Register].
//
// Import returns a new *T that the store then shares read-only with
// every caller of [Get]. Returning (nil, nil) is treated as a decode
// failure.
type Importer[T any] interface {
	// Extensions lists the file extensions handled, without dots.
	// Matching is case-insensitive.
	Extensions() []string

	// Import decodes data, which was read for key.
	Import(data []byte, key Key) (*T, error)
}

// Prioritized is implemented by importers that declare a priority.
// Importers without it have priority 0.
type Prioritized interface {
	Priority() Priority
}

// Named is implemented by importers that declare a stable name for
// diagnostics. Importers without it are named after their Go type.
type Named interface {
	Name() string
}

// NewImporter builds an importer from a function.
func NewImporter[T any](name string, extensions []string, priority Priority, importFunc func(data []byte, key Key) (*T, error)) Importer[T] {
	return &funcImporter[T]{
		name:       name,
		extensions: extensions,
		priority:   priority,
		importFunc: importFunc,
	}
}

type funcImporter[T any] struct {
	name       string
	extensions []string
	priority   Priority
	importFunc func(data []byte, key Key) (*T, error)
}

func (f *funcImporter[T]) Extensions() []string { return f.extensions }
func (f *funcImporter[T]) Priority() Priority   { return f.priority }
func (f *funcImporter[T]) Name() string         { return f.name }

func (f *funcImporter[T]) Import(data []byte, key Key) (*T, error) {
	return f.importFunc(data, key)
}

// erasedImporter is the registry's uniform view of an Importer[T]. It
// records the output type identity next to a closure that runs the
// typed import and boxes the result only after it succeeded.
type erasedImporter struct {
	name       string
	outputType reflect.Type
	typeName   string
	extensions []string
	priority   Priority

	// sequence is the registration order, used as the tie-break
	// between equal priorities.
	sequence int

	importAny func(data []byte, key Key) (payload, error)
}

// payload is a successfully imported value tagged with its type. The
// value is always a non-nil *T whose T equals typ.
type payload struct {
	typ   reflect.Type
	value any
}

func eraseImporter[T any](importer Importer[T], sequence int) (*erasedImporter, error) {
	extensions := make([]string, 0, len(importer.Extensions()))
	seen := make(map[string]bool)
	for _, extension := range importer.Extensions() {
		normalized := normalizeExtension(extension)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		extensions = append(extensions, normalized)
	}
	if len(extensions) == 0 {
		return nil, fmt.Errorf("importer %s declares no extensions", importerName(importer))
	}

	var priority Priority
	if prioritized, ok := importer.(Prioritized); ok {
		priority = prioritized.Priority()
	}

	outputType := reflect.TypeFor[T]()
	name := importerName(importer)

	return &erasedImporter{
		name:       name,
		outputType: outputType,
		typeName:   TypeName[T](),
		extensions: extensions,
		priority:   priority,
		sequence:   sequence,
		importAny: func(data []byte, key Key) (result payload, err error) {
			defer func() {
				if recovered := recover(); recovered != nil {
					err = &Error{
						Kind:    KindDecode,
						Path:    key.LogicalPath,
						Message: fmt.Sprintf("importer %s panicked", name),
						Err:     fmt.Errorf("%v", recovered),
					}
				}
			}()
			value, err := importer.Import(data, key)
			if err != nil {
				return payload{}, decodeError(name, key, err)
			}
			if value == nil {
				return payload{}, &Error{
					Kind:    KindDecode,
					Path:    key.LogicalPath,
					Message: fmt.Sprintf("importer %s returned no value for", name),
				}
			}
			return payload{typ: outputType, value: value}, nil
		},
	}, nil
}

// decodeError tags importer failures as decode errors unless the
// importer already classified them.
func decodeError(name string, key Key, err error) error {
	if KindOf(err) != KindUnknown {
		return err
	}
	return &Error{
		Kind:    KindDecode,
		Path:    key.LogicalPath,
		Message: fmt.Sprintf("importer %s failed on", name),
		Err:     err,
	}
}

func importerName(importer any) string {
	if named, ok := importer.(Named); ok && named.Name() != "" {
		return named.Name()
	}
	t := reflect.TypeOf(importer)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflectTypeName(t)
}

func normalizeExtension(extension string) string {
	return asciiLower(strings.TrimPrefix(strings.TrimSpace(extension), "."))
}
