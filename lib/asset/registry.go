// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

// Registry maps file extensions to importers. Registration normally
// happens once at startup, but the registry is safe for concurrent use:
// stores select importers under a read lock.
type Registry struct {
	mu          sync.RWMutex
	byExtension map[string][]*erasedImporter
	sequence    int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExtension: make(map[string][]*erasedImporter)}
}

// Register adds importer to registry for each of its extensions. It
// fails when importer is nil or declares no usable extension.
func Register[T any](registry *Registry, importer Importer[T]) error {
	if importer == nil {
		return fmt.Errorf("registering %s importer: importer is nil", TypeName[T]())
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	erased, err := eraseImporter(importer, registry.sequence)
	if err != nil {
		return fmt.Errorf("registering %s importer: %w", TypeName[T](), err)
	}
	registry.sequence++

	for _, extension := range erased.extensions {
		candidates := append(registry.byExtension[extension], erased)
		slices.SortStableFunc(candidates, compareCandidates)
		registry.byExtension[extension] = candidates
	}
	return nil
}

// MustRegister is Register for startup code where a registration
// failure is a programming error.
func MustRegister[T any](registry *Registry, importer Importer[T]) {
	if err := Register(registry, importer); err != nil {
		panic(err)
	}
}

// compareCandidates orders by priority descending, then registration
// order ascending.
func compareCandidates(a, b *erasedImporter) int {
	if a.priority != b.priority {
		if a.priority > b.priority {
			return -1
		}
		return 1
	}
	return a.sequence - b.sequence
}

// selectImporter returns the best importer for extension. When want is
// non-nil only importers producing that type are considered.
func (r *Registry) selectImporter(extension string, want reflect.Type) (*erasedImporter, error) {
	extension = normalizeExtension(extension)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, candidate := range r.byExtension[extension] {
		if want == nil || candidate.outputType == want {
			return candidate, nil
		}
	}

	var message string
	switch {
	case extension == "":
		message = "no importer handles paths without an extension, such as"
	case want != nil:
		message = fmt.Sprintf("no importer for extension %q produces %s, needed for", extension, reflectTypeName(want))
	default:
		message = fmt.Sprintf("no importer for extension %q handles", extension)
	}
	return nil, &Error{Kind: KindNoImporter, Message: message}
}

// Binding describes one extension-to-importer association.
type Binding struct {
	Extension string   `json:"extension"`
	Importer  string   `json:"importer"`
	TypeName  string   `json:"type_name"`
	Priority  Priority `json:"priority"`
}

func (b Binding) String() string {
	return fmt.Sprintf(".%s -> %s (%s, priority %d)", b.Extension, b.Importer, b.TypeName, b.Priority)
}

// Bindings returns every registered binding ordered by extension, then
// in selection order within an extension.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.byExtension))
	for extension := range r.byExtension {
		extensions = append(extensions, extension)
	}
	slices.Sort(extensions)

	var bindings []Binding
	for _, extension := range extensions {
		for _, candidate := range r.byExtension[extension] {
			bindings = append(bindings, Binding{
				Extension: extension,
				Importer:  candidate.name,
				TypeName:  candidate.typeName,
				Priority:  candidate.priority,
			})
		}
	}
	return bindings
}

// Extensions returns the sorted set of extensions with at least one
// importer.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.byExtension))
	for extension := range r.byExtension {
		extensions = append(extensions, extension)
	}
	slices.Sort(extensions)
	return extensions
}

// Handles reports whether some importer accepts the extension of
// logicalPath.
func (r *Registry) Handles(logicalPath string) bool {
	extension := NewKey(logicalPath, 0).Extension()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byExtension[strings.TrimSpace(extension)]) > 0
}
