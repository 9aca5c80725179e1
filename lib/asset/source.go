// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Source provides raw bytes for logical paths. Implementations must be
// safe for concurrent use: the store reads from worker goroutines.
// Read may block.
type Source interface {
	// Exists reports whether Read would find logicalPath.
	Exists(logicalPath string) bool

	// Read returns the full contents of logicalPath. Errors should be
	// *Error values with KindSource and the resolved location in Path.
	Read(logicalPath string) ([]byte, error)
}

// Locator is implemented by sources that can describe where a logical
// path resolves to (a filesystem path, an archive member). The store
// uses it for "not found" diagnostics.
type Locator interface {
	Locate(logicalPath string) string
}

// FileSystemSource reads assets from a directory tree.
type FileSystemSource struct {
	root string
}

// NewFileSystemSource returns a source rooted at root.
func NewFileSystemSource(root string) *FileSystemSource {
	return &FileSystemSource{root: filepath.Clean(root)}
}

// Root returns the directory the source reads from.
func (s *FileSystemSource) Root() string {
	return s.root
}

// Locate returns the filesystem path logicalPath resolves to.
func (s *FileSystemSource) Locate(logicalPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(strings.ReplaceAll(logicalPath, `\`, "/")))
}

func (s *FileSystemSource) Exists(logicalPath string) bool {
	resolved, err := s.resolve(logicalPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(resolved)
	return err == nil && info.Mode().IsRegular()
}

func (s *FileSystemSource) Read(logicalPath string) ([]byte, error) {
	resolved, err := s.resolve(logicalPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, &Error{
			Kind:    KindSource,
			Path:    resolved,
			Message: "failed to read",
			Err:     err,
		}
	}
	return data, nil
}

func (s *FileSystemSource) resolve(logicalPath string) (string, error) {
	if err := NewKey(logicalPath, 0).Validate(); err != nil {
		return "", err
	}
	resolved := s.Locate(logicalPath)
	relative, err := filepath.Rel(s.root, resolved)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return "", &Error{
			Kind:    KindInvalidKey,
			Path:    logicalPath,
			Message: fmt.Sprintf("logical path escapes source root %s", s.root),
		}
	}
	return resolved, nil
}

// MemorySource serves assets from memory. Paths are matched by their
// normalized form, so "Textures\\A.PNG" finds "textures/a.png".
type MemorySource struct {
	name  string
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemorySource returns an empty in-memory source. The name appears
// in located paths ("<name>:<path>").
func NewMemorySource(name string) *MemorySource {
	return &MemorySource{name: name, files: make(map[string][]byte)}
}

// Put stores data under logicalPath, replacing any previous entry.
// The source keeps data; callers must not modify it afterwards.
func (s *MemorySource) Put(logicalPath string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[NormalizePath(logicalPath)] = data
}

// Remove deletes logicalPath.
func (s *MemorySource) Remove(logicalPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, NormalizePath(logicalPath))
}

// Paths returns the normalized paths held, sorted.
func (s *MemorySource) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.files))
	for logicalPath := range s.files {
		paths = append(paths, logicalPath)
	}
	slices.Sort(paths)
	return paths
}

func (s *MemorySource) Locate(logicalPath string) string {
	return s.name + ":" + NormalizePath(logicalPath)
}

func (s *MemorySource) Exists(logicalPath string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[NormalizePath(logicalPath)]
	return ok
}

func (s *MemorySource) Read(logicalPath string) ([]byte, error) {
	s.mu.RLock()
	data, ok := s.files[NormalizePath(logicalPath)]
	s.mu.RUnlock()
	if !ok {
		return nil, &Error{
			Kind:    KindSource,
			Path:    s.Locate(logicalPath),
			Message: "failed to read",
			Err:     fs.ErrNotExist,
		}
	}
	return slices.Clone(data), nil
}

// readLayered reads logicalPath from the first source that has it.
// Sources earlier in the list override later ones.
func readLayered(sources []Source, logicalPath string) ([]byte, error) {
	if len(sources) == 0 {
		return nil, &Error{
			Kind:    KindNoSource,
			Path:    logicalPath,
			Message: "no asset source configured for",
		}
	}

	for _, source := range sources {
		if source.Exists(logicalPath) {
			data, err := source.Read(logicalPath)
			if err != nil {
				return nil, asError(err, KindSource)
			}
			return data, nil
		}
	}

	// Sources without a Locator cannot say where they looked; the last
	// source's own read error then stands in for the diagnostic.
	locations := make([]string, 0, len(sources))
	for _, source := range sources {
		if locator, ok := source.(Locator); ok {
			locations = append(locations, locator.Locate(logicalPath))
		}
	}
	if len(locations) == 0 {
		_, err := sources[len(sources)-1].Read(logicalPath)
		if err == nil {
			err = fs.ErrNotExist
		}
		notFound := *asError(err, KindSource)
		if notFound.Kind == KindUnknown {
			notFound.Kind = KindSource
		}
		return nil, &notFound
	}
	return nil, &Error{
		Kind:    KindSource,
		Path:    strings.Join(locations, "', '"),
		Message: "asset not found at",
		Err:     fs.ErrNotExist,
	}
}
