// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"reflect"
	"strings"
)

// Handle is a typed reference to an asset ID. It owns nothing: it is
// a capability to ask a store for a *T once the asset is Ready. Any
// number of handles may alias the same ID, including handles of
// different types (retrieval with the wrong type simply returns
// false).
type Handle[T any] struct {
	id ID
}

// HandleFor wraps an existing ID in a typed handle.
func HandleFor[T any](id ID) Handle[T] {
	return Handle[T]{id: id}
}

// ID returns the identifier the handle refers to.
func (h Handle[T]) ID() ID {
	return h.id
}

// String returns "<type>:<id>".
func (h Handle[T]) String() string {
	return TypeName[T]() + ":" + h.id.String()
}

// TypeNamer lets an asset type choose the name reported in events and
// importer bindings. Implement it on the pointer receiver:
//
//	func (*Texture) AssetTypeName() string { return "texture" }
type TypeNamer interface {
	AssetTypeName() string
}

// TypeName returns the asset type name of T: the AssetTypeName of *T
// if it implements [TypeNamer], otherwise the Go type name qualified by
// its package's last path element (e.g. "importers.Text").
func TypeName[T any]() string {
	if namer, ok := any((*T)(nil)).(TypeNamer); ok {
		return namer.AssetTypeName()
	}
	return reflectTypeName(reflect.TypeFor[T]())
}

func reflectTypeName(t reflect.Type) string {
	if t.Name() == "" {
		return t.String()
	}
	pkgPath := t.PkgPath()
	if pkgPath == "" {
		return t.Name()
	}
	if slash := strings.LastIndexByte(pkgPath, '/'); slash >= 0 {
		pkgPath = pkgPath[slash+1:]
	}
	return pkgPath + "." + t.Name()
}
