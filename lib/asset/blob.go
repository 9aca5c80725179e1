// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

// Blob is the untyped import result used by generic consumers such as
// markup loaders: a JSON metadata document plus the payload bytes.
// Blob importers register with output type Blob; [Store.GetBlob]
// retrieves them without naming a Go type.
//
// A Ready blob is shared by the store and every caller of GetBlob and
// must not be modified.
type Blob struct {
	// TypeID names the logical asset type (e.g. "assetpipe.text").
	TypeID string `json:"type_id"`

	// Format names the container format of the payload (e.g. "json",
	// "xml", "txt").
	Format string `json:"format"`

	// MetaJSON is a JSON document describing the payload. Its schema
	// is importer-defined and identified by a "schema" field.
	MetaJSON string `json:"meta_json"`

	// Payload is the importer's output bytes.
	Payload []byte `json:"payload"`

	// Dependencies lists other assets the payload refers to. The store
	// does not load them; consumers decide.
	Dependencies []Dependency `json:"dependencies,omitempty"`
}

// AssetTypeName implements [TypeNamer].
func (*Blob) AssetTypeName() string { return "blob" }

// Dependency is a reference from one imported asset to another.
type Dependency struct {
	LogicalPath  string `json:"logical_path"`
	SettingsHash uint64 `json:"settings_hash"`

	// TypeHint suggests the importer output type of the dependency.
	TypeHint string `json:"type_hint,omitempty"`

	// Usage says how the dependency is used (e.g. "albedo", "include").
	Usage string `json:"usage,omitempty"`
}

// Key returns the asset key of the dependency.
func (d Dependency) Key() Key {
	return NewKey(d.LogicalPath, d.SettingsHash)
}
