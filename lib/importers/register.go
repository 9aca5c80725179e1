// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"errors"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// RegisterDefaults registers every importer in this package.
func RegisterDefaults(registry *asset.Registry) error {
	return errors.Join(
		asset.Register[asset.Blob](registry, TextBlobImporter{}),
		asset.Register[Text](registry, TextImporter{}),
		asset.Register[TextDocument](registry, TextWireImporter{}),
		asset.Register[JSONDocument](registry, JSONImporter{}),
		asset.Register[YAMLDocument](registry, YAMLImporter{}),
		asset.Register[MarkdownDocument](registry, MarkdownImporter{}),
		asset.Register[Model3D](registry, Model3DImporter{}),
	)
}

// NewDefaultRegistry returns a registry holding the default importers.
func NewDefaultRegistry() *asset.Registry {
	registry := asset.NewRegistry()
	if err := RegisterDefaults(registry); err != nil {
		// Every default importer declares extensions.
		panic("importers: " + err.Error())
	}
	return registry
}
