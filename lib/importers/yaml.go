// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// YAMLDocument is a parsed YAML file. Root is the document node, which
// keeps comments and source positions for tooling.
type YAMLDocument struct {
	Root yaml.Node
}

func (*YAMLDocument) AssetTypeName() string { return "yaml" }

// Decode unmarshals the document into target.
func (d *YAMLDocument) Decode(target any) error {
	if d.Root.Kind == 0 {
		return nil
	}
	return d.Root.Decode(target)
}

// YAMLImporter imports yaml and yml files as [YAMLDocument].
type YAMLImporter struct{}

func (YAMLImporter) Name() string         { return "yaml" }
func (YAMLImporter) Extensions() []string { return []string{"yaml", "yml"} }

func (YAMLImporter) Import(data []byte, key asset.Key) (*YAMLDocument, error) {
	document := &YAMLDocument{}
	if err := yaml.Unmarshal(data, &document.Root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return document, nil
}
