// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// JSONDocument is a parsed JSON or JSONC file. Raw holds the document
// as strict JSON (comments and trailing commas removed), so it can be
// decoded again into a concrete type.
type JSONDocument struct {
	Raw   json.RawMessage
	Value any
}

func (*JSONDocument) AssetTypeName() string { return "json" }

// Decode unmarshals the document into target.
func (d *JSONDocument) Decode(target any) error {
	return json.Unmarshal(d.Raw, target)
}

// JSONImporter imports json and jsonc files as [JSONDocument].
type JSONImporter struct{}

func (JSONImporter) Name() string         { return "json" }
func (JSONImporter) Extensions() []string { return []string{"json", "jsonc"} }

func (JSONImporter) Import(data []byte, key asset.Key) (*JSONDocument, error) {
	stripped := jsonc.ToJSON(data)
	var value any
	if err := json.Unmarshal(stripped, &value); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return &JSONDocument{Raw: stripped, Value: value}, nil
}
