// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"fmt"
	"unicode/utf8"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// Text is a plain text asset. Content is the source file decoded as
// UTF-8 with no newline or BOM processing.
type Text struct {
	Content string
}

func (*Text) AssetTypeName() string { return "text" }

// TextImporter imports txt, md, and text files as [Text].
type TextImporter struct{}

func (TextImporter) Name() string         { return "text" }
func (TextImporter) Extensions() []string { return []string{"txt", "md", "text"} }

func (TextImporter) Import(data []byte, key asset.Key) (*Text, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("invalid UTF-8 at byte %d", invalidUTF8Offset(data))
	}
	return &Text{Content: string(data)}, nil
}

func invalidUTF8Offset(data []byte) int {
	for offset := 0; offset < len(data); {
		r, size := utf8.DecodeRune(data[offset:])
		if r == utf8.RuneError && size == 1 {
			return offset
		}
		offset += size
	}
	return len(data)
}
