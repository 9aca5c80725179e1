// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// TextMetaSchema identifies the metadata document TextBlobImporter
// writes into Blob.MetaJSON.
const TextMetaSchema = "assetpipe.text.meta.v1"

// TextBlobTypeID is the Blob.TypeID of text blobs.
const TextBlobTypeID = "assetpipe.text"

// TextMeta describes a text payload.
type TextMeta struct {
	Schema    string `json:"schema"`
	Container string `json:"container"`
	MIME      string `json:"mime,omitempty"`
	Encoding  string `json:"encoding"`
	IsUTF8    bool   `json:"is_utf8"`
	ByteLen   uint64 `json:"byte_len"`

	// Sniffed is the container suggested by the content when it
	// disagrees with the file extension.
	Sniffed string `json:"sniffed,omitempty"`
}

// ParseTextMeta decodes a text metadata document. Missing fields take
// defaults (encoding "utf-8"); comments are tolerated.
func ParseTextMeta(metaJSON string) (TextMeta, error) {
	meta := TextMeta{Encoding: "utf-8"}
	if err := json.Unmarshal(jsonc.ToJSON([]byte(metaJSON)), &meta); err != nil {
		return TextMeta{}, fmt.Errorf("text meta: %w", err)
	}
	if meta.Encoding == "" {
		meta.Encoding = "utf-8"
	}
	return meta, nil
}

// JSON renders the metadata document.
func (m TextMeta) JSON() string {
	encoded, err := json.Marshal(m)
	if err != nil {
		// TextMeta holds only strings, bools, and integers.
		panic("importers: encoding text meta: " + err.Error())
	}
	return string(encoded)
}

// TextFormat is the document family of a text payload.
type TextFormat uint8

const (
	FormatUnknown TextFormat = iota
	FormatText
	FormatJSON
	FormatXML
	FormatHTML
	FormatYAML
)

func (f TextFormat) String() string {
	switch f {
	case FormatText:
		return "txt"
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	case FormatHTML:
		return "html"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// formatOf maps a container name to its document family.
func formatOf(container string) TextFormat {
	switch strings.ToLower(strings.TrimSpace(container)) {
	case "txt", "text", "ui", "md", "markdown":
		return FormatText
	case "json", "jsonc":
		return FormatJSON
	case "xml":
		return FormatXML
	case "html", "htm":
		return FormatHTML
	case "yaml", "yml":
		return FormatYAML
	default:
		return FormatUnknown
	}
}
