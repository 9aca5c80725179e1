// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"bytes"
	"slices"
	"unicode/utf8"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// TextBlobPriority places the blob importer above the typed text
// importers for untyped loads.
const TextBlobPriority asset.Priority = 100

// textContainers maps extensions to the container name and MIME type
// recorded in the blob metadata.
var textContainers = map[string]struct{ container, mime string }{
	"txt":   {"txt", "text/plain"},
	"md":    {"md", "text/markdown"},
	"json":  {"json", "application/json"},
	"jsonc": {"jsonc", "application/json"},
	"xml":   {"xml", "application/xml"},
	"html":  {"html", "text/html"},
	"htm":   {"html", "text/html"},
	"yaml":  {"yaml", "application/yaml"},
	"yml":   {"yaml", "application/yaml"},
	"ron":   {"ron", "application/ron"},
	"wgsl":  {"wgsl", "text/wgsl"},
	"glsl":  {"glsl", "text/x-glsl"},
	"hlsl":  {"hlsl", "text/x-hlsl"},
	"ui":    {"ui", "text/plain"},
}

// TextBlobImporter wraps any text container into an asset.Blob: the
// payload is the original bytes and MetaJSON is a [TextMeta]
// document. It does not validate the content; consumers parse it with
// [ReadTextDocument].
type TextBlobImporter struct{}

func (TextBlobImporter) Name() string             { return "text-blob" }
func (TextBlobImporter) Priority() asset.Priority { return TextBlobPriority }

func (TextBlobImporter) Extensions() []string {
	extensions := make([]string, 0, len(textContainers))
	for extension := range textContainers {
		extensions = append(extensions, extension)
	}
	slices.Sort(extensions)
	return extensions
}

func (TextBlobImporter) Import(data []byte, key asset.Key) (*asset.Blob, error) {
	container, ok := textContainers[key.Extension()]
	if !ok {
		container.container, container.mime = "txt", "text/plain"
	}

	meta := TextMeta{
		Schema:    TextMetaSchema,
		Container: container.container,
		MIME:      container.mime,
		Encoding:  "utf-8",
		IsUTF8:    utf8.Valid(data),
		ByteLen:   uint64(len(data)),
	}
	if sniffed := sniffContainer(data); sniffed != "" && formatOf(sniffed) != formatOf(meta.Container) {
		meta.Sniffed = sniffed
	}

	return &asset.Blob{
		TypeID:   TextBlobTypeID,
		Format:   meta.Container,
		MetaJSON: meta.JSON(),
		Payload:  data,
	}, nil
}

// sniffContainer guesses a container from the first bytes of data, or
// returns "" when nothing stands out.
func sniffContainer(data []byte) string {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	switch {
	case len(trimmed) == 0:
		return ""
	case trimmed[0] == '{' || trimmed[0] == '[':
		return "json"
	case bytes.HasPrefix(trimmed, []byte("<?xml")):
		return "xml"
	case hasPrefixFold(trimmed, "<!doctype html") || hasPrefixFold(trimmed, "<html"):
		return "html"
	case trimmed[0] == '<':
		return "xml"
	case bytes.HasPrefix(trimmed, []byte("---")):
		return "yaml"
	default:
		return ""
	}
}

func hasPrefixFold(data []byte, prefix string) bool {
	return len(data) >= len(prefix) && bytes.EqualFold(data[:len(prefix)], []byte(prefix))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}
