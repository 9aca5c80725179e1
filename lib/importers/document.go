// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// TextDocument is text ready for a parser: BOM removed, newlines
// normalized to LF, and the document family resolved from metadata.
type TextDocument struct {
	Format TextFormat
	Meta   TextMeta
	Text   string
}

func (*TextDocument) AssetTypeName() string { return "text-document" }

// NTX1 wire frame:
//
//	[4] magic "NTX1"
//	[4] meta length, little-endian uint32
//	[4] payload length, little-endian uint32
//	[n] meta JSON
//	[m] payload
const (
	wireHeaderSize = 12

	// MaxTextMetaBytes caps the metadata section of a wire frame.
	MaxTextMetaBytes = 64 << 10
)

var wireMagic = [4]byte{'N', 'T', 'X', '1'}

var (
	ErrWireTooShort   = errors.New("text wire: too short")
	ErrWireBadHeader  = errors.New("text wire: bad magic")
	ErrWireMetaBounds = errors.New("text wire: meta length out of bounds")
	ErrWireMetaLarge  = errors.New("text wire: meta section too large")
	ErrWireBodyBounds = errors.New("text wire: payload length out of bounds")
)

// ReadTextDocument converts a text blob into a document.
func ReadTextDocument(blob *asset.Blob) (*TextDocument, error) {
	if blob == nil {
		return nil, errors.New("text document: nil blob")
	}
	return TextDocumentFromParts(blob.MetaJSON, blob.Payload)
}

// TextDocumentFromParts builds a document from a metadata document and
// a UTF-8 payload. The payload's BOM is stripped and CRLF and lone CR
// line endings become LF.
func TextDocumentFromParts(metaJSON string, payload []byte) (*TextDocument, error) {
	meta, err := ParseTextMeta(metaJSON)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(payload) {
		return nil, fmt.Errorf("text document: payload is not valid UTF-8 at byte %d", invalidUTF8Offset(payload))
	}
	text := normalizeNewlines(string(bytes.TrimPrefix(payload, utf8BOM)))
	return &TextDocument{
		Format: formatOf(meta.Container),
		Meta:   meta,
		Text:   text,
	}, nil
}

// ReadTextWire decodes an NTX1 frame.
func ReadTextWire(data []byte) (*TextDocument, error) {
	if len(data) < wireHeaderSize {
		return nil, ErrWireTooShort
	}
	if [4]byte(data[:4]) != wireMagic {
		return nil, ErrWireBadHeader
	}
	metaLength := uint64(binary.LittleEndian.Uint32(data[4:8]))
	if metaLength > MaxTextMetaBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrWireMetaLarge, metaLength)
	}
	payloadLength := uint64(binary.LittleEndian.Uint32(data[8:12]))

	metaEnd := wireHeaderSize + metaLength
	if metaEnd > uint64(len(data)) {
		return nil, ErrWireMetaBounds
	}
	payloadEnd := metaEnd + payloadLength
	if payloadEnd > uint64(len(data)) {
		return nil, ErrWireBodyBounds
	}

	metaBytes := data[wireHeaderSize:metaEnd]
	if !utf8.Valid(metaBytes) {
		return nil, errors.New("text wire: meta is not valid UTF-8")
	}
	return TextDocumentFromParts(string(metaBytes), data[metaEnd:payloadEnd])
}

// EncodeTextWire frames metaJSON and payload as NTX1.
func EncodeTextWire(metaJSON string, payload []byte) ([]byte, error) {
	if len(metaJSON) > MaxTextMetaBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrWireMetaLarge, len(metaJSON))
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("text wire: payload of %d bytes exceeds the 4 GiB frame limit", len(payload))
	}
	frame := make([]byte, wireHeaderSize, wireHeaderSize+len(metaJSON)+len(payload))
	copy(frame, wireMagic[:])
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(metaJSON)))
	binary.LittleEndian.PutUint32(frame[8:12], uint32(len(payload)))
	frame = append(frame, metaJSON...)
	frame = append(frame, payload...)
	return frame, nil
}

// ParseJSON decodes a JSON document into a generic value. Comments and
// trailing commas are accepted.
func (d *TextDocument) ParseJSON() (any, error) {
	if d.Format != FormatJSON {
		return nil, fmt.Errorf("json parse: document is %s, not json", d.Format)
	}
	var value any
	if err := json.Unmarshal(jsonc.ToJSON([]byte(d.Text)), &value); err != nil {
		return nil, fmt.Errorf("json parse: %w", err)
	}
	return value, nil
}

// ValidateXML checks that an XML document is well formed.
func (d *TextDocument) ValidateXML() error {
	if d.Format != FormatXML {
		return fmt.Errorf("xml parse: document is %s, not xml", d.Format)
	}
	decoder := xml.NewDecoder(strings.NewReader(d.Text))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("xml parse: %w", err)
		}
	}
}

func normalizeNewlines(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// TextWireImporter imports NTX1 frames (extension ntx) as
// [TextDocument].
type TextWireImporter struct{}

func (TextWireImporter) Name() string         { return "text-wire" }
func (TextWireImporter) Extensions() []string { return []string{"ntx"} }

func (TextWireImporter) Import(data []byte, key asset.Key) (*TextDocument, error) {
	return ReadTextWire(data)
}
