// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package importers

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// MaxModelMetaBytes caps the metadata section of a model frame.
const MaxModelMetaBytes = 256 << 10

// Model3DFormat is the source format a model was converted from.
type Model3DFormat uint8

const (
	ModelUnknown Model3DFormat = iota
	ModelOBJ
	ModelFBX
	ModelGLB
	ModelGLTF
	ModelNE3D
)

func (f Model3DFormat) String() string {
	switch f {
	case ModelOBJ:
		return "obj"
	case ModelFBX:
		return "fbx"
	case ModelGLB:
		return "glb"
	case ModelGLTF:
		return "gltf"
	case ModelNE3D:
		return "ne3d"
	default:
		return "unknown"
	}
}

// Model3DMeta is the metadata header of a model frame.
type Model3DMeta struct {
	Schema        string     `json:"schema"`
	Source        string     `json:"source"`
	Container     string     `json:"container"`
	PayloadFormat string     `json:"payload_format"`
	Meshes        uint32     `json:"meshes"`
	Vertices      uint64     `json:"vertices"`
	Indices       uint64     `json:"indices"`
	BoundsMin     [3]float32 `json:"bbox_min"`
	BoundsMax     [3]float32 `json:"bbox_max"`
}

// Model3D is a mesh asset: metadata plus the opaque geometry payload
// that the renderer uploads.
type Model3D struct {
	Format  Model3DFormat
	Meta    Model3DMeta
	Payload []byte
}

func (*Model3D) AssetTypeName() string { return "model3d" }

var (
	ErrModelTooShort   = errors.New("model wire: too short")
	ErrModelMetaLarge  = errors.New("model wire: meta section too large")
	ErrModelMetaBounds = errors.New("model wire: meta length out of bounds")
)

// ReadModel3DWire decodes a model frame:
//
//	[4] meta length, little-endian uint32
//	[n] meta JSON
//	[..] payload (rest of the frame)
func ReadModel3DWire(data []byte) (*Model3D, error) {
	if len(data) < 4 {
		return nil, ErrModelTooShort
	}
	metaLength := uint64(binary.LittleEndian.Uint32(data[:4]))
	if metaLength > MaxModelMetaBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrModelMetaLarge, metaLength)
	}
	metaEnd := 4 + metaLength
	if metaEnd > uint64(len(data)) {
		return nil, ErrModelMetaBounds
	}
	metaBytes := data[4:metaEnd]
	if !utf8.Valid(metaBytes) {
		return nil, errors.New("model wire: meta is not valid UTF-8")
	}
	return Model3DFromParts(string(metaBytes), data[metaEnd:])
}

// Model3DFromParts builds a model from its metadata document and
// payload. The payload is copied.
func Model3DFromParts(metaJSON string, payload []byte) (*Model3D, error) {
	var meta Model3DMeta
	if err := json.Unmarshal(jsonc.ToJSON([]byte(metaJSON)), &meta); err != nil {
		return nil, fmt.Errorf("model meta: %w", err)
	}
	meta.Container = strings.ToLower(strings.TrimSpace(meta.Container))
	return &Model3D{
		Format:  detectModelFormat(meta.Container, meta.PayloadFormat),
		Meta:    meta,
		Payload: append([]byte(nil), payload...),
	}, nil
}

// EncodeModel3DWire frames meta and payload.
func EncodeModel3DWire(meta Model3DMeta, payload []byte) ([]byte, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encoding model meta: %w", err)
	}
	if len(metaJSON) > MaxModelMetaBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrModelMetaLarge, len(metaJSON))
	}
	frame := make([]byte, 4, 4+len(metaJSON)+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(metaJSON)))
	frame = append(frame, metaJSON...)
	return append(frame, payload...), nil
}

func detectModelFormat(container, payloadFormat string) Model3DFormat {
	if strings.EqualFold(strings.TrimSpace(payloadFormat), "ne3d") {
		return ModelNE3D
	}
	switch container {
	case "obj":
		return ModelOBJ
	case "fbx":
		return ModelFBX
	case "glb":
		return ModelGLB
	case "gltf":
		return ModelGLTF
	case "ne3d":
		return ModelNE3D
	default:
		return ModelUnknown
	}
}

// Model3DImporter imports ne3d model frames as [Model3D].
type Model3DImporter struct{}

func (Model3DImporter) Name() string         { return "model3d" }
func (Model3DImporter) Extensions() []string { return []string{"ne3d"} }

func (Model3DImporter) Import(data []byte, key asset.Key) (*Model3D, error) {
	return ReadModel3DWire(data)
}
