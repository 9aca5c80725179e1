// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package pack

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/assetpipe/lib/asset"
)

// Compression identifies how an entry is stored. The values are part
// of the pack format.
type Compression uint8

const (
	// CompressionNone stores the raw bytes. Used for content that is
	// already compressed (PNG, OGG) or too small to benefit.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression: fast decode for binary
	// assets such as meshes.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level: better ratios for
	// text assets (JSON, YAML, markup, shaders).
	CompressionZstd Compression = 2

	// CompressionAuto asks the builder to choose per entry. It is
	// never written to a pack.
	CompressionAuto Compression = 255
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	case CompressionAuto:
		return "auto"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses the names produced by String.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	case "auto", "":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4, zstd, or auto)", name)
	}
}

// textExtensions are compressed with zstd without probing.
var textExtensions = map[string]bool{
	"txt": true, "md": true, "markdown": true, "json": true, "jsonc": true,
	"yaml": true, "yml": true, "xml": true, "html": true, "htm": true,
	"ui": true, "ron": true, "wgsl": true, "glsl": true, "hlsl": true,
	"csv": true, "toml": true,
}

// storedExtensions hold formats that carry their own compression.
var storedExtensions = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "ogg": true, "mp3": true,
	"ktx2": true, "webp": true, "zip": true, "gz": true, "zst": true,
}

// SelectCompression picks a compression for an entry from its logical
// path, probing the data with zstd when the extension says nothing.
func SelectCompression(logicalPath string, data []byte) Compression {
	extension := asset.NewKey(logicalPath, 0).Extension()
	switch {
	case len(data) < 64:
		return CompressionNone
	case storedExtensions[extension]:
		return CompressionNone
	case textExtensions[extension]:
		return CompressionZstd
	}

	ratio := float64(len(data)) / float64(len(zstdEncoder.EncodeAll(data, nil)))
	switch {
	case ratio >= 1.5:
		return CompressionZstd
	case ratio >= 1.1:
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

var errIncompressible = errors.New("data is incompressible")

// compress returns data compressed with want, or the raw data and
// CompressionNone when compression would not shrink it.
func compress(data []byte, want Compression) ([]byte, Compression, error) {
	var (
		compressed []byte
		err        error
	)
	switch want {
	case CompressionNone:
		return data, CompressionNone, nil
	case CompressionLZ4:
		compressed, err = compressLZ4(data)
	case CompressionZstd:
		compressed, err = compressZstd(data)
	default:
		return nil, 0, fmt.Errorf("unsupported compression %s", want)
	}
	if errors.Is(err, errIncompressible) {
		return data, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return compressed, want, nil
}

func decompress(stored []byte, compression Compression, size int) ([]byte, error) {
	switch compression {
	case CompressionNone:
		if len(stored) != size {
			return nil, fmt.Errorf("stored entry is %d bytes, index says %d", len(stored), size)
		}
		return stored, nil
	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(stored, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil
	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(stored, make([]byte, 0, min(size, zstdPreallocateLimit)))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock reports 0 for incompressible input.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

// zstdPreallocateLimit caps the output buffer reserved from an
// entry's recorded size; zstd ratios are unbounded, so a larger entry
// grows the buffer as it decodes.
const zstdPreallocateLimit = 8 << 20

// zstd encoders and decoders are safe for concurrent use and expensive
// to create, so the package shares one of each.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("pack: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxEntrySize))
	if err != nil {
		panic("pack: zstd decoder initialization failed: " + err.Error())
	}
}

func compressZstd(data []byte) ([]byte, error) {
	compressed := zstdEncoder.EncodeAll(data, nil)
	if len(compressed) >= len(data) {
		return nil, errIncompressible
	}
	return compressed, nil
}
