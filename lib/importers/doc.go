// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package importers holds the concrete importers assetpipe ships with
// and the readers for their wire formats.
//
// Typed importers produce Go values directly:
//
//   - [TextImporter] (txt, md, text) produces [Text]: the file decoded
//     as UTF-8, byte for byte.
//   - [JSONImporter] (json, jsonc) produces [JSONDocument]; comments
//     and trailing commas are accepted.
//   - [YAMLImporter] (yaml, yml) produces [YAMLDocument].
//   - [MarkdownImporter] (md, markdown) produces [MarkdownDocument]
//     with rendered HTML and a heading outline.
//   - [Model3DImporter] (ne3d) produces [Model3D] from the
//     length-prefixed model wire format.
//   - [TextWireImporter] (ntx) produces [TextDocument] from the NTX1
//     framed text format.
//
// [TextBlobImporter] produces asset.Blob for every text container at
// high priority, so an untyped Load of a text file yields a blob whose
// metadata describes the container. [ReadTextDocument] turns such a
// blob back into a [TextDocument] with normalized newlines.
//
// [RegisterDefaults] registers all of them.
package importers
