// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by every assetpipe
// component that writes binary data: the pack index and the assetd
// control socket.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so a
// pack built twice from the same inputs is byte-identical. The decoder
// ignores unknown fields so older readers accept newer indexes.
//
//	data, err := codec.Marshal(index)
//	err = codec.Unmarshal(data, &index)
//
// Socket code uses the stream forms:
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// # Struct tags
//
// Types that only ever travel as CBOR (pack index entries) use `cbor`
// tags. Types that are also printed as JSON by assetctl (stats, states,
// bindings) use `json` tags only; fxamacker/cbor falls back to them.
// Never put both on one field.
package codec
