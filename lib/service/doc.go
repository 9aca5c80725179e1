// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service is the small amount of scaffolding assetd shares
// with its clients: a CBOR request-response server on a Unix socket,
// the matching client, and the service logger.
//
// The protocol is one request per connection. The client writes a
// single CBOR map carrying an "action" field plus action-specific
// fields; the server routes on the action, runs the handler, and
// writes one [Response] envelope before closing. CBOR is
// self-delimiting so there is no framing.
//
// There is no authentication: whoever can open the socket can use it.
// assetd creates the socket under a runtime directory the operator
// controls.
package service
