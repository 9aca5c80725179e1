// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assethost

import (
	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/version"
)

// Socket action names served by [Host.RegisterActions].
const (
	ActionLoad     = "load"
	ActionState    = "state"
	ActionBlob     = "blob"
	ActionStats    = "stats"
	ActionBindings = "bindings"
)

// LoadRequest asks the host to load an asset. With WaitMillis set the
// reply is delayed until the asset is terminal or the wait expires;
// the host's own frame loop does the pumping.
type LoadRequest struct {
	Path         string `json:"path"`
	SettingsHash uint64 `json:"settings_hash,omitempty"`
	WaitMillis   int64  `json:"wait_ms,omitempty"`
}

// IDRequest names an asset for the state and blob actions.
type IDRequest struct {
	ID asset.ID `json:"id"`
}

// AssetState is the reply to load and state.
type AssetState struct {
	ID      asset.ID `json:"id"`
	Path    string   `json:"path,omitempty"`
	Status  string   `json:"status"`
	Kind    string   `json:"kind,omitempty"`
	Message string   `json:"message,omitempty"`
}

// BlobReply is the reply to blob.
type BlobReply struct {
	ID   asset.ID    `json:"id"`
	Blob *asset.Blob `json:"blob"`
}

// StatsReply is the reply to stats.
type StatsReply struct {
	Store    asset.Stats     `json:"store"`
	LastPump asset.PumpStats `json:"last_pump"`
	Host     Stats           `json:"host"`
	Build    version.Build   `json:"build"`
}

// BindingsReply is the reply to bindings.
type BindingsReply struct {
	Bindings []asset.Binding `json:"bindings"`
}
