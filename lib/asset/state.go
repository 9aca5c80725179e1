// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import "fmt"

// Status is the lifecycle position of one asset ID. The only legal
// transitions are Unloaded → Loading → Ready and Loading → Failed.
type Status uint8

const (
	// StatusUnloaded means the store has no row for the ID: it was
	// never requested from this store.
	StatusUnloaded Status = iota

	// StatusLoading means a job was dispatched and its completion has
	// not been pumped yet.
	StatusLoading

	// StatusReady means the payload is available through Get or
	// GetBlob.
	StatusReady

	// StatusFailed means the load attempt failed; see State.Message.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// Terminal reports whether no further transition can happen without a
// new load request.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// State is a snapshot of one ID's row. Message and Kind are set only
// when Status is StatusFailed.
type State struct {
	Status  Status
	Message string
	Kind    ErrorKind
}

func (s State) String() string {
	if s.Status == StatusFailed {
		return fmt.Sprintf("failed(%s)", s.Message)
	}
	return s.Status.String()
}
