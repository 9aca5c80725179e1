// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assethost

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/service"
	"github.com/bureau-foundation/assetpipe/lib/version"
)

// maxLoadWait caps LoadRequest.WaitMillis below the socket's own
// timeouts.
const maxLoadWait = 20 * time.Second

// RegisterActions serves the host's store on server.
func (h *Host) RegisterActions(server *service.SocketServer) {
	service.HandleRequest(server, ActionLoad, h.handleLoad)
	service.HandleRequest(server, ActionState, h.handleState)
	service.HandleRequest(server, ActionBlob, h.handleBlob)
	server.Handle(ActionStats, h.handleStats)
	server.Handle(ActionBindings, h.handleBindings)
}

func (h *Host) handleLoad(ctx context.Context, request LoadRequest) (any, error) {
	if request.Path == "" {
		return nil, errors.New("path is required")
	}
	key := asset.NewKey(request.Path, request.SettingsHash)

	if request.WaitMillis <= 0 {
		return h.assetState(h.store.Load(key)), nil
	}

	wait := min(time.Duration(request.WaitMillis)*time.Millisecond, maxLoadWait)
	// The frame loop pumps; the wait only observes. A cancelled ctx
	// means the server is shutting down.
	id, err := asset.LoadAndWaitContext(ctx, h.store, key, func() {}, wait, h.clock)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	if err != nil && !errors.Is(err, asset.ErrTimeout) && asset.KindOf(err) == asset.KindUnknown {
		return nil, err
	}
	return h.assetState(id), nil
}

func (h *Host) handleState(ctx context.Context, request IDRequest) (any, error) {
	return h.assetState(request.ID), nil
}

func (h *Host) handleBlob(ctx context.Context, request IDRequest) (any, error) {
	blob, ok := h.store.GetBlob(request.ID)
	if !ok {
		state := h.store.State(request.ID)
		if state.Status == asset.StatusReady {
			return nil, fmt.Errorf("asset %s is not a blob", request.ID)
		}
		return nil, fmt.Errorf("asset %s is %s", request.ID, state.Status)
	}
	return BlobReply{ID: request.ID, Blob: blob}, nil
}

func (h *Host) handleStats(ctx context.Context, raw []byte) (any, error) {
	return StatsReply{
		Store:    h.store.Stats(),
		LastPump: h.store.LastPump(),
		Host:     h.Stats(),
		Build:    version.Current(),
	}, nil
}

func (h *Host) handleBindings(ctx context.Context, raw []byte) (any, error) {
	return BindingsReply{Bindings: h.store.Bindings()}, nil
}

func (h *Host) assetState(id asset.ID) AssetState {
	state := h.store.State(id)
	reply := AssetState{
		ID:      id,
		Status:  state.Status.String(),
		Message: state.Message,
	}
	if key, ok := h.store.Key(id); ok {
		reply.Path = key.LogicalPath
	}
	if state.Status == asset.StatusFailed {
		reply.Kind = state.Kind.String()
	}
	return reply
}
