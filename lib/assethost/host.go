// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assethost

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/clock"
)

const (
	// DefaultSteps is the per-frame completion budget.
	DefaultSteps = 8

	// DefaultFrameInterval is roughly one 60 Hz frame.
	DefaultFrameInterval = 16 * time.Millisecond
)

// Config configures a Host.
type Config struct {
	// Store is pumped every frame. Required.
	Store *asset.Store

	// FrameInterval is the time between frames. Zero means
	// DefaultFrameInterval.
	FrameInterval time.Duration

	// Steps bounds completions applied per frame. Values below one
	// mean DefaultSteps.
	Steps int

	// TimeSlice additionally bounds each pump by time.
	TimeSlice time.Duration

	Clock  clock.Clock
	Logger *slog.Logger

	// OnEvent, when set, is called on the frame goroutine for every
	// event after it is logged.
	OnEvent func(asset.Event)
}

// Host owns the frame loop for one store.
type Host struct {
	store     *asset.Store
	interval  time.Duration
	timeSlice time.Duration
	clock     clock.Clock
	logger    *slog.Logger
	onEvent   func(asset.Event)
	done      chan struct{}

	mu     sync.Mutex
	steps  int
	frames uint64
	ready  uint64
	failed uint64
}

// New returns a host for config.Store.
func New(config Config) (*Host, error) {
	if config.Store == nil {
		return nil, errors.New("assethost: store is required")
	}
	if config.TimeSlice < 0 {
		return nil, errors.New("assethost: time slice must not be negative")
	}

	interval := config.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	steps := config.Steps
	if steps < 1 {
		steps = DefaultSteps
	}
	hostClock := config.Clock
	if hostClock == nil {
		hostClock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Host{
		store:     config.Store,
		interval:  interval,
		timeSlice: config.TimeSlice,
		clock:     hostClock,
		logger:    logger,
		onEvent:   config.OnEvent,
		done:      make(chan struct{}),
		steps:     steps,
	}, nil
}

// Store returns the store the host pumps.
func (h *Host) Store() *asset.Store {
	return h.store
}

// SetBudget sets the per-frame completion budget. Values below one
// are raised to one so a frame always makes progress.
func (h *Host) SetBudget(steps int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.steps = max(steps, 1)
}

// Budget returns the budget the next frame will pump with.
func (h *Host) Budget() asset.Budget {
	h.mu.Lock()
	defer h.mu.Unlock()
	return asset.Budget{MaxCompletions: h.steps, TimeSlice: h.timeSlice}
}

// Run ticks until ctx is cancelled, then closes Done. It must be
// called at most once.
func (h *Host) Run(ctx context.Context) {
	defer close(h.done)

	ticker := h.clock.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("asset host started",
		"frame_interval", h.interval,
		"steps", h.Budget().MaxCompletions,
	)
	for {
		select {
		case <-ticker.C:
			h.Step()
		case <-ctx.Done():
			stats := h.Stats()
			h.logger.Info("asset host stopped",
				"frames", stats.Frames,
				"ready", stats.Ready,
				"failed", stats.Failed,
			)
			return
		}
	}
}

// Done is closed after Run returns.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// Step runs one frame: pump, then log and dispatch every event the
// pump produced. It returns the number of completions applied.
func (h *Host) Step() int {
	processed := h.store.Pump(h.Budget())
	events := h.store.DrainEvents()

	var ready, failed uint64
	for _, event := range events {
		key, _ := h.store.Key(event.ID)
		switch event.Kind {
		case asset.EventReady:
			ready++
			h.logger.Info("asset ready",
				"path", key.LogicalPath,
				"id", event.ID,
				"type", event.TypeName,
			)
		case asset.EventFailed:
			failed++
			h.logger.Warn("asset failed",
				"path", key.LogicalPath,
				"id", event.ID,
				"kind", event.ErrorKind.String(),
				"error", event.Error,
			)
		}
		if h.onEvent != nil {
			h.onEvent(event)
		}
	}

	if processed > 0 {
		pump := h.store.LastPump()
		h.logger.Debug("asset pump",
			"processed", pump.Processed,
			"succeeded", pump.Succeeded,
			"failed", pump.Failed,
			"bytes_read", pump.BytesRead,
			"io_time", pump.IOTime,
			"import_time", pump.ImportTime,
			"duration", pump.Duration,
		)
	}

	h.mu.Lock()
	h.frames++
	h.ready += ready
	h.failed += failed
	h.mu.Unlock()
	return processed
}

// Stats counts frames and terminal events seen by the host.
type Stats struct {
	Frames uint64 `json:"frames"`
	Ready  uint64 `json:"ready"`
	Failed uint64 `json:"failed"`
	Steps  int    `json:"steps"`
}

// Stats returns the host counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{Frames: h.frames, Ready: h.ready, Failed: h.failed, Steps: h.steps}
}
