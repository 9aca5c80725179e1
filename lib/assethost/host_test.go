// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assethost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/clock"
	"github.com/bureau-foundation/assetpipe/lib/testutil"
)

type note struct {
	Body string
}

func newStore(t *testing.T) (*asset.Store, *asset.MemorySource) {
	t.Helper()
	registry := asset.NewRegistry()
	asset.MustRegister(registry, asset.NewImporter("note", []string{"note"}, 0, func(data []byte, key asset.Key) (*note, error) {
		if len(data) == 0 {
			return nil, errors.New("empty note")
		}
		return &note{Body: string(data)}, nil
	}))
	source := asset.NewMemorySource("memory")
	store := asset.NewStore(registry, asset.StoreConfig{Workers: 2, Sources: []asset.Source{source}})
	t.Cleanup(store.Close)
	return store, source
}

func waitQueued(t *testing.T, store *asset.Store, n int) {
	t.Helper()
	testutil.Eventually(t, testutil.DefaultTimeout, func() bool {
		return store.Stats().Queued == n
	}, "waiting for %d queued completions", n)
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("New accepted a config without a store")
	}
}

func TestBudgetDefaultsAndClamp(t *testing.T) {
	store, _ := newStore(t)
	host, err := New(Config{Store: store, TimeSlice: 2 * time.Millisecond})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if budget := host.Budget(); budget.MaxCompletions != DefaultSteps || budget.TimeSlice != 2*time.Millisecond {
		t.Fatalf("default budget = %+v", budget)
	}

	for _, test := range []struct{ set, want int }{{0, 1}, {-5, 1}, {1, 1}, {20, 20}} {
		host.SetBudget(test.set)
		if got := host.Budget().MaxCompletions; got != test.want {
			t.Errorf("SetBudget(%d): budget = %d, want %d", test.set, got, test.want)
		}
	}
}

func TestStepAppliesBudget(t *testing.T) {
	store, source := newStore(t)
	for _, name := range []string{"a.note", "b.note", "c.note"} {
		source.Put(name, []byte(name))
		store.Load(asset.NewKey(name, 0))
	}
	waitQueued(t, store, 3)

	var seen []asset.Event
	host, err := New(Config{Store: store, Steps: 2, OnEvent: func(event asset.Event) {
		seen = append(seen, event)
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if processed := host.Step(); processed != 2 {
		t.Fatalf("first frame processed %d, want 2", processed)
	}
	if processed := host.Step(); processed != 1 {
		t.Fatalf("second frame processed %d, want 1", processed)
	}
	if processed := host.Step(); processed != 0 {
		t.Fatalf("idle frame processed %d, want 0", processed)
	}

	if len(seen) != 3 {
		t.Fatalf("OnEvent called %d times, want 3", len(seen))
	}
	stats := host.Stats()
	if stats.Frames != 3 || stats.Ready != 3 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestStepLogsEvents(t *testing.T) {
	store, source := newStore(t)
	source.Put("good.note", []byte("hello"))
	source.Put("empty.note", nil)
	goodID := store.Load(asset.NewKey("good.note", 0))
	emptyID := store.Load(asset.NewKey("empty.note", 0))
	waitQueued(t, store, 2)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	host, err := New(Config{Store: store, Logger: logger})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	host.Step()

	records := map[string]map[string]any{}
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		records[record["msg"].(string)] = record
	}

	ready, ok := records["asset ready"]
	if !ok {
		t.Fatalf("no \"asset ready\" record in:\n%s", logs.String())
	}
	if ready["path"] != "good.note" || ready["id"] != goodID.String() || ready["type"] != "assethost.note" {
		t.Errorf("ready record = %v", ready)
	}

	failed, ok := records["asset failed"]
	if !ok {
		t.Fatalf("no \"asset failed\" record in:\n%s", logs.String())
	}
	if failed["path"] != "empty.note" || failed["id"] != emptyID.String() || failed["kind"] != asset.KindDecode.String() {
		t.Errorf("failed record = %v", failed)
	}
	if !strings.Contains(failed["error"].(string), "empty note") {
		t.Errorf("failed record error = %v", failed["error"])
	}

	pump, ok := records["asset pump"]
	if !ok {
		t.Fatalf("no \"asset pump\" record in:\n%s", logs.String())
	}
	if pump["processed"] != float64(2) || pump["succeeded"] != float64(1) || pump["failed"] != float64(1) {
		t.Errorf("pump record = %v", pump)
	}
}

func TestRunPumpsOnTicks(t *testing.T) {
	store, source := newStore(t)
	source.Put("tick.note", []byte("tock"))

	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	events := make(chan asset.Event, 1)
	host, err := New(Config{
		Store:         store,
		Clock:         fake,
		FrameInterval: 10 * time.Millisecond,
		OnEvent:       func(event asset.Event) { events <- event },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go host.Run(ctx)
	fake.WaitForTimers(1)

	handle := asset.LoadAs[note](store, asset.NewKey("tick.note", 0))
	waitQueued(t, store, 1)
	if state := store.State(handle.ID()); state.Status != asset.StatusLoading {
		t.Fatalf("state before a tick = %s, want loading", state)
	}

	fake.Advance(10 * time.Millisecond)
	event := testutil.RequireReceive(t, events, testutil.DefaultTimeout, "waiting for the frame to publish an event")
	if event.Kind != asset.EventReady || event.ID != handle.ID() {
		t.Fatalf("event = %+v", event)
	}
	if value, ok := asset.Get(store, handle); !ok || value.Body != "tock" {
		t.Fatalf("Get = %+v, %v", value, ok)
	}

	cancel()
	testutil.RequireClosed(t, host.Done(), testutil.DefaultTimeout, "host did not stop after cancel")
	if frames := host.Stats().Frames; frames != 1 {
		t.Fatalf("frames = %d, want 1", frames)
	}
}
