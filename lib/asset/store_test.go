// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/clock"
	"github.com/bureau-foundation/assetpipe/lib/testutil"
)

const testTimeout = 5 * time.Second

func newTestStore(t *testing.T, registry *Registry, sources ...Source) *Store {
	t.Helper()
	store := NewStore(registry, StoreConfig{Workers: 4, Sources: sources})
	t.Cleanup(store.Close)
	return store
}

// pumpUntilTerminal pumps one completion at a time until id leaves
// Loading.
func pumpUntilTerminal(t *testing.T, store *Store, id ID) State {
	t.Helper()
	var state State
	testutil.Eventually(t, testTimeout, func() bool {
		store.Pump(Steps(1))
		state = store.State(id)
		return state.Status.Terminal()
	}, "waiting for %s to finish loading", id)
	return state
}

func waitQueued(t *testing.T, store *Store, n int) {
	t.Helper()
	testutil.Eventually(t, testTimeout, func() bool {
		return store.Stats().Queued == n
	}, "waiting for %d queued completions", n)
}

func TestLoadTextScenario(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"notes.txt": "line one\r\nline two ✓\n"})
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, NewFileSystemSource(root))

	handle := LoadAs[testText](store, NewKey("notes.txt", 0))
	if handle.ID() != Derive(NewKey("notes.txt", 0)) {
		t.Fatalf("handle id %s does not match derived id", handle.ID())
	}

	state := pumpUntilTerminal(t, store, handle.ID())
	if state.Status != StatusReady {
		t.Fatalf("state = %s, want ready", state)
	}
	text, ok := Get(store, handle)
	if !ok {
		t.Fatal("Get returned false for a ready asset")
	}
	if text.Content != "line one\r\nline two ✓\n" {
		t.Fatalf("Content = %q", text.Content)
	}

	again, _ := Get(store, handle)
	if again != text {
		t.Fatal("Get returned a different pointer for the same asset")
	}
}

func TestLoadMissingFileReportsResolvedPath(t *testing.T) {
	root := t.TempDir()
	registry := NewRegistry()
	MustRegister(registry, NewImporter("png", []string{"png"}, 0, func([]byte, Key) (*testImage, error) {
		return &testImage{}, nil
	}))
	store := newTestStore(t, registry, NewFileSystemSource(root))

	id := store.Load(NewKey("missing.png", 0))
	state := pumpUntilTerminal(t, store, id)

	if state.Status != StatusFailed {
		t.Fatalf("state = %s, want failed", state)
	}
	if state.Kind != KindSource {
		t.Fatalf("kind = %s, want %s", state.Kind, KindSource)
	}
	resolved := filepath.Join(root, "missing.png")
	if !strings.Contains(state.Message, resolved) {
		t.Fatalf("message %q does not contain resolved path %q", state.Message, resolved)
	}

	events := store.DrainEvents()
	if len(events) != 1 || events[0].Kind != EventFailed || events[0].ID != id {
		t.Fatalf("events = %+v, want one failed event for %s", events, id)
	}
	if events[0].Error != state.Message {
		t.Fatalf("event error %q != state message %q", events[0].Error, state.Message)
	}
}

func TestLoadNoImporterStillReportsPath(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("song.ogg", []byte("OggS"))
	store := newTestStore(t, NewRegistry(), source)

	id := store.Load(NewKey("song.ogg", 0))
	state := pumpUntilTerminal(t, store, id)
	if state.Kind != KindNoImporter {
		t.Fatalf("kind = %s, want %s (message %q)", state.Kind, KindNoImporter, state.Message)
	}
	if !strings.Contains(state.Message, "song.ogg") {
		t.Fatalf("message %q does not name the path", state.Message)
	}
}

func TestLoadWithoutSources(t *testing.T) {
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry)

	id := store.Load(NewKey("notes.txt", 0))
	if state := pumpUntilTerminal(t, store, id); state.Kind != KindNoSource {
		t.Fatalf("state = %+v, want kind %s", state, KindNoSource)
	}
}

func TestLoadInvalidKey(t *testing.T) {
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, NewFileSystemSource(t.TempDir()))

	id := store.Load(NewKey("../outside.txt", 0))
	if state := pumpUntilTerminal(t, store, id); state.Kind != KindInvalidKey {
		t.Fatalf("state = %+v, want kind %s", state, KindInvalidKey)
	}
}

func TestStateBeforeLoadIsUnloaded(t *testing.T) {
	store := newTestStore(t, NewRegistry())
	if state := store.State(Derive(NewKey("never.txt", 0))); state.Status != StatusUnloaded {
		t.Fatalf("state = %s, want unloaded", state)
	}
}

func TestStateChangesOnlyDuringPump(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("a.txt", []byte("a"))
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	id := store.Load(NewKey("a.txt", 0))
	waitQueued(t, store, 1)

	if state := store.State(id); state.Status != StatusLoading {
		t.Fatalf("state before Pump = %s, want loading", state)
	}
	if events := store.DrainEvents(); len(events) != 0 {
		t.Fatalf("events before Pump = %+v", events)
	}

	if processed := store.Pump(Steps(1)); processed != 1 {
		t.Fatalf("Pump processed %d, want 1", processed)
	}
	if state := store.State(id); state.Status != StatusReady {
		t.Fatalf("state after Pump = %s, want ready", state)
	}
}

func TestConcurrentLoadsCoalesce(t *testing.T) {
	var imports atomic.Int64
	release := make(chan struct{})
	registry := NewRegistry()
	MustRegister(registry, NewImporter("slow", []string{"txt"}, 0, func(data []byte, _ Key) (*testText, error) {
		imports.Add(1)
		<-release
		return &testText{Content: string(data)}, nil
	}))
	source := NewMemorySource("mem")
	source.Put("shared.txt", []byte("shared"))
	store := newTestStore(t, registry, source)

	const callers = 32
	ids := make([]ID, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Mix spellings that normalize to the same id.
			path := "shared.txt"
			if i%2 == 1 {
				path = "./SHARED.txt"
			}
			ids[i] = store.Load(NewKey(path, 0))
		}()
	}
	wg.Wait()
	close(release)

	for i, id := range ids {
		if id != ids[0] {
			t.Fatalf("caller %d got id %s, caller 0 got %s", i, id, ids[0])
		}
	}
	pumpUntilTerminal(t, store, ids[0])

	if got := imports.Load(); got != 1 {
		t.Fatalf("importer ran %d times, want 1", got)
	}
	stats := store.Stats()
	if stats.Loads != 1 || stats.Coalesced != callers-1 {
		t.Fatalf("stats = %+v, want 1 load and %d coalesced", stats, callers-1)
	}
	if events := store.DrainEvents(); len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1", len(events))
	}

	// Requests after the terminal state do not dispatch again.
	store.Load(NewKey("shared.txt", 0))
	store.Pump(Steps(8))
	if got := imports.Load(); got != 1 {
		t.Fatalf("importer ran %d times after reload, want 1", got)
	}
}

func TestPumpBudget(t *testing.T) {
	source := NewMemorySource("mem")
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	const total = 10
	const budget = 3
	for i := range total {
		path := fmt.Sprintf("file-%d.txt", i)
		source.Put(path, []byte(path))
		store.Load(NewKey(path, 0))
	}
	waitQueued(t, store, total)

	calls, sum := 0, 0
	for {
		processed := store.Pump(Steps(budget))
		if processed > budget {
			t.Fatalf("Pump(Steps(%d)) processed %d", budget, processed)
		}
		if processed == 0 {
			break
		}
		calls++
		sum += processed
	}
	if want := (total + budget - 1) / budget; calls != want {
		t.Fatalf("draining took %d calls, want %d", calls, want)
	}
	if sum != total {
		t.Fatalf("processed %d completions, want %d", sum, total)
	}
	if events := store.DrainEvents(); len(events) != total {
		t.Fatalf("got %d events, want %d", len(events), total)
	}
	if stats := store.Stats(); stats.Ready != total || stats.Queued != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPumpZeroBudget(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("a.txt", []byte("a"))
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	store.Load(NewKey("a.txt", 0))
	waitQueued(t, store, 1)
	if processed := store.Pump(Budget{}); processed != 0 {
		t.Fatalf("Pump(Budget{}) processed %d, want 0", processed)
	}
	if store.Stats().Queued != 1 {
		t.Fatal("zero budget drained the queue")
	}
}

func TestPumpTimeSlice(t *testing.T) {
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	source := NewMemorySource("mem")
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := NewStore(registry, StoreConfig{Workers: 2, Clock: fake, Sources: []Source{source}})
	t.Cleanup(store.Close)

	for i := range 6 {
		path := fmt.Sprintf("slice-%d.txt", i)
		source.Put(path, []byte(path))
		store.Load(NewKey(path, 0))
	}
	waitQueued(t, store, 6)

	// Every clock read now advances one millisecond, so a two
	// millisecond slice fits fewer completions than are queued.
	fake.SetNowStep(time.Millisecond)
	processed := store.Pump(TimeSlice(2 * time.Millisecond))
	if processed < 1 || processed >= 6 {
		t.Fatalf("time-sliced Pump processed %d, want between 1 and 5", processed)
	}

	// The clock keeps stepping, so a one nanosecond slice has expired
	// after the first completion but still drains that one.
	if processed := store.Pump(TimeSlice(time.Nanosecond)); processed != 1 {
		t.Fatalf("Pump with tiny slice processed %d, want 1", processed)
	}
}

func TestGetWrongTypeReturnsFalse(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("a.txt", []byte("a"))
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	handle := LoadAs[testText](store, NewKey("a.txt", 0))
	pumpUntilTerminal(t, store, handle.ID())

	if image, ok := Get(store, HandleFor[testImage](handle.ID())); ok || image != nil {
		t.Fatalf("Get[testImage] on a text asset = %v, %v", image, ok)
	}
	if blob, ok := store.GetBlob(handle.ID()); ok || blob != nil {
		t.Fatalf("GetBlob on a text asset = %v, %v", blob, ok)
	}
	if _, ok := Get(store, handle); !ok {
		t.Fatal("Get[testText] failed after wrong-type lookups")
	}
}

func TestLoadAsSelectsImporterByType(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("doc.txt", []byte("body"))
	registry := NewRegistry()
	MustRegister(registry, NewImporter("blob", []string{"txt"}, 100, func(data []byte, _ Key) (*Blob, error) {
		return &Blob{TypeID: "test.text", Format: "txt", MetaJSON: "{}", Payload: data}, nil
	}))
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	handle := LoadAs[testText](store, NewKey("doc.txt", 0))
	pumpUntilTerminal(t, store, handle.ID())
	if text, ok := Get(store, handle); !ok || text.Content != "body" {
		t.Fatalf("Get = %v, %v; want the lower-priority text importer's output", text, ok)
	}

	untyped := store.Load(NewKey("doc.txt", 1))
	pumpUntilTerminal(t, store, untyped)
	blob, ok := store.GetBlob(untyped)
	if !ok || string(blob.Payload) != "body" || blob.TypeID != "test.text" {
		t.Fatalf("GetBlob = %+v, %v; want the highest-priority blob importer's output", blob, ok)
	}
}

func TestLayeredSourcesPreferEarlier(t *testing.T) {
	override := NewMemorySource("mod")
	override.Put("ui/title.txt", []byte("modded"))
	base := testutil.WriteTree(t, map[string]string{
		"ui/title.txt":  "base",
		"ui/footer.txt": "footer",
	})
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, override, NewFileSystemSource(base))

	title := LoadAs[testText](store, NewKey("UI/Title.txt", 0))
	footer := LoadAs[testText](store, NewKey("ui/footer.txt", 0))
	pumpUntilTerminal(t, store, title.ID())
	pumpUntilTerminal(t, store, footer.ID())

	if text, _ := Get(store, title); text == nil || text.Content != "modded" {
		t.Fatalf("title = %+v, want the override", text)
	}
	if text, _ := Get(store, footer); text == nil || text.Content != "footer" {
		t.Fatalf("footer = %+v, want the base file", text)
	}
}

func TestNotFoundListsEverySourceLocation(t *testing.T) {
	first := NewMemorySource("mod")
	root := t.TempDir()
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, first, NewFileSystemSource(root))

	id := store.Load(NewKey("gone.txt", 0))
	state := pumpUntilTerminal(t, store, id)
	for _, location := range []string{"mod:gone.txt", filepath.Join(root, "gone.txt")} {
		if !strings.Contains(state.Message, location) {
			t.Errorf("message %q does not mention %q", state.Message, location)
		}
	}
}

// panickingSource claims every path and panics reading it.
type panickingSource struct{}

func (panickingSource) Exists(string) bool { return true }

func (panickingSource) Read(logicalPath string) ([]byte, error) {
	panic("disk on fire reading " + logicalPath)
}

func TestPanickingSourceFailsLoad(t *testing.T) {
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, panickingSource{})

	id := store.Load(NewKey("hot.txt", 0))
	state := pumpUntilTerminal(t, store, id)
	if state.Status != StatusFailed || state.Kind != KindSource {
		t.Fatalf("state = %s kind %s, want failed source", state, state.Kind)
	}
	if !strings.Contains(state.Message, "disk on fire") {
		t.Fatalf("message %q does not carry the panic", state.Message)
	}
}

// opaqueSource has no Locator and returns the same *Error for every
// miss.
type opaqueSource struct {
	miss *Error
}

func (opaqueSource) Exists(string) bool { return false }

func (s opaqueSource) Read(string) ([]byte, error) { return nil, s.miss }

func TestNotFoundLeavesSourceErrorUntouched(t *testing.T) {
	miss := &Error{Message: "nothing stored under"}
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, opaqueSource{miss: miss})

	id := store.Load(NewKey("gone.txt", 0))
	state := pumpUntilTerminal(t, store, id)
	if state.Status != StatusFailed || state.Kind != KindSource {
		t.Fatalf("state = %s kind %s, want failed source", state, state.Kind)
	}
	if miss.Kind != KindUnknown {
		t.Fatalf("source's error kind was rewritten to %s", miss.Kind)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("a.txt", []byte("a"))
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	subscription := store.Subscribe(4)
	id := store.Load(NewKey("a.txt", 0))
	pumpUntilTerminal(t, store, id)

	event := testutil.RequireReceive(t, subscription.Events(), testTimeout, "waiting for ready event")
	if event.Kind != EventReady || event.ID != id || event.TypeName != "asset.testText" {
		t.Fatalf("event = %+v", event)
	}
	if drained := store.DrainEvents(); len(drained) != 1 || drained[0] != event {
		t.Fatalf("DrainEvents = %+v, want the same single event", drained)
	}

	store.Unsubscribe(subscription)
	testutil.RequireClosed(t, subscription.Events(), testTimeout, "subscription closed")
}

func TestSubscribeCountsDroppedEvents(t *testing.T) {
	source := NewMemorySource("mem")
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	subscription := store.Subscribe(1)
	for i := range 3 {
		path := fmt.Sprintf("drop-%d.txt", i)
		source.Put(path, []byte(path))
		store.Load(NewKey(path, 0))
	}
	waitQueued(t, store, 3)
	store.Pump(Steps(3))

	if dropped := store.Stats().DroppedEvents; dropped != 2 {
		t.Fatalf("DroppedEvents = %d, want 2", dropped)
	}
	if drained := store.DrainEvents(); len(drained) != 3 {
		t.Fatalf("DrainEvents returned %d events, want all 3", len(drained))
	}
	<-subscription.Events()
}

func TestLastPumpStats(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("ok.txt", []byte("12345"))
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	store.Load(NewKey("ok.txt", 0))
	store.Load(NewKey("missing.txt", 0))
	waitQueued(t, store, 2)
	store.Pump(Steps(8))

	stats := store.LastPump()
	if stats.Processed != 2 || stats.Succeeded != 1 || stats.Failed != 1 {
		t.Fatalf("LastPump = %+v", stats)
	}
	if stats.BytesRead != 5 {
		t.Fatalf("BytesRead = %d, want 5", stats.BytesRead)
	}
}

func TestCloseDiscardsPendingWork(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	registry := NewRegistry()
	MustRegister(registry, NewImporter("blocking", []string{"txt"}, 0, func(data []byte, _ Key) (*testText, error) {
		started <- struct{}{}
		<-release
		return &testText{Content: string(data)}, nil
	}))
	source := NewMemorySource("mem")
	source.Put("a.txt", []byte("a"))
	source.Put("b.txt", []byte("b"))
	store := NewStore(registry, StoreConfig{Workers: 1, Sources: []Source{source}})

	first := store.Load(NewKey("a.txt", 0))
	testutil.RequireReceive(t, started, testTimeout, "first import started")
	store.Load(NewKey("b.txt", 0))

	closed := make(chan struct{})
	go func() {
		store.Close()
		close(closed)
	}()
	close(release)
	testutil.RequireClosed(t, closed, testTimeout, "Close returned")

	if processed := store.Pump(Steps(8)); processed != 0 {
		t.Fatalf("Pump after Close processed %d, want 0", processed)
	}
	if state := store.State(first); state.Status != StatusLoading {
		t.Fatalf("state after Close = %s, want loading", state)
	}
	if stats := store.Stats(); stats.InFlight != 0 {
		t.Fatalf("InFlight after Close = %d", stats.InFlight)
	}

	// Loads after Close are ignored.
	late := store.Load(NewKey("late.txt", 0))
	if state := store.State(late); state.Status != StatusUnloaded {
		t.Fatalf("state of load after Close = %s, want unloaded", state)
	}
}

func TestLoadRacingCloseLeavesNoRow(t *testing.T) {
	source := NewMemorySource("mem")
	source.Put("a.txt", []byte("a"))
	registry := NewRegistry()
	MustRegister(registry, textImporter("text", 0, "txt"))
	store := newTestStore(t, registry, source)

	// The pool stops between Load's closed check and its submit.
	store.pool.close()

	id := store.Load(NewKey("a.txt", 0))
	if state := store.State(id); state.Status != StatusUnloaded {
		t.Fatalf("state = %s, want unloaded", state)
	}
	if loads := store.Stats().Loads; loads != 0 {
		t.Fatalf("Loads = %d, want 0", loads)
	}
}

func TestPumpPanicsOnCompletionForUnknownRow(t *testing.T) {
	store := newTestStore(t, NewRegistry())
	store.completions.push(completion{id: ID{Hi: 1, Lo: 2}})

	defer func() {
		if recover() == nil {
			t.Fatal("Pump did not panic on a completion for an unknown id")
		}
	}()
	store.Pump(Steps(1))
}
