// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package asset

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/bureau-foundation/assetpipe/lib/clock"
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// Workers is the number of imports that may run at once. Zero
	// means runtime.GOMAXPROCS(0).
	Workers int

	// Logger receives debug and warning output. Nil discards.
	Logger *slog.Logger

	// Clock measures pump time slices and import timings. Nil means
	// clock.Real().
	Clock clock.Clock

	// Sources is the initial source list, highest precedence first.
	Sources []Source
}

// Store owns every asset row and is the only component that moves a
// row between states. Load, State, Get and GetBlob are safe from any
// goroutine and never wait on import work. Pump applies completed
// imports; call it from one goroutine (typically the frame loop).
type Store struct {
	registry *Registry
	logger   *slog.Logger
	clock    clock.Clock

	completions *completionQueue
	pool        *workerPool

	// pumpMu serializes Pump so completions are applied in queue
	// order even if a caller pumps from two goroutines.
	pumpMu sync.Mutex

	mu          sync.RWMutex
	closed      bool
	sources     []Source
	rows        map[ID]*row
	loads       uint64
	coalesced   uint64
	events      []Event
	subscribers map[*Subscription]struct{}
	dropped     uint64
	lastPump    PumpStats
}

type row struct {
	key     Key
	status  Status
	binding *erasedImporter

	// payload is set when status is StatusReady.
	payload payload

	// message and kind are set when status is StatusFailed.
	message string
	kind    ErrorKind
}

// NewStore returns a store that imports through registry.
func NewStore(registry *Registry, config StoreConfig) *Store {
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	storeClock := config.Clock
	if storeClock == nil {
		storeClock = clock.Real()
	}

	return &Store{
		registry:    registry,
		logger:      logger,
		clock:       storeClock,
		completions: &completionQueue{},
		pool:        newWorkerPool(workers),
		sources:     slices.Clone(config.Sources),
		rows:        make(map[ID]*row),
		subscribers: make(map[*Subscription]struct{}),
	}
}

// AddSource appends a source with the lowest precedence. Loads already
// dispatched keep the source list they started with.
func (s *Store) AddSource(source Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, source)
}

// Sources returns the current source list.
func (s *Store) Sources() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sources)
}

// Registry returns the registry the store imports through.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Load requests key and returns its ID. The first request for an ID
// creates a Loading row and dispatches exactly one import; later
// requests for the same ID return immediately whatever its state. The
// importer is chosen from the key's extension alone.
//
// Load never blocks on I/O or import work. Progress becomes visible
// only through Pump.
func (s *Store) Load(key Key) ID {
	return s.load(key, nil)
}

// LoadAs requests key through an importer producing T and returns a
// typed handle. If the ID was already requested, the existing row is
// reused even if another importer claimed it, in which case Get with
// this handle returns false.
func LoadAs[T any](store *Store, key Key) Handle[T] {
	return HandleFor[T](store.load(key, reflect.TypeFor[T]()))
}

func (s *Store) load(key Key, want reflect.Type) ID {
	id := key.ID()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("asset load after store close", "path", key.LogicalPath, "id", id)
		return id
	}
	if _, exists := s.rows[id]; exists {
		s.coalesced++
		s.mu.Unlock()
		return id
	}

	binding, selectErr := s.registry.selectImporter(key.Extension(), want)
	s.rows[id] = &row{key: key, status: StatusLoading, binding: binding}
	s.loads++
	work := importJob{
		id:        id,
		key:       key,
		binding:   binding,
		selectErr: selectErr,
		sources:   slices.Clone(s.sources),
		clock:     s.clock,
		sink:      s.completions,
	}
	s.mu.Unlock()

	s.logger.Debug("asset load dispatched",
		"path", key.LogicalPath,
		"id", id,
		"importer", work.importerName(),
	)
	if !s.pool.submit(work.run) {
		// Close won the race after the row was created; nothing will
		// ever complete it.
		s.mu.Lock()
		delete(s.rows, id)
		s.loads--
		s.mu.Unlock()
		s.logger.Warn("asset load after store close", "path", key.LogicalPath, "id", id)
	}
	return id
}

// State returns a snapshot of id's row. It may lag the import by up
// to one Pump.
func (s *Store) State(id ID) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return State{Status: StatusUnloaded}
	}
	return State{Status: r.status, Message: r.message, Kind: r.kind}
}

// Key returns the key id was first requested with.
func (s *Store) Key(id ID) (Key, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return Key{}, false
	}
	return r.key, true
}

// Get returns the imported value for handle when the row is Ready and
// its payload is a T. The value is shared: callers must not modify it.
func Get[T any](store *Store, handle Handle[T]) (*T, bool) {
	store.mu.RLock()
	r, ok := store.rows[handle.id]
	if !ok || r.status != StatusReady {
		store.mu.RUnlock()
		return nil, false
	}
	result := r.payload
	store.mu.RUnlock()

	if result.typ != reflect.TypeFor[T]() {
		return nil, false
	}
	value, ok := result.value.(*T)
	return value, ok
}

// GetBlob returns the blob for id when it is Ready and was produced by
// a Blob importer.
func (s *Store) GetBlob(id ID) (*Blob, bool) {
	return Get(s, HandleFor[Blob](id))
}

// Pump applies queued completions within budget and returns how many
// it applied. Each one moves its row from Loading to Ready or Failed
// and then appends an Event. Completions beyond the budget stay queued
// for the next call.
func (s *Store) Pump(budget Budget) int {
	s.pumpMu.Lock()
	defer s.pumpMu.Unlock()

	start := s.clock.Now()
	var stats PumpStats
	for !budget.IsZero() {
		if budget.MaxCompletions > 0 && stats.Processed >= budget.MaxCompletions {
			break
		}
		if budget.TimeSlice > 0 && stats.Processed > 0 && clock.Since(s.clock, start) >= budget.TimeSlice {
			break
		}
		done, ok := s.completions.pop()
		if !ok {
			break
		}
		s.apply(done, &stats)
	}
	stats.Duration = clock.Since(s.clock, start)

	s.mu.Lock()
	s.lastPump = stats
	s.mu.Unlock()
	return stats.Processed
}

func (s *Store) apply(done completion, stats *PumpStats) {
	s.mu.Lock()
	r, ok := s.rows[done.id]
	if !ok {
		s.mu.Unlock()
		panic(fmt.Sprintf("asset: completion for unknown id %s", done.id))
	}
	if r.status != StatusLoading {
		s.mu.Unlock()
		panic(fmt.Sprintf("asset: completion for id %s in state %s", done.id, r.status))
	}

	event := Event{ID: done.id}
	if r.binding != nil {
		event.TypeName = r.binding.typeName
	}
	if done.err == nil {
		if done.payload.value == nil {
			s.mu.Unlock()
			panic(fmt.Sprintf("asset: successful completion for id %s without a payload", done.id))
		}
		r.status = StatusReady
		r.payload = done.payload
		event.Kind = EventReady
		stats.Succeeded++
	} else {
		r.status = StatusFailed
		r.message = done.err.Error()
		r.kind = KindOf(done.err)
		event.Kind = EventFailed
		event.Error = r.message
		event.ErrorKind = r.kind
		stats.Failed++
	}
	stats.Processed++
	stats.BytesRead += done.bytesRead
	stats.IOTime += done.ioTime
	stats.ImportTime += done.importTime

	s.events = append(s.events, event)
	dropped := s.publishLocked(event)
	path := r.key.LogicalPath
	s.mu.Unlock()

	if dropped > 0 {
		s.logger.Warn("asset event dropped for slow subscribers",
			"id", done.id,
			"subscribers", dropped,
		)
	}
	if done.err != nil {
		s.logger.Debug("asset failed", "path", path, "id", done.id, "error", done.err)
	} else {
		s.logger.Debug("asset ready",
			"path", path,
			"id", done.id,
			"type", event.TypeName,
			"bytes", done.bytesRead,
			"import_time", done.importTime,
		)
	}
}

// publishLocked offers event to every subscriber without blocking and
// returns how many could not take it. Caller holds s.mu.
func (s *Store) publishLocked(event Event) int {
	dropped := 0
	for subscription := range s.subscribers {
		select {
		case subscription.events <- event:
		default:
			dropped++
		}
	}
	s.dropped += uint64(dropped)
	return dropped
}

// DrainEvents returns and clears every event appended since the last
// call, in the order Pump produced them. Each event is returned by
// exactly one DrainEvents call. Callers that never drain should not
// expect the event list to stay small.
func (s *Store) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

// Subscribe returns a subscription that receives events produced by
// later Pump calls. buffer is the channel capacity; events that do not
// fit are dropped for this subscriber only.
func (s *Store) Subscribe(buffer int) *Subscription {
	if buffer < 0 {
		buffer = 0
	}
	subscription := &Subscription{events: make(chan Event, buffer)}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		subscription.close()
		return subscription
	}
	s.subscribers[subscription] = struct{}{}
	return subscription
}

// Unsubscribe detaches subscription and closes its channel.
func (s *Store) Unsubscribe(subscription *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscribers, subscription)
	subscription.close()
}

// Bindings returns the registry's importer bindings.
func (s *Store) Bindings() []Binding {
	return s.registry.Bindings()
}

// PumpStats describes one Pump call.
type PumpStats struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// BytesRead is the total source bytes behind the applied
	// completions.
	BytesRead int64 `json:"bytes_read"`

	// IOTime and ImportTime sum the worker-side read and import
	// durations of the applied completions.
	IOTime     time.Duration `json:"io_time"`
	ImportTime time.Duration `json:"import_time"`

	// Duration is the time Pump itself took.
	Duration time.Duration `json:"duration"`
}

// LastPump returns the statistics of the most recent Pump call.
func (s *Store) LastPump() PumpStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPump
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Rows    int `json:"rows"`
	Loading int `json:"loading"`
	Ready   int `json:"ready"`
	Failed  int `json:"failed"`

	// Loads counts requests that created a row; Coalesced counts
	// requests answered by an existing row.
	Loads     uint64 `json:"loads"`
	Coalesced uint64 `json:"coalesced"`

	// InFlight is the number of jobs submitted and not yet finished.
	InFlight int `json:"in_flight"`

	// Queued is the number of completions waiting for Pump.
	Queued int `json:"queued"`

	// PendingEvents is the number of events waiting for DrainEvents.
	PendingEvents int `json:"pending_events"`

	// DroppedEvents counts subscriber deliveries that did not fit.
	DroppedEvents uint64 `json:"dropped_events"`
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	stats := Stats{
		Rows:          len(s.rows),
		Loads:         s.loads,
		Coalesced:     s.coalesced,
		PendingEvents: len(s.events),
		DroppedEvents: s.dropped,
	}
	for _, r := range s.rows {
		switch r.status {
		case StatusLoading:
			stats.Loading++
		case StatusReady:
			stats.Ready++
		case StatusFailed:
			stats.Failed++
		}
	}
	s.mu.RUnlock()

	stats.InFlight = s.pool.pending()
	stats.Queued = s.completions.len()
	return stats
}

// Close stops the store. Jobs that have not started never run; running
// imports finish but their results are discarded. Close waits for
// running imports and closes every subscription. Rows keep their last
// state and remain readable.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for subscription := range s.subscribers {
		subscription.close()
		delete(s.subscribers, subscription)
	}
	s.mu.Unlock()

	s.completions.close()
	s.pool.close()
}

// importJob carries everything one import needs by value, so it never
// touches the store.
type importJob struct {
	id        ID
	key       Key
	binding   *erasedImporter
	selectErr error
	sources   []Source
	clock     clock.Clock
	sink      *completionQueue
}

func (j importJob) importerName() string {
	if j.binding == nil {
		return ""
	}
	return j.binding.name
}

func (j importJob) run() {
	j.sink.push(j.execute())
}

func (j importJob) execute() completion {
	result := completion{id: j.id}

	if err := j.key.Validate(); err != nil {
		result.err = err
		return result
	}

	readStart := j.clock.Now()
	data, err := readRecovered(j.sources, j.key.LogicalPath)
	result.ioTime = clock.Since(j.clock, readStart)
	if err != nil {
		result.err = err
		return result
	}
	result.bytesRead = int64(len(data))

	if j.binding == nil {
		failure := *asError(j.selectErr, KindNoImporter)
		failure.Path = j.key.LogicalPath
		result.err = &failure
		return result
	}

	importStart := j.clock.Now()
	imported, err := j.binding.importAny(data, j.key)
	result.importTime = clock.Since(j.clock, importStart)
	if err != nil {
		result.err = err
		return result
	}
	result.payload = imported
	return result
}

// readRecovered is readLayered for worker goroutines: a panicking
// source fails the load instead of the process.
func readRecovered(sources []Source, logicalPath string) (data []byte, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			data = nil
			err = &Error{
				Kind:    KindSource,
				Path:    logicalPath,
				Message: "asset source panicked reading",
				Err:     fmt.Errorf("%v", recovered),
			}
		}
	}()
	return readLayered(sources, logicalPath)
}
