// Package engine owns the active and trashed note collections: it applies
// mutations, evicts expired entries and writes changes through to a
// Persistence backend once the load gate has opened.
package engine

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lazypower/vapor/internal/store"
)

// ErrEmptyText is returned by Add for blank input.
var ErrEmptyText = errors.New("note text is empty")

// Persistence loads and saves whole collections. *store.Adapter satisfies it.
// Loads must not fail; saves are best-effort.
type Persistence interface {
	LoadNotes() []store.Note
	LoadTrash() []store.TrashedNote
	SaveNotes(notes []store.Note) error
	SaveTrash(trash []store.TrashedNote) error
}

// Options configures an Engine. Zero values select real time, UUIDs, a
// ticker-driven sweep and slog.Default().
type Options struct {
	Clock     func() time.Time
	NewID     func() string
	Scheduler Scheduler
	Logger    *slog.Logger
}

// Snapshot is a read-only view of both collections. Version increases with
// every committed change.
type Snapshot struct {
	Notes   []store.Note        `json:"notes"`
	Trash   []store.TrashedNote `json:"trash"`
	Version uint64              `json:"version"`
}

// Engine is the note lifecycle and trash store. It is safe for concurrent
// use; one mutex covers both collections.
type Engine struct {
	mu      sync.Mutex
	st      state
	version uint64
	loaded  bool
	pending []func(*state) dirty // mutations made before Load, replayed after hydration

	loadOnce  sync.Once
	startOnce sync.Once
	closeOnce sync.Once

	persist     Persistence
	writer      *writer
	sched       Scheduler
	cancelSweep func()

	now   func() time.Time
	newID func() string
	log   *slog.Logger

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	pubMu         sync.Mutex // serializes delivery to subscribers
	lastPublished uint64
}

// New creates an Engine backed by p. Collections start empty and nothing is
// persisted until Load has run.
func New(p Persistence, opts Options) *Engine {
	e := &Engine{
		st:      state{notes: []store.Note{}, trash: []store.TrashedNote{}},
		persist: p,
		sched:   opts.Scheduler,
		now:     opts.Clock,
		newID:   opts.NewID,
		log:     opts.Logger,
		subs:    make(map[int]func(Snapshot)),
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	if e.sched == nil {
		e.sched = TickerScheduler{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.writer = newWriter(p, e.log)
	return e
}

// Notes returns a copy of the active collection, newest first.
func (e *Engine) Notes() []store.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.st.notes)
}

// Trash returns a copy of the trash collection, most recently deleted first.
func (e *Engine) Trash() []store.TrashedNote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.st.trash)
}

// Snapshot returns both collections and the current version atomically.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{
		Notes:   slices.Clone(e.st.notes),
		Trash:   slices.Clone(e.st.trash),
		Version: e.version,
	}
}

// Subscribe registers fn to receive a snapshot after every committed change.
// Deliveries arrive in increasing Version order; a snapshot overtaken by a
// newer one before delivery is skipped. fn runs outside the engine lock,
// must not modify the snapshot and must not call back into the engine.
func (e *Engine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

func (e *Engine) publish(snap Snapshot) {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	if snap.Version <= e.lastPublished {
		return
	}
	e.lastPublished = snap.Version

	e.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// record queues replay for a mutation made before the gate opened.
func (e *Engine) record(replay func(*state) dirty) {
	if !e.loaded {
		e.pending = append(e.pending, replay)
	}
}

// finish commits d, releases the lock and notifies subscribers. It must be
// called with e.mu held.
func (e *Engine) finish(d dirty) {
	if d == dirtyNone {
		e.mu.Unlock()
		return
	}
	e.version++
	snap := e.snapshotLocked()
	if e.loaded {
		e.writer.enqueue(snap, d)
	}
	e.mu.Unlock()
	e.publish(snap)
}

// Add captures a new note at the front of the active collection.
func (e *Engine) Add(text, audioData string) (store.Note, error) {
	if strings.TrimSpace(text) == "" {
		return store.Note{}, ErrEmptyText
	}
	n := store.Note{
		ID:        e.newID(),
		Text:      text,
		CreatedAt: e.now(),
		AudioData: audioData,
	}

	e.mu.Lock()
	d := e.st.add(n)
	e.record(func(s *state) dirty { return s.add(n) })
	e.finish(d)
	return n, nil
}

// Update replaces a note's text in place. Unknown ids are ignored.
func (e *Engine) Update(id, text string) {
	e.mu.Lock()
	d := e.st.update(id, text)
	e.record(func(s *state) dirty { return s.update(id, text) })
	e.finish(d)
}

// SetTag sets or, with store.TagNone, clears a note's tag. Unknown ids and
// invalid tags are ignored.
func (e *Engine) SetTag(id string, tag store.Tag) {
	e.mu.Lock()
	d := e.st.setTag(id, tag)
	e.record(func(s *state) dirty { return s.setTag(id, tag) })
	e.finish(d)
}

// Delete moves a note to trash. The returned reversal undoes it while the
// caller holds it; ok is false if id was not active.
func (e *Engine) Delete(id string) (rev Reversal, ok bool) {
	now := e.now()

	e.mu.Lock()
	n, ok, d := e.st.trashNote(id, now)
	e.record(func(s *state) dirty { _, _, d := s.trashNote(id, now); return d })
	e.finish(d)

	if !ok {
		return Reversal{}, false
	}
	return restoreReversal(n), true
}

// RestoreNote re-inserts a previously held note and re-sorts the active
// collection. It reports false if the id is already active.
func (e *Engine) RestoreNote(n store.Note) bool {
	e.mu.Lock()
	ok, d := e.st.restoreNote(n)
	e.record(func(s *state) dirty { _, d := s.restoreNote(n); return d })
	e.finish(d)
	return ok
}

// RestoreFromTrash moves a trashed note back to the active collection with
// its original CreatedAt.
func (e *Engine) RestoreFromTrash(id string) bool {
	e.mu.Lock()
	ok, d := e.st.restoreFromTrash(id)
	e.record(func(s *state) dirty { _, d := s.restoreFromTrash(id); return d })
	e.finish(d)
	return ok
}

// PermanentDelete removes a note from trash irreversibly.
func (e *Engine) PermanentDelete(id string) bool {
	e.mu.Lock()
	ok, d := e.st.purge(id)
	e.record(func(s *state) dirty { _, d := s.purge(id); return d })
	e.finish(d)
	return ok
}

// ClearAll trashes every active note with one shared DeletedAt, so the batch
// expires from trash together. The reversal restores the prior collection;
// ok is false, and the reversal empty, when there was nothing to clear.
func (e *Engine) ClearAll() (rev Reversal, ok bool) {
	now := e.now()

	e.mu.Lock()
	prior, d := e.st.clearAll(now)
	e.record(func(s *state) dirty { _, d := s.clearAll(now); return d })
	e.finish(d)

	if len(prior) == 0 {
		return Reversal{}, false
	}
	return replaceReversal(prior), true
}

// ClearTrash empties the trash irreversibly.
func (e *Engine) ClearTrash() {
	e.mu.Lock()
	d := e.st.clearTrash()
	e.record(func(s *state) dirty { return s.clearTrash() })
	e.finish(d)
}

// ReplaceNotes overwrites the active collection wholesale, bypassing trash.
func (e *Engine) ReplaceNotes(notes []store.Note) {
	notes = slices.Clone(notes)

	e.mu.Lock()
	d := e.st.replaceNotes(notes)
	e.record(func(s *state) dirty { return s.replaceNotes(notes) })
	e.finish(d)
}
