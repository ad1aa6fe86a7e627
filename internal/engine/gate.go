package engine

import (
	"time"

	"github.com/lazypower/vapor/internal/expiry"
	"github.com/lazypower/vapor/internal/store"
)

// Load hydrates the collections from persistence and opens the gate. It runs
// at most once; later calls return immediately.
//
// Mutations made before Load were applied to the empty default state and
// queued. Hydrated data replaces that state, the queue is replayed on top of
// it in call order, and only then is the first write-through issued. The
// empty default state is therefore never persisted over saved data.
func (e *Engine) Load() {
	e.loadOnce.Do(e.hydrate)
}

// Loaded reports whether the gate is open.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *Engine) hydrate() {
	notes := e.persist.LoadNotes()
	trash := e.persist.LoadTrash()
	now := e.now()

	hydrated := prepare(notes, trash, now)
	dropped := len(notes) + len(trash) - len(hydrated.notes) - len(hydrated.trash)

	e.mu.Lock()
	replayed := len(e.pending)
	e.st = hydrated
	for _, replay := range e.pending {
		replay(&e.st)
	}
	e.pending = nil
	e.loaded = true
	e.finish(dirtyBoth)

	e.log.Info("engine: hydrated",
		"notes", len(hydrated.notes),
		"trash", len(hydrated.trash),
		"dropped", dropped,
		"replayed", replayed)
}

// prepare applies expiry, restores ordering and enforces id uniqueness on
// freshly loaded collections. An id present in both is kept active.
func prepare(notes []store.Note, trash []store.TrashedNote, now time.Time) state {
	notes = expiry.FilterLive(notes, func(n store.Note) time.Time { return n.CreatedAt }, now, expiry.TTL)
	trash = expiry.FilterLive(trash, func(n store.TrashedNote) time.Time { return n.DeletedAt }, now, expiry.TTL)

	seen := make(map[string]bool, len(notes)+len(trash))
	st := state{
		notes: make([]store.Note, 0, len(notes)),
		trash: make([]store.TrashedNote, 0, len(trash)),
	}
	for _, n := range notes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		st.notes = append(st.notes, n)
	}
	for _, t := range trash {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		st.trash = append(st.trash, t)
	}
	sortNotes(st.notes)
	sortTrash(st.trash)
	return st
}
