package engine

import (
	"log/slog"
	"sync"

	"github.com/lazypower/vapor/internal/store"
)

// writer persists snapshots from a single goroutine. Pending snapshots are
// coalesced per collection, so the newest state always wins.
type writer struct {
	persist Persistence
	log     *slog.Logger

	mu    sync.Mutex
	notes []store.Note
	trash []store.TrashedNote
	dirty dirty

	kick      chan struct{}
	flushCh   chan chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newWriter(p Persistence, logger *slog.Logger) *writer {
	w := &writer{
		persist: p,
		log:     logger,
		kick:    make(chan struct{}, 1),
		flushCh: make(chan chan struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue records snap for the collections named by d and wakes the writer.
// It never blocks.
func (w *writer) enqueue(snap Snapshot, d dirty) {
	w.mu.Lock()
	if d&dirtyNotes != 0 {
		w.notes = snap.Notes
	}
	if d&dirtyTrash != 0 {
		w.trash = snap.Trash
	}
	w.dirty |= d
	w.mu.Unlock()

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.kick:
			w.drain()
		case ack := <-w.flushCh:
			w.drain()
			close(ack)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *writer) drain() {
	w.mu.Lock()
	d, notes, trash := w.dirty, w.notes, w.trash
	w.dirty, w.notes, w.trash = dirtyNone, nil, nil
	w.mu.Unlock()

	// Keys are saved independently: a failure on one does not block the other.
	if d&dirtyNotes != 0 {
		if err := w.persist.SaveNotes(notes); err != nil {
			w.log.Warn("engine: save notes failed, continuing in memory", "err", err)
		}
	}
	if d&dirtyTrash != 0 {
		if err := w.persist.SaveTrash(trash); err != nil {
			w.log.Warn("engine: save trash failed, continuing in memory", "err", err)
		}
	}
}

func (w *writer) flush() {
	ack := make(chan struct{})
	select {
	case w.flushCh <- ack:
		<-ack
	case <-w.done:
	}
}

func (w *writer) close() {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.done
}
