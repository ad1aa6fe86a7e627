package engine

import (
	"sync"
	"time"

	"github.com/lazypower/vapor/internal/expiry"
)

// Scheduler runs fn every interval until the returned cancel is called.
type Scheduler interface {
	ScheduleEvery(interval time.Duration, fn func()) (cancel func())
}

// TickerScheduler drives callbacks from a time.Ticker goroutine.
type TickerScheduler struct{}

func (TickerScheduler) ScheduleEvery(interval time.Duration, fn func()) func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(stop) }) }
}

// Start schedules the periodic sweep. Call Load first; sweeps before the
// gate opens do nothing.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		cancel := e.sched.ScheduleEvery(expiry.SweepInterval, func() { e.Sweep() })
		e.mu.Lock()
		e.cancelSweep = cancel
		e.mu.Unlock()
	})
}

// Sweep evicts expired notes from both collections. Expired active notes
// vanish without a trash entry.
func (e *Engine) Sweep() (notesRemoved, trashRemoved int) {
	now := e.now()

	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return 0, 0
	}
	notesRemoved, trashRemoved, d := e.st.sweep(now)
	e.finish(d)

	if d != dirtyNone {
		e.log.Debug("engine: sweep", "notes", notesRemoved, "trash", trashRemoved)
	}
	return notesRemoved, trashRemoved
}

// Flush blocks until every change committed so far has been handed to
// persistence.
func (e *Engine) Flush() {
	e.writer.flush()
}

// Close cancels the sweep and flushes pending writes. The engine stays
// readable, and later changes are kept in memory only.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		cancel := e.cancelSweep
		e.cancelSweep = nil
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		e.writer.close()
	})
}
