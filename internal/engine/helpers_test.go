package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lazypower/vapor/internal/store"
)

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// manualScheduler records scheduled callbacks; tests fire them with Tick.
type manualScheduler struct {
	mu        sync.Mutex
	interval  time.Duration
	fn        func()
	cancelled bool
}

func (s *manualScheduler) ScheduleEvery(interval time.Duration, fn func()) func() {
	s.mu.Lock()
	s.interval, s.fn = interval, fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
	}
}

func (s *manualScheduler) Tick() {
	s.mu.Lock()
	fn, cancelled := s.fn, s.cancelled
	s.mu.Unlock()
	if fn != nil && !cancelled {
		fn()
	}
}

// countingIDs yields n1, n2, ...
func countingIDs() func() string {
	var mu sync.Mutex
	i := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		i++
		return fmt.Sprintf("n%d", i)
	}
}

type harness struct {
	eng   *Engine
	clock *fakeClock
	sched *manualScheduler
	kv    *store.MemKV
	ad    *store.Adapter
}

// newHarness builds an unloaded engine over a fresh MemKV.
func newHarness(t *testing.T) *harness {
	t.Helper()
	kv := store.NewMemKV()
	return newHarnessKV(t, kv)
}

func newHarnessKV(t *testing.T, kv *store.MemKV) *harness {
	t.Helper()
	h := &harness{
		clock: newFakeClock(),
		sched: &manualScheduler{},
		kv:    kv,
		ad:    store.NewAdapter(kv, nil),
	}
	h.eng = New(h.ad, Options{
		Clock:     h.clock.Now,
		NewID:     countingIDs(),
		Scheduler: h.sched,
	})
	t.Cleanup(h.eng.Close)
	return h
}

// loaded returns a harness whose gate is already open.
func loaded(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t)
	h.eng.Load()
	return h
}

func noteIDs(notes []store.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func trashIDs(trash []store.TrashedNote) []string {
	out := make([]string, len(trash))
	for i, n := range trash {
		out[i] = n.ID
	}
	return out
}

// assertUnique fails if any id appears twice across both collections.
func assertUnique(t *testing.T, e *Engine) {
	t.Helper()
	snap := e.Snapshot()
	seen := map[string]bool{}
	for _, id := range append(noteIDs(snap.Notes), trashIDs(snap.Trash)...) {
		if seen[id] {
			t.Fatalf("id %s appears more than once: notes=%v trash=%v", id, noteIDs(snap.Notes), trashIDs(snap.Trash))
		}
		seen[id] = true
	}
}
