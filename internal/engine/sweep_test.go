package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/vapor/internal/expiry"
	"github.com/lazypower/vapor/internal/store"
)

func TestSweepTTLBoundary(t *testing.T) {
	h := loaded(t)
	now := h.clock.Now()
	h.eng.ReplaceNotes([]store.Note{
		{ID: "survivor", CreatedAt: now.Add(-3599 * time.Second)},
		{ID: "expired", CreatedAt: now.Add(-3601 * time.Second)},
	})

	notes, trash := h.eng.Sweep()
	assert.Equal(t, 1, notes)
	assert.Equal(t, 0, trash)
	assert.Equal(t, []string{"survivor"}, noteIDs(h.eng.Notes()))
	assert.Empty(t, h.eng.Trash(), "expiry is silent, no trash entry")
}

func TestSweepTrashMeasuresDeletedAt(t *testing.T) {
	h := loaded(t)
	n, _ := h.eng.Add("x", "")
	h.clock.Advance(50 * time.Minute)
	h.eng.Delete(n.ID)

	h.clock.Advance(30 * time.Minute)
	h.eng.Sweep()
	require.Len(t, h.eng.Trash(), 1, "80 minutes old but deleted 30 minutes ago")

	h.clock.Advance(30 * time.Minute)
	_, removed := h.eng.Sweep()
	assert.Equal(t, 1, removed)
	assert.Empty(t, h.eng.Trash())
}

func TestClearAllBatchExpiresTogether(t *testing.T) {
	h := loaded(t)
	h.eng.Add("a", "")
	h.clock.Advance(20 * time.Minute)
	h.eng.Add("b", "")
	h.eng.ClearAll()

	h.clock.Advance(expiry.TTL - time.Second)
	h.eng.Sweep()
	assert.Len(t, h.eng.Trash(), 2)

	h.clock.Advance(time.Second)
	h.eng.Sweep()
	assert.Empty(t, h.eng.Trash())
}

func TestSweepBeforeLoadIsNoop(t *testing.T) {
	h := newHarness(t)
	h.eng.ReplaceNotes([]store.Note{{ID: "old", CreatedAt: h.clock.Now().Add(-2 * time.Hour)}})

	notes, trash := h.eng.Sweep()
	assert.Zero(t, notes+trash)
	assert.Len(t, h.eng.Notes(), 1)
}

func TestStartSchedulesSweep(t *testing.T) {
	h := loaded(t)
	h.eng.Add("x", "")
	h.eng.Start()
	h.eng.Start()

	assert.Equal(t, expiry.SweepInterval, h.sched.interval)

	h.clock.Advance(expiry.TTL)
	h.sched.Tick()
	assert.Empty(t, h.eng.Notes())

	h.eng.Close()
	assert.True(t, h.sched.cancelled)
}

func TestTickerScheduler(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	fired := make(chan struct{}, 10)

	cancel := TickerScheduler{}.ScheduleEvery(5*time.Millisecond, func() {
		mu.Lock()
		calls++
		mu.Unlock()
		fired <- struct{}{}
	})
	defer cancel()

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("scheduler never fired")
		}
	}
	cancel()
	cancel()

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 2)
}

// countingPersistence wraps an adapter and counts saves per key.
type countingPersistence struct {
	*store.Adapter
	mu         sync.Mutex
	noteSaves  int
	trashSaves int
	failNotes  bool
}

func (c *countingPersistence) SaveNotes(notes []store.Note) error {
	c.mu.Lock()
	c.noteSaves++
	fail := c.failNotes
	c.mu.Unlock()
	if fail {
		return errors.New("quota exceeded")
	}
	return c.Adapter.SaveNotes(notes)
}

func (c *countingPersistence) SaveTrash(trash []store.TrashedNote) error {
	c.mu.Lock()
	c.trashSaves++
	c.mu.Unlock()
	return c.Adapter.SaveTrash(trash)
}

func (c *countingPersistence) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.noteSaves, c.trashSaves
}

func TestWriteThroughOnlyDirtyCollections(t *testing.T) {
	p := &countingPersistence{Adapter: store.NewAdapter(store.NewMemKV(), nil)}
	e := New(p, Options{NewID: countingIDs(), Scheduler: &manualScheduler{}})
	defer e.Close()

	e.Load()
	e.Flush()
	notes0, trash0 := p.counts()
	assert.Equal(t, 1, notes0)
	assert.Equal(t, 1, trash0)

	n, _ := e.Add("x", "")
	e.Flush()
	notes1, trash1 := p.counts()
	assert.Greater(t, notes1, notes0)
	assert.Equal(t, trash0, trash1, "trash untouched by Add")

	e.Delete(n.ID)
	e.Flush()
	e.PermanentDelete(n.ID)
	e.Flush()
	notes2, trash2 := p.counts()
	assert.Greater(t, trash2, trash1)
	assert.Equal(t, notes1+1, notes2, "PermanentDelete only writes trash")

	assert.Empty(t, p.LoadNotes())
	assert.Empty(t, p.LoadTrash())
}

func TestSaveFailureDegradesToMemory(t *testing.T) {
	p := &countingPersistence{Adapter: store.NewAdapter(store.NewMemKV(), nil), failNotes: true}
	e := New(p, Options{Scheduler: &manualScheduler{}})
	defer e.Close()
	e.Load()

	n, err := e.Add("kept in memory", "")
	require.NoError(t, err)
	e.Flush()

	assert.Equal(t, []string{n.ID}, noteIDs(e.Notes()))
	assert.Empty(t, p.LoadNotes())
}

func TestCloseFlushesPendingWrites(t *testing.T) {
	kv := store.NewMemKV()
	h := newHarnessKV(t, kv)
	h.eng.Load()
	n, _ := h.eng.Add("last words", "")
	h.eng.Close()

	assert.Equal(t, []string{n.ID}, noteIDs(h.ad.LoadNotes()))

	// Still usable in memory; Flush after Close returns.
	h.eng.Add("after close", "")
	h.eng.Flush()
	assert.Len(t, h.eng.Notes(), 2)
}

func TestConcurrentMutations(t *testing.T) {
	h := loaded(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				n, _ := h.eng.Add("c", "")
				if j%3 == 0 {
					h.eng.Delete(n.ID)
				}
				h.eng.Sweep()
			}
		}()
	}
	wg.Wait()
	h.eng.Flush()

	snap := h.eng.Snapshot()
	assert.Equal(t, 200, len(snap.Notes)+len(snap.Trash))
	assertUnique(t, h.eng)
	assert.Len(t, h.ad.LoadNotes(), len(snap.Notes))
	assert.Len(t, h.ad.LoadTrash(), len(snap.Trash))
}
