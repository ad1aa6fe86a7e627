package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lazypower/vapor/internal/engine"
	"github.com/lazypower/vapor/internal/server"
	"github.com/lazypower/vapor/internal/store"
)

type nopScheduler struct{}

func (nopScheduler) ScheduleEvery(time.Duration, func()) func() { return func() {} }

func testClient(t *testing.T) (*Client, *engine.Engine) {
	t.Helper()
	t.Setenv("VAPOR_URL", "")

	eng := engine.New(store.NewAdapter(store.NewMemKV(), nil), engine.Options{Scheduler: nopScheduler{}})
	eng.Load()
	t.Cleanup(eng.Close)

	ts := httptest.NewServer(server.New(eng, "test"))
	t.Cleanup(ts.Close)
	return New(ts.URL), eng
}

func TestClientLifecycle(t *testing.T) {
	c, eng := testClient(t)
	require.True(t, c.Healthy())

	n, err := c.Add("from the cli", "")
	require.NoError(t, err)
	require.NoError(t, c.Update(n.ID, "edited"))
	require.NoError(t, c.SetTag(n.ID, store.TagTask))

	notes, err := c.Notes()
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "edited", notes[0].Text)
	assert.Equal(t, store.TagTask, notes[0].Tag)

	rev, ok, err := c.Delete(n.ID)
	require.NoError(t, err)
	require.True(t, ok)

	trash, err := c.Trash()
	require.NoError(t, err)
	assert.Len(t, trash, 1)

	undone, err := c.Undo(rev)
	require.NoError(t, err)
	assert.True(t, undone)
	assert.Len(t, eng.Notes(), 1)
	assert.Empty(t, eng.Trash())

	_, ok, err = c.Delete("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientTrashOps(t *testing.T) {
	c, eng := testClient(t)
	a, _ := c.Add("a", "")
	b, _ := c.Add("b", "")

	wipe, ok, err := c.ClearAll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, wipe.Notes, 2)

	ok, err = c.RestoreFromTrash(a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.PermanentDelete(b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.PermanentDelete(b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ClearTrash())
	assert.Equal(t, []string{a.ID}, []string{eng.Notes()[0].ID})
}

func TestClientClearAllEmpty(t *testing.T) {
	c, eng := testClient(t)

	rev, ok, err := c.ClearAll()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rev.Kind)

	n, _ := c.Add("kept", "")
	undone, err := c.Undo(rev)
	assert.Error(t, err, "an empty reversal is not a valid undo")
	assert.False(t, undone)
	assert.Equal(t, n.ID, eng.Notes()[0].ID)
}

func TestClientErrors(t *testing.T) {
	c, _ := testClient(t)

	_, err := c.Add("   ", "")
	assert.Error(t, err)

	assert.Error(t, c.SetTag("x", store.Tag("bogus")))

	err = c.do(http.MethodGet, "/api/nope", nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, c.SetTag("x", store.Tag("bogus")), ErrNotFound)

	down := New("http://127.0.0.1:1")
	assert.False(t, down.Healthy())
}
