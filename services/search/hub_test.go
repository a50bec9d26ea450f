package search

import (
	"testing"
	"time"

	"senadirectory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(dir Directory) *Hub {
	h := NewHub(dir, time.Minute, nil)
	h.debounce = testDebounce
	return h
}

func TestHub_InputStreamsUpdates(t *testing.T) {
	dir := &fakeDirectory{}
	h := newTestHub(dir)

	id := h.Open(ModeInline)
	updates, err := h.Updates(id)
	require.NoError(t, err)

	require.NoError(t, h.Input(id, "p", models.SearchFilters{}))
	require.NoError(t, h.Input(id, "psi", models.SearchFilters{}))

	select {
	case u := <-updates:
		assert.Equal(t, "psi", u.Query)
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
	}
	assert.Len(t, dir.Calls(), 1)

	h.Close(id)
	_, ok := <-updates
	assert.False(t, ok)
	assert.ErrorIs(t, h.Input(id, "x", models.SearchFilters{}), ErrSessionNotFound)
}

func TestHub_SweepEvictsIdleSessions(t *testing.T) {
	h := newTestHub(&fakeDirectory{})
	now := time.Now()
	h.now = func() time.Time { return now }

	idle := h.Open(ModePage)
	now = now.Add(30 * time.Second)
	active := h.Open(ModeInline)
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, h.Sweep())
	assert.Equal(t, 1, h.Len())

	_, err := h.Searcher(idle)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = h.Searcher(active)
	assert.NoError(t, err)
}

func TestHub_TouchKeepsListeningSessionAlive(t *testing.T) {
	h := newTestHub(&fakeDirectory{})
	now := time.Now()
	h.now = func() time.Time { return now }

	id := h.Open(ModeInline)
	for i := 0; i < 3; i++ {
		now = now.Add(45 * time.Second)
		require.NoError(t, h.Touch(id))
	}
	now = now.Add(45 * time.Second)

	assert.Zero(t, h.Sweep())
	assert.Equal(t, 1, h.Len())
	assert.ErrorIs(t, h.Touch("missing"), ErrSessionNotFound)
}

func TestLiveSession_PushDropsOldest(t *testing.T) {
	sess := &liveSession{updates: make(chan Update, 2)}
	sess.push(Update{Seq: 1})
	sess.push(Update{Seq: 2})
	sess.push(Update{Seq: 3})

	assert.Equal(t, uint64(2), (<-sess.updates).Seq)
	assert.Equal(t, uint64(3), (<-sess.updates).Seq)
}

func TestHub_CloseUnknownIsNoop(t *testing.T) {
	h := newTestHub(&fakeDirectory{})
	assert.NotPanics(t, func() { h.Close("missing") })
}

func TestHub_CloseAllEndsStreams(t *testing.T) {
	h := newTestHub(&fakeDirectory{})
	a, b := h.Open(ModeInline), h.Open(ModePage)
	ua, err := h.Updates(a)
	require.NoError(t, err)
	ub, err := h.Updates(b)
	require.NoError(t, err)

	h.CloseAll()
	_, okA := <-ua
	_, okB := <-ub
	assert.False(t, okA)
	assert.False(t, okB)
	assert.Zero(t, h.Len())
}
