package player

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shriram-30/SpotifyClone/model"
)

func tracks(n int) []model.Track {
	out := make([]model.Track, n)
	for i := range out {
		out[i] = model.Track{
			ID:       fmt.Sprintf("T%d", i+1),
			Title:    fmt.Sprintf("Track %d", i+1),
			AudioURL: fmt.Sprintf("https://cdn.example.com/%d.mp3", i+1),
		}
	}
	return out
}

func ids(ts []model.Track) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func newTestQueue() *Queue {
	return NewQueue(WithRand(rand.New(rand.NewSource(42))))
}

func TestQueueLoadRejectsInvalidIndex(t *testing.T) {
	q := newTestQueue()
	require.NoError(t, q.Load(tracks(3), 1))

	assert.ErrorIs(t, q.Load(tracks(2), 2), ErrInvalidIndex)
	assert.ErrorIs(t, q.Load(tracks(2), -1), ErrInvalidIndex)
	assert.ErrorIs(t, q.Load(nil, 0), ErrInvalidIndex)

	assert.Equal(t, 3, q.Len(), "queue must be unchanged after a failed load")
	assert.Equal(t, 1, q.Cursor())
}

func TestQueueLoadDropsDuplicateIDs(t *testing.T) {
	q := newTestQueue()
	items := tracks(3)
	items = append(items, items[0], items[2])

	require.NoError(t, q.Load(items, 4))
	assert.Equal(t, []string{"T1", "T2", "T3"}, ids(q.Items()))
	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "T3", cur.ID)
}

func TestQueueEmptyIsNoop(t *testing.T) {
	q := newTestQueue()
	_, ok := q.Next()
	assert.False(t, ok)
	_, _, ok = q.Previous(0)
	assert.False(t, ok)
	assert.Equal(t, -1, q.Cursor())
}

func TestQueueWraparound(t *testing.T) {
	const n = 5
	q := newTestQueue()
	require.NoError(t, q.Load(tracks(n), 2))
	start, _ := q.Current()

	for i := 0; i < n; i++ {
		_, ok := q.Next()
		require.True(t, ok)
	}
	cur, _ := q.Current()
	assert.Equal(t, start.ID, cur.ID)

	for i := 0; i < n; i++ {
		_, restart, ok := q.Previous(0)
		require.True(t, ok)
		require.False(t, restart)
	}
	cur, _ = q.Current()
	assert.Equal(t, start.ID, cur.ID)
}

func TestQueueNextPreviousScenario(t *testing.T) {
	q := newTestQueue()
	require.NoError(t, q.Load(tracks(3), 1))

	tr, _ := q.Next()
	assert.Equal(t, "T3", tr.ID)
	tr, _ = q.Next()
	assert.Equal(t, "T1", tr.ID, "next wraps from last to first")
	tr, restart, _ := q.Previous(0.5)
	assert.False(t, restart)
	assert.Equal(t, "T3", tr.ID, "previous wraps from first to last")
}

func TestQueueSingleItem(t *testing.T) {
	q := newTestQueue()
	require.NoError(t, q.Load(tracks(1), 0))

	tr, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, "T1", tr.ID)
	tr, _, ok = q.Previous(0)
	require.True(t, ok)
	assert.Equal(t, "T1", tr.ID)
}

func TestQueuePreviousRestartThreshold(t *testing.T) {
	q := NewQueue(WithRestartThreshold(2 * time.Second))
	require.NoError(t, q.Load(tracks(3), 1))

	tr, restart, ok := q.Previous(2.5)
	require.True(t, ok)
	assert.True(t, restart)
	assert.Equal(t, "T2", tr.ID)
	assert.Equal(t, 1, q.Cursor(), "restart keeps the cursor")

	tr, restart, _ = q.Previous(2.0)
	assert.False(t, restart, "exactly at the threshold moves back")
	assert.Equal(t, "T1", tr.ID)

	q.SetRestartThreshold(10 * time.Second)
	_, restart, _ = q.Previous(5)
	assert.False(t, restart)
}

func TestQueueShuffleRestoresBaseOrder(t *testing.T) {
	q := newTestQueue()
	base := tracks(10)
	require.NoError(t, q.Load(base, 4))

	assert.True(t, q.ToggleShuffle())
	shuffled := q.Items()
	assert.ElementsMatch(t, ids(base), ids(shuffled))
	assert.Equal(t, "T5", shuffled[0].ID, "current track moves to the front")
	assert.Equal(t, 0, q.Cursor())
	assert.True(t, q.Shuffled())

	assert.False(t, q.ToggleShuffle())
	assert.Equal(t, ids(base), ids(q.Items()))
	cur, _ := q.Current()
	assert.Equal(t, "T5", cur.ID, "cursor follows the current track")
	assert.Equal(t, 4, q.Cursor())
}

func TestQueueShuffleKeepsCurrentAfterMoving(t *testing.T) {
	q := newTestQueue()
	require.NoError(t, q.Load(tracks(6), 0))
	q.ToggleShuffle()
	q.Next()
	q.Next()
	cur, _ := q.Current()

	q.ToggleShuffle()
	after, _ := q.Current()
	assert.Equal(t, cur.ID, after.ID)
	assert.Equal(t, q.IndexOf(cur.ID), q.Cursor())
}

func TestQueueLoadWhileShuffled(t *testing.T) {
	q := newTestQueue()
	require.NoError(t, q.Load(tracks(3), 0))
	q.ToggleShuffle()

	next := tracks(8)
	require.NoError(t, q.Load(next, 6))
	items := q.Items()
	assert.Equal(t, "T7", items[0].ID)
	assert.Equal(t, 0, q.Cursor())

	q.ToggleShuffle()
	assert.Equal(t, ids(next), ids(q.Items()))
	assert.Equal(t, 6, q.Cursor())
}

func TestQueueIndexOfAndSelect(t *testing.T) {
	q := newTestQueue()
	require.NoError(t, q.Load(tracks(3), 0))

	assert.Equal(t, 2, q.IndexOf("T3"))
	assert.Equal(t, -1, q.IndexOf("missing"))

	tr, err := q.Select(2)
	require.NoError(t, err)
	assert.Equal(t, "T3", tr.ID)
	_, err = q.Select(3)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	q.Clear()
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, -1, q.Cursor())
}
