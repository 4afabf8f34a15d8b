package search

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shriram-30/SpotifyClone/model"
)

type fakeSource struct {
	mu       sync.Mutex
	calls    []string
	block    map[string]chan struct{}
	err      error
	suggest  string
	canceled []string
}

func (f *fakeSource) Candidates(ctx context.Context, query string) (Candidates, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	gate := f.block[query]
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			f.mu.Lock()
			f.canceled = append(f.canceled, query)
			f.mu.Unlock()
			<-gate
		}
	}
	if err != nil {
		return Candidates{}, err
	}
	return Candidates{Songs: []model.Track{
		{ID: "1", Title: "Love"},
		{ID: "2", Title: "Lovely"},
		{ID: "3", Title: "Hukum"},
	}}, nil
}

func (f *fakeSource) Suggest(ctx context.Context, query string) (string, error) {
	return f.suggest, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type updates struct {
	mu  sync.Mutex
	got []Update
}

func (u *updates) add(up Update) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.got = append(u.got, up)
}

func (u *updates) all() []Update {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]Update(nil), u.got...)
}

func TestSearcherDebouncesTyping(t *testing.T) {
	src := &fakeSource{}
	var ups updates
	s := NewSearcher(src, 30*time.Millisecond, ups.add)
	defer s.Close()

	s.Submit("l")
	s.Submit("lo")
	gen := s.Submit("love")

	require.Eventually(t, func() bool { return len(ups.all()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	got := ups.all()
	require.Len(t, got, 1)
	assert.Equal(t, "love", got[0].Query)
	assert.Equal(t, gen, got[0].Generation)
	require.Len(t, got[0].Result.Songs, 2)
	assert.Equal(t, "1", got[0].Result.Songs[0].ID)
	assert.Equal(t, 1, src.callCount())
}

func TestSearcherDropsStaleResults(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{block: map[string]chan struct{}{"lo": gate}}
	var ups updates
	s := NewSearcher(src, 0, ups.add)
	defer s.Close()

	s.Submit("lo")
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, 2*time.Millisecond)

	s.Submit("love")
	require.Eventually(t, func() bool { return len(ups.all()) == 1 }, time.Second, 2*time.Millisecond)
	close(gate)
	time.Sleep(30 * time.Millisecond)

	got := ups.all()
	require.Len(t, got, 1, "the older query must never publish")
	assert.Equal(t, "love", got[0].Query)

	src.mu.Lock()
	assert.Equal(t, []string{"lo"}, src.canceled)
	src.mu.Unlock()
}

func TestSearcherEmptyQueryPublishesImmediately(t *testing.T) {
	src := &fakeSource{}
	var ups updates
	s := NewSearcher(src, time.Hour, ups.add)
	defer s.Close()

	s.Submit("love")
	s.Submit("   ")

	got := ups.all()
	require.Len(t, got, 1)
	assert.True(t, got[0].Result.Empty())
	assert.Zero(t, src.callCount())
}

func TestSearcherErrorClearsResults(t *testing.T) {
	src := &fakeSource{err: errors.New("catalog down")}
	var ups updates
	s := NewSearcher(src, 0, ups.add)
	defer s.Close()

	s.Submit("love")
	require.Eventually(t, func() bool { return len(ups.all()) == 1 }, time.Second, 2*time.Millisecond)
	got := ups.all()[0]
	assert.EqualError(t, got.Err, "catalog down")
	assert.True(t, got.Result.Empty())
}

func TestSearcherSuggestsWhenEmpty(t *testing.T) {
	src := &fakeSource{suggest: "Hukum"}
	var ups updates
	s := NewSearcher(src, 0, ups.add)
	defer s.Close()

	s.Submit("hukm")
	require.Eventually(t, func() bool { return len(ups.all()) == 1 }, time.Second, 2*time.Millisecond)
	assert.Equal(t, "Hukum", ups.all()[0].Result.Suggestion)
}

func TestSearcherCancelAndClose(t *testing.T) {
	src := &fakeSource{}
	var ups updates
	s := NewSearcher(src, 20*time.Millisecond, ups.add)

	s.Submit("love")
	s.Cancel()
	time.Sleep(50 * time.Millisecond)

	got := ups.all()
	require.Len(t, got, 1)
	assert.True(t, got[0].Result.Empty())
	assert.Zero(t, src.callCount())

	s.Close()
	s.Submit("love")
	s.Cancel()
	time.Sleep(40 * time.Millisecond)
	assert.Len(t, ups.all(), 1, "closed searcher publishes nothing")
}
