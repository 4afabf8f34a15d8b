package player

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

// fakeMedia 记录调用并允许测试控制 Play 的结果
type fakeMedia struct {
	mu       sync.Mutex
	src      string
	handlers map[string]func(MediaEvent)
	loads    []string
	seeks    []float64
	stops    int
	pauses   int
	volume   float64
	playing  bool
	gates    map[string]chan error
	fail     map[string]error
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		handlers: make(map[string]func(MediaEvent)),
		gates:    make(map[string]chan error),
		fail:     make(map[string]error),
	}
}

func (f *fakeMedia) Load(src string, onEvent func(MediaEvent)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.src = src
	f.handlers[src] = onEvent
	f.loads = append(f.loads, src)
}

func (f *fakeMedia) Play(ctx context.Context) error {
	f.mu.Lock()
	src := f.src
	gate := f.gates[src]
	err := f.fail[src]
	f.mu.Unlock()

	if gate != nil {
		select {
		case err = <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.playing = true
	f.mu.Unlock()
	return nil
}

func (f *fakeMedia) Pause() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.pauses++
}

func (f *fakeMedia) Seek(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
}

func (f *fakeMedia) SetVolume(v float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
}

func (f *fakeMedia) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.stops++
}

// emit 向指定音源的监听函数发送事件
func (f *fakeMedia) emit(src string, ev MediaEvent) {
	f.mu.Lock()
	h := f.handlers[src]
	f.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

func (f *fakeMedia) gate(src string) chan error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan error, 1)
	f.gates[src] = ch
	return ch
}

func (f *fakeMedia) setFail(src string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, src)
		return
	}
	f.fail[src] = err
}

func (f *fakeMedia) snapshot() (volume float64, seeks []float64, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume, append([]float64(nil), f.seeks...), f.stops
}

func newTestSession(t *testing.T) (*Session, *fakeMedia) {
	t.Helper()
	media := newFakeMedia()
	s := NewSession(media, Settings{
		RestartThreshold: 2 * time.Second,
		DefaultVolume:    70,
		ReadyTimeout:     time.Second,
	})
	t.Cleanup(s.Close)
	return s, media
}

func TestNewSessionDefaults(t *testing.T) {
	s, media := newTestSession(t)
	st := s.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Nil(t, st.CurrentTrack)
	assert.Equal(t, 70, st.Volume)
	assert.False(t, st.Muted)
	assert.Equal(t, -1, st.QueueIndex)
	vol, _, _ := media.snapshot()
	assert.InDelta(t, 0.7, vol, 1e-9)
}

func TestPlayTrackNotPlayable(t *testing.T) {
	s, media := newTestSession(t)
	before := s.State()

	err := s.PlayTrack(context.Background(), model.Track{ID: "x", Title: "No audio"})
	assert.ErrorIs(t, err, ErrNotPlayable)
	assert.Equal(t, before, s.State())
	assert.Empty(t, media.loads)
}

func TestPlayTrackSuccess(t *testing.T) {
	s, media := newTestSession(t)
	tr := tracks(1)[0]

	require.NoError(t, s.PlayTrack(context.Background(), tr))
	st := s.State()
	assert.Equal(t, StatusPlaying, st.Status)
	assert.True(t, st.IsPlaying)
	require.NotNil(t, st.CurrentTrack)
	assert.Equal(t, tr.ID, st.CurrentTrack.ID)
	assert.Zero(t, st.PositionSeconds)
	assert.Equal(t, []string{tr.AudioURL}, media.loads)
}

func TestPlaySameTrackToggles(t *testing.T) {
	s, media := newTestSession(t)
	tr := tracks(1)[0]
	ctx := context.Background()

	require.NoError(t, s.PlayTrack(ctx, tr))
	media.emit(tr.AudioURL, MediaEvent{Type: EventLoadedMetadata, Duration: 200})
	media.emit(tr.AudioURL, MediaEvent{Type: EventTimeUpdate, Position: 30})

	require.NoError(t, s.PlayTrack(ctx, tr))
	st := s.State()
	assert.False(t, st.IsPlaying)
	assert.Equal(t, StatusPaused, st.Status)
	assert.Equal(t, 30.0, st.PositionSeconds, "replaying the same track does not restart it")
	assert.Len(t, media.loads, 1)

	require.NoError(t, s.PlayTrack(ctx, tr))
	assert.True(t, s.State().IsPlaying)
}

func TestPlaybackFailedIsRecoverable(t *testing.T) {
	s, media := newTestSession(t)
	tr := tracks(1)[0]
	media.setFail(tr.AudioURL, errors.New("autoplay blocked"))

	err := s.PlayTrack(context.Background(), tr)
	require.ErrorIs(t, err, ErrPlaybackFailed)

	st := s.State()
	assert.False(t, st.IsPlaying)
	assert.Equal(t, StatusIdle, st.Status)
	require.NotNil(t, st.CurrentTrack, "track info stays visible for retry")
	assert.Contains(t, st.Error, "autoplay blocked")

	media.setFail(tr.AudioURL, nil)
	require.NoError(t, s.TogglePlayPause(context.Background()))
	st = s.State()
	assert.True(t, st.IsPlaying)
	assert.Empty(t, st.Error)
}

func TestPlayTrackTimesOut(t *testing.T) {
	media := newFakeMedia()
	s := NewSession(media, Settings{DefaultVolume: 50, ReadyTimeout: 20 * time.Millisecond})
	defer s.Close()
	tr := tracks(1)[0]
	media.gate(tr.AudioURL)

	err := s.PlayTrack(context.Background(), tr)
	assert.ErrorIs(t, err, ErrPlaybackFailed)
	assert.False(t, s.State().IsPlaying)
}

func TestStalePlayRequestIsIgnored(t *testing.T) {
	s, media := newTestSession(t)
	ts := tracks(2)
	a, b := ts[0], ts[1]
	gateA := media.gate(a.AudioURL)

	errA := make(chan error, 1)
	go func() { errA <- s.PlayTrack(context.Background(), a) }()

	require.Eventually(t, func() bool {
		st := s.State()
		return st.Status == StatusLoading && st.CurrentTrack != nil && st.CurrentTrack.ID == a.ID
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.PlayTrack(context.Background(), b))
	gateA <- nil

	assert.ErrorIs(t, <-errA, ErrSuperseded)
	st := s.State()
	require.NotNil(t, st.CurrentTrack)
	assert.Equal(t, b.ID, st.CurrentTrack.ID)
	assert.True(t, st.IsPlaying)

	// 旧音源迟到的事件不能影响当前状态
	media.emit(a.AudioURL, MediaEvent{Type: EventLoadedMetadata, Duration: 999})
	media.emit(a.AudioURL, MediaEvent{Type: EventEnded})
	st = s.State()
	assert.Equal(t, b.ID, st.CurrentTrack.ID)
	assert.True(t, st.IsPlaying)
	assert.Zero(t, st.DurationSeconds)
}

func TestTogglePlayPauseWithoutTrack(t *testing.T) {
	s, _ := newTestSession(t)
	before := s.State()
	require.NoError(t, s.TogglePlayPause(context.Background()))
	assert.Equal(t, before, s.State())
}

func TestSeekClamps(t *testing.T) {
	s, media := newTestSession(t)
	tr := tracks(1)[0]
	require.NoError(t, s.PlayTrack(context.Background(), tr))

	// 时长未知时记录跳转，元数据加载后按时长截断
	assert.Equal(t, 50.0, s.Seek(50))
	assert.Equal(t, 50.0, s.State().PositionSeconds)
	_, seeks, _ := media.snapshot()
	assert.Empty(t, seeks)

	media.emit(tr.AudioURL, MediaEvent{Type: EventLoadedMetadata, Duration: 40})
	assert.Equal(t, 40.0, s.State().PositionSeconds)
	_, seeks, _ = media.snapshot()
	assert.Equal(t, []float64{40}, seeks)

	assert.Equal(t, 40.0, s.Seek(500))
	assert.Equal(t, 0.0, s.Seek(-3))
	assert.Equal(t, 12.5, s.Seek(12.5))
}

func TestSeekWithoutDurationReachesMedia(t *testing.T) {
	s, media := newTestSession(t)
	tr := tracks(1)[0]
	require.NoError(t, s.PlayTrack(context.Background(), tr))

	assert.Equal(t, 30.0, s.Seek(30))
	_, seeks, _ := media.snapshot()
	assert.Empty(t, seeks)

	// 元数据没有时长：等待中的跳转不截断地交给媒体
	media.emit(tr.AudioURL, MediaEvent{Type: EventLoadedMetadata})
	_, seeks, _ = media.snapshot()
	assert.Equal(t, []float64{30}, seeks)

	media.emit(tr.AudioURL, MediaEvent{Type: EventTimeUpdate, Position: 31})
	assert.Equal(t, 31.0, s.State().PositionSeconds)

	assert.Equal(t, 600.0, s.Seek(600))
	_, seeks, _ = media.snapshot()
	assert.Equal(t, []float64{30, 600}, seeks)
}

func TestTimeUpdateNeverExceedsDuration(t *testing.T) {
	s, media := newTestSession(t)
	tr := tracks(1)[0]
	require.NoError(t, s.PlayTrack(context.Background(), tr))
	media.emit(tr.AudioURL, MediaEvent{Type: EventLoadedMetadata, Duration: 10})
	media.emit(tr.AudioURL, MediaEvent{Type: EventTimeUpdate, Position: 11})
	st := s.State()
	assert.LessOrEqual(t, st.PositionSeconds, st.DurationSeconds)
}

func TestVolumeMuteRoundTrip(t *testing.T) {
	s, media := newTestSession(t)

	assert.Equal(t, 45, s.SetVolume(45))
	assert.True(t, s.ToggleMute())
	vol, _, _ := media.snapshot()
	assert.Zero(t, vol)

	assert.False(t, s.ToggleMute())
	st := s.State()
	assert.Equal(t, 45, st.Volume)
	assert.False(t, st.Muted)
	vol, _, _ = media.snapshot()
	assert.InDelta(t, 0.45, vol, 1e-9)
}

func TestSetVolumeMuteRules(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Equal(t, 100, s.SetVolume(150))
	assert.Equal(t, 0, s.SetVolume(-10))
	assert.True(t, s.State().Muted, "zero volume implies muted")

	s.SetVolume(30)
	assert.False(t, s.State().Muted)

	s.ToggleMute()
	s.SetVolume(50)
	st := s.State()
	assert.True(t, st.Muted, "explicit mute survives a volume change")
	assert.Equal(t, 50, st.Volume)

	s.ToggleMute()
	assert.Equal(t, 50, s.State().Volume)

	s.SetVolume(0)
	s.ToggleMute()
	st = s.State()
	assert.False(t, st.Muted)
	assert.Equal(t, 50, st.Volume, "unmute restores the last non-zero volume")
}

func TestCloseKeepsQueue(t *testing.T) {
	s, media := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.LoadQueue(ctx, tracks(3), 1))

	s.Close()
	st := s.State()
	assert.Equal(t, StatusIdle, st.Status)
	assert.Nil(t, st.CurrentTrack)
	assert.False(t, st.IsPlaying)
	assert.Zero(t, st.PositionSeconds)
	assert.Equal(t, 3, st.QueueLength)
	assert.Equal(t, 1, st.QueueIndex)
	_, _, stops := media.snapshot()
	assert.GreaterOrEqual(t, stops, 2)

	// 重新打开同一队列从原来的位置继续
	require.NoError(t, s.Next(ctx))
	assert.Equal(t, "T3", s.State().CurrentTrack.ID)
}

func TestFacadeNextPreviousScenario(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.LoadQueue(ctx, tracks(3), 1))
	assert.Equal(t, "T2", s.State().CurrentTrack.ID)

	require.NoError(t, s.Next(ctx))
	assert.Equal(t, "T3", s.State().CurrentTrack.ID)
	require.NoError(t, s.Next(ctx))
	assert.Equal(t, "T1", s.State().CurrentTrack.ID)
	require.NoError(t, s.Previous(ctx))
	assert.Equal(t, "T3", s.State().CurrentTrack.ID)
	assert.True(t, s.State().IsPlaying)
}

func TestPreviousRestartsAfterThreshold(t *testing.T) {
	s, media := newTestSession(t)
	ctx := context.Background()
	require.NoError(t, s.LoadQueue(ctx, tracks(3), 1))
	media.emit("https://cdn.example.com/2.mp3", MediaEvent{Type: EventLoadedMetadata, Duration: 180})
	media.emit("https://cdn.example.com/2.mp3", MediaEvent{Type: EventTimeUpdate, Position: 5})

	require.NoError(t, s.Previous(ctx))
	st := s.State()
	assert.Equal(t, "T2", st.CurrentTrack.ID)
	assert.Zero(t, st.PositionSeconds)
	_, seeks, _ := media.snapshot()
	assert.Equal(t, []float64{0}, seeks)
}

func TestNextSkipsUnplayable(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()
	ts := tracks(3)
	ts[1].AudioURL = ""
	require.NoError(t, s.LoadQueue(ctx, ts, 0))

	require.NoError(t, s.Next(ctx))
	assert.Equal(t, "T3", s.State().CurrentTrack.ID)
}

func TestEndedAdvancesQueue(t *testing.T) {
	s, media := newTestSession(t)
	require.NoError(t, s.LoadQueue(context.Background(), tracks(2), 0))

	media.emit("https://cdn.example.com/1.mp3", MediaEvent{Type: EventEnded})
	require.Eventually(t, func() bool {
		st := s.State()
		return st.CurrentTrack != nil && st.CurrentTrack.ID == "T2" && st.IsPlaying
	}, time.Second, 5*time.Millisecond)
}

func TestEndedSingleTrackStops(t *testing.T) {
	s, media := newTestSession(t)
	tr := tracks(1)[0]
	require.NoError(t, s.LoadQueue(context.Background(), []model.Track{tr}, 0))
	media.emit(tr.AudioURL, MediaEvent{Type: EventLoadedMetadata, Duration: 100})

	media.emit(tr.AudioURL, MediaEvent{Type: EventEnded})
	st := s.State()
	assert.False(t, st.IsPlaying)
	assert.Equal(t, StatusPaused, st.Status)
	assert.Equal(t, 100.0, st.PositionSeconds)
}

func TestToggleShufflePublishes(t *testing.T) {
	s, _ := newTestSession(t)
	require.NoError(t, s.LoadQueue(context.Background(), tracks(4), 2))

	assert.True(t, s.ToggleShuffle())
	st := s.State()
	assert.True(t, st.Shuffled)
	assert.Equal(t, 0, st.QueueIndex)
	assert.Equal(t, "T3", st.CurrentTrack.ID)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s, _ := newTestSession(t)
	ch, cancel := s.Subscribe(16)

	first := <-ch
	assert.Equal(t, StatusIdle, first.Status)

	s.SetVolume(20)
	select {
	case st := <-ch:
		assert.Equal(t, 20, st.Volume)
		assert.Greater(t, st.Version, first.Version)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after volume change")
	}

	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	cancel()
}

func TestSubscribeDropsOldestWhenFull(t *testing.T) {
	s, _ := newTestSession(t)
	ch, cancel := s.Subscribe(1)
	defer cancel()

	for v := 1; v <= 5; v++ {
		s.SetVolume(v * 10)
	}
	st := <-ch
	assert.Equal(t, 50, st.Volume, "a full subscriber keeps the newest snapshot")
}

func TestManagerSessionsPerUser(t *testing.T) {
	m := NewManager(func() MediaElement { return newFakeMedia() }, DefaultSettings())

	_, err := m.Lookup(1)
	assert.ErrorIs(t, err, ErrNoSession)

	a := m.Session(1)
	assert.Same(t, a, m.Session(1))
	assert.NotSame(t, a, m.Session(2))
	assert.Equal(t, 2, m.Count())

	got, err := m.Lookup(1)
	require.NoError(t, err)
	assert.Same(t, a, got)

	m.UpdateSettings(Settings{RestartThreshold: 5 * time.Second, DefaultVolume: 30, ReadyTimeout: time.Second})
	assert.Equal(t, 30, m.Session(3).State().Volume)

	ch, _ := a.Subscribe(4)
	m.Remove(1)
	assert.Equal(t, 2, m.Count())
	for range ch {
	}

	m.CloseAll()
	assert.Zero(t, m.Count())
}
