package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/model"
)

// Status 会话状态机
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
)

// Settings 会话参数
type Settings struct {
	RestartThreshold time.Duration
	DefaultVolume    int
	ReadyTimeout     time.Duration
}

// DefaultSettings 默认参数
func DefaultSettings() Settings {
	return Settings{
		RestartThreshold: DefaultRestartThreshold,
		DefaultVolume:    70,
		ReadyTimeout:     15 * time.Second,
	}
}

// SessionState 会话状态快照，推送给订阅者
type SessionState struct {
	Status          Status       `json:"status"`
	CurrentTrack    *model.Track `json:"currentTrack"`
	IsPlaying       bool         `json:"isPlaying"`
	PositionSeconds float64      `json:"positionSeconds"`
	DurationSeconds float64      `json:"durationSeconds"`
	Volume          int          `json:"volume"`
	Muted           bool         `json:"muted"`
	Shuffled        bool         `json:"shuffled"`
	QueueLength     int          `json:"queueLength"`
	QueueIndex      int          `json:"queueIndex"`
	Error           string       `json:"error,omitempty"`
	Version         uint64       `json:"version"`
}

// Session 一个用户的"正在播放"状态。媒体句柄只通过 Session 的方法修改。
type Session struct {
	mu       sync.Mutex
	media    MediaElement
	queue    *Queue
	settings Settings

	current     *model.Track
	status      Status
	isPlaying   bool
	position    float64
	duration    float64
	pendingSeek float64 // <0 表示没有等待中的跳转
	metaLoaded  bool    // 当前音源的元数据已上报，时长可能仍未知

	volume     int
	lastVolume int // 最近一次非零音量
	muted      bool
	userMuted  bool // 通过 ToggleMute 静音

	lastErr error

	// sourceGen 过滤旧音源的事件，reqGen 过滤被取代的播放请求
	sourceGen     uint64
	reqGen        uint64
	cancelPending context.CancelFunc

	version uint64
	subs    map[uint64]chan SessionState
	nextSub uint64
}

// NewSession 创建会话，media 由会话独占
func NewSession(media MediaElement, settings Settings, opts ...QueueOption) *Session {
	if settings.ReadyTimeout <= 0 {
		settings.ReadyTimeout = DefaultSettings().ReadyTimeout
	}
	opts = append([]QueueOption{WithRestartThreshold(settings.RestartThreshold)}, opts...)
	vol := clampInt(settings.DefaultVolume, 0, 100)
	s := &Session{
		media:       media,
		queue:       NewQueue(opts...),
		settings:    settings,
		status:      StatusIdle,
		pendingSeek: -1,
		volume:      vol,
		lastVolume:  vol,
		muted:       vol == 0,
		subs:        make(map[uint64]chan SessionState),
	}
	if s.lastVolume == 0 {
		s.lastVolume = DefaultSettings().DefaultVolume
	}
	s.applyVolumeLocked()
	return s
}

// Queue 返回会话的播放队列
func (s *Session) Queue() *Queue {
	return s.queue
}

// UpdateSettings 热更新重播阈值和就绪超时，默认音量只影响新会话
func (s *Session) UpdateSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if settings.ReadyTimeout > 0 {
		s.settings.ReadyTimeout = settings.ReadyTimeout
	}
	s.settings.RestartThreshold = settings.RestartThreshold
	s.queue.SetRestartThreshold(settings.RestartThreshold)
}

// PlayTrack 播放指定歌曲。与当前歌曲相同时等价于 TogglePlayPause。
// 阻塞到媒体就绪或失败；期间被新请求取代时返回 ErrSuperseded 且不修改状态。
func (s *Session) PlayTrack(ctx context.Context, t model.Track) error {
	return s.play(ctx, t, true)
}

func (s *Session) play(ctx context.Context, t model.Track, toggleSame bool) error {
	if !t.Playable() {
		return ErrNotPlayable
	}

	s.mu.Lock()
	var wait func() error
	if toggleSame && s.current != nil && s.current.ID == t.ID {
		wait = s.toggleLocked(ctx)
	} else {
		wait = s.loadLocked(ctx, t)
	}
	s.mu.Unlock()

	if wait == nil {
		return nil
	}
	return wait()
}

// loadLocked 同步停止旧音源、装载新音源并发起播放请求
func (s *Session) loadLocked(ctx context.Context, t model.Track) func() error {
	s.sourceGen++
	s.media.Stop()
	s.media.Load(t.AudioURL, s.eventHandler(s.sourceGen))

	track := t
	s.current = &track
	s.position = 0
	s.duration = t.DurationSeconds
	s.pendingSeek = -1
	s.metaLoaded = false
	s.isPlaying = false
	s.lastErr = nil

	if i := s.queue.IndexOf(t.ID); i >= 0 {
		_, _ = s.queue.Select(i)
	}

	logger.Debug("加载歌曲",
		logger.String("trackId", t.ID),
		logger.String("title", t.Title))

	return s.requestPlayLocked(ctx, StatusIdle)
}

// requestPlayLocked 进入 Loading 并返回等待函数，失败时回到 onFail 状态
func (s *Session) requestPlayLocked(ctx context.Context, onFail Status) func() error {
	if s.cancelPending != nil {
		s.cancelPending()
	}
	s.reqGen++
	gen := s.reqGen

	playCtx, cancel := context.WithTimeout(ctx, s.settings.ReadyTimeout)
	s.cancelPending = cancel
	s.status = StatusLoading
	s.publishLocked()

	return func() error {
		defer cancel()
		err := s.media.Play(playCtx)

		s.mu.Lock()
		defer s.mu.Unlock()

		if gen != s.reqGen {
			return ErrSuperseded
		}
		s.cancelPending = nil

		if err != nil {
			s.isPlaying = false
			s.status = onFail
			s.lastErr = fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
			s.publishLocked()
			logger.Warn("播放失败",
				logger.String("trackId", s.currentID()),
				logger.ErrorField(err))
			return s.lastErr
		}

		s.isPlaying = true
		s.status = StatusPlaying
		s.lastErr = nil
		s.publishLocked()
		return nil
	}
}

// TogglePlayPause 暂停或继续；没有当前歌曲时什么都不做
func (s *Session) TogglePlayPause(ctx context.Context) error {
	s.mu.Lock()
	wait := s.toggleLocked(ctx)
	s.mu.Unlock()

	if wait == nil {
		return nil
	}
	return wait()
}

func (s *Session) toggleLocked(ctx context.Context) func() error {
	if s.current == nil {
		return nil
	}

	switch {
	case s.isPlaying:
		s.media.Pause()
		s.isPlaying = false
		s.status = StatusPaused
		s.publishLocked()
		return nil
	case s.status == StatusLoading:
		// 正在等待就绪时再次切换视为取消
		if s.cancelPending != nil {
			s.cancelPending()
			s.cancelPending = nil
		}
		s.reqGen++
		s.media.Pause()
		s.status = StatusPaused
		s.publishLocked()
		return nil
	default:
		onFail := StatusPaused
		if s.status == StatusIdle {
			onFail = StatusIdle
		}
		return s.requestPlayLocked(ctx, onFail)
	}
}

// Seek 跳转到指定秒数，返回实际位置。时长未知时先记录，等元数据加载后再生效。
func (s *Session) Seek(seconds float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return 0
	}
	pos := s.seekLocked(seconds)
	s.publishLocked()
	return pos
}

func (s *Session) seekLocked(seconds float64) float64 {
	if seconds < 0 {
		seconds = 0
	}
	if s.duration <= 0 {
		s.position = seconds
		if !s.metaLoaded {
			s.pendingSeek = seconds
			return seconds
		}
		// 元数据里没有时长，不截断直接交给媒体
		s.pendingSeek = -1
		s.media.Seek(seconds)
		return seconds
	}
	if seconds > s.duration {
		seconds = s.duration
	}
	s.pendingSeek = -1
	s.position = seconds
	s.media.Seek(seconds)
	return seconds
}

// SetVolume 设置音量 0..100。0 视为静音；正数取消静音，除非用户主动静音过
func (s *Session) SetVolume(percent int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	percent = clampInt(percent, 0, 100)
	s.volume = percent
	if percent == 0 {
		s.muted = true
	} else {
		s.lastVolume = percent
		if !s.userMuted {
			s.muted = false
		}
	}
	s.applyVolumeLocked()
	s.publishLocked()
	return percent
}

// ToggleMute 切换静音，返回切换后的静音状态。取消静音时恢复最近一次非零音量
func (s *Session) ToggleMute() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.muted {
		s.muted = false
		s.userMuted = false
		if s.volume == 0 {
			s.volume = s.lastVolume
		}
	} else {
		s.muted = true
		s.userMuted = true
		if s.volume > 0 {
			s.lastVolume = s.volume
		}
	}
	s.applyVolumeLocked()
	s.publishLocked()
	return s.muted
}

func (s *Session) applyVolumeLocked() {
	if s.muted {
		s.media.SetVolume(0)
		return
	}
	s.media.SetVolume(float64(s.volume) / 100)
}

// ToggleShuffle 切换随机播放
func (s *Session) ToggleShuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	on := s.queue.ToggleShuffle()
	s.publishLocked()
	return on
}

// Close 停止播放并清空当前歌曲，队列保持不变
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelPending != nil {
		s.cancelPending()
		s.cancelPending = nil
	}
	s.sourceGen++
	s.reqGen++
	s.media.Stop()

	s.current = nil
	s.isPlaying = false
	s.position = 0
	s.duration = 0
	s.pendingSeek = -1
	s.metaLoaded = false
	s.status = StatusIdle
	s.lastErr = nil
	s.publishLocked()
}

// LoadQueue 替换队列并播放 start 对应的歌曲
func (s *Session) LoadQueue(ctx context.Context, tracks []model.Track, start int) error {
	if err := s.queue.Load(tracks, start); err != nil {
		return err
	}
	t, ok := s.queue.Current()
	if !ok {
		return ErrInvalidIndex
	}
	s.mu.Lock()
	s.publishLocked()
	s.mu.Unlock()
	return s.PlayTrack(ctx, t)
}

// PlayIndex 播放队列中第 i 首（按当前播放顺序）
func (s *Session) PlayIndex(ctx context.Context, i int) error {
	t, err := s.queue.Select(i)
	if err != nil {
		return err
	}
	return s.PlayTrack(ctx, t)
}

// Next 播放下一首，跳过没有音频的歌曲；队列只有一首时从头播放
func (s *Session) Next(ctx context.Context) error {
	s.mu.Lock()
	n := s.queue.Len()
	if n == 0 {
		s.mu.Unlock()
		return nil
	}
	if n == 1 {
		wait := s.restartLocked(ctx)
		s.mu.Unlock()
		if wait != nil {
			return wait()
		}
		return nil
	}
	s.mu.Unlock()

	for i := 0; i < n; i++ {
		t, ok := s.queue.Next()
		if !ok {
			return nil
		}
		if t.Playable() {
			return s.play(ctx, t, false)
		}
	}
	return ErrNotPlayable
}

// Previous 播放上一首；进度超过阈值或队列只有一首时从头播放
func (s *Session) Previous(ctx context.Context) error {
	s.mu.Lock()
	n := s.queue.Len()
	if n == 0 {
		s.mu.Unlock()
		return nil
	}
	t, restart, ok := s.queue.Previous(s.position)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if restart || n == 1 {
		wait := s.restartLocked(ctx)
		s.mu.Unlock()
		if wait != nil {
			return wait()
		}
		return nil
	}
	s.mu.Unlock()

	if !t.Playable() {
		return ErrNotPlayable
	}
	return s.play(ctx, t, false)
}

// restartLocked 当前歌曲跳回0秒；没有当前歌曲时播放队列当前项
func (s *Session) restartLocked(ctx context.Context) func() error {
	if s.current == nil {
		t, ok := s.queue.Current()
		if !ok || !t.Playable() {
			return nil
		}
		return s.loadLocked(ctx, t)
	}
	s.seekLocked(0)
	s.publishLocked()
	return nil
}

// eventHandler 只处理 gen 对应音源的事件
func (s *Session) eventHandler(gen uint64) func(MediaEvent) {
	return func(ev MediaEvent) {
		s.mu.Lock()
		if gen != s.sourceGen {
			s.mu.Unlock()
			return
		}

		advance := false
		switch ev.Type {
		case EventLoadedMetadata:
			s.metaLoaded = true
			if ev.Duration > 0 {
				s.duration = ev.Duration
			}
			if s.pendingSeek >= 0 {
				s.seekLocked(s.pendingSeek)
			}
		case EventTimeUpdate:
			s.position = s.clampPosition(ev.Position)
		case EventEnded:
			if s.duration > 0 {
				s.position = s.duration
			}
			s.isPlaying = false
			s.status = StatusPaused
			advance = s.queue.Len() > 1
		case EventError:
			if s.status != StatusLoading {
				// Loading 阶段的错误由 Play 返回
				s.isPlaying = false
				if s.current != nil {
					s.status = StatusPaused
				}
				s.lastErr = fmt.Errorf("%w: %v", ErrPlaybackFailed, ev.Err)
			}
		}
		s.publishLocked()
		s.mu.Unlock()

		if advance {
			go func() {
				if err := s.Next(context.Background()); err != nil && !errors.Is(err, ErrSuperseded) {
					logger.Warn("自动播放下一首失败", logger.ErrorField(err))
				}
			}()
		}
	}
}

func (s *Session) clampPosition(p float64) float64 {
	if p < 0 {
		return 0
	}
	if s.duration > 0 && p > s.duration {
		return s.duration
	}
	return p
}

func (s *Session) currentID() string {
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// State 当前状态快照
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() SessionState {
	st := SessionState{
		Status:          s.status,
		IsPlaying:       s.isPlaying,
		PositionSeconds: s.clampPosition(s.position),
		DurationSeconds: s.duration,
		Volume:          s.volume,
		Muted:           s.muted,
		Shuffled:        s.queue.Shuffled(),
		QueueLength:     s.queue.Len(),
		QueueIndex:      s.queue.Cursor(),
		Version:         s.version,
	}
	if s.current != nil {
		t := *s.current
		st.CurrentTrack = &t
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	return st
}

// Subscribe 订阅状态变化，缓冲区满时丢弃最旧的快照。返回的函数用于取消订阅
func (s *Session) Subscribe(buffer int) (<-chan SessionState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan SessionState, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.stateLocked()
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// publishLocked 非阻塞推送，可以在持锁时调用
func (s *Session) publishLocked() {
	s.version++
	if len(s.subs) == 0 {
		return
	}
	st := s.stateLocked()
	for _, ch := range s.subs {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}

// closeSubscribers 关闭全部订阅通道
func (s *Session) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
