package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/shriram-30/SpotifyClone/core/player"
	"github.com/shriram-30/SpotifyClone/logger"
)

const (
	defaultMaxProbeBytes = 32 << 20
	defaultTickInterval  = 250 * time.Millisecond
)

var (
	errNoSource = errors.New("no media source loaded")
	errStopped  = errors.New("media source detached")
	// ErrSourceNotAllowed 音源不是 http(s) 或主机不在白名单中
	ErrSourceNotAllowed = errors.New("media source not allowed")
)

// Element 无输出设备的媒体元素：拉取音源解析时长，用时钟模拟播放进度。
// 实现 player.MediaElement。
type Element struct {
	mu sync.Mutex

	client   *http.Client
	maxBytes int64
	probe    bool
	tick     time.Duration
	hosts    map[string]struct{} // 为空时不限制主机

	src         string
	onEvent     func(player.MediaEvent)
	gen         uint64
	ready       chan struct{}
	readyClosed bool
	loadErr     error
	duration    float64
	cancelProbe context.CancelFunc

	playing   bool
	offset    float64   // 暂停时或本轮播放开始时的位置
	startedAt time.Time // 本轮播放开始时间
	volume    float64
	runID     uint64
	stopRun   chan struct{}
}

// Option 元素选项
type Option func(*Element)

// WithHTTPClient 指定拉取音源用的客户端
func WithHTTPClient(c *http.Client) Option {
	return func(e *Element) { e.client = c }
}

// WithAllowedHosts 只接受这些主机上的音源，可写 host 或 host:port
func WithAllowedHosts(hosts ...string) Option {
	return func(e *Element) {
		for _, h := range hosts {
			h = strings.ToLower(strings.TrimSpace(h))
			if h == "" {
				continue
			}
			if e.hosts == nil {
				e.hosts = make(map[string]struct{})
			}
			e.hosts[h] = struct{}{}
		}
	}
}

// WithoutProbe 不拉取音源，加载后立即就绪且时长未知
func WithoutProbe() Option {
	return func(e *Element) { e.probe = false }
}

// WithTickInterval 设置进度事件间隔
func WithTickInterval(d time.Duration) Option {
	return func(e *Element) {
		if d > 0 {
			e.tick = d
		}
	}
}

// WithMaxProbeBytes 限制解析时长时读取的字节数
func WithMaxProbeBytes(n int64) Option {
	return func(e *Element) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// NewElement 创建媒体元素
func NewElement(opts ...Option) *Element {
	e := &Element{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: defaultMaxProbeBytes,
		probe:    true,
		tick:     defaultTickInterval,
		volume:   1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Factory 返回 player.MediaFactory
func Factory(opts ...Option) player.MediaFactory {
	return func() player.MediaElement { return NewElement(opts...) }
}

// Load 设置音源并在后台解析
func (e *Element) Load(src string, onEvent func(player.MediaEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.detachLocked()
	e.src = src
	e.onEvent = onEvent
	e.ready = make(chan struct{})
	e.readyClosed = false

	if err := e.checkSource(src); err != nil {
		e.closeReadyLocked(err)
		if onEvent != nil {
			go e.announce(e.gen, player.MediaEvent{Type: player.EventError, Err: err})
		}
		return
	}

	if !e.probe {
		e.closeReadyLocked(nil)
		// 不拉取音源时时长未知，异步上报以免在 Load 内回调
		if onEvent != nil {
			go e.announce(e.gen, player.MediaEvent{Type: player.EventLoadedMetadata})
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancelProbe = cancel
	go e.runProbe(ctx, e.gen, src)
}

func (e *Element) runProbe(ctx context.Context, gen uint64, src string) {
	duration, err := Probe(ctx, e.client, src, e.maxBytes)

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.cancelProbe = nil
	e.duration = duration
	e.closeReadyLocked(err)
	handler := e.onEvent
	e.mu.Unlock()

	if handler == nil {
		return
	}
	if err != nil {
		handler(player.MediaEvent{Type: player.EventError, Err: err})
		return
	}
	handler(player.MediaEvent{Type: player.EventLoadedMetadata, Duration: duration})
}

// checkSource 只允许 http(s)，配置了白名单时还要求主机匹配
func (e *Element) checkSource(src string) error {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceNotAllowed, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrSourceNotAllowed, src)
	}
	if len(e.hosts) == 0 {
		return nil
	}
	host := strings.ToLower(u.Host)
	if _, ok := e.hosts[host]; ok {
		return nil
	}
	if _, ok := e.hosts[strings.ToLower(u.Hostname())]; ok {
		return nil
	}
	return fmt.Errorf("%w: host %s", ErrSourceNotAllowed, u.Host)
}

// announce 音源未被替换时上报事件
func (e *Element) announce(gen uint64, ev player.MediaEvent) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	handler := e.onEvent
	e.mu.Unlock()
	if handler != nil {
		handler(ev)
	}
}

func (e *Element) closeReadyLocked(err error) {
	if e.ready == nil || e.readyClosed {
		return
	}
	e.loadErr = err
	e.readyClosed = true
	close(e.ready)
}

// Play 等待音源就绪后开始计时
func (e *Element) Play(ctx context.Context) error {
	e.mu.Lock()
	ready, gen := e.ready, e.gen
	e.mu.Unlock()

	if ready == nil {
		return errNoSource
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.gen {
		return errStopped
	}
	if e.loadErr != nil {
		return e.loadErr
	}
	// ready 与 ctx 同时就绪时 select 随机选择，已取消的请求不能开始播放
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.playing {
		return nil
	}
	// 已播完时从头开始
	if e.duration > 0 && e.offset >= e.duration {
		e.offset = 0
	}
	e.playing = true
	e.startRunLocked()
	return nil
}

// Pause 暂停
func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.playing {
		return
	}
	e.offset = e.positionLocked()
	e.playing = false
	e.stopRunLocked()
}

// Seek 跳转，超出时长时截断
func (e *Element) Seek(seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.offset = seconds
	if e.playing {
		e.stopRunLocked()
		e.startRunLocked()
	}
}

// SetVolume 音量 0..1，只做记录
func (e *Element) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.volume = v
}

// Stop 停止并释放音源
func (e *Element) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.detachLocked()
}

func (e *Element) detachLocked() {
	e.gen++
	if e.cancelProbe != nil {
		e.cancelProbe()
		e.cancelProbe = nil
	}
	e.closeReadyLocked(errStopped)
	e.stopRunLocked()
	e.playing = false
	e.offset = 0
	e.duration = 0
	e.src = ""
	e.onEvent = nil
}

// Position 当前位置（秒）
func (e *Element) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// Duration 时长（秒），0 表示未知
func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Volume 当前音量
func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Playing 是否正在播放
func (e *Element) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Element) positionLocked() float64 {
	if !e.playing {
		return e.offset
	}
	pos := e.offset + time.Since(e.startedAt).Seconds()
	if e.duration > 0 && pos > e.duration {
		pos = e.duration
	}
	return pos
}

func (e *Element) startRunLocked() {
	e.runID++
	e.startedAt = time.Now()
	e.stopRun = make(chan struct{})

	var remaining time.Duration
	if e.duration > 0 {
		remaining = time.Duration((e.duration - e.offset) * float64(time.Second))
		if remaining <= 0 {
			remaining = time.Nanosecond
		}
	}
	go e.run(e.runID, e.stopRun, remaining)
}

func (e *Element) stopRunLocked() {
	if e.stopRun != nil {
		close(e.stopRun)
		e.stopRun = nil
	}
}

// run 定时上报进度，到达结尾时上报 ended；remaining 为0表示时长未知
func (e *Element) run(id uint64, stop <-chan struct{}, remaining time.Duration) {
	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()

	var end <-chan time.Time
	if remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		end = timer.C
	}

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.emit(id, player.EventTimeUpdate)
		case <-end:
			e.emit(id, player.EventEnded)
			return
		}
	}
}

// emit 在锁外回调，避免与会话锁形成环
func (e *Element) emit(id uint64, typ player.MediaEventType) {
	e.mu.Lock()
	if id != e.runID || !e.playing {
		e.mu.Unlock()
		return
	}
	if typ == player.EventEnded {
		e.offset = e.duration
		e.playing = false
		e.stopRun = nil
	}
	ev := player.MediaEvent{Type: typ, Position: e.positionLocked(), Duration: e.duration}
	handler := e.onEvent
	e.mu.Unlock()

	if handler != nil {
		handler(ev)
	}
}

// Probe 拉取音源并解析时长。无法识别的格式返回 0（未知）而不是错误，
// 只有网络错误和非 2xx 状态码视为加载失败。
func Probe(ctx context.Context, client *http.Client, src string, maxBytes int64) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return 0, fmt.Errorf("invalid media source: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return 0, fmt.Errorf("read media: %w", err)
	}
	if int64(len(data)) > maxBytes {
		logger.Debug("音源过大，跳过时长解析", logger.String("src", src))
		return 0, nil
	}

	d, err := DecodeDuration(data)
	if err != nil {
		logger.Debug("无法解析音源时长", logger.String("src", src), logger.ErrorField(err))
		return 0, nil
	}
	return d.Seconds(), nil
}

// DecodeDuration 根据文件头选择 WAV 或 MP3 解码器计算时长
func DecodeDuration(data []byte) (time.Duration, error) {
	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	reader := bytes.NewReader(data)
	if bytes.HasPrefix(data, []byte("RIFF")) {
		streamer, format, err = wav.Decode(reader)
	} else {
		streamer, format, err = mp3.Decode(nopCloser{reader})
	}
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	if streamer.Len() <= 0 {
		return 0, errors.New("unknown stream length")
	}
	return format.SampleRate.D(streamer.Len()), nil
}

// nopCloser 让 bytes.Reader 满足 io.ReadCloser，同时保留 Seek 以便计算长度
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
