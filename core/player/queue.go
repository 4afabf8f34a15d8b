package player

import (
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/shriram-30/SpotifyClone/model"
)

// DefaultRestartThreshold 播放进度超过该值时"上一首"改为从头播放
const DefaultRestartThreshold = 2 * time.Second

// Queue 播放队列：按加载顺序保存 base，shuffle 时 items 为其排列，cursor 指向 items
type Queue struct {
	mu               sync.Mutex
	base             []model.Track
	items            []model.Track
	cursor           int // -1 表示没有当前项
	shuffled         bool
	restartThreshold time.Duration
	rng              *rand.Rand
}

// QueueOption 队列选项
type QueueOption func(*Queue)

// WithRand 指定随机源，测试中用于得到确定的洗牌结果
func WithRand(r *rand.Rand) QueueOption {
	return func(q *Queue) { q.rng = r }
}

// WithRestartThreshold 设置"上一首"的重播阈值
func WithRestartThreshold(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d >= 0 {
			q.restartThreshold = d
		}
	}
}

// NewQueue 创建空队列
func NewQueue(opts ...QueueOption) *Queue {
	q := &Queue{
		cursor:           -1,
		restartThreshold: DefaultRestartThreshold,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.rng == nil {
		q.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return q
}

// Load 整体替换队列内容并把 cursor 设为 start。
// items 为空或 start 越界时返回 ErrInvalidIndex，队列保持原样。
// 重复ID只保留第一次出现的那一项。
func (q *Queue) Load(items []model.Track, start int) error {
	if start < 0 || start >= len(items) {
		return ErrInvalidIndex
	}
	startID := items[start].ID
	base := lo.UniqBy(items, func(t model.Track) string { return t.ID })
	start = indexOf(base, startID)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.base = base
	if q.shuffled {
		q.items = q.shuffledFrom(base, start)
		q.cursor = 0
		return nil
	}
	q.items = append([]model.Track(nil), base...)
	q.cursor = start
	return nil
}

// shuffledFrom Fisher-Yates 洗牌，再把 first 对应的歌曲移到第0位
func (q *Queue) shuffledFrom(base []model.Track, first int) []model.Track {
	out := append([]model.Track(nil), base...)
	q.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if first < 0 || first >= len(base) {
		return out
	}
	id := base[first].ID
	for i, t := range out {
		if t.ID == id {
			copy(out[1:i+1], out[:i])
			out[0] = t
			break
		}
	}
	return out
}

// Next 循环前进一位；队列为空或没有当前项时返回 false
func (q *Queue) Next() (model.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || q.cursor < 0 {
		return model.Track{}, false
	}
	q.cursor = (q.cursor + 1) % len(q.items)
	return q.items[q.cursor], true
}

// Previous 循环后退一位。position 超过重播阈值时不移动 cursor，
// 返回当前歌曲并把 restart 置为 true，由调用方跳回0秒。
func (q *Queue) Previous(position float64) (track model.Track, restart bool, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 || q.cursor < 0 {
		return model.Track{}, false, false
	}
	if position > q.restartThreshold.Seconds() {
		return q.items[q.cursor], true, true
	}
	q.cursor = (q.cursor - 1 + len(q.items)) % len(q.items)
	return q.items[q.cursor], false, true
}

// ToggleShuffle 切换随机播放，返回切换后的状态。
// 打开时当前歌曲排到第一位；关闭时恢复加载时的顺序。
func (q *Queue) ToggleShuffle() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	var currentID string
	if q.cursor >= 0 && q.cursor < len(q.items) {
		currentID = q.items[q.cursor].ID
	}

	q.shuffled = !q.shuffled
	if q.shuffled {
		q.items = q.shuffledFrom(q.base, indexOf(q.base, currentID))
		if currentID != "" {
			q.cursor = 0
		}
		return true
	}

	q.items = append([]model.Track(nil), q.base...)
	if currentID != "" {
		q.cursor = indexOf(q.items, currentID)
	}
	return false
}

// SetRestartThreshold 热更新重播阈值
func (q *Queue) SetRestartThreshold(d time.Duration) {
	if d < 0 {
		return
	}
	q.mu.Lock()
	q.restartThreshold = d
	q.mu.Unlock()
}

// IndexOf 返回歌曲在当前播放顺序中的位置，不存在时返回 -1
func (q *Queue) IndexOf(trackID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return indexOf(q.items, trackID)
}

// Select 把 cursor 移到 i
func (q *Queue) Select(i int) (model.Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if i < 0 || i >= len(q.items) {
		return model.Track{}, ErrInvalidIndex
	}
	q.cursor = i
	return q.items[i], nil
}

// Current 当前项
func (q *Queue) Current() (model.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cursor < 0 || q.cursor >= len(q.items) {
		return model.Track{}, false
	}
	return q.items[q.cursor], true
}

// Items 当前播放顺序的副本
func (q *Queue) Items() []model.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.Track(nil), q.items...)
}

func (q *Queue) Cursor() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Shuffled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.shuffled
}

// Clear 清空队列，shuffle 标志保留
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.base = nil
	q.items = nil
	q.cursor = -1
}

func indexOf(items []model.Track, id string) int {
	if id == "" {
		return -1
	}
	for i, t := range items {
		if t.ID == id {
			return i
		}
	}
	return -1
}
