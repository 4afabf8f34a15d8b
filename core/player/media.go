package player

import "context"

// MediaEventType 媒体事件类型
type MediaEventType int

const (
	EventLoadedMetadata MediaEventType = iota // 时长已知
	EventTimeUpdate                           // 播放进度变化
	EventEnded                                // 播放到结尾
	EventError                                // 加载或解码失败
)

func (t MediaEventType) String() string {
	switch t {
	case EventLoadedMetadata:
		return "loadedmetadata"
	case EventTimeUpdate:
		return "timeupdate"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// MediaEvent 媒体元素上报的事件
type MediaEvent struct {
	Type     MediaEventType
	Position float64 // 秒
	Duration float64 // 秒，0 表示未知
	Err      error
}

// MediaElement 单个播放句柄，由 Session 独占。
// 实现不能在 Load/Pause/Seek/SetVolume/Stop 内同步回调 onEvent。
type MediaElement interface {
	// Load 设置新的音源，之后的事件都通过 onEvent 上报
	Load(src string, onEvent func(MediaEvent))
	// Play 请求播放并阻塞到媒体就绪、出错或 ctx 结束
	Play(ctx context.Context) error
	Pause()
	Seek(seconds float64)
	// SetVolume 取值 0..1
	SetVolume(v float64)
	// Stop 停止播放并释放当前音源
	Stop()
}

// MediaFactory 为每个会话创建独立的媒体元素
type MediaFactory func() MediaElement
