package player

import "errors"

var (
	// ErrNotPlayable 歌曲没有可用的音频地址，状态不变
	ErrNotPlayable = errors.New("track has no playable media source")
	// ErrInvalidIndex 队列下标越界，队列不变
	ErrInvalidIndex = errors.New("queue index out of range")
	// ErrPlaybackFailed 媒体拒绝播放（格式、网络、超时），会话回到未播放状态，可重试
	ErrPlaybackFailed = errors.New("playback failed")
	// ErrSuperseded 等待就绪期间被新的播放请求或关闭操作取代
	ErrSuperseded = errors.New("play request superseded")
	// ErrNoSession 用户没有活动的播放会话
	ErrNoSession = errors.New("no active player session")
)
