package model

// Track 播放器使用的统一歌曲结构，由各数据源在边界处归一化得到
type Track struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	ArtistName      string  `json:"artistName"`
	AlbumName       string  `json:"albumName,omitempty"`
	ArtworkURL      string  `json:"artworkUrl,omitempty"`
	AudioURL        string  `json:"audioUrl,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"` // 0 表示未知
	CanvasVideoURL  string  `json:"canvasVideoUrl,omitempty"`
}

// Playable 是否有可用的音频地址
func (t Track) Playable() bool {
	return t.AudioURL != ""
}
