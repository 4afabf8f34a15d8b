package model

import (
	"fmt"
	"strconv"
	"strings"
)

const unknownTrackTitle = "Unknown Track"

// TrackFromTrending 热门歌曲转为 Track，歌名优先使用 songName
func TrackFromTrending(s TrendingSong) Track {
	title := strings.TrimSpace(s.SongName)
	if title == "" {
		title = strings.TrimSpace(s.Heading)
	}
	if title == "" {
		title = unknownTrackTitle
	}
	return Track{
		ID:         TrendingTrackID(s.ID),
		Title:      title,
		ArtistName: strings.TrimSpace(s.Subheading),
		ArtworkURL: s.ImgSrc,
		AudioURL:   mediaURL(s.Music),
	}
}

// TrendingTrackID 热门歌曲在播放队列中的ID
func TrendingTrackID(id int64) string {
	return fmt.Sprintf("trending-%d", id)
}

// ParseTrendingTrackID TrendingTrackID 的逆运算
func ParseTrendingTrackID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(id, "trending-")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// WithSongDefaults 补齐专辑歌曲缺失的字段
func WithSongDefaults(album Album, song AlbumSong) AlbumSong {
	if strings.TrimSpace(song.Title) == "" {
		song.Title = unknownTrackTitle
	}
	if strings.TrimSpace(song.Artists) == "" {
		song.Artists = album.Artist
	}
	if strings.TrimSpace(song.Duration) == "" {
		song.Duration = "0:00"
	}
	if song.SongID == "" {
		song.SongID = fmt.Sprintf("album-%d-%d", album.ID, song.Position)
	}
	return song
}

// TrackFromAlbumSong 专辑歌曲转为 Track
func TrackFromAlbumSong(album Album, song AlbumSong) Track {
	song = WithSongDefaults(album, song)
	return Track{
		ID:              song.SongID,
		Title:           song.Title,
		ArtistName:      song.Artists,
		AlbumName:       album.AlbumName,
		ArtworkURL:      album.ImageURL,
		AudioURL:        mediaURL(song.URL),
		DurationSeconds: ParseDuration(song.Duration),
		CanvasVideoURL:  song.CanvasURL,
	}
}

// AlbumTracks 整张专辑转为播放队列
func AlbumTracks(album Album) []Track {
	tracks := make([]Track, 0, len(album.Songs))
	for _, s := range album.Songs {
		tracks = append(tracks, TrackFromAlbumSong(album, s))
	}
	return tracks
}

// TrackFromArtistSong 艺人聚合歌曲转为 Track
func TrackFromArtistSong(s ArtistSong) Track {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		title = unknownTrackTitle
	}
	artist := strings.TrimSpace(s.Artists)
	if artist == "" {
		artist = s.Album.Artist
	}
	return Track{
		ID:              s.ID,
		Title:           title,
		ArtistName:      artist,
		AlbumName:       s.Album.Name,
		ArtworkURL:      s.Album.ImageURL,
		AudioURL:        mediaURL(s.URL),
		DurationSeconds: ParseDuration(s.Duration),
		CanvasVideoURL:  s.CanvasURL,
	}
}

// "#" 是前端约定的占位地址，视为没有音频
func mediaURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "#" {
		return ""
	}
	return raw
}

// ParseDuration 解析 "m:ss" 或 "h:mm:ss"，无法解析时返回 0（未知）
func ParseDuration(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	total := 0
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0
		}
		if i > 0 && n >= 60 {
			return 0
		}
		total = total*60 + n
	}
	return float64(total)
}

// FormatDuration 秒数格式化为 "m:ss"
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	s := int(seconds + 0.5)
	if s >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", s/3600, (s%3600)/60, s%60)
	}
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// PrimaryArtist 取多位艺人中的第一位，如 "A, B" / "A & B" / "A feat. B"
func PrimaryArtist(artists string) string {
	s := artists
	lower := strings.ToLower(s)
	cut := len(s)
	for _, sep := range []string{",", "&", " feat.", " ft."} {
		if i := strings.Index(lower, sep); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(s[:cut])
}
