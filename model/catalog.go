package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Album 专辑，歌曲按 Position 排序
type Album struct {
	ID        int64       `json:"_id" gorm:"primaryKey;autoIncrement"`
	AlbumName string      `json:"albumname" gorm:"size:255;not null;index"`
	Artist    string      `json:"artist" gorm:"size:255;not null;index"`
	Year      string      `json:"year" gorm:"size:16"`
	ImageURL  string      `json:"imageUrl" gorm:"size:512"`
	Download  string      `json:"Download,omitempty" gorm:"size:512"`
	Songs     []AlbumSong `json:"songs" gorm:"foreignKey:AlbumID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// TableName 指定表名
func (Album) TableName() string {
	return "albums"
}

// AlbumSong 专辑内的一首歌
type AlbumSong struct {
	ID        int64  `json:"-" gorm:"primaryKey;autoIncrement"`
	SongID    string `json:"_id" gorm:"size:36;uniqueIndex"`
	AlbumID   int64  `json:"-" gorm:"index;not null"`
	Position  int    `json:"-" gorm:"not null;default:0"`
	Title     string `json:"title" gorm:"size:255"`
	Artists   string `json:"artists" gorm:"size:512"`
	Duration  string `json:"duration" gorm:"size:16"` // m:ss
	URL       string `json:"url" gorm:"size:512"`
	CanvasURL string `json:"canvasUrl,omitempty" gorm:"size:512"`
}

// TableName 指定表名
func (AlbumSong) TableName() string {
	return "album_songs"
}

// BeforeCreate 生成稳定的歌曲ID
func (s *AlbumSong) BeforeCreate(tx *gorm.DB) error {
	if s.SongID == "" {
		s.SongID = uuid.NewString()
	}
	return nil
}

// SocialLinks 艺人社交账号
type SocialLinks struct {
	Instagram string `json:"instagram" gorm:"size:255"`
	YouTube   string `json:"youtube" gorm:"size:255"`
}

// Artist 艺人
type Artist struct {
	ID          int64       `json:"_id" gorm:"primaryKey;autoIncrement"`
	Name        string      `json:"name" gorm:"size:255;uniqueIndex;not null"`
	Img         string      `json:"img" gorm:"size:512"`
	Bio         string      `json:"bio" gorm:"type:text"`
	Genres      string      `json:"genres" gorm:"size:255"`
	SocialLinks SocialLinks `json:"sociallinks" gorm:"embedded;embeddedPrefix:social_"`
	CoverImg    string      `json:"coverimg" gorm:"size:512"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TableName 指定表名
func (Artist) TableName() string {
	return "artists"
}

// TrendingSong 首页热门歌曲
type TrendingSong struct {
	ID         int64     `json:"_id" gorm:"primaryKey;autoIncrement"`
	ImgSrc     string    `json:"imgsrc" gorm:"size:512"`
	Heading    string    `json:"heading" gorm:"size:255;index"`
	Subheading string    `json:"subheading" gorm:"size:255"`
	Music      string    `json:"music" gorm:"size:512"`
	SongName   string    `json:"songName,omitempty" gorm:"size:255;index"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (TrendingSong) TableName() string {
	return "trending_songs"
}

// 艺人歌曲来源
const (
	ArtistSongFromAlbum    = "album"
	ArtistSongFromTrending = "trending"
)

// ArtistSongAlbum 艺人歌曲所属专辑的摘要
type ArtistSongAlbum struct {
	ID       int64  `json:"_id,omitempty"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	Artist   string `json:"artist,omitempty"`
}

// ArtistSong 按艺人聚合出的歌曲，可能来自专辑也可能来自热门榜
type ArtistSong struct {
	ID        string          `json:"_id"`
	Title     string          `json:"title"`
	Artists   string          `json:"artists"`
	Duration  string          `json:"duration,omitempty"`
	URL       string          `json:"url"`
	CanvasURL string          `json:"canvasUrl,omitempty"`
	Album     ArtistSongAlbum `json:"album"`
	Type      string          `json:"type"`
}
