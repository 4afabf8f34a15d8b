package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/shriram-30/SpotifyClone/model"
)

// AlbumSongHit 搜索命中的专辑歌曲及其所属专辑（不含歌曲列表）
type AlbumSongHit struct {
	Album model.Album
	Song  model.AlbumSong
}

// AlbumRepository 专辑数据访问接口
type AlbumRepository interface {
	List(ctx context.Context) ([]model.Album, error)
	GetByID(ctx context.Context, id int64) (*model.Album, error)
	Create(ctx context.Context, album *model.Album) error
	Delete(ctx context.Context, id int64) error
	// Search 专辑名或艺人包含任一关键词
	Search(ctx context.Context, terms []string, limit int) ([]model.Album, error)
	// SearchSongs 歌名、歌手或专辑名包含任一关键词的歌曲
	SearchSongs(ctx context.Context, terms []string, limit int) ([]AlbumSongHit, error)
	// SongsByArtist 专辑艺人或歌曲艺人包含 name 的歌曲
	SongsByArtist(ctx context.Context, name string) ([]AlbumSongHit, error)
	// SongByID 按歌曲ID查找，附带所属专辑
	SongByID(ctx context.Context, songID string) (*AlbumSongHit, error)
	Names(ctx context.Context) ([]string, error)
}

type gormAlbumRepository struct {
	db *gorm.DB
}

// NewGormAlbumRepository 创建 GORM 专辑仓库
func NewGormAlbumRepository(db *gorm.DB) AlbumRepository {
	return &gormAlbumRepository{db: db}
}

func orderedSongs(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

// List 按创建时间倒序返回全部专辑
func (r *gormAlbumRepository) List(ctx context.Context) ([]model.Album, error) {
	var albums []model.Album
	err := r.db.WithContext(ctx).
		Preload("Songs", orderedSongs).
		Order("created_at DESC, id DESC").
		Find(&albums).Error
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	return albums, nil
}

// GetByID 获取专辑及其歌曲
func (r *gormAlbumRepository) GetByID(ctx context.Context, id int64) (*model.Album, error) {
	var album model.Album
	err := r.db.WithContext(ctx).
		Preload("Songs", orderedSongs).
		First(&album, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &album, nil
}

// Create 创建专辑，歌曲按传入顺序编号
func (r *gormAlbumRepository) Create(ctx context.Context, album *model.Album) error {
	for i := range album.Songs {
		album.Songs[i].Position = i
	}
	if err := r.db.WithContext(ctx).Create(album).Error; err != nil {
		return fmt.Errorf("create album: %w", err)
	}
	return nil
}

// Delete 删除专辑及其歌曲
func (r *gormAlbumRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", id).Delete(&model.AlbumSong{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Album{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Search 按专辑名和艺人检索
func (r *gormAlbumRepository) Search(ctx context.Context, terms []string, limit int) ([]model.Album, error) {
	cond, args := likeAny([]string{"album_name", "artist"}, terms)
	if cond == "" {
		return nil, nil
	}
	var albums []model.Album
	q := r.db.WithContext(ctx).Where(cond, args...).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("search albums: %w", err)
	}
	return albums, nil
}

// SearchSongs 按歌名、歌手和专辑名检索专辑歌曲
func (r *gormAlbumRepository) SearchSongs(ctx context.Context, terms []string, limit int) ([]AlbumSongHit, error) {
	cond, args := likeAny([]string{"album_songs.title", "album_songs.artists", "albums.album_name"}, terms)
	if cond == "" {
		return nil, nil
	}
	var songs []model.AlbumSong
	q := r.db.WithContext(ctx).
		Joins("JOIN albums ON albums.id = album_songs.album_id").
		Where(cond, args...).
		Order("album_songs.album_id ASC, album_songs.position ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("search album songs: %w", err)
	}
	return r.withAlbums(ctx, songs)
}

// SongsByArtist 聚合某艺人的专辑歌曲
func (r *gormAlbumRepository) SongsByArtist(ctx context.Context, name string) ([]AlbumSongHit, error) {
	pattern := containsPattern(name)
	var songs []model.AlbumSong
	err := r.db.WithContext(ctx).
		Joins("JOIN albums ON albums.id = album_songs.album_id").
		Where("LOWER(albums.artist) LIKE ? ESCAPE '!' OR LOWER(album_songs.artists) LIKE ? ESCAPE '!'", pattern, pattern).
		Order("album_songs.album_id ASC, album_songs.position ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("songs by artist: %w", err)
	}
	return r.withAlbums(ctx, songs)
}

func (r *gormAlbumRepository) SongByID(ctx context.Context, songID string) (*AlbumSongHit, error) {
	var song model.AlbumSong
	if err := r.db.WithContext(ctx).Where("song_id = ?", songID).First(&song).Error; err != nil {
		return nil, notFound(err)
	}
	var album model.Album
	if err := r.db.WithContext(ctx).First(&album, song.AlbumID).Error; err != nil {
		return nil, notFound(err)
	}
	return &AlbumSongHit{Album: album, Song: song}, nil
}

// withAlbums 补全歌曲所属专辑
func (r *gormAlbumRepository) withAlbums(ctx context.Context, songs []model.AlbumSong) ([]AlbumSongHit, error) {
	if len(songs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(songs))
	seen := make(map[int64]bool)
	for _, s := range songs {
		if !seen[s.AlbumID] {
			seen[s.AlbumID] = true
			ids = append(ids, s.AlbumID)
		}
	}

	var albums []model.Album
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&albums).Error; err != nil {
		return nil, fmt.Errorf("load albums: %w", err)
	}
	byID := make(map[int64]model.Album, len(albums))
	for _, a := range albums {
		byID[a.ID] = a
	}

	hits := make([]AlbumSongHit, 0, len(songs))
	for _, s := range songs {
		hits = append(hits, AlbumSongHit{Album: byID[s.AlbumID], Song: s})
	}
	return hits, nil
}

// Names 全部专辑名，用于搜索建议
func (r *gormAlbumRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Album{}).Pluck("album_name", &names).Error; err != nil {
		return nil, fmt.Errorf("album names: %w", err)
	}
	return names, nil
}
