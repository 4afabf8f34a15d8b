package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shriram-30/SpotifyClone/model"
)

// DefaultTrendingLimit 热门榜默认条数
const DefaultTrendingLimit = 50

// TrendingRepository 热门歌曲数据访问接口
type TrendingRepository interface {
	List(ctx context.Context, limit int) ([]model.TrendingSong, error)
	GetByID(ctx context.Context, id int64) (*model.TrendingSong, error)
	// FindBySongName 歌名完全匹配（不区分大小写）
	FindBySongName(ctx context.Context, name string) ([]model.TrendingSong, error)
	// ByArtist 副标题包含艺人名
	ByArtist(ctx context.Context, name string) ([]model.TrendingSong, error)
	Search(ctx context.Context, terms []string, limit int) ([]model.TrendingSong, error)
	Create(ctx context.Context, song *model.TrendingSong) error
}

type gormTrendingRepository struct {
	db *gorm.DB
}

// NewGormTrendingRepository 创建 GORM 热门歌曲仓库
func NewGormTrendingRepository(db *gorm.DB) TrendingRepository {
	return &gormTrendingRepository{db: db}
}

func (r *gormTrendingRepository) List(ctx context.Context, limit int) ([]model.TrendingSong, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}
	var songs []model.TrendingSong
	if err := r.db.WithContext(ctx).Order("id ASC").Limit(limit).Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("list trending songs: %w", err)
	}
	return songs, nil
}

func (r *gormTrendingRepository) GetByID(ctx context.Context, id int64) (*model.TrendingSong, error) {
	var song model.TrendingSong
	if err := r.db.WithContext(ctx).First(&song, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &song, nil
}

func (r *gormTrendingRepository) FindBySongName(ctx context.Context, name string) ([]model.TrendingSong, error) {
	var songs []model.TrendingSong
	err := r.db.WithContext(ctx).
		Where("LOWER(song_name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Order("id ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("find trending by song name: %w", err)
	}
	return songs, nil
}

func (r *gormTrendingRepository) ByArtist(ctx context.Context, name string) ([]model.TrendingSong, error) {
	var songs []model.TrendingSong
	err := r.db.WithContext(ctx).
		Where("LOWER(subheading) LIKE ? ESCAPE '!'", containsPattern(name)).
		Order("id ASC").
		Find(&songs).Error
	if err != nil {
		return nil, fmt.Errorf("trending by artist: %w", err)
	}
	return songs, nil
}

func (r *gormTrendingRepository) Search(ctx context.Context, terms []string, limit int) ([]model.TrendingSong, error) {
	cond, args := likeAny([]string{"song_name", "heading", "subheading"}, terms)
	if cond == "" {
		return nil, nil
	}
	var songs []model.TrendingSong
	q := r.db.WithContext(ctx).Where(cond, args...).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&songs).Error; err != nil {
		return nil, fmt.Errorf("search trending songs: %w", err)
	}
	return songs, nil
}

func (r *gormTrendingRepository) Create(ctx context.Context, song *model.TrendingSong) error {
	if err := r.db.WithContext(ctx).Create(song).Error; err != nil {
		return fmt.Errorf("create trending song: %w", err)
	}
	return nil
}
