package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/shriram-30/SpotifyClone/model"
)

// ArtistPatch 部分更新艺人，nil 字段保持不变
type ArtistPatch struct {
	Name      *string `json:"name"`
	Img       *string `json:"img"`
	Bio       *string `json:"bio"`
	Genres    *string `json:"genres"`
	Instagram *string `json:"instagram"`
	YouTube   *string `json:"youtube"`
	CoverImg  *string `json:"coverimg"`
}

// ArtistRepository 艺人数据访问接口
type ArtistRepository interface {
	// List 分页，search 为名字包含匹配，按名字升序
	List(ctx context.Context, search string, page, limit int) ([]model.Artist, int64, error)
	GetByID(ctx context.Context, id int64) (*model.Artist, error)
	// GetByName 名字完全匹配（不区分大小写）
	GetByName(ctx context.Context, name string) (*model.Artist, error)
	Create(ctx context.Context, artist *model.Artist) error
	Update(ctx context.Context, id int64, patch ArtistPatch) (*model.Artist, error)
	// Delete 删除并返回被删除的艺人
	Delete(ctx context.Context, id int64) (*model.Artist, error)
	Search(ctx context.Context, terms []string, limit int) ([]model.Artist, error)
	Names(ctx context.Context) ([]string, error)
}

type gormArtistRepository struct {
	db *gorm.DB
}

// NewGormArtistRepository 创建 GORM 艺人仓库
func NewGormArtistRepository(db *gorm.DB) ArtistRepository {
	return &gormArtistRepository{db: db}
}

func (r *gormArtistRepository) List(ctx context.Context, search string, page, limit int) ([]model.Artist, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.Artist{})
		if s := strings.TrimSpace(search); s != "" {
			q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", containsPattern(s))
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count artists: %w", err)
	}

	var artists []model.Artist
	err := base().Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&artists).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list artists: %w", err)
	}
	return artists, total, nil
}

func (r *gormArtistRepository) GetByID(ctx context.Context, id int64) (*model.Artist, error) {
	var artist model.Artist
	if err := r.db.WithContext(ctx).First(&artist, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &artist, nil
}

func (r *gormArtistRepository) GetByName(ctx context.Context, name string) (*model.Artist, error) {
	var artist model.Artist
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&artist).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &artist, nil
}

// Create 创建艺人，同名（不区分大小写）时返回 ErrDuplicateArtist
func (r *gormArtistRepository) Create(ctx context.Context, artist *model.Artist) error {
	artist.Name = strings.TrimSpace(artist.Name)
	if _, err := r.GetByName(ctx, artist.Name); err == nil {
		return ErrDuplicateArtist
	} else if !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("check existing artist: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(artist).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateArtist
		}
		return fmt.Errorf("create artist: %w", err)
	}
	return nil
}

// Update 按补丁更新，改名时同样检查重名
func (r *gormArtistRepository) Update(ctx context.Context, id int64, patch ArtistPatch) (*model.Artist, error) {
	artist, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if !strings.EqualFold(name, artist.Name) {
			if other, err := r.GetByName(ctx, name); err == nil && other.ID != id {
				return nil, ErrDuplicateArtist
			} else if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
		}
		artist.Name = name
	}
	setIf(&artist.Img, patch.Img)
	setIf(&artist.Bio, patch.Bio)
	setIf(&artist.Genres, patch.Genres)
	setIf(&artist.SocialLinks.Instagram, patch.Instagram)
	setIf(&artist.SocialLinks.YouTube, patch.YouTube)
	setIf(&artist.CoverImg, patch.CoverImg)

	if err := r.db.WithContext(ctx).Save(artist).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateArtist
		}
		return nil, fmt.Errorf("update artist: %w", err)
	}
	return artist, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (r *gormArtistRepository) Delete(ctx context.Context, id int64) (*model.Artist, error) {
	artist, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Delete(&model.Artist{}, id).Error; err != nil {
		return nil, fmt.Errorf("delete artist: %w", err)
	}
	return artist, nil
}

func (r *gormArtistRepository) Search(ctx context.Context, terms []string, limit int) ([]model.Artist, error) {
	cond, args := likeAny([]string{"name"}, terms)
	if cond == "" {
		return nil, nil
	}
	var artists []model.Artist
	q := r.db.WithContext(ctx).Where(cond, args...).Order("name ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&artists).Error; err != nil {
		return nil, fmt.Errorf("search artists: %w", err)
	}
	return artists, nil
}

func (r *gormArtistRepository) Names(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.db.WithContext(ctx).Model(&model.Artist{}).Pluck("name", &names).Error; err != nil {
		return nil, fmt.Errorf("artist names: %w", err)
	}
	return names, nil
}
