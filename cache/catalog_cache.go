package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/shriram-30/SpotifyClone/logger"
)

const keyPrefix = "spotify:catalog:"

// ErrMiss 缓存未命中
var ErrMiss = errors.New("cache miss")

// CatalogCache 目录数据的旁路缓存。client 为 nil 时所有操作都是空操作，
// 读取总是未命中，所以 Redis 不可用时服务仍可运行。
type CatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCatalogCache 创建缓存，client 可以为 nil
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CatalogCache{client: client, ttl: ttl}
}

// Enabled 是否连接了 Redis
func (c *CatalogCache) Enabled() bool {
	return c != nil && c.client != nil
}

// TrendingKey 热门榜
func TrendingKey(limit int) string {
	return fmt.Sprintf("%strending:%d", keyPrefix, limit)
}

// AlbumKey 单张专辑
func AlbumKey(id int64) string {
	return fmt.Sprintf("%salbum:%d", keyPrefix, id)
}

// AlbumsKey 专辑列表
func AlbumsKey() string {
	return keyPrefix + "albums"
}

// ArtistSongsKey 艺人歌曲聚合
func ArtistSongsKey(name string) string {
	return keyPrefix + "artist-songs:" + strings.ToLower(strings.TrimSpace(name))
}

// CandidatesKey 搜索候选，查询统一小写
func CandidatesKey(query string) string {
	return keyPrefix + "candidates:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// GetJSON 读取并反序列化，未命中返回 ErrMiss
func (c *CatalogCache) GetJSON(ctx context.Context, key string, dst interface{}) error {
	if !c.Enabled() {
		return ErrMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON 序列化后写入
func (c *CatalogCache) SetJSON(ctx context.Context, key string, v interface{}) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Invalidate 删除指定键
func (c *CatalogCache) Invalidate(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidatePrefix 删除某一类键，例如全部搜索候选
func (c *CatalogCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, keyPrefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Invalidate(ctx, keys...)
}

// Remember 命中时直接返回，否则调用 load 并回填。缓存读写失败只记日志。
func Remember[T any](ctx context.Context, c *CatalogCache, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	err := c.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrMiss) {
		logger.Warn("读取缓存失败", logger.String("key", key), logger.ErrorField(err))
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if err := c.SetJSON(ctx, key, v); err != nil {
		logger.Warn("写入缓存失败", logger.String("key", key), logger.ErrorField(err))
	}
	return v, nil
}
