package server

import (
	"context"

	"github.com/shriram-30/SpotifyClone/cache"
	"github.com/shriram-30/SpotifyClone/config"
	"github.com/shriram-30/SpotifyClone/core/catalog"
	"github.com/shriram-30/SpotifyClone/db"
	"github.com/shriram-30/SpotifyClone/logger"
	"github.com/shriram-30/SpotifyClone/repository"
	"github.com/shriram-30/SpotifyClone/storage"
)

// OpenCatalog 连接数据库并组装目录服务。Redis 和 MinIO 不可用时降级运行。
// 返回的 cleanup 关闭全部连接
func OpenCatalog(ctx context.Context, cfg *config.Config) (*catalog.Service, func(), error) {
	if err := db.ConnectGormDB(cfg); err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { db.CloseGormDB() }}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if err := db.Migrate(db.GormDB); err != nil {
		cleanup()
		return nil, nil, err
	}

	catalogCache := cache.NewCatalogCache(nil, cfg.CatalogCacheTTL)
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Redis 不可用，目录缓存已关闭", logger.ErrorField(err))
	} else {
		closers = append(closers, func() { cache.CloseRedis() })
		catalogCache = cache.NewCatalogCache(cache.RedisClient, cfg.CatalogCacheTTL)
		logger.Info("Redis 连接成功")
	}

	var media catalog.MediaResolver
	if cfg.MinioEndpoint != "" {
		store, err := storage.NewMediaStore(ctx, cfg)
		if err != nil {
			logger.Warn("MinIO 不可用，媒体地址不做预签名", logger.ErrorField(err))
		} else {
			media = store
			logger.Info("MinIO 连接成功", logger.String("bucket", store.Bucket()))
		}
	}

	svc := catalog.NewService(
		repository.NewGormAlbumRepository(db.GormDB),
		repository.NewGormArtistRepository(db.GormDB),
		repository.NewGormTrendingRepository(db.GormDB),
		catalogCache,
		media,
	)
	return svc, cleanup, nil
}
