package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shriram-30/SpotifyClone/config"
	"github.com/shriram-30/SpotifyClone/logger"
)

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// MediaStore 基于 MinIO 的媒体存储，负责上传和生成预签名地址
type MediaStore struct {
	client *minio.Client
	bucket string
	urlTTL time.Duration
}

// NewMediaStore 创建客户端并确保存储桶存在
func NewMediaStore(ctx context.Context, cfg *config.Config) (*MediaStore, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is not configured")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	s := &MediaStore{client: client, bucket: cfg.MinioBucket, urlTTL: cfg.MediaURLTTL}
	if s.urlTTL <= 0 {
		s.urlTTL = time.Hour
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("创建存储桶", logger.String("bucket", s.bucket))
	}
	return s, nil
}

// Bucket 默认存储桶
func (s *MediaStore) Bucket() string {
	return s.bucket
}

// ResolveURL 把媒体地址转换为可直接访问的地址：http(s) 原样返回，
// 对象引用生成预签名地址。store 为 nil 时原样返回。
func (s *MediaStore) ResolveURL(ctx context.Context, raw string) (string, error) {
	if s == nil {
		return raw, nil
	}
	ref, ok := ParseObjectRef(raw, s.bucket)
	if !ok {
		return raw, nil
	}
	u, err := s.client.PresignedGetObject(ctx, ref.Bucket, ref.Key, s.urlTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", ref, err)
	}
	return u.String(), nil
}

// UploadAudio 上传音频到 audio/ 下，返回对象引用
func (s *MediaStore) UploadAudio(ctx context.Context, name string, r io.Reader, size int64) (ObjectRef, error) {
	ext := strings.ToLower(path.Ext(name))
	ref := ObjectRef{Bucket: s.bucket, Key: "audio/" + uuid.NewString() + ext}
	_, err := s.client.PutObject(ctx, ref.Bucket, ref.Key, r, size, minio.PutObjectOptions{
		ContentType: ContentType(name),
	})
	if err != nil {
		return ObjectRef{}, fmt.Errorf("上传文件失败: %w", err)
	}
	logger.Info("上传媒体文件",
		logger.String("object", ref.String()),
		logger.Int64("size", size))
	return ref, nil
}

// List 列出前缀下的对象
func (s *MediaStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("列出对象失败: %w", obj.Err)
		}
		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ContentType:  obj.ContentType,
		})
	}
	return objects, nil
}
