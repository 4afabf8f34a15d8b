package storage

import (
	"fmt"
	"path"
	"strings"
)

// Scheme 对象引用前缀，例如 minio://bucket/audio/a.mp3
const Scheme = "minio://"

// ObjectRef 存储桶中的一个对象
type ObjectRef struct {
	Bucket string
	Key    string
}

func (r ObjectRef) String() string {
	return Scheme + r.Bucket + "/" + r.Key
}

// ParseObjectRef 解析媒体地址。http(s) 地址、空值和 "#" 不是对象引用；
// 不带协议的路径视为默认桶中的键。
func ParseObjectRef(raw, defaultBucket string) (ObjectRef, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "#" {
		return ObjectRef{}, false
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "data:") {
		return ObjectRef{}, false
	}

	if strings.HasPrefix(lower, Scheme) {
		rest := raw[len(Scheme):]
		bucket, key, found := strings.Cut(rest, "/")
		key = strings.TrimLeft(key, "/")
		if !found || bucket == "" || key == "" {
			return ObjectRef{}, false
		}
		return ObjectRef{Bucket: bucket, Key: key}, true
	}

	if strings.Contains(raw, "://") || defaultBucket == "" {
		return ObjectRef{}, false
	}
	key := strings.TrimLeft(raw, "/")
	if key == "" {
		return ObjectRef{}, false
	}
	return ObjectRef{Bucket: defaultBucket, Key: key}, true
}

// ContentType 根据扩展名推断上传时的 Content-Type
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// FormatSize 格式化文件大小
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
