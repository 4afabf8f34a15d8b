package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUser 用户名或邮箱已被注册
	ErrDuplicateUser = errors.New("user already exists")
	// ErrDuplicateArtist 同名艺人已存在（不区分大小写）
	ErrDuplicateArtist = errors.New("artist with this name already exists")
)

// notFound 把 gorm 的未找到错误转换为 ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// escapeLike 转义 LIKE 通配符，配合 ESCAPE '!' 使用
func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

// containsPattern 不区分大小写的包含匹配
func containsPattern(s string) string {
	return "%" + escapeLike(strings.ToLower(s)) + "%"
}

// likeAny 任一列包含任一关键词
func likeAny(columns []string, terms []string) (string, []interface{}) {
	var (
		parts []string
		args  []interface{}
	)
	for _, term := range terms {
		if term == "" {
			continue
		}
		pattern := containsPattern(term)
		for _, col := range columns {
			parts = append(parts, "LOWER("+col+") LIKE ? ESCAPE '!'")
			args = append(args, pattern)
		}
	}
	if len(parts) == 0 {
		return "", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}
