// Package store 提供 core.Store 的实现：内存、JSON 文件、Redis。
//
// 接口定义在 core 包：
//
//	var s core.Store = store.NewFileStore("cache")
//	var s core.Store = store.NewMemoryStore()
package store

import (
	"fmt"

	"github.com/rushteam/moodmeal/core"
)

// ErrNotFound 是 core.ErrStoreNotFound 的别名，便于包内引用。
var ErrNotFound = core.ErrStoreNotFound

// Options 描述存储后端的选择，通常来自应用配置。
type Options struct {
	Type      string // memory / file / redis
	Dir       string // file 后端目录
	RedisAddr string
	RedisDB   int
	RedisPass string
	KeyPrefix string // redis key 前缀
}

// New 按 Options 构建存储后端。
func New(opts Options) (core.Store, error) {
	switch opts.Type {
	case "", "file":
		return NewFileStore(opts.Dir)
	case "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:      opts.RedisAddr,
			DB:        opts.RedisDB,
			Password:  opts.RedisPass,
			KeyPrefix: opts.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown store type: %s", opts.Type)
	}
}
