package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"liuproxy_keepalive/internal/shared/types"
)

// Storage 接口定义了代理池持久化的行为。
// 条目是有序的代理行；Remove 必须是原子的读-改-写。
type Storage interface {
	Load() ([]string, error)
	Save(entries []string) error
	// Remove 删除与 entry 完全相同的行，返回是否确实删除了内容。
	Remove(entry string) (bool, error)
}

// New 根据配置创建存储实现。
func New(cfg types.ProxyPoolConf) (Storage, error) {
	switch cfg.Storage {
	case "file", "":
		return NewFileStorage(cfg.File), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return NewRedisStorage(rdb, cfg.RedisKey), nil
	case "memory":
		return NewMemoryStorage(nil), nil
	default:
		return nil, fmt.Errorf("unknown proxy pool storage: '%s'", cfg.Storage)
	}
}
