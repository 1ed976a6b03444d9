package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"liuproxy_keepalive/internal/shared/logger"
)

const redisOpTimeout = 5 * time.Second

// RedisStorage 把代理池保存在一个 Redis list 中，多个进程可以共享同一个池。
// LREM 在服务端原子执行，删除不需要额外加锁。
type RedisStorage struct {
	client *redis.Client
	key    string
}

func NewRedisStorage(client *redis.Client, key string) *RedisStorage {
	return &RedisStorage{client: client, key: key}
}

func (r *RedisStorage) Load() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	entries, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange %s: %w", r.key, err)
	}
	return cleanEntries(entries), nil
}

// cleanEntries 去掉首尾空白并跳过空行，与文件存储读出的条目保持一致，
// 否则 Remove 收到的已修剪条目无法匹配 LREM。
func cleanEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *RedisStorage) Save(entries []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	values := make([]interface{}, len(entries))
	for i, e := range entries {
		values[i] = e
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(values) > 0 {
			pipe.RPush(ctx, r.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save %s: %w", r.key, err)
	}
	l := logger.WithComponent("ProxyPool/Storage")
	l.Info().Str("key", r.key).Int("count", len(entries)).Msg("Saved proxies to redis.")
	return nil
}

func (r *RedisStorage) Remove(entry string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	n, err := r.client.LRem(ctx, r.key, 0, entry).Result()
	if err != nil {
		return false, fmt.Errorf("redis lrem %s: %w", r.key, err)
	}
	if n > 0 {
		return true, nil
	}

	// 列表中的原始值可能带有空白（外部写入），按修剪后的值再匹配一次
	raw, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return false, fmt.Errorf("redis lrange %s: %w", r.key, err)
	}
	removed := false
	for _, v := range raw {
		if v == entry || strings.TrimSpace(v) != entry {
			continue
		}
		m, err := r.client.LRem(ctx, r.key, 0, v).Result()
		if err != nil {
			return removed, fmt.Errorf("redis lrem %s: %w", r.key, err)
		}
		removed = removed || m > 0
	}
	return removed, nil
}
