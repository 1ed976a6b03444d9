package storage

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/redis/go-redis/v9"

	"liuproxy_keepalive/internal/shared/types"
)

// 需要一个真实的 Redis：REDIS_ADDR=127.0.0.1:6379 go test ./proxypool/storage/
func TestRedisStorage_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	st, err := New(types.ProxyPoolConf{Storage: "redis", RedisAddr: addr, RedisKey: "keepalive:test:" + t.Name()})
	if err != nil {
		t.Fatalf("New() returned an error: %v", err)
	}

	if err := st.Save([]string{"p1", "p2", "p3"}); err != nil {
		t.Fatalf("Save() returned an error: %v", err)
	}
	if removed, err := st.Remove("p1"); err != nil || !removed {
		t.Fatalf("Remove() = %v, %v", removed, err)
	}
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"p2", "p3"}) {
		t.Errorf("Expected [p2 p3], but got %v", got)
	}
	_ = st.Save(nil)
}

func TestCleanEntries(t *testing.T) {
	got := cleanEntries([]string{" socks5://1.1.1.1:1080 ", "", "\thttp://2.2.2.2:8080\r", "   "})
	want := []string{"socks5://1.1.1.1:1080", "http://2.2.2.2:8080"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, but got %v", want, got)
	}
}

// 列表里带空白的条目在 Load 后可以用修剪后的值删除
func TestRedisStorage_PaddedEntries(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	key := "keepalive:test:" + t.Name()
	ctx := context.Background()
	rdb.Del(ctx, key)
	defer rdb.Del(ctx, key)
	if err := rdb.RPush(ctx, key, " p1 ", "", "p2").Err(); err != nil {
		t.Fatalf("RPush failed: %v", err)
	}

	st := NewRedisStorage(rdb, key)
	got, err := st.Load()
	if err != nil {
		t.Fatalf("Load() returned an error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"p1", "p2"}) {
		t.Fatalf("Expected [p1 p2], but got %v", got)
	}
	if removed, err := st.Remove("p1"); err != nil || !removed {
		t.Fatalf("Expected trimmed entry to be removed, but got %v, %v", removed, err)
	}
	got, _ = st.Load()
	if !reflect.DeepEqual(got, []string{"p2"}) {
		t.Errorf("Expected [p2] after removal, but got %v", got)
	}
}

func TestNew_UnknownStorage(t *testing.T) {
	if _, err := New(types.ProxyPoolConf{Storage: "etcd"}); err == nil {
		t.Errorf("Expected an error for unknown storage type")
	}
}
