package feedcache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestNew_NilClientDisablesCache(t *testing.T) {
	if c := New(nil, time.Minute, zap.NewNop()); c != nil {
		t.Fatal("expected nil cache without a client")
	}
}

func TestNilCache_IsSafe(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var out []string
	if c.Get(ctx, "k", &out) {
		t.Error("nil cache should always miss")
	}
	c.Set(ctx, "k", []string{"a"})
	c.Invalidate(ctx)
}

func TestPageKey_IncludesVersion(t *testing.T) {
	if got := pageKey(7, "status=published&limit=20"); got != "feed:v7:status=published&limit=20" {
		t.Errorf("pageKey = %q", got)
	}
	if pageKey(1, "x") == pageKey(2, "x") {
		t.Error("different versions must produce different keys")
	}
}

func TestUnreachableRedis_MissesAndDoesNotPanic(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	c := New(rdb, time.Minute, zap.NewNop())
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var out map[string]int
	if c.Get(ctx, "k", &out) {
		t.Error("expected miss when redis is unreachable")
	}
	c.Set(ctx, "k", map[string]int{"a": 1})
	c.Invalidate(ctx)
}
