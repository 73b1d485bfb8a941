package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/homeplast-storefront/pkg/config"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return Wrap(raw), mr
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	win, err := client.FixedWindowAllow(ctx, "coupon:sess-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !win.Allowed || win.Count != 1 || win.Reset != time.Minute {
		t.Fatalf("expected first request allowed with a fresh window, got %+v", win)
	}
	if ttl := mr.TTL(client.RateLimitKey("coupon:sess-1")); ttl != time.Minute {
		t.Fatalf("expected ttl to be set on first increment, got %v", ttl)
	}

	win, err = client.FixedWindowAllow(ctx, "coupon:sess-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !win.Allowed || win.Count != 2 {
		t.Fatalf("unexpected second call state %+v", win)
	}

	mr.FastForward(20 * time.Second)
	win, err = client.FixedWindowAllow(ctx, "coupon:sess-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if win.Allowed {
		t.Fatalf("expected limit reached")
	}
	if win.Reset != 40*time.Second {
		t.Fatalf("expected window to keep its original expiry, got %v", win.Reset)
	}

	mr.FastForward(time.Minute)
	win, err = client.FixedWindowAllow(ctx, "coupon:sess-1", 2, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !win.Allowed || win.Count != 1 {
		t.Fatalf("expected window reset, got %+v", win)
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	key := client.StateKey("sess-9")
	if err := client.Set(ctx, key, `{"ok":true}`, time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil || got != `{"ok":true}` {
		t.Fatalf("unexpected get result %q err=%v", got, err)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, key); !errors.Is(err, ErrNil) {
		t.Fatalf("expected ErrNil after delete, got %v", err)
	}
}

func TestSetNXOnlyOnce(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestClient(t)

	ok, err := client.SetNX(ctx, "k", "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("expected first SetNX to win, ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, "k", "b", time.Minute)
	if err != nil || ok {
		t.Fatalf("expected second SetNX to lose, ok=%v err=%v", ok, err)
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.IdempotencyKey("scope", "id"); got != "hp:idempotency:scope:id" {
		t.Fatalf("unexpected idempotency key %s", got)
	}
	if got := client.RateLimitKey("scope"); got != "hp:rate_limit:scope" {
		t.Fatalf("unexpected rate limit key %s", got)
	}
	if got := client.StateKey("abc"); got != "hp:state:abc" {
		t.Fatalf("unexpected state key %s", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.FixedWindowAllow(context.Background(), "x", 1, time.Second); err == nil {
		t.Fatal("expected error from uninitialized limiter")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on empty client should be a no-op, got %v", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 3, ReadTimeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Addr != "cache:6379" || opts.DB != 3 || opts.ReadTimeout != time.Second {
		t.Fatalf("unexpected address options %+v", opts)
	}
}
