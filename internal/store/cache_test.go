package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) *MoveCache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	c, err := NewMoveCache(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Minute)
	if err != nil {
		t.Fatalf("NewMoveCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	moves := []string{"e2e4", "e7e5"}

	if err := c.Put(ctx, "startpos", moves, 1500, 10, 1000, "g1f3"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, "startpos", moves, 1500, 10, 1000)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "g1f3" {
		t.Fatalf("Get = %q, want g1f3", got)
	}
}

func TestCacheMiss(t *testing.T) {
	c := newTestCache(t)
	got, err := c.Get(context.Background(), "startpos", nil, 1500, 10, 1000)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("Get = %q, want miss", got)
	}
}

func TestCacheKeyDistinguishesParameters(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "startpos", nil, 1500, 10, 1000, "g1f3"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, "startpos", nil, 2000, 10, 1000)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("different elo hit the same key: %q", got)
	}
}

func TestCacheSkipsRandomizedDifficulties(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, "startpos", nil, 400, 10, 1000, "d2d4"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := c.Get(ctx, "startpos", nil, 400, 10, 1000)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "" {
		t.Fatalf("randomized difficulty was cached: %q", got)
	}

	if Cacheable(400) || Cacheable(500) {
		t.Fatal("elo <= 500 must not be cacheable")
	}
	if !Cacheable(501) {
		t.Fatal("elo 501 must be cacheable")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *MoveCache
	if _, err := c.Get(context.Background(), "startpos", nil, 1500, 10, 1000); err != nil {
		t.Fatalf("nil Get: %v", err)
	}
	if err := c.Put(context.Background(), "startpos", nil, 1500, 10, 1000, "e2e4"); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
}
