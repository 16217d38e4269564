package redis

import (
	"context"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/bazaar/storefront-gateway/internal/core/domain"
)

func newTestCache(t *testing.T, ttl time.Duration) (*PrincipalCache, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	if err != nil {
		t.Skipf("miniredis unavailable: %v", err)
	}
	t.Cleanup(srv.Close)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPrincipalCache(client, ttl), srv
}

func TestPrincipalCache_Miss(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	p, err := cache.Get(context.Background(), "shop", "tok")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if p != nil {
		t.Fatalf("expected miss, got %+v", p)
	}
}

func TestPrincipalCache_PutGetDelete(t *testing.T) {
	cache, srv := newTestCache(t, time.Minute)
	ctx := context.Background()

	want := &domain.Principal{ID: "s1", Name: "Shop", Role: "shop", Permissions: []string{"a"}}
	if err := cache.Put(ctx, "shop", "tok", want); err != nil {
		t.Fatalf("put: %v", err)
	}

	for _, k := range srv.Keys() {
		if strings.Contains(k, "tok") {
			t.Fatalf("raw token leaked into key %q", k)
		}
		if !strings.HasPrefix(k, "principal:shop:") {
			t.Fatalf("unexpected key %q", k)
		}
	}

	got, err := cache.Get(ctx, "shop", "tok")
	if err != nil || got == nil || got.ID != "s1" || got.Permissions[0] != "a" {
		t.Fatalf("unexpected get result %+v, %v", got, err)
	}

	// Same token under another role is a different entry.
	if other, _ := cache.Get(ctx, "admin", "tok"); other != nil {
		t.Fatalf("roles must not share entries")
	}

	if err := cache.Delete(ctx, "shop", "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := cache.Get(ctx, "shop", "tok"); got != nil {
		t.Fatalf("expected entry to be gone")
	}
}

func TestPrincipalCache_Expires(t *testing.T) {
	cache, srv := newTestCache(t, 10*time.Second)
	ctx := context.Background()

	if err := cache.Put(ctx, "user", "tok", &domain.Principal{ID: "u1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	srv.FastForward(11 * time.Second)

	if got, _ := cache.Get(ctx, "user", "tok"); got != nil {
		t.Fatalf("expected entry to expire")
	}
}
