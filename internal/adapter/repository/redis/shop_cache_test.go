package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/flow-pricer/internal/domain"
	"github.com/user/flow-pricer/internal/domain/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unreachableClient returns a client whose every command fails fast.
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func liveClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestShopCache_FallsThroughWhenRedisUnavailable(t *testing.T) {
	repo := &mocks.MockShopRepository{Shops: []domain.Shop{
		{Domain: "mystore.myshopify.com", AccessToken: "tok", IsActive: true},
	}}
	cache := NewShopCache(unreachableClient(), repo, time.Minute, testLogger())

	shop, err := cache.FindActiveByDomain(context.Background(), "mystore.myshopify.com")
	if err != nil {
		t.Fatalf("expected the registry result despite redis being down, got %v", err)
	}
	if shop == nil || shop.Domain != "mystore.myshopify.com" || shop.AccessToken != "tok" {
		t.Errorf("unexpected shop %+v", shop)
	}

	missing, err := cache.FindActiveByDomain(context.Background(), "zzz.myshopify.com")
	if err != nil {
		t.Fatalf("expected no error for a registry miss, got %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for an unregistered domain, got %+v", missing)
	}
}

func TestShopCache_NeverMasksRegistryErrors(t *testing.T) {
	registryErr := errors.New("registry down")
	repo := &mocks.MockShopRepository{FindErr: registryErr, UpsertErr: registryErr}
	cache := NewShopCache(unreachableClient(), repo, time.Minute, testLogger())

	if _, err := cache.FindActiveByDomain(context.Background(), "mystore.myshopify.com"); !errors.Is(err, registryErr) {
		t.Errorf("FindActiveByDomain error = %v, want the registry error", err)
	}
	if _, err := cache.FindActiveByPrefix(context.Background(), "mystore"); !errors.Is(err, registryErr) {
		t.Errorf("FindActiveByPrefix error = %v, want the registry error", err)
	}
	if _, err := cache.FindByDomain(context.Background(), "mystore.myshopify.com"); !errors.Is(err, registryErr) {
		t.Errorf("FindByDomain error = %v, want the registry error", err)
	}
	if err := cache.Upsert(context.Background(), &domain.Shop{Domain: "mystore.myshopify.com"}); !errors.Is(err, registryErr) {
		t.Errorf("Upsert error = %v, want the registry error", err)
	}
}

func TestShopCache_ServesRepeatLookupsFromCache(t *testing.T) {
	client := liveClient(t)

	ctx := context.Background()
	key := shopKeyPrefix + "cached.myshopify.com"
	client.Del(ctx, key)
	t.Cleanup(func() { client.Del(ctx, key) })

	repo := &mocks.MockShopRepository{Shops: []domain.Shop{
		{Domain: "cached.myshopify.com", AccessToken: "tok", IsActive: true},
	}}
	cache := NewShopCache(client, repo, time.Minute, testLogger())

	first, err := cache.FindActiveByDomain(ctx, "cached.myshopify.com")
	if err != nil || first == nil {
		t.Fatalf("warm-up lookup failed: %v, %+v", err, first)
	}

	// Empty the registry; the second lookup must be answered by the cache,
	// credential included.
	repo.Shops = nil
	second, err := cache.FindActiveByDomain(ctx, "cached.myshopify.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if second == nil || second.AccessToken != "tok" {
		t.Errorf("cached entry lost data: %+v", second)
	}
}

func TestShopCache_CachesNegativeLookups(t *testing.T) {
	client := liveClient(t)

	ctx := context.Background()
	key := shopKeyPrefix + "latecomer.myshopify.com"
	client.Del(ctx, key)
	t.Cleanup(func() { client.Del(ctx, key) })

	repo := &mocks.MockShopRepository{}
	cache := NewShopCache(client, repo, time.Minute, testLogger())

	if shop, err := cache.FindActiveByDomain(ctx, "latecomer.myshopify.com"); err != nil || shop != nil {
		t.Fatalf("expected a clean miss, got %+v, %v", shop, err)
	}

	// The shop appears in the registry, but the cached negative entry
	// short-circuits until it expires or is invalidated.
	repo.Shops = []domain.Shop{{Domain: "latecomer.myshopify.com", AccessToken: "tok", IsActive: true}}
	shop, err := cache.FindActiveByDomain(ctx, "latecomer.myshopify.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if shop != nil {
		t.Errorf("expected the negative entry to short-circuit, got %+v", shop)
	}
}

func TestShopCache_UpsertInvalidatesEntry(t *testing.T) {
	client := liveClient(t)

	ctx := context.Background()
	key := shopKeyPrefix + "rotated.myshopify.com"
	client.Del(ctx, key)
	t.Cleanup(func() { client.Del(ctx, key) })

	repo := &mocks.MockShopRepository{Shops: []domain.Shop{
		{Domain: "rotated.myshopify.com", AccessToken: "old-tok", IsActive: true},
	}}
	cache := NewShopCache(client, repo, time.Minute, testLogger())

	if _, err := cache.FindActiveByDomain(ctx, "rotated.myshopify.com"); err != nil {
		t.Fatalf("warm-up lookup failed: %v", err)
	}

	if err := cache.Upsert(ctx, &domain.Shop{Domain: "rotated.myshopify.com", AccessToken: "new-tok", IsActive: true}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := client.Get(ctx, key).Err(); err != redis.Nil {
		t.Errorf("expected the cache entry to be deleted on upsert, got %v", err)
	}

	shop, err := cache.FindActiveByDomain(ctx, "rotated.myshopify.com")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if shop == nil || shop.AccessToken != "new-tok" {
		t.Errorf("stale credential after upsert: %+v", shop)
	}
}
