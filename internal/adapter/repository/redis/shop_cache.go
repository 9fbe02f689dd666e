package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/flow-pricer/internal/domain"
)

const shopKeyPrefix = "shop:"

// negativeEntry marks a cached "no active shop under this domain" result,
// so repeated webhook calls for unregistered shops don't hammer postgres.
const negativeEntry = "null"

// ShopCache is a read-through cache decorating another shop repository.
// Only the exact-domain lookup is cached: it is the hot path of every
// webhook call, while the prefix lookup is a fallback too fuzzy to key
// usefully. Any redis failure falls through to the wrapped repository.
type ShopCache struct {
	client *redis.Client
	next   domain.ShopRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewShopCache creates a new cache layer in front of next.
func NewShopCache(client *redis.Client, next domain.ShopRepository, ttl time.Duration, logger *slog.Logger) *ShopCache {
	return &ShopCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger.With("component", "shop_cache"),
	}
}

func (c *ShopCache) FindActiveByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	key := shopKeyPrefix + shopDomain

	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if cached == negativeEntry {
			return nil, nil
		}
		var entry cacheSerializedShop
		if err := json.Unmarshal([]byte(cached), &entry); err == nil {
			return entry.toShop(), nil
		}
		c.logger.Warn("dropping undecodable cache entry", "key", key)
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		c.logger.Warn("shop cache read failed, falling through", "error", err)
	}

	shop, err := c.next.FindActiveByDomain(ctx, shopDomain)
	if err != nil {
		return nil, err
	}

	entry := negativeEntry
	if shop != nil {
		if data, err := json.Marshal(cacheableShop(shop)); err == nil {
			entry = string(data)
		}
	}
	if err := c.client.Set(ctx, key, entry, c.ttl).Err(); err != nil {
		c.logger.Warn("shop cache write failed", "error", err)
	}

	return shop, nil
}

func (c *ShopCache) FindActiveByPrefix(ctx context.Context, prefix string) (*domain.Shop, error) {
	return c.next.FindActiveByPrefix(ctx, prefix)
}

// FindByDomain is used by the OAuth callback to verify a fresh nonce, so it
// always reads the registry directly.
func (c *ShopCache) FindByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	return c.next.FindByDomain(ctx, shopDomain)
}

func (c *ShopCache) Upsert(ctx context.Context, shop *domain.Shop) error {
	if err := c.next.Upsert(ctx, shop); err != nil {
		return err
	}
	if err := c.client.Del(ctx, shopKeyPrefix+shop.Domain).Err(); err != nil {
		c.logger.Warn("failed to invalidate shop cache entry", "shop_domain", shop.Domain, "error", err)
	}
	return nil
}

// cacheSerializedShop is the wire form of a cached record. The access token
// has to be cached alongside the domain for the webhook to proceed without
// a registry read, but the JSON shape stays private to this package.
type cacheSerializedShop struct {
	Domain      string    `json:"shop_domain"`
	AccessToken string    `json:"access_token"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (e cacheSerializedShop) toShop() *domain.Shop {
	return &domain.Shop{
		Domain:      e.Domain,
		AccessToken: e.AccessToken,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func cacheableShop(s *domain.Shop) cacheSerializedShop {
	return cacheSerializedShop{
		Domain:      s.Domain,
		AccessToken: s.AccessToken,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}
