package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/user/flow-pricer/internal/domain"
)

// ShopRepository implements domain.ShopRepository against the
// shopify_shops table.
type ShopRepository struct {
	db *sql.DB
}

// NewShopRepository creates a new PostgreSQL-backed shop registry.
func NewShopRepository(db *sql.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

const shopColumns = `shop_domain, COALESCE(access_token, ''), COALESCE(nonce, ''), is_active, created_at, updated_at`

func (r *ShopRepository) scanShop(row *sql.Row) (*domain.Shop, error) {
	var shop domain.Shop
	err := row.Scan(
		&shop.Domain,
		&shop.AccessToken,
		&shop.Nonce,
		&shop.IsActive,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found
		}
		return nil, err
	}
	return &shop, nil
}

func (r *ShopRepository) FindActiveByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	query := `
        SELECT ` + shopColumns + `
        FROM shopify_shops
        WHERE shop_domain = $1 AND is_active = TRUE
    `

	shop, err := r.scanShop(r.db.QueryRowContext(ctx, query, shopDomain))
	if err != nil {
		return nil, fmt.Errorf("find active by domain: %w", err)
	}
	return shop, nil
}

// FindActiveByPrefix matches active shops whose domain starts with the
// prefix, or whose store name (the label before the first dot) is itself a
// leading fragment of the prefix. The ordering makes the pick deterministic
// for identical registry state; no business rule is implied by it.
func (r *ShopRepository) FindActiveByPrefix(ctx context.Context, prefix string) (*domain.Shop, error) {
	query := `
        SELECT ` + shopColumns + `
        FROM shopify_shops
        WHERE is_active = TRUE
          AND (shop_domain ILIKE $1 || '%' OR $1 ILIKE split_part(shop_domain, '.', 1) || '%')
        ORDER BY created_at, shop_domain
        LIMIT 1
    `

	shop, err := r.scanShop(r.db.QueryRowContext(ctx, query, prefix))
	if err != nil {
		return nil, fmt.Errorf("find active by prefix: %w", err)
	}
	return shop, nil
}

func (r *ShopRepository) FindByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	query := `
        SELECT ` + shopColumns + `
        FROM shopify_shops
        WHERE shop_domain = $1
    `

	shop, err := r.scanShop(r.db.QueryRowContext(ctx, query, shopDomain))
	if err != nil {
		return nil, fmt.Errorf("find by domain: %w", err)
	}
	return shop, nil
}

// Upsert inserts or updates the record keyed by shop domain. An empty
// access token keeps whatever credential is already stored, so the OAuth
// install step cannot wipe a live token.
func (r *ShopRepository) Upsert(ctx context.Context, shop *domain.Shop) error {
	query := `
        INSERT INTO shopify_shops (shop_domain, access_token, nonce, is_active, created_at, updated_at)
        VALUES ($1, $2, NULLIF($3, ''), $4, NOW(), NOW())
        ON CONFLICT (shop_domain) DO UPDATE SET
            access_token = COALESCE(NULLIF(EXCLUDED.access_token, ''), shopify_shops.access_token),
            nonce = EXCLUDED.nonce,
            is_active = EXCLUDED.is_active,
            updated_at = NOW()
    `

	_, err := r.db.ExecContext(ctx, query, shop.Domain, shop.AccessToken, shop.Nonce, shop.IsActive)
	if err != nil {
		return fmt.Errorf("upsert shop: %w", err)
	}
	return nil
}
