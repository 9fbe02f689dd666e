package domain

import (
	"context"
	"strings"
	"time"
)

// MyshopifySuffix is the canonical suffix of every registered shop domain.
const MyshopifySuffix = ".myshopify.com"

// Shop represents a registered store and its Admin API credential.
type Shop struct {
	Domain      string    `json:"shop_domain"`
	AccessToken string    `json:"-"` // Not exposed in API responses
	Nonce       string    `json:"-"` // OAuth state, set only while an install is in flight
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StoreName returns the part of the shop domain before the first dot.
func (s *Shop) StoreName() string {
	name, _, _ := strings.Cut(s.Domain, ".")
	return name
}

// ShopRepository defines the interface for the shop registry.
// Implementations must return (nil, nil) when no record matches.
type ShopRepository interface {
	// FindActiveByDomain looks up the active shop registered under the exact
	// canonical domain.
	FindActiveByDomain(ctx context.Context, domain string) (*Shop, error)

	// FindActiveByPrefix performs the fuzzy fallback lookup: it matches active
	// shops whose domain starts with prefix, or whose store name is itself a
	// leading fragment of prefix (case-insensitive). When several shops match,
	// implementations must pick one deterministically for identical registry
	// state.
	FindActiveByPrefix(ctx context.Context, prefix string) (*Shop, error)

	// FindByDomain looks up a shop regardless of its active flag. Used by the
	// OAuth callback, which must read the nonce of a not-yet-active record.
	FindByDomain(ctx context.Context, domain string) (*Shop, error)

	// Upsert inserts or updates the record keyed by shop domain. An empty
	// access token never clobbers a stored credential.
	Upsert(ctx context.Context, shop *Shop) error
}
