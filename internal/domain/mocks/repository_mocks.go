package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/user/flow-pricer/internal/domain"
)

// MockShopRepository is an in-memory implementation of domain.ShopRepository
// for testing. Shops are matched in slice order, which makes the fuzzy
// lookup deterministic.
type MockShopRepository struct {
	mu        sync.Mutex
	Shops     []domain.Shop
	Upserted  []domain.Shop
	FindErr   error
	UpsertErr error
}

func (m *MockShopRepository) FindActiveByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for i := range m.Shops {
		if m.Shops[i].IsActive && m.Shops[i].Domain == shopDomain {
			s := m.Shops[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MockShopRepository) FindActiveByPrefix(ctx context.Context, prefix string) (*domain.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	p := strings.ToLower(prefix)
	for i := range m.Shops {
		if !m.Shops[i].IsActive {
			continue
		}
		d := strings.ToLower(m.Shops[i].Domain)
		name := strings.ToLower(m.Shops[i].StoreName())
		if strings.HasPrefix(d, p) || strings.HasPrefix(p, name) {
			s := m.Shops[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MockShopRepository) FindByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	for i := range m.Shops {
		if m.Shops[i].Domain == shopDomain {
			s := m.Shops[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *MockShopRepository) Upsert(ctx context.Context, shop *domain.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.Upserted = append(m.Upserted, *shop)
	for i := range m.Shops {
		if m.Shops[i].Domain == shop.Domain {
			if shop.AccessToken != "" {
				m.Shops[i].AccessToken = shop.AccessToken
			}
			m.Shops[i].Nonce = shop.Nonce
			m.Shops[i].IsActive = shop.IsActive
			return nil
		}
	}
	m.Shops = append(m.Shops, *shop)
	return nil
}

// PriceWrite records a single compare-at price update issued against the
// mock commerce client.
type PriceWrite struct {
	ShopDomain string
	VariantID  int64
	CompareAt  string
}

// MockCommerceClient is a mock implementation of domain.CommerceClient.
// UpdateErrs injects per-variant write failures by variant ID.
type MockCommerceClient struct {
	mu         sync.Mutex
	Variants   []domain.Variant
	FetchErr   error
	UpdateErrs map[int64]error
	Writes     []PriceWrite
}

func (m *MockCommerceClient) FetchProductVariants(ctx context.Context, shopDomain, accessToken, productID string) ([]domain.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	out := make([]domain.Variant, len(m.Variants))
	copy(out, m.Variants)
	return out, nil
}

func (m *MockCommerceClient) UpdateCompareAtPrice(ctx context.Context, shopDomain, accessToken string, variantID int64, compareAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.UpdateErrs[variantID]; ok {
		return err
	}
	m.Writes = append(m.Writes, PriceWrite{ShopDomain: shopDomain, VariantID: variantID, CompareAt: compareAt})
	return nil
}
