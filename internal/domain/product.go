package domain

import "context"

// Variant is a product variant as returned by the Admin API. Prices travel
// as decimal strings on the wire; an empty CompareAtPrice means none is set.
type Variant struct {
	ID                int64  `json:"id"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	InventoryQuantity int    `json:"inventory_quantity"`
	Price             string `json:"price"`
	CompareAtPrice    string `json:"compare_at_price,omitempty"`
}

// StockSummary is the result of classifying a product's variants by stock
// level. InStock + OutOfStock always equals TotalVariants.
type StockSummary struct {
	TotalVariants int
	InStock       int
	OutOfStock    int
}

// CommerceClient issues authenticated calls against a shop's Admin API.
type CommerceClient interface {
	// FetchProductVariants fetches the variant set of a product. A non-2xx
	// upstream response is returned as an *UpstreamError.
	FetchProductVariants(ctx context.Context, shopDomain, accessToken, productID string) ([]Variant, error)

	// UpdateCompareAtPrice writes a new compare-at price for a single variant.
	UpdateCompareAtPrice(ctx context.Context, shopDomain, accessToken string, variantID int64, compareAt string) error
}
