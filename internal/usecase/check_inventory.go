package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/user/flow-pricer/internal/domain"
)

const (
	// DefaultPercentageIncrease is applied when the request omits
	// percentage_increase.
	DefaultPercentageIncrease = 50

	// DefaultStockThreshold is applied when the request omits
	// in_stock_threshold. An explicit zero is honored and means "reprice
	// only when nothing is in stock".
	DefaultStockThreshold = 2
)

// CheckInventoryInput carries the normalized webhook payload. The pointer
// fields distinguish an absent parameter from an explicit zero.
type CheckInventoryInput struct {
	ShopDomain         string
	ProductID          string
	PercentageIncrease *int
	InStockThreshold   *int
}

// CheckInventoryResult holds everything the response encoder needs: the
// primary in-stock count plus all auxiliary fields.
type CheckInventoryResult struct {
	ProductID          string
	ShopDomain         string // canonical, from the resolved registry record
	Summary            domain.StockSummary
	SamplePrice        string
	SampleCompareAt    string
	PricingUpdated     bool
	PercentageIncrease int
	InStockThreshold   int
}

// CheckInventoryUseCase resolves the tenant, reads the product's variants,
// classifies them by stock level and conditionally fans out compare-at
// price updates.
type CheckInventoryUseCase struct {
	shops    domain.ShopRepository
	commerce domain.CommerceClient
	logger   *slog.Logger
}

// NewCheckInventoryUseCase creates a new CheckInventoryUseCase.
func NewCheckInventoryUseCase(shops domain.ShopRepository, commerce domain.CommerceClient, logger *slog.Logger) *CheckInventoryUseCase {
	return &CheckInventoryUseCase{
		shops:    shops,
		commerce: commerce,
		logger:   logger,
	}
}

// Execute runs the full inventory check. Read and classification failures
// are returned as errors; per-variant write failures are absorbed into the
// PricingUpdated flag and never fail the request.
func (uc *CheckInventoryUseCase) Execute(ctx context.Context, in CheckInventoryInput) (*CheckInventoryResult, error) {
	pct := DefaultPercentageIncrease
	if in.PercentageIncrease != nil {
		pct = *in.PercentageIncrease
	}
	threshold := DefaultStockThreshold
	if in.InStockThreshold != nil {
		threshold = *in.InStockThreshold
	}

	shopRef := NormalizeShopDomain(in.ShopDomain)
	productID := ExtractProductID(in.ProductID)

	shop, err := uc.resolveShop(ctx, shopRef)
	if err != nil {
		return nil, err
	}

	variants, err := uc.commerce.FetchProductVariants(ctx, shop.Domain, shop.AccessToken, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", productID, err)
	}

	summary := ClassifyStock(variants)
	uc.logger.Debug("classified product variants",
		"product_id", productID,
		"shop_domain", shop.Domain,
		"total", summary.TotalVariants,
		"in_stock", summary.InStock,
	)

	pricingUpdated := false
	if summary.InStock <= threshold {
		uc.logger.Info("low stock detected, updating compare_at_price",
			"shop_domain", shop.Domain,
			"product_id", productID,
			"in_stock", summary.InStock,
			"threshold", threshold,
			"percentage_increase", pct,
		)
		pricingUpdated = uc.repriceAll(ctx, shop, variants, pct)
	}

	result := &CheckInventoryResult{
		ProductID:          productID,
		ShopDomain:         shop.Domain,
		Summary:            summary,
		SamplePrice:        "0",
		SampleCompareAt:    "Not Set",
		PricingUpdated:     pricingUpdated,
		PercentageIncrease: pct,
		InStockThreshold:   threshold,
	}
	if len(variants) > 0 {
		if variants[0].Price != "" {
			result.SamplePrice = variants[0].Price
		}
		if variants[0].CompareAtPrice != "" {
			result.SampleCompareAt = variants[0].CompareAtPrice
		}
	}

	return result, nil
}

// resolveShop finds the registry record for a shop reference using three
// strategies in order: exact domain match, suffix completion (only when the
// reference lacks the canonical suffix), and fuzzy prefix match. Inactive
// records are invisible to all three.
func (uc *CheckInventoryUseCase) resolveShop(ctx context.Context, shopRef string) (*domain.Shop, error) {
	shop, err := uc.shops.FindActiveByDomain(ctx, shopRef)
	if err != nil {
		return nil, fmt.Errorf("exact domain lookup: %w", err)
	}
	if shop != nil {
		return shop, nil
	}

	if !strings.Contains(shopRef, domain.MyshopifySuffix) {
		derived := stripLastLabel(shopRef) + domain.MyshopifySuffix
		shop, err = uc.shops.FindActiveByDomain(ctx, derived)
		if err != nil {
			return nil, fmt.Errorf("suffix completion lookup: %w", err)
		}
		if shop != nil {
			return shop, nil
		}
	}

	prefix := shopRef
	if i := strings.Index(shopRef, "."); i >= 0 {
		prefix = shopRef[:i]
	}
	shop, err = uc.shops.FindActiveByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("prefix lookup: %w", err)
	}
	if shop == nil {
		return nil, domain.ErrShopNotFound
	}
	return shop, nil
}

// stripLastLabel removes the trailing ".<label>" from a domain, turning
// "gearlockerla.com" into "gearlockerla". Inputs without a dot are returned
// unchanged.
func stripLastLabel(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i]
	}
	return s
}

// repriceAll writes a recomputed compare-at price for every variant
// concurrently and waits for the whole batch. Individual write failures are
// logged and reflected only in the aggregate return value: true iff at
// least one write succeeded.
func (uc *CheckInventoryUseCase) repriceAll(ctx context.Context, shop *domain.Shop, variants []domain.Variant, pct int) bool {
	results := make(chan bool, len(variants))

	var wg sync.WaitGroup
	for _, v := range variants {
		wg.Add(1)
		go func(v domain.Variant) {
			defer wg.Done()
			compareAt := ComputeCompareAtPrice(v.Price, pct)
			if err := uc.commerce.UpdateCompareAtPrice(ctx, shop.Domain, shop.AccessToken, v.ID, compareAt); err != nil {
				uc.logger.Error("failed to update variant compare_at_price",
					"shop_domain", shop.Domain,
					"variant_id", v.ID,
					"error", err,
				)
				results <- false
				return
			}
			uc.logger.Debug("updated variant compare_at_price",
				"variant_id", v.ID,
				"price", v.Price,
				"compare_at_price", compareAt,
			)
			results <- true
		}(v)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for ok := range results {
		if ok {
			succeeded++
		}
	}
	uc.logger.Info("pricing update completed",
		"shop_domain", shop.Domain,
		"succeeded", succeeded,
		"total", len(variants),
	)
	return succeeded > 0
}

// ComputeCompareAtPrice multiplies a decimal price string by
// 1 + pct/100 and formats the result with two fraction digits, rounding
// half up. A missing or unparsable price is treated as zero.
func ComputeCompareAtPrice(price string, pct int) string {
	p, err := decimal.NewFromString(price)
	if err != nil {
		p = decimal.Zero
	}
	multiplier := decimal.NewFromInt(100 + int64(pct)).Div(decimal.NewFromInt(100))
	return p.Mul(multiplier).StringFixed(2)
}
