package usecase

import "github.com/user/flow-pricer/internal/domain"

// ClassifyStock partitions variants into in-stock and out-of-stock counts.
// A variant is in stock iff its inventory quantity is strictly positive;
// zero and negative quantities (negatives occur with backorder tracking)
// both count as out of stock.
func ClassifyStock(variants []domain.Variant) domain.StockSummary {
	summary := domain.StockSummary{TotalVariants: len(variants)}
	for _, v := range variants {
		if v.InventoryQuantity > 0 {
			summary.InStock++
		}
	}
	summary.OutOfStock = summary.TotalVariants - summary.InStock
	return summary
}
