package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/user/flow-pricer/internal/adapter/metrics"
	"github.com/user/flow-pricer/internal/domain"
	"github.com/user/flow-pricer/internal/usecase"
)

// Auxiliary response headers. The triggering system can only branch on a
// scalar response body, so every computed field also travels out of band.
const (
	HeaderProductID          = "X-Product-Id"
	HeaderTotalVariants      = "X-Total-Variants"
	HeaderInStockCount       = "X-In-Stock-Count"
	HeaderOutOfStockCount    = "X-Out-Of-Stock-Count"
	HeaderShopDomain         = "X-Shop-Domain"
	HeaderSamplePrice        = "X-Sample-Price"
	HeaderSampleCompareAt    = "X-Sample-Compare-At-Price"
	HeaderPricingUpdated     = "X-Pricing-Updated"
	HeaderPercentageIncrease = "X-Percentage-Increase"
	HeaderStockThreshold     = "X-Stock-Threshold"
)

// InventoryChecker runs the inventory check for a webhook payload.
type InventoryChecker interface {
	Execute(ctx context.Context, in usecase.CheckInventoryInput) (*usecase.CheckInventoryResult, error)
}

// FlowHandler handles the inventory-triggered pricing webhook.
type FlowHandler struct {
	checker InventoryChecker
	logger  *slog.Logger
	metrics *metrics.FlowMetrics
}

// NewFlowHandler creates a new FlowHandler. The metrics argument may be nil.
func NewFlowHandler(checker InventoryChecker, logger *slog.Logger, m *metrics.FlowMetrics) *FlowHandler {
	return &FlowHandler{
		checker: checker,
		logger:  logger,
		metrics: m,
	}
}

type inventoryCheckRequest struct {
	ShopDomain         string `json:"shop_domain"`
	ProductID          string `json:"product_id"`
	PercentageIncrease *int   `json:"percentage_increase"`
	InStockThreshold   *int   `json:"in_stock_threshold"`
}

// Check processes a POST webhook call. The success body is the in-stock
// count as plain text; all other computed fields go out as X-* headers.
// Failures are JSON with an error kind and diagnostic context.
func (h *FlowHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req inventoryCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.count("bad_request")
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}
	if req.ShopDomain == "" || req.ProductID == "" {
		h.count("bad_request")
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "shop_domain and product_id are required"})
		return
	}
	if (req.PercentageIncrease != nil && *req.PercentageIncrease < 0) ||
		(req.InStockThreshold != nil && *req.InStockThreshold < 0) {
		h.count("bad_request")
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "percentage_increase and in_stock_threshold must not be negative"})
		return
	}

	result, err := h.checker.Execute(r.Context(), usecase.CheckInventoryInput{
		ShopDomain:         req.ShopDomain,
		ProductID:          req.ProductID,
		PercentageIncrease: req.PercentageIncrease,
		InStockThreshold:   req.InStockThreshold,
	})
	if err != nil {
		h.respondCheckError(w, req, err)
		return
	}

	h.count("ok")
	if h.metrics != nil && result.Summary.InStock <= result.InStockThreshold {
		h.metrics.RepricingRuns.Inc()
	}

	hdr := w.Header()
	hdr.Set(HeaderProductID, result.ProductID)
	hdr.Set(HeaderTotalVariants, strconv.Itoa(result.Summary.TotalVariants))
	hdr.Set(HeaderInStockCount, strconv.Itoa(result.Summary.InStock))
	hdr.Set(HeaderOutOfStockCount, strconv.Itoa(result.Summary.OutOfStock))
	hdr.Set(HeaderShopDomain, result.ShopDomain)
	hdr.Set(HeaderSamplePrice, result.SamplePrice)
	hdr.Set(HeaderSampleCompareAt, result.SampleCompareAt)
	hdr.Set(HeaderPricingUpdated, strconv.FormatBool(result.PricingUpdated))
	hdr.Set(HeaderPercentageIncrease, strconv.Itoa(result.PercentageIncrease))
	hdr.Set(HeaderStockThreshold, strconv.Itoa(result.InStockThreshold))
	hdr.Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(strconv.Itoa(result.Summary.InStock)))
}

func (h *FlowHandler) respondCheckError(w http.ResponseWriter, req inventoryCheckRequest, err error) {
	if errors.Is(err, domain.ErrShopNotFound) {
		h.count("shop_not_found")
		respondJSON(w, http.StatusNotFound, map[string]any{
			"error":           "Shop not found or inactive",
			"searched_domain": usecase.NormalizeShopDomain(req.ShopDomain),
			"hint":            "Make sure the shop is registered and active",
		})
		return
	}

	var upstream *domain.UpstreamError
	if errors.As(err, &upstream) {
		h.count("upstream_error")
		h.logger.Warn("product fetch failed upstream",
			"shop_domain", req.ShopDomain,
			"product_id", req.ProductID,
			"status", upstream.StatusCode,
		)
		respondJSON(w, upstream.StatusCode, map[string]any{
			"error":   "Failed to fetch product data from Shopify",
			"status":  upstream.StatusCode,
			"details": upstream.Body,
		})
		return
	}

	h.count("internal_error")
	h.logger.Error("inventory check failed", "shop_domain", req.ShopDomain, "product_id", req.ProductID, "error", err)
	respondJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal server error"})
}

func (h *FlowHandler) count(outcome string) {
	if h.metrics != nil {
		h.metrics.ChecksTotal.WithLabelValues(outcome).Inc()
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
