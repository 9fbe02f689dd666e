package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/user/flow-pricer/internal/adapter/metrics"
	"github.com/user/flow-pricer/internal/domain"
)

const accessTokenHeader = "X-Shopify-Access-Token"

// Client is a thin wrapper around the Shopify Admin REST API. A single
// process-wide rate limiter paces all outbound calls, regardless of shop,
// which keeps bulk repricing fan-outs from tripping 429s. That is stricter
// than Shopify's per-shop leaky bucket requires, but this service rarely
// talks to more than one shop at a time.
type Client struct {
	httpClient *http.Client
	apiVersion string
	apiKey     string
	apiSecret  string
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *metrics.FlowMetrics
	baseURL    string // overrides "https://<shop-domain>" when set, used by tests
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points every request at a fixed base URL instead of the
// shop's own domain. Used to target a stub server in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new Admin API client. The metrics argument may be nil.
func NewClient(apiVersion, apiKey, apiSecret string, timeout time.Duration, limiter *rate.Limiter, logger *slog.Logger, m *metrics.FlowMetrics, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		apiVersion: apiVersion,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		limiter:    limiter,
		logger:     logger.With("component", "shopify_client"),
		metrics:    m,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) shopBase(shopDomain string) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return "https://" + shopDomain
}

func (c *Client) observe(operation string, start time.Time) {
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// FetchProductVariants fetches a product by numeric id and returns its
// variant set. A non-2xx response is surfaced as an *domain.UpstreamError
// carrying the upstream status and body unchanged; it is never retried.
func (c *Client) FetchProductVariants(ctx context.Context, shopDomain, accessToken, productID string) ([]domain.Variant, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/admin/api/%s/products/%s.json", c.shopBase(shopDomain), c.apiVersion, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build product request: %w", err)
	}
	req.Header.Set(accessTokenHeader, accessToken)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.observe("fetch_product", start)
	if err != nil {
		return nil, fmt.Errorf("fetch product: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read product response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		Product struct {
			Variants []domain.Variant `json:"variants"`
		} `json:"product"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}

	return payload.Product.Variants, nil
}

// UpdateCompareAtPrice writes a new compare-at price for one variant. The
// caller treats a returned error as a per-variant outcome, not a reason to
// abort its batch.
func (c *Client) UpdateCompareAtPrice(ctx context.Context, shopDomain, accessToken string, variantID int64, compareAt string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.countWrite("error")
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload := map[string]any{
		"variant": map[string]any{
			"id":               variantID,
			"compare_at_price": compareAt,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.countWrite("error")
		return fmt.Errorf("encode variant payload: %w", err)
	}

	url := fmt.Sprintf("%s/admin/api/%s/variants/%d.json", c.shopBase(shopDomain), c.apiVersion, variantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		c.countWrite("error")
		return fmt.Errorf("build variant request: %w", err)
	}
	req.Header.Set(accessTokenHeader, accessToken)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.observe("update_variant", start)
	if err != nil {
		c.countWrite("error")
		return fmt.Errorf("update variant %d: %w", variantID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		c.countWrite("error")
		return fmt.Errorf("update variant %d: status %d: %s", variantID, resp.StatusCode, string(respBody))
	}

	c.countWrite("success")
	return nil
}

// ExchangeAccessToken trades an OAuth authorization code for a permanent
// access token.
func (c *Client) ExchangeAccessToken(ctx context.Context, shopDomain, code string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	payload := map[string]string{
		"client_id":     c.apiKey,
		"client_secret": c.apiSecret,
		"code":          code,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode token request: %w", err)
	}

	url := c.shopBase(shopDomain) + "/admin/oauth/access_token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.observe("exchange_token", start)
	if err != nil {
		return "", fmt.Errorf("exchange token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Error("token exchange failed", "status", resp.StatusCode, "body", string(respBody))
		return "", fmt.Errorf("exchange token: status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	return tokenResp.AccessToken, nil
}

func (c *Client) countWrite(status string) {
	if c.metrics != nil {
		c.metrics.VariantWrites.WithLabelValues(status).Inc()
	}
}
