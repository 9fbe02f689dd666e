package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/user/flow-pricer/internal/domain"
)

// oauthScopes is what the app requests during installation: product reads
// and writes for the repricing, inventory reads for classification.
var oauthScopes = strings.Join([]string{
	"read_products",
	"write_products",
	"read_inventory",
	"write_price_rules",
}, ",")

// TokenExchanger trades an OAuth authorization code for an access token.
type TokenExchanger interface {
	ExchangeAccessToken(ctx context.Context, shopDomain, code string) (string, error)
}

// AuthHandler implements the OAuth install/callback exchange that registers
// a shop and stores its credential.
type AuthHandler struct {
	shops  domain.ShopRepository
	oauth  TokenExchanger
	apiKey string
	appURL string
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(shops domain.ShopRepository, oauth TokenExchanger, apiKey, appURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		shops:  shops,
		oauth:  oauth,
		apiKey: apiKey,
		appURL: appURL,
		logger: logger,
	}
}

// Install starts the authorization-code flow: it stores a nonce on an
// inactive registry record and redirects the merchant to the shop's
// authorize page.
func (h *AuthHandler) Install(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		http.Error(w, "Missing shop parameter", http.StatusBadRequest)
		return
	}
	if !strings.HasSuffix(shop, domain.MyshopifySuffix) {
		http.Error(w, "Invalid shop domain", http.StatusBadRequest)
		return
	}

	nonce := uuid.NewString()
	if err := h.shops.Upsert(r.Context(), &domain.Shop{Domain: shop, Nonce: nonce, IsActive: false}); err != nil {
		h.logger.Error("failed to store install nonce", "shop_domain", shop, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	redirectURI := h.appURL + "/auth/callback"
	authURL := fmt.Sprintf("https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		url.QueryEscape(h.apiKey),
		url.QueryEscape(oauthScopes),
		url.QueryEscape(redirectURI),
		nonce,
	)
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback completes the flow: it verifies the nonce, exchanges the code
// for an access token and activates the registry record.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shop, code, state := q.Get("shop"), q.Get("code"), q.Get("state")
	if shop == "" || code == "" || state == "" {
		http.Error(w, "Missing required parameters", http.StatusBadRequest)
		return
	}

	record, err := h.shops.FindByDomain(r.Context(), shop)
	if err != nil {
		h.logger.Error("failed to look up shop for callback", "shop_domain", shop, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if record == nil || record.Nonce == "" || record.Nonce != state {
		h.logger.Warn("state mismatch on OAuth callback", "shop_domain", shop)
		http.Error(w, "Invalid state parameter", http.StatusForbidden)
		return
	}

	token, err := h.oauth.ExchangeAccessToken(r.Context(), shop, code)
	if err != nil {
		h.logger.Error("token exchange failed", "shop_domain", shop, "error", err)
		http.Error(w, "Failed to obtain access token", http.StatusInternalServerError)
		return
	}

	if err := h.shops.Upsert(r.Context(), &domain.Shop{Domain: shop, AccessToken: token, IsActive: true}); err != nil {
		h.logger.Error("failed to store access token", "shop_domain", shop, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("shop installed", "shop_domain", shop)
	http.Redirect(w, r, h.appURL+"?shop="+url.QueryEscape(shop)+"&installed=true", http.StatusFound)
}
