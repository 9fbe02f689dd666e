package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/user/flow-pricer/internal/domain"
	"github.com/user/flow-pricer/internal/domain/mocks"
)

type mockExchanger struct {
	token string
	err   error
	calls int
}

func (m *mockExchanger) ExchangeAccessToken(ctx context.Context, shopDomain, code string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.token, nil
}

func TestAuthHandler_Install(t *testing.T) {
	repo := &mocks.MockShopRepository{}
	h := NewAuthHandler(repo, &mockExchanger{}, "api-key", "https://app.example.com", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/install?shop=mystore.myshopify.com", nil)
	rr := httptest.NewRecorder()
	h.Install(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rr.Code)
	}
	if len(repo.Upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(repo.Upserted))
	}
	stored := repo.Upserted[0]
	if stored.Domain != "mystore.myshopify.com" || stored.IsActive || stored.Nonce == "" {
		t.Errorf("unexpected stored record %+v", stored)
	}

	loc, err := url.Parse(rr.Header().Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect location: %v", err)
	}
	if loc.Host != "mystore.myshopify.com" || loc.Path != "/admin/oauth/authorize" {
		t.Errorf("unexpected redirect target %s", loc)
	}
	q := loc.Query()
	if q.Get("client_id") != "api-key" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != stored.Nonce {
		t.Errorf("state %q does not match stored nonce %q", q.Get("state"), stored.Nonce)
	}
	if !strings.Contains(q.Get("scope"), "write_products") {
		t.Errorf("scope = %q, want write_products included", q.Get("scope"))
	}
	if q.Get("redirect_uri") != "https://app.example.com/auth/callback" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestAuthHandler_InstallRejectsBadDomains(t *testing.T) {
	h := NewAuthHandler(&mocks.MockShopRepository{}, &mockExchanger{}, "api-key", "https://app.example.com", testLogger())

	tests := []struct {
		name  string
		query string
	}{
		{"Missing Shop", ""},
		{"Not A Myshopify Domain", "?shop=evil.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/install"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.Install(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestAuthHandler_Callback(t *testing.T) {
	repo := &mocks.MockShopRepository{Shops: []domain.Shop{
		{Domain: "mystore.myshopify.com", Nonce: "expected-nonce"},
	}}
	exchanger := &mockExchanger{token: "shpat_abc"}
	h := NewAuthHandler(repo, exchanger, "api-key", "https://app.example.com", testLogger())

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?shop=mystore.myshopify.com&code=c0de&state=expected-nonce", nil)
	rr := httptest.NewRecorder()
	h.Callback(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302, body %q", rr.Code, rr.Body.String())
	}
	if exchanger.calls != 1 {
		t.Errorf("expected 1 token exchange, got %d", exchanger.calls)
	}
	stored := repo.Shops[0]
	if !stored.IsActive || stored.AccessToken != "shpat_abc" || stored.Nonce != "" {
		t.Errorf("record not activated correctly: %+v", stored)
	}
	if loc := rr.Header().Get("Location"); loc != "https://app.example.com?shop=mystore.myshopify.com&installed=true" {
		t.Errorf("unexpected redirect %q", loc)
	}
}

func TestAuthHandler_CallbackFailures(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		nonce      string
		exchange   *mockExchanger
		wantStatus int
	}{
		{"Missing Params", "?shop=mystore.myshopify.com", "n", &mockExchanger{}, http.StatusBadRequest},
		{"Unknown Shop", "?shop=other.myshopify.com&code=c&state=n", "n", &mockExchanger{}, http.StatusForbidden},
		{"Bad State", "?shop=mystore.myshopify.com&code=c&state=wrong", "n", &mockExchanger{}, http.StatusForbidden},
		{"Exchange Fails", "?shop=mystore.myshopify.com&code=c&state=n", "n", &mockExchanger{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockShopRepository{Shops: []domain.Shop{
				{Domain: "mystore.myshopify.com", Nonce: tt.nonce},
			}}
			h := NewAuthHandler(repo, tt.exchange, "api-key", "https://app.example.com", testLogger())

			req := httptest.NewRequest(http.MethodGet, "/auth/callback"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.Callback(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}
