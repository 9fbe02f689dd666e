package usecase

import "testing"

func TestNormalizeShopDomain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Bare Domain", "mystore.myshopify.com", "mystore.myshopify.com"},
		{"HTTPS Scheme", "https://mystore.myshopify.com", "mystore.myshopify.com"},
		{"HTTP Scheme", "http://mystore.myshopify.com", "mystore.myshopify.com"},
		{"Trailing Slash", "mystore.myshopify.com/", "mystore.myshopify.com"},
		{"Scheme And Slash", "https://mystore.myshopify.com/", "mystore.myshopify.com"},
		{"No Canonical Suffix", "gearlockerla.com", "gearlockerla.com"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeShopDomain(tt.in); got != tt.want {
				t.Errorf("NormalizeShopDomain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractProductID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"GID URI", "gid://shopify/Product/8672895959238", "8672895959238"},
		{"Bare Numeric", "8672895959238", "8672895959238"},
		{"Not A GID", "not-a-gid", "not-a-gid"},
		{"Empty", "", ""},
		{"GID Wrong Resource", "gid://shopify/Collection/123", "gid://shopify/Collection/123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractProductID(tt.in); got != tt.want {
				t.Errorf("ExtractProductID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
