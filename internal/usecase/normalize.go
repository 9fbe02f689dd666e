package usecase

import (
	"regexp"
	"strings"
)

var (
	uriScheme  = regexp.MustCompile(`^https?://`)
	digitsOnly = regexp.MustCompile(`^[0-9]+$`)
	productGID = regexp.MustCompile(`[a-z][a-z0-9+.-]*://[^/]+/Product/([0-9]+)`)
)

// NormalizeShopDomain strips a leading http:// or https:// scheme and a
// trailing slash from a shop reference. It does not force the canonical
// .myshopify.com suffix; that is the resolver's job.
func NormalizeShopDomain(raw string) string {
	s := uriScheme.ReplaceAllString(raw, "")
	return strings.TrimSuffix(s, "/")
}

// ExtractProductID returns the numeric product id embedded in a global-id
// URI such as "gid://shopify/Product/8672895959238". Bare numeric ids are
// returned unchanged. Anything else is also returned unchanged so that the
// downstream API call fails with a useful diagnostic instead of rejecting
// the request early.
func ExtractProductID(raw string) string {
	if digitsOnly.MatchString(raw) {
		return raw
	}
	if m := productGID.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}
