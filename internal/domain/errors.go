package domain

import (
	"errors"
	"fmt"
)

// ErrShopNotFound is returned when no registry record matches a shop
// reference, or when the only matching record is inactive.
var ErrShopNotFound = errors.New("shop not found or inactive")

// UpstreamError carries a non-2xx response from the Admin API through to the
// caller unchanged.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}
