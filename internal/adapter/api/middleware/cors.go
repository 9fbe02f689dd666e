package middleware

import "net/http"

// The webhook is invoked from browser-hosted automation editors as well as
// server-side triggers, so every response carries permissive CORS headers
// and the auxiliary X-* result headers are exposed for script access.
const (
	allowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	allowHeaders  = "Content-Type, Authorization, X-Client-Info, Apikey"
	exposeHeaders = "X-Product-Id, X-Total-Variants, X-In-Stock-Count, X-Out-Of-Stock-Count, " +
		"X-Shop-Domain, X-Sample-Price, X-Sample-Compare-At-Price, X-Pricing-Updated, " +
		"X-Percentage-Increase, X-Stock-Threshold"
)

// CORS sets permissive CORS headers on every response and answers OPTIONS
// preflight requests with an empty 200.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Expose-Headers", exposeHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
