package api

import (
	"log/slog"
	"net/http"

	"github.com/user/flow-pricer/internal/adapter/api/handler"
	"github.com/user/flow-pricer/internal/adapter/api/middleware"
)

// NewRouter creates and configures the main HTTP router for the service,
// wrapped in the request logging and CORS middleware. OPTIONS preflights on
// every route are answered by the CORS wrapper.
func NewRouter(
	logger *slog.Logger,
	flowHandler *handler.FlowHandler,
	authHandler *handler.AuthHandler,
) http.Handler {
	mux := http.NewServeMux()

	// Webhook
	mux.HandleFunc("POST /flow/inventory-check", flowHandler.Check)

	// OAuth install flow
	mux.HandleFunc("GET /auth/install", authHandler.Install)
	mux.HandleFunc("GET /auth/callback", authHandler.Callback)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return middleware.Logging(logger)(middleware.CORS(mux))
}
