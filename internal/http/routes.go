package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth      AuthServiceInterface
	Cookies   *Cookies
	Readiness ReadinessReporter
	// Optional downstream handlers. Both are mounted behind RequireSession.
	Addresses http.Handler
	Print     http.Handler
	Logger    *slog.Logger
}

// NewRouter creates and configures the gateway's HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{Svc: services.Auth, Cookies: services.Cookies, Logger: logger}
	protect := RequireSession(authHandlers)

	registerHealthRoutes(mux, services.Readiness)
	registerAuthRoutes(mux, authHandlers, protect)
	registerDownstreamRoutes(mux, services, protect)

	return Recover(logger)(Logging(logger)(mux))
}

func registerHealthRoutes(mux *http.ServeMux, gate ReadinessReporter) {
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	if gate != nil {
		mux.Handle("GET /readyz", readyHandler(gate))
	}
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, protect func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /login", h.Login)
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /oauth2/callback", h.Callback)
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("GET /api/logout", h.Logout)
	mux.HandleFunc("GET /auth/logout", h.LogoutToLogin)
	mux.HandleFunc("GET /auth/status", h.Status)
	mux.Handle("GET /auth/keepalive", protect(http.HandlerFunc(h.Keepalive)))
}

func registerDownstreamRoutes(mux *http.ServeMux, s RouterServices, protect func(http.Handler) http.Handler) {
	if s.Addresses != nil {
		mux.Handle("GET /api/addresses", protect(s.Addresses))
	}
	if s.Print != nil {
		mux.Handle("GET /print/", protect(s.Print))
	}
}
