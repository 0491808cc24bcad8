package app

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mandalnilabja/pixelrelay/internal/metrics"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/handler"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/pixelrelay/internal/transport/http/middleware/ratelimit"
)

// AdminAuthRateLimit is the admin requests allowed per client per minute
// when an admin password is set.
const AdminAuthRateLimit = 30

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	EnableWebUI bool
	Logger      *slog.Logger
	// AdminPasswordHash guards /api/admin; empty leaves it open.
	AdminPasswordHash string
	// GenerateLimiter throttles /api/generate per client IP; nil is unlimited.
	GenerateLimiter *ratelimit.Limiter
	// TrustProxy keys the limiter on the nearest X-Forwarded-For hop.
	TrustProxy bool
}

// NewRouter creates and configures the HTTP router with all application routes.
// Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	if opts == nil {
		opts = &RouterOptions{}
	}
	mux := http.NewServeMux()

	// Generation and history check their own methods so the JSON 405 body
	// is returned instead of the mux default.
	mux.Handle("/api/generate", ratelimit.Middleware(opts.GenerateLimiter, opts.TrustProxy)(http.HandlerFunc(repo.Generation.Generate)))
	mux.HandleFunc("/api/user-history", repo.Generation.History)

	// Image proxy routes answer OPTIONS themselves.
	mux.HandleFunc("/api/proxy-image", repo.ImageProxy.ProxyImage)
	mux.HandleFunc("/api/download-image", repo.ImageProxy.DownloadImage)

	mux.HandleFunc("GET /api/health", repo.Infra.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	registerAdminRoutes(mux, repo, opts)

	mux.HandleFunc("/api/", repo.Infra.NotFound)
	if opts.EnableWebUI {
		mux.Handle("/", repo.WebUI.Handler())
	} else {
		mux.HandleFunc("GET /{$}", repo.Infra.RootStatus)
		mux.HandleFunc("/", repo.Infra.NotFound)
	}

	// Apply middleware chain (order: inner to outer)
	var h http.Handler = mux

	// Metrics sits directly on the mux so r.Pattern is visible after routing.
	h = metrics.Middleware(h)

	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	h = middleware.RequestID(h)

	h = middleware.CORS(h)

	return h
}

// registerAdminRoutes adds the read-only admin API routes.
func registerAdminRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	adminAuth := auth.AdminAuth(opts.AdminPasswordHash)

	// Each attempt costs an Argon2id verify, so attempts are limited per
	// client while a password is set.
	var adminLimiter *ratelimit.Limiter
	if opts.AdminPasswordHash != "" {
		adminLimiter = ratelimit.New(AdminAuthRateLimit)
	}
	limit := ratelimit.Middleware(adminLimiter, opts.TrustProxy)

	withAuth := func(h http.HandlerFunc) http.Handler {
		return limit(adminAuth(h))
	}

	mux.Handle("/api/admin/config", withAuth(repo.Admin.Config))
	mux.Handle("/api/admin/stats", withAuth(repo.Admin.Stats))
	mux.Handle("/api/admin/errors", withAuth(repo.Admin.Errors))
	mux.Handle("/api/admin/generations", withAuth(repo.Admin.Generations))

	mux.Handle("GET /api/admin/health", withAuth(repo.Admin.AdminHealth))
	mux.Handle("GET /api/admin/info", withAuth(repo.Admin.AdminInfo))
}
