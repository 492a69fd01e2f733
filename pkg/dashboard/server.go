package dashboard

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/otot/posdash/pkg/auth"
	"github.com/otot/posdash/pkg/guard"
	"github.com/otot/posdash/pkg/httpserver"
	"github.com/otot/posdash/pkg/locale"
	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
)

// Server is the local HTTP front of the dashboard.
type Server struct {
	store   *session.Store
	ctrl    *auth.Controller
	guard   *guard.Guard
	prefs   *locale.Preferences
	catalog *locale.Catalog
	logger  *slog.Logger

	apiTarget *url.URL
	apiRT     http.RoundTripper
	gatherer  prometheus.Gatherer
	checks    []httpserver.Check
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCatalog replaces the embedded message catalog.
func WithCatalog(c *locale.Catalog) Option {
	return func(s *Server) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithAPIProxy forwards /api/* to target through rt, which is expected to
// be the session-aware transport.
func WithAPIProxy(target *url.URL, rt http.RoundTripper) Option {
	return func(s *Server) {
		s.apiTarget = target
		s.apiRT = rt
	}
}

// WithMetrics exposes g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithReadiness adds checks to /readyz.
func WithReadiness(checks ...httpserver.Check) Option {
	return func(s *Server) { s.checks = append(s.checks, checks...) }
}

// New creates a Server.
func New(store *session.Store, ctrl *auth.Controller, g *guard.Guard, prefs *locale.Preferences, opts ...Option) *Server {
	s := &Server{
		store:   store,
		ctrl:    ctrl,
		guard:   g,
		prefs:   prefs,
		catalog: locale.DefaultCatalog(),
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("dashboard"))
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(s.logger, s.checks...))
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get(navigation.LoginPath, s.handleLoginForm)
	r.Post(navigation.LoginPath, s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Post("/forgot-password", s.handleForgotPassword)
	r.Get("/session", s.handleSession)
	r.Put("/language", s.handleLanguage)

	r.Group(func(r chi.Router) {
		r.Use(s.guard.Middleware)
		r.Get(navigation.DashboardPath, s.handlePage)
		for _, p := range navigation.LayoutPaths() {
			r.Get(p, s.handlePage)
		}
	})

	if s.apiTarget != nil {
		r.Handle("/api/*", s.apiProxy())
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, &errorDetail{Code: "not_found", Message: http.StatusText(http.StatusNotFound)})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, &errorDetail{Code: "method_not_allowed", Message: http.StatusText(http.StatusMethodNotAllowed)})
	})

	return r
}
