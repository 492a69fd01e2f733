// Package app builds the posdash object graph from the configuration.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/otot/posdash/pkg/auth"
	"github.com/otot/posdash/pkg/config"
	"github.com/otot/posdash/pkg/dashboard"
	"github.com/otot/posdash/pkg/fingerprint"
	"github.com/otot/posdash/pkg/gateway"
	"github.com/otot/posdash/pkg/guard"
	"github.com/otot/posdash/pkg/httpserver"
	"github.com/otot/posdash/pkg/locale"
	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/metrics"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
	"github.com/otot/posdash/pkg/storage"
	"github.com/otot/posdash/pkg/transport"
)

// App holds every component of a running dashboard client.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Recorder
	Storage   storage.Storage
	Store     *session.Store
	Details   *session.LoginDetailsStore
	Devices   *fingerprint.Provider
	Nav       *navigation.History
	Transport *transport.Augmenter
	Gateway   *gateway.Client
	Guard     *guard.Guard
	Auth      *auth.Controller
	Prefs     *locale.Preferences
	Catalog   *locale.Catalog

	checks  []httpserver.Check
	closers []func() error
}

// Option configures New.
type Option func(*App)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.Logger = l }
}

// WithStorage replaces the configured storage backend. Encryption still
// applies when a key is configured.
func WithStorage(st storage.Storage) Option {
	return func(a *App) { a.Storage = st }
}

// New wires the application. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{Config: cfg, Catalog: locale.DefaultCatalog()}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = NewLogger(cfg)
	}

	if err := a.openStorage(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	a.Store = session.NewStore(ctx, a.Storage, session.WithLogger(a.Logger))
	a.Details = session.NewLoginDetailsStore(a.Storage, a.Logger)
	a.Devices = fingerprint.NewProvider(a.Storage, fingerprint.WithLogger(a.Logger))
	a.Prefs = locale.NewPreferences(a.Storage, a.Logger)
	a.Nav = navigation.NewHistory(startPath(ctx, a.Store))

	a.Transport = transport.New(a.Store, a.Nav,
		transport.WithHeaderMode(cfg.HeaderMode()),
		transport.WithLogger(a.Logger),
		transport.WithMetrics(a.Metrics),
	)

	gw, err := gateway.New(cfg.BackendURL, a.Store,
		gateway.WithHTTPClient(a.Transport.Client(cfg.RequestTimeout)),
		gateway.WithHeaderMode(cfg.HeaderMode()),
		gateway.WithLogger(a.Logger),
		gateway.WithMetrics(a.Metrics),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Gateway = gw

	a.Guard = guard.New(a.Store, a.Details, a.Devices, a.Gateway, a.Nav,
		guard.WithLogger(a.Logger),
		guard.WithMetrics(a.Metrics),
	)
	a.Auth = auth.New(a.Gateway, a.Details, a.Devices, a.Nav,
		auth.WithGuard(a.Guard),
		auth.WithLogger(a.Logger),
	)
	return a, nil
}

// NewLogger builds the process logger: environment presets, an optional
// LOG_LEVEL override and the chi request id on every record.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.AppEnv, cfg.ServiceName),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	return logger.New(opts...)
}

func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config
	if a.Storage == nil {
		switch cfg.Storage {
		case config.StorageMemory:
			a.Storage = storage.NewMemoryStorage()

		case config.StorageRedis:
			client, err := storage.ConnectRedis(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			a.closers = append(a.closers, client.Close)
			a.checks = append(a.checks, httpserver.Check{Name: "redis", Run: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			}})
			st, err := storage.NewRedisStorage(client, storage.WithRedisPrefix(redisPrefix(cfg.ServiceName)))
			if err != nil {
				return err
			}
			a.Storage = st

		default:
			dir, err := cfg.StoragePath()
			if err != nil {
				return errors.Join(config.ErrInvalidConfig, err)
			}
			st, err := storage.NewFileStorage(dir)
			if err != nil {
				return err
			}
			a.Storage = st
		}
	}

	key, err := cfg.Key()
	if err != nil {
		return errors.Join(config.ErrInvalidConfig, err)
	}
	if key != nil {
		enc, err := storage.NewEncryptedStorage(a.Storage, key)
		if err != nil {
			return err
		}
		a.Storage = enc
	}

	st := a.Storage
	a.checks = append(a.checks, httpserver.Check{Name: "storage", Run: func(ctx context.Context) error {
		_, err := st.Get(ctx, storage.KeySystemID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}})
	return nil
}

// startPath is the screen a restarted client resumes on: the dashboard when
// a persisted session exists, the login screen otherwise.
func startPath(ctx context.Context, store *session.Store) string {
	if store.IsAuthenticated(ctx) {
		return navigation.DashboardPath
	}
	return navigation.LoginPath
}

func redisPrefix(service string) string {
	if service == "" {
		return storage.DefaultRedisPrefix
	}
	return service + ":"
}

// Dashboard builds the HTTP front over the wired components.
func (a *App) Dashboard() (*dashboard.Server, error) {
	target, err := url.Parse(a.Config.BackendURL)
	if err != nil {
		return nil, errors.Join(config.ErrInvalidConfig, err)
	}
	return dashboard.New(a.Store, a.Auth, a.Guard, a.Prefs,
		dashboard.WithLogger(a.Logger),
		dashboard.WithCatalog(a.Catalog),
		dashboard.WithAPIProxy(target, a.Transport),
		dashboard.WithMetrics(a.Registry),
		dashboard.WithReadiness(a.checks...),
	), nil
}

// Serve runs the dashboard until ctx is done or the process is interrupted.
func (a *App) Serve(ctx context.Context) error {
	d, err := a.Dashboard()
	if err != nil {
		return err
	}
	srv := httpserver.New(a.Config.ListenAddr,
		httpserver.WithShutdownTimeout(a.Config.ShutdownTimeout),
		httpserver.WithLogger(a.Logger),
	)
	return srv.Run(ctx, d.Router())
}

// Close cancels pending auto-logins and releases opened backends.
func (a *App) Close() error {
	if a.Guard != nil {
		a.Guard.CancelPending()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
