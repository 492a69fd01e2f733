package guard

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/metrics"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
)

// DeviceLogin performs the silent device-based login.
type DeviceLogin interface {
	LoginWithDevice(ctx context.Context, systemID, fingerprint string) (*session.Record, error)
}

// DeviceIdentity returns the identity of this device.
type DeviceIdentity interface {
	ID(ctx context.Context) string
}

// Decision is the outcome of one Check.
type Decision struct {
	Target  string
	State   State
	Attempt uint64
	// Trace lists the visited states starting with Unchecked.
	Trace []State
	// Redirect is the login URL navigated to, empty when none.
	Redirect string
	// Stale is set when the check was superseded or its context ended
	// before the auto-login finished.
	Stale bool
	// Err is the swallowed auto-login failure, for logging only.
	Err error
}

// Allowed reports whether navigation to Target may proceed.
func (d Decision) Allowed() bool {
	return d.State == Allowed
}

// Guard decides whether the operator may enter a protected screen, trying a
// silent device login first when the operator opted in.
type Guard struct {
	store   *session.Store
	details *session.LoginDetailsStore
	ids     DeviceIdentity
	login   DeviceLogin
	nav     navigation.Navigator
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]context.CancelFunc
}

// Option configures a Guard.
type Option func(*Guard)

func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) {
		if l != nil {
			g.logger = l
		}
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(g *Guard) { g.metrics = m }
}

// New creates a Guard.
func New(
	store *session.Store,
	details *session.LoginDetailsStore,
	ids DeviceIdentity,
	login DeviceLogin,
	nav navigation.Navigator,
	opts ...Option,
) *Guard {
	g := &Guard{
		store:   store,
		details: details,
		ids:     ids,
		login:   login,
		nav:     nav,
		logger:  logger.Discard(),
		pending: make(map[uint64]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(logger.Component("guard"))
	return g
}

// Check evaluates one navigation attempt to target. It never fails: every
// problem ends in a Denied decision. Starting a check cancels the auto-login
// of any older one; the older check then reports a stale Denied decision
// without navigating or touching stored data.
func (g *Guard) Check(ctx context.Context, target string) Decision {
	id, actx, done := g.begin(ctx)
	defer done()

	m := newMachine()
	d := Decision{Target: target, Attempt: id}
	finish := func(next State) Decision {
		if err := m.to(next); err != nil {
			g.logger.ErrorContext(ctx, "illegal guard transition", logger.Attempt(id), logger.Error(err))
			d.Err = errors.Join(d.Err, err)
			m.current = Denied
		}
		d.State, d.Trace = m.current, m.trace
		if !d.Stale {
			g.metrics.GuardDecision(d.State.String())
		}
		return d
	}

	if navigation.IsLogin(target) || g.store.IsAuthenticated(ctx) {
		g.enter(target)
		return finish(Allowed)
	}

	_ = m.to(AutoLoginAttempted)

	details, ok := g.details.Load(actx)
	if !ok || !g.details.AutoLogin(actx) {
		g.metrics.AutoLogin(metrics.OutcomeSkipped)
		d.Redirect = g.redirect(target)
		return finish(Denied)
	}

	_, err := g.login.LoginWithDevice(actx, details.SystemID, g.ids.ID(actx))
	if err == nil {
		g.metrics.AutoLogin(metrics.OutcomeSuccess)
		g.enter(target)
		return finish(Allowed)
	}

	if actx.Err() != nil || errors.Is(err, session.ErrStaleCommit) {
		g.logger.DebugContext(ctx, "auto-login abandoned",
			logger.Attempt(id), logger.Path(target), logger.Error(err))
		g.metrics.AutoLogin(metrics.OutcomeStale)
		d.Stale, d.Err = true, err
		return finish(Denied)
	}

	g.logger.InfoContext(ctx, "auto-login failed, clearing stored data",
		logger.Attempt(id), logger.SystemID(details.SystemID), logger.Error(err))
	g.metrics.AutoLogin(metrics.OutcomeFailure)
	g.store.Purge(context.WithoutCancel(ctx))
	d.Err = err
	d.Redirect = g.redirect(target)
	return finish(Denied)
}

// CancelPending cancels every running auto-login attempt. The login screen
// calls it before an interactive login so a late device login cannot
// overwrite the interactive session.
func (g *Guard) CancelPending() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelLocked()
}

func (g *Guard) begin(ctx context.Context) (uint64, context.Context, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.cancelLocked()
	g.seq++
	id := g.seq
	actx, cancel := context.WithCancel(ctx)
	g.pending[id] = cancel

	return id, actx, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.pending, id)
		cancel()
	}
}

func (g *Guard) cancelLocked() {
	for id, cancel := range g.pending {
		cancel()
		delete(g.pending, id)
	}
}

// enter records an allowed target as the current screen.
func (g *Guard) enter(target string) {
	u, err := url.Parse(target)
	if err != nil {
		g.nav.Navigate(target, nil)
		return
	}
	g.nav.Navigate(u.Path, u.Query())
}

func (g *Guard) redirect(target string) string {
	e := navigation.Entry{Path: navigation.LoginPath, Query: navigation.LoginQuery(target)}
	g.nav.Navigate(e.Path, e.Query)
	return e.URL()
}
