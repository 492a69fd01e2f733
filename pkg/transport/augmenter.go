package transport

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/metrics"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
)

// StatusSessionExpired is the backend's non-standard "session expired" status.
const StatusSessionExpired = 419

// IsAuthFailure reports whether status invalidates the session.
func IsAuthFailure(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, StatusSessionExpired:
		return true
	}
	return false
}

// Augmenter is the session aware http.RoundTripper.
type Augmenter struct {
	next    http.RoundTripper
	store   *session.Store
	nav     navigation.Navigator
	mode    HeaderMode
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu sync.Mutex
}

// Option configures an Augmenter.
type Option func(*Augmenter)

// WithBase sets the underlying transport. Defaults to http.DefaultTransport.
func WithBase(rt http.RoundTripper) Option {
	return func(a *Augmenter) {
		if rt != nil {
			a.next = rt
		}
	}
}

func WithHeaderMode(m HeaderMode) Option {
	return func(a *Augmenter) {
		if m != "" {
			a.mode = m
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Augmenter) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(a *Augmenter) { a.metrics = m }
}

// New creates an Augmenter reading the token from store and redirecting
// through nav.
func New(store *session.Store, nav navigation.Navigator, opts ...Option) *Augmenter {
	a := &Augmenter{
		next:   http.DefaultTransport,
		store:  store,
		nav:    nav,
		mode:   HeaderBearer,
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("transport"))
	return a
}

// Mode returns the header contract in use.
func (a *Augmenter) Mode() HeaderMode {
	return a.mode
}

// Client returns an http.Client using the Augmenter.
func (a *Augmenter) Client(timeout time.Duration) *http.Client {
	return &http.Client{Transport: a, Timeout: timeout}
}

// RoundTrip implements http.RoundTripper.
func (a *Augmenter) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	sent, present := TokenFrom(req, a.mode)
	rt := a.next

	if !present {
		if tok, err := a.store.Token(); err == nil {
			sent = tok.AccessToken
			if a.mode == HeaderLegacy {
				SetToken(req, a.mode, sent)
			} else {
				rt = &oauth2.Transport{Source: oauth2.StaticTokenSource(tok), Base: a.next}
			}
		}
	}

	resp, err := rt.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if IsAuthFailure(resp.StatusCode) && !isLoginCall(req) {
		a.invalidate(req.Context(), resp.StatusCode, sent)
	}
	return resp, nil
}

// invalidate clears the session and redirects to login. Only a failure
// for the token the store currently holds counts: once the first one clears
// the session, the others carry a token that is no longer current.
func (a *Augmenter) invalidate(ctx context.Context, status int, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.nav.Current()
	if navigation.IsLogin(current) {
		return
	}
	if token != a.currentToken() {
		a.logger.DebugContext(ctx, "authorization failure for a stale token ignored", logger.Status(status))
		return
	}

	a.logger.InfoContext(ctx, "session rejected by backend, returning to login",
		logger.Status(status), logger.Path(current))
	a.metrics.AuthFailure(status)

	a.store.Clear(context.WithoutCancel(ctx))
	a.nav.Navigate(navigation.LoginPath, navigation.LoginQuery(current))
}

func (a *Augmenter) currentToken() string {
	tok, err := a.store.Token()
	if err != nil {
		return ""
	}
	return tok.AccessToken
}

// loginEndpoints are the last path segments of the backend login calls,
// whose 401 means wrong credentials rather than an expired session.
var loginEndpoints = map[string]bool{
	"login":             true,
	"loginWithToken":    true,
	"loginWithDeviceId": true,
	"loginByOTP":        true,
	"loginAnonymous":    true,
}

func isLoginCall(req *http.Request) bool {
	return loginEndpoints[path.Base(req.URL.Path)]
}
