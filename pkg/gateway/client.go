package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/metrics"
	"github.com/otot/posdash/pkg/session"
	"github.com/otot/posdash/pkg/transport"
)

// Backend endpoint paths, relative to the base URL.
const (
	PathLogin          = "login"
	PathLoginWithToken = "loginWithToken"
	PathLoginWithID    = "loginWithDeviceId"
	PathLoginByOTP     = "loginByOTP"
	PathLoginAnonymous = "loginAnonymous"
	PathProfile        = "getMyUserInfo"
	PathForgotPassword = "sendForgotPasswordLinkForApp"
)

// Login strategy names used in logs and metrics.
const (
	StrategyPassword  = "password"
	StrategyDevice    = "device"
	StrategyToken     = "token"
	StrategyOTP       = "otp"
	StrategyAnonymous = "anonymous"
)

const maxBodySize = 1 << 20

// Client talks to the backend authentication endpoints and stores every
// successful login in the session store.
type Client struct {
	base      *url.URL
	http      *http.Client
	store     *session.Store
	mode      transport.HeaderMode
	logger    *slog.Logger
	metrics   *metrics.Recorder
	now       func() time.Time
	anonymous atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client, normally one built on a
// transport.Augmenter.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithHeaderMode sets the header contract used when a call carries a token
// explicitly. It must match the Augmenter's.
func WithHeaderMode(m transport.HeaderMode) Option {
	return func(c *Client) {
		if m != "" {
			c.mode = m
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithClock overrides time.Now, used for the anonymous login time zone.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, store *session.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: backend url %q", ErrInvalidRequest, baseURL)
	}

	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		store:  store,
		mode:   transport.HeaderBearer,
		logger: logger.Discard(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("gateway"))
	c.anonymous.Store(true)
	return c, nil
}

// ConnectedAnonymously reports whether the last login was anonymous. It is
// true until the first named login.
func (c *Client) ConnectedAnonymously() bool {
	return c.anonymous.Load()
}

// Login performs the interactive login, merges the user profile and stores
// the session.
func (c *Client) Login(ctx context.Context, details session.LoginDetails) (*session.Record, error) {
	if details.SystemID == "" || details.UserName == "" || details.Password == "" {
		return nil, fmt.Errorf("%w: system id, user name and password are required", ErrInvalidRequest)
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, PathLogin, nil, details)
	if err != nil {
		return nil, err
	}
	return c.login(ctx, StrategyPassword, req, true)
}

// LoginWithDevice re-authenticates silently using the device identity.
func (c *Client) LoginWithDevice(ctx context.Context, systemID, fingerprint string) (*session.Record, error) {
	if systemID == "" {
		return nil, fmt.Errorf("%w: system id is required", ErrInvalidRequest)
	}
	q := url.Values{"systemId": {systemID}, "fingerPrint": {fingerprint}}
	req, err := c.newRequest(ctx, http.MethodGet, PathLoginWithID, q, nil)
	if err != nil {
		return nil, err
	}
	return c.login(ctx, StrategyDevice, req, true)
}

// LoginWithToken exchanges previously issued credentials for a session.
func (c *Client) LoginWithToken(ctx context.Context, details session.LoginDetails) (*session.Record, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, PathLoginWithToken, nil, details)
	if err != nil {
		return nil, err
	}
	return c.login(ctx, StrategyToken, req, true)
}

// LoginByOTP logs in with a verification code sent to the user's phone.
func (c *Client) LoginByOTP(ctx context.Context, r OTPRequest) (*session.Record, error) {
	if r.SystemID == "" || r.PhoneNumber == "" {
		return nil, fmt.Errorf("%w: system id and phone number are required", ErrInvalidRequest)
	}
	q := url.Values{}
	if r.Code != "" {
		q.Set("verificationCode", r.Code)
	}
	q.Set("systemId", r.SystemID)
	q.Set("fingerPrint", r.Fingerprint)
	q.Set("phoneNumber", r.PhoneNumber)
	q.Set("personalId", r.PersonalID)

	req, err := c.newJSONRequest(ctx, http.MethodPost, PathLoginByOTP, q, struct{}{})
	if err != nil {
		return nil, err
	}
	return c.login(ctx, StrategyOTP, req, true)
}

// LoginAnonymous opens a guest session for systemID. No profile is fetched.
func (c *Client) LoginAnonymous(ctx context.Context, systemID string) (*session.Record, error) {
	if systemID == "" {
		return nil, fmt.Errorf("%w: system id is required", ErrInvalidRequest)
	}
	_, offset := c.now().Zone()
	q := url.Values{
		"systemId": {systemID},
		"timeZone": {strconv.FormatInt(int64(offset)*1000, 10)},
	}
	req, err := c.newRequest(ctx, http.MethodGet, PathLoginAnonymous, q, nil)
	if err != nil {
		return nil, err
	}
	return c.login(ctx, StrategyAnonymous, req, false)
}

// FetchProfile loads the user profile for token. The token is set on the
// request explicitly because the session is not stored yet during login.
func (c *Client) FetchProfile(ctx context.Context, token string) (*session.User, error) {
	req, err := c.newRequest(ctx, http.MethodPost, PathProfile, nil, nil)
	if err != nil {
		return nil, err
	}
	transport.SetToken(req, c.mode, token)

	var u *session.User
	if err := c.do(req, "profile", profileStatuses, &u); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: empty profile", ErrServerError)
	}
	return u, nil
}

// RefreshProfile fetches the profile of the current session and stores the
// updated record. A session replaced while the fetch was running is left
// alone.
func (c *Client) RefreshProfile(ctx context.Context) (*session.Record, error) {
	rec := c.store.Get(ctx)
	if !rec.IsAuthenticated() {
		return nil, session.ErrNoToken
	}

	u, err := c.FetchProfile(ctx, rec.Token)
	if err != nil {
		return nil, errors.Join(ErrProfileUnavailable, err)
	}

	if cur := c.store.Get(ctx); cur == nil || cur.Token != rec.Token {
		return cur, nil
	}
	updated := rec.WithUser(u)
	if err := c.store.Commit(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// ForgotPassword asks the backend to send a reset link. It has no effect on
// the session.
func (c *Client) ForgotPassword(ctx context.Context, r ForgotPasswordRequest) error {
	if r.SystemID == "" || r.Destination == "" || (r.Method != MethodEmail && r.Method != MethodMobile) {
		return fmt.Errorf("%w: system id, method and destination are required", ErrInvalidRequest)
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, PathForgotPassword, nil, r)
	if err != nil {
		return err
	}
	if err := c.do(req, "forgot_password", forgotStatuses, nil); err != nil {
		c.logger.InfoContext(ctx, "forgot password request failed", logger.SystemID(r.SystemID), logger.Error(err))
		return err
	}
	return nil
}

// Logout removes the session and the stored login details. It needs no
// network and always succeeds.
func (c *Client) Logout(ctx context.Context) {
	c.store.Purge(ctx)
	c.logger.InfoContext(ctx, "logged out")
}

func (c *Client) login(ctx context.Context, strategy string, req *http.Request, withProfile bool) (*session.Record, error) {
	start := time.Now()
	rec, err := c.authenticate(ctx, req, withProfile)
	if err == nil {
		err = c.store.Commit(ctx, rec)
	}

	c.metrics.LoginAttempt(strategy, outcome(err), time.Since(start))
	if err != nil {
		c.logger.DebugContext(ctx, "login failed", logger.Strategy(strategy), logger.Error(err))
		return nil, err
	}

	c.anonymous.Store(strategy == StrategyAnonymous)
	c.logger.InfoContext(ctx, "login succeeded",
		logger.Strategy(strategy),
		logger.UserID(rec.AuthorizedUserID),
		logger.Duration(time.Since(start)),
	)
	return rec, nil
}

// authenticate runs the login call and, when asked, merges the profile.
// Nothing is stored until both steps succeed.
func (c *Client) authenticate(ctx context.Context, req *http.Request, withProfile bool) (*session.Record, error) {
	var rec *session.Record
	if err := c.do(req, "login", loginStatuses, &rec); err != nil {
		return nil, err
	}
	if !rec.IsAuthenticated() {
		return nil, fmt.Errorf("%w: login response carries no token", ErrServerError)
	}
	if !withProfile {
		return rec, nil
	}

	u, err := c.FetchProfile(ctx, rec.Token)
	if err != nil {
		return nil, errors.Join(ErrProfileUnavailable, err)
	}
	return rec.WithUser(u), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := c.base.JoinPath(path)
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, q url.Values, v any) (*http.Request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrInvalidRequest, err)
	}
	req, err := c.newRequest(ctx, method, path, q, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and decodes a successful JSON body into out when out is not
// nil. Failures become *ResponseError classified by the backend code table
// first and statuses second.
func (c *Client) do(req *http.Request, op string, statuses statusTable, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return &ResponseError{Op: op, Kind: ErrServerError, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return &ResponseError{Op: op, Status: resp.StatusCode, Kind: ErrServerError, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classify(op, resp.StatusCode, body, statuses)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ResponseError{Op: op, Status: resp.StatusCode, Kind: ErrServerError, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func classify(op string, status int, body []byte, statuses statusTable) *ResponseError {
	re := &ResponseError{Op: op, Status: status, Kind: ErrServerError}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		re.Code = eb.ErrorCode
		re.Message = eb.Message
	}

	if kind, ok := backendCodes[re.Code]; ok {
		re.Kind = kind
	} else if kind, ok := statuses[status]; ok {
		re.Kind = kind
	}
	return re
}
