package auth

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/otot/posdash/pkg/gateway"
	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
)

// Gateway is the part of the backend client the login screen uses.
type Gateway interface {
	Login(ctx context.Context, details session.LoginDetails) (*session.Record, error)
	ForgotPassword(ctx context.Context, r gateway.ForgotPasswordRequest) error
	Logout(ctx context.Context)
}

// DeviceIdentity returns the identity of this device.
type DeviceIdentity interface {
	ID(ctx context.Context) string
}

// PendingCanceller cancels running auto-login attempts.
type PendingCanceller interface {
	CancelPending()
}

// Result is the outcome of a successful Submit.
type Result struct {
	Record      *session.Record
	Destination string
}

// Prefill holds the initial values of the login form.
type Prefill struct {
	SystemID  string `json:"systemId"`
	AutoLogin bool   `json:"autoLogin"`
}

// Controller implements the login screen actions.
type Controller struct {
	gw       Gateway
	details  *session.LoginDetailsStore
	ids      DeviceIdentity
	nav      navigation.Navigator
	guard    PendingCanceller
	logger   *slog.Logger
	validate *validator.Validate
}

// Option configures a Controller.
type Option func(*Controller)

// WithGuard lets Submit and Logout cancel pending auto-login attempts.
func WithGuard(g PendingCanceller) Option {
	return func(c *Controller) { c.guard = g }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Controller.
func New(gw Gateway, details *session.LoginDetailsStore, ids DeviceIdentity, nav navigation.Navigator, opts ...Option) *Controller {
	c := &Controller{
		gw:       gw,
		details:  details,
		ids:      ids,
		nav:      nav,
		logger:   logger.Discard(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("auth"))
	return c
}

// Prefill returns the login form defaults. A positive system id from the
// login URL overrides and replaces the stored one. Auto-login is on unless
// the operator turned it off at the last login.
func (c *Controller) Prefill(ctx context.Context, systemIDFromURL string) Prefill {
	p := Prefill{SystemID: c.details.SystemID(ctx), AutoLogin: true}

	if saved, ok := c.details.Load(ctx); ok {
		if saved.SystemID != "" {
			p.SystemID = saved.SystemID
		}
		p.AutoLogin = c.details.AutoLogin(ctx)
	}

	if id, err := strconv.ParseInt(strings.TrimSpace(systemIDFromURL), 10, 64); err == nil && id > 0 {
		p.SystemID = strconv.FormatInt(id, 10)
		if err := c.details.SetSystemID(ctx, p.SystemID); err != nil {
			c.logger.WarnContext(ctx, "failed to store system id", logger.Error(err))
		}
	}
	return p
}

// Submit validates f, logs in and navigates to the next screen.
func (c *Controller) Submit(ctx context.Context, f Form, returnURL string) (*Result, error) {
	f.SystemID = strings.TrimSpace(f.SystemID)
	f.UserName = strings.TrimSpace(f.UserName)
	if err := c.validateStruct(f); err != nil {
		return nil, err
	}

	if c.guard != nil {
		c.guard.CancelPending()
	}

	details := session.LoginDetails{
		SystemID:             f.SystemID,
		UserName:             f.UserName,
		Password:             f.Password,
		MainDiskSerialNumber: c.ids.ID(ctx),
	}

	rec, err := c.gw.Login(ctx, details)
	if err != nil {
		c.logger.InfoContext(ctx, "interactive login failed", logger.SystemID(f.SystemID), logger.Error(err))
		return nil, err
	}

	if err := c.details.Remember(ctx, details, f.AutoLogin); err != nil {
		c.logger.WarnContext(ctx, "failed to remember login details", logger.Error(err))
	}
	if err := c.details.SetSystemID(ctx, f.SystemID); err != nil {
		c.logger.WarnContext(ctx, "failed to store system id", logger.Error(err))
	}

	dest := Destination(rec, returnURL)
	c.nav.Navigate(dest, nil)
	return &Result{Record: rec, Destination: dest}, nil
}

// Destination picks the screen after a login: the requested return target
// when there is a usable one, otherwise the main layout of the account.
func Destination(rec *session.Record, returnURL string) string {
	if returnURL != "" {
		if t := navigation.ReturnTarget(returnURL); t != navigation.DashboardPath || returnURL == navigation.DashboardPath {
			return t
		}
	}
	if rec.HasProfile() {
		return navigation.MainAppPath(rec.AccountType())
	}
	return navigation.DashboardPath
}

// ForgotPassword validates f and asks the backend for a reset link.
func (c *Controller) ForgotPassword(ctx context.Context, f ForgotForm) error {
	f.Destination = strings.TrimSpace(f.Destination)
	if err := c.validateStruct(f); err != nil {
		return err
	}
	if err := c.validateDestination(f); err != nil {
		return err
	}
	return c.gw.ForgotPassword(ctx, gateway.ForgotPasswordRequest{
		SystemID:    f.SystemID,
		Method:      f.Method,
		Destination: f.Destination,
	})
}

// Logout drops the session and stored login details and shows the login
// screen.
func (c *Controller) Logout(ctx context.Context) {
	if c.guard != nil {
		c.guard.CancelPending()
	}
	c.gw.Logout(ctx)
	c.nav.Navigate(navigation.LoginPath, nil)
}
