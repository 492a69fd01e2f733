package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otot/posdash/pkg/auth"
	"github.com/otot/posdash/pkg/gateway"
	"github.com/otot/posdash/pkg/locale"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
	"github.com/otot/posdash/pkg/storage"
)

type fakeGateway struct {
	loginDetails session.LoginDetails
	loginRec     *session.Record
	loginErr     error
	forgot       *gateway.ForgotPasswordRequest
	forgotErr    error
	loggedOut    int
}

func (f *fakeGateway) Login(_ context.Context, d session.LoginDetails) (*session.Record, error) {
	f.loginDetails = d
	return f.loginRec, f.loginErr
}

func (f *fakeGateway) ForgotPassword(_ context.Context, r gateway.ForgotPasswordRequest) error {
	f.forgot = &r
	return f.forgotErr
}

func (f *fakeGateway) Logout(context.Context) { f.loggedOut++ }

type staticID string

func (s staticID) ID(context.Context) string { return string(s) }

type cancelSpy struct{ calls int }

func (c *cancelSpy) CancelPending() { c.calls++ }

type fixture struct {
	gw      *fakeGateway
	st      *storage.MemoryStorage
	details *session.LoginDetailsStore
	nav     *navigation.History
	guard   *cancelSpy
	ctrl    *auth.Controller
}

func newFixture() *fixture {
	f := &fixture{
		gw:    &fakeGateway{},
		st:    storage.NewMemoryStorage(),
		nav:   navigation.NewHistory(navigation.LoginPath),
		guard: &cancelSpy{},
	}
	f.details = session.NewLoginDetailsStore(f.st, nil)
	f.ctrl = auth.New(f.gw, f.details, staticID("dev-abc"), f.nav, auth.WithGuard(f.guard))
	return f
}

func manager() *session.Record {
	return &session.Record{
		Token:            "tok123",
		AuthorizedUserID: 7,
		User:             &session.User{PersonalData: session.PersonalData{FirstName: "Alice", AccountType: session.AccountManager}},
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	form := auth.Form{SystemID: " 1001 ", UserName: "alice", Password: "secret", AutoLogin: true}

	t.Run("success remembers reduced details and navigates", func(t *testing.T) {
		f := newFixture()
		f.gw.loginRec = manager()

		res, err := f.ctrl.Submit(ctx, form, "")
		require.NoError(t, err)

		assert.Equal(t, session.LoginDetails{SystemID: "1001", UserName: "alice", Password: "secret", MainDiskSerialNumber: "dev-abc"}, f.gw.loginDetails)
		assert.Equal(t, 1, f.guard.calls, "pending auto-login cancelled")
		assert.Equal(t, "/admin-layout", res.Destination)
		assert.Equal(t, "/admin-layout", f.nav.Current())

		saved, ok := f.details.Load(ctx)
		require.True(t, ok)
		assert.Empty(t, saved.UserName)
		assert.Empty(t, saved.Password)
		assert.Equal(t, "dev-abc", saved.MainDiskSerialNumber)
		assert.True(t, f.details.AutoLogin(ctx))
		assert.Equal(t, "1001", f.details.SystemID(ctx))
	})

	t.Run("return target wins", func(t *testing.T) {
		f := newFixture()
		f.gw.loginRec = manager()

		res, err := f.ctrl.Submit(ctx, form, "/reports?day=1")
		require.NoError(t, err)
		assert.Equal(t, "/reports?day=1", res.Destination)
	})

	t.Run("auto-login off is remembered", func(t *testing.T) {
		f := newFixture()
		f.gw.loginRec = manager()

		off := form
		off.AutoLogin = false
		_, err := f.ctrl.Submit(ctx, off, "")
		require.NoError(t, err)
		assert.False(t, f.details.AutoLogin(ctx))
	})

	t.Run("backend failure", func(t *testing.T) {
		f := newFixture()
		f.gw.loginErr = &gateway.ResponseError{Status: 401, Kind: gateway.ErrInvalidCredentials}

		_, err := f.ctrl.Submit(ctx, form, "")
		assert.ErrorIs(t, err, gateway.ErrInvalidCredentials)
		assert.Equal(t, "Invalid username or password", locale.DefaultCatalog().Message("en", err))

		_, ok := f.details.Load(ctx)
		assert.False(t, ok)
		assert.Empty(t, f.nav.Entries())
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()

		_, err := f.ctrl.Submit(ctx, auth.Form{SystemID: "abc"}, "")
		require.ErrorIs(t, err, auth.ErrInvalidForm)

		var ve *auth.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.ElementsMatch(t, []auth.FieldError{
			{Field: "systemId", Tag: "number"},
			{Field: "userName", Tag: "required"},
			{Field: "password", Tag: "required"},
		}, ve.Fields)
		assert.Contains(t, err.Error(), "systemId must contain digits only")
		assert.Contains(t, ve.Messages(locale.DefaultCatalog(), "en"), "password is required")
		assert.Zero(t, f.guard.calls)
	})

	for _, id := range []string{"1.5", "-3", "+7"} {
		t.Run("system id "+id+" rejected", func(t *testing.T) {
			f := newFixture()
			f.gw.loginRec = manager()

			bad := form
			bad.SystemID = id
			_, err := f.ctrl.Submit(ctx, bad, "")
			require.ErrorIs(t, err, auth.ErrInvalidForm)

			var ve *auth.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, []auth.FieldError{{Field: "systemId", Tag: "number"}}, ve.Fields)
			assert.Empty(t, f.gw.loginDetails.SystemID, "backend not called")
		})
	}
}

func TestDestination(t *testing.T) {
	assert.Equal(t, "/admin-layout", auth.Destination(manager(), ""))
	assert.Equal(t, "/admin-layout", auth.Destination(manager(), "https://evil.example"))
	assert.Equal(t, "/dashboard", auth.Destination(manager(), "/dashboard"))
	assert.Equal(t, "/dashboard", auth.Destination(&session.Record{Token: "t"}, ""))
	assert.Equal(t, "/reports", auth.Destination(&session.Record{Token: "t"}, "/reports"))
}

func TestPrefill(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh terminal", func(t *testing.T) {
		f := newFixture()
		assert.Equal(t, auth.Prefill{AutoLogin: true}, f.ctrl.Prefill(ctx, ""))
	})

	t.Run("saved details", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.details.Remember(ctx, session.LoginDetails{SystemID: "1001"}, false))
		assert.Equal(t, auth.Prefill{SystemID: "1001", AutoLogin: false}, f.ctrl.Prefill(ctx, ""))
	})

	t.Run("url system id overrides and is stored", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.details.Remember(ctx, session.LoginDetails{SystemID: "1001"}, true))

		p := f.ctrl.Prefill(ctx, "2002")
		assert.Equal(t, "2002", p.SystemID)
		assert.True(t, p.AutoLogin)
		assert.Equal(t, "2002", f.details.SystemID(ctx))
	})

	t.Run("non positive url system id ignored", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.details.SetSystemID(ctx, "1001"))
		assert.Equal(t, "1001", f.ctrl.Prefill(ctx, "0").SystemID)
		assert.Equal(t, "1001", f.ctrl.Prefill(ctx, "abc").SystemID)
	})
}

func TestForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("email", func(t *testing.T) {
		f := newFixture()
		err := f.ctrl.ForgotPassword(ctx, auth.ForgotForm{SystemID: "1001", Method: "email", Destination: " alice@example.com "})
		require.NoError(t, err)
		require.NotNil(t, f.gw.forgot)
		assert.Equal(t, gateway.ForgotPasswordRequest{SystemID: "1001", Method: "email", Destination: "alice@example.com"}, *f.gw.forgot)
	})

	t.Run("mobile", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.ctrl.ForgotPassword(ctx, auth.ForgotForm{SystemID: "1001", Method: "mobile", Destination: "+972501234567"}))
	})

	cases := map[string]auth.ForgotForm{
		"bad method":   {SystemID: "1001", Method: "fax", Destination: "x"},
		"bad email":    {SystemID: "1001", Method: "email", Destination: "alice"},
		"bad phone":    {SystemID: "1001", Method: "mobile", Destination: "call me"},
		"no system id": {Method: "email", Destination: "alice@example.com"},
		"decimal id":   {SystemID: "1.5", Method: "email", Destination: "alice@example.com"},
		"negative id":  {SystemID: "-3", Method: "email", Destination: "alice@example.com"},
		"signed id":    {SystemID: "+7", Method: "email", Destination: "alice@example.com"},
		"signed phone": {SystemID: "1001", Method: "mobile", Destination: "+-972501234567"},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			err := f.ctrl.ForgotPassword(ctx, form)
			assert.ErrorIs(t, err, auth.ErrInvalidForm)
			assert.Nil(t, f.gw.forgot)
		})
	}

	t.Run("backend error passes through", func(t *testing.T) {
		f := newFixture()
		f.gw.forgotErr = gateway.ErrSystemNotFound
		err := f.ctrl.ForgotPassword(ctx, auth.ForgotForm{SystemID: "9", Method: "email", Destination: "a@b.co"})
		assert.ErrorIs(t, err, gateway.ErrSystemNotFound)
	})
}

func TestLogout(t *testing.T) {
	f := newFixture()
	f.nav.Navigate("/dashboard", nil)

	f.ctrl.Logout(context.Background())
	assert.Equal(t, 1, f.gw.loggedOut)
	assert.Equal(t, 1, f.guard.calls)
	assert.Equal(t, navigation.LoginPath, f.nav.Current())
}
