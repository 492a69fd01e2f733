package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otot/posdash/pkg/auth"
	"github.com/otot/posdash/pkg/dashboard"
	"github.com/otot/posdash/pkg/fingerprint"
	"github.com/otot/posdash/pkg/gateway"
	"github.com/otot/posdash/pkg/guard"
	"github.com/otot/posdash/pkg/httpserver"
	"github.com/otot/posdash/pkg/locale"
	"github.com/otot/posdash/pkg/metrics"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
	"github.com/otot/posdash/pkg/storage"
	"github.com/otot/posdash/pkg/transport"
)

type env struct {
	store   *session.Store
	headers chan http.Header
	handler http.Handler
	backend map[string]http.HandlerFunc
	mu      sync.Mutex
}

func (e *env) on(path string, h http.HandlerFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backend[path] = h
}

func reply(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	e := &env{backend: map[string]http.HandlerFunc{}, headers: make(chan http.Header, 16)}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		e.mu.Lock()
		h, ok := e.backend[r.URL.Path]
		e.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(backend.Close)

	st := storage.NewMemoryStorage()
	nav := navigation.NewHistory(navigation.LoginPath)
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)

	e.store = session.NewStore(ctx, st)
	details := session.NewLoginDetailsStore(st, nil)
	ids := fingerprint.NewProvider(st, fingerprint.WithSources(fingerprint.StaticSource("machine_id", "terminal-7", true)))
	aug := transport.New(e.store, nav, transport.WithMetrics(rec))

	gw, err := gateway.New(backend.URL+"/api", e.store, gateway.WithHTTPClient(aug.Client(5*time.Second)), gateway.WithMetrics(rec))
	require.NoError(t, err)

	g := guard.New(e.store, details, ids, gw, nav, guard.WithMetrics(rec))
	ctrl := auth.New(gw, details, ids, nav, auth.WithGuard(g))
	prefs := locale.NewPreferences(st, nil)

	target, err := url.Parse(backend.URL + "/api")
	require.NoError(t, err)

	srv := dashboard.New(e.store, ctrl, g, prefs,
		dashboard.WithAPIProxy(target, aug),
		dashboard.WithMetrics(reg),
		dashboard.WithReadiness(httpserver.Check{Name: "storage", Run: func(context.Context) error { return nil }}),
	)
	e.handler = srv.Router()

	e.on("/api/login", reply(http.StatusOK, map[string]any{"token": "tok123", "authorizedUserId": 7}))
	e.on("/api/getMyUserInfo", reply(http.StatusOK, map[string]any{"personalData": map[string]any{"firstName": "Alice", "accountType": 2}}))
	return e
}

func (e *env) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *env) login(t *testing.T) {
	t.Helper()
	rec := e.do(http.MethodPost, "/login", `{"systemId":"1001","userName":"alice","password":"secret","autoLogin":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		e := newEnv(t)
		rec := e.do(http.MethodPost, "/login", `{"systemId":"1001","userName":"alice","password":"secret","autoLogin":true}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "tok123")

		var data struct {
			Destination string `json:"destination"`
			Session     struct {
				AuthorizedUserID int64  `json:"authorizedUserId"`
				AccountType      string `json:"accountType"`
				User             struct {
					PersonalData struct {
						FirstName string `json:"firstName"`
					} `json:"personalData"`
				} `json:"user"`
			} `json:"session"`
		}
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
		assert.Equal(t, "/admin-layout", data.Destination)
		assert.Equal(t, int64(7), data.Session.AuthorizedUserID)
		assert.Equal(t, "manager", data.Session.AccountType)
		assert.Equal(t, "Alice", data.Session.User.PersonalData.FirstName)
		assert.Equal(t, "tok123", e.store.Get(context.Background()).Token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		e := newEnv(t)
		e.on("/api/login", reply(http.StatusUnauthorized, map[string]any{"message": "bad"}))

		rec := e.do(http.MethodPost, "/login", `{"systemId":"1001","userName":"alice","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decode(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "invalid_credentials", body.Error.Code)
		assert.Equal(t, "Invalid username or password", body.Error.Message)
		assert.False(t, e.store.IsAuthenticated(context.Background()))
	})

	t.Run("validation", func(t *testing.T) {
		e := newEnv(t)
		rec := e.do(http.MethodPost, "/login", `{"systemId":"abc","userName":"alice","password":"x"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		body := decode(t, rec)
		require.NotNil(t, body.Error)
		assert.Equal(t, "validation_error", body.Error.Code)
		assert.Equal(t, []string{"systemId must contain digits only"}, body.Error.Details["systemId"])
	})

	t.Run("bad body", func(t *testing.T) {
		e := newEnv(t)
		assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/login", `{"unknown":1}`).Code)

		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("systemId=1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		e.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})
}

func TestLoginForm(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/login?systemId=2002&returnUrl=%2Freports", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"systemId":"2002","autoLogin":true,"returnUrl":"/reports","language":"en","rtl":false}`, string(decode(t, rec).Data))
}

func TestGuardedRoutes(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?returnUrl=%2Fdashboard", rec.Header().Get("Location"))

	e.login(t)
	for _, p := range append([]string{navigation.DashboardPath}, navigation.LayoutPaths()...) {
		rec := e.do(http.MethodGet, p, "")
		assert.Equal(t, http.StatusOK, rec.Code, p)
	}
}

func TestSession(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	e.login(t)
	rec = e.do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "tok123")

	rec = e.do(http.MethodPost, "/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You have been signed out")
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/session", "").Code)
}

func TestForgotPassword(t *testing.T) {
	e := newEnv(t)
	e.on("/api/sendForgotPasswordLinkForApp", reply(http.StatusOK, map[string]any{}))

	rec := e.do(http.MethodPost, "/forgot-password", `{"systemId":"1001","method":"email","destination":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "A reset link was sent to alice@example.com")

	rec = e.do(http.MethodPost, "/forgot-password", `{"systemId":"1001","method":"fax","destination":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLanguage(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodPut, "/language", `{"language":"he"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Language string `json:"language"`
		RTL      bool   `json:"rtl"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, "he", data.Language)
	assert.True(t, data.RTL)

	rec = e.do(http.MethodPut, "/language", `{"language":"xx"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAPIProxy(t *testing.T) {
	e := newEnv(t)
	e.on("/api/tickets", func(w http.ResponseWriter, r *http.Request) {
		e.headers <- r.Header.Clone()
		reply(http.StatusOK, []string{"t1"})(w, r)
	})
	e.on("/api/forbidden", reply(http.StatusForbidden, map[string]any{}))
	e.login(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tickets", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["t1"]`, rec.Body.String())

	h := <-e.headers
	assert.Equal(t, "Bearer tok123", h.Get("Authorization"))
	assert.NotEmpty(t, h.Get(transport.RequestIDHeader))

	rec = e.do(http.MethodGet, "/api/forbidden", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, e.store.IsAuthenticated(context.Background()), "auth failure clears the session")
}

func TestOperationalRoutes(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/readyz", "").Code)

	rec := e.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `posdash_login_attempts_total{outcome="success",strategy="password"} 1`)

	rec = e.do(http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "not_found", body.Error.Code)

	assert.Equal(t, http.StatusMethodNotAllowed, e.do(http.MethodDelete, "/session", "").Code)
}
