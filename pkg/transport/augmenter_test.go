package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otot/posdash/pkg/metrics"
	"github.com/otot/posdash/pkg/navigation"
	"github.com/otot/posdash/pkg/session"
	"github.com/otot/posdash/pkg/storage"
	"github.com/otot/posdash/pkg/transport"
)

func newStore(t *testing.T, token string) *session.Store {
	t.Helper()
	store := session.NewStore(context.Background(), storage.NewMemoryStorage())
	if token != "" {
		store.Set(context.Background(), &session.Record{Token: token, AuthorizedUserID: 7})
	}
	return store
}

func get(t *testing.T, client *http.Client, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := client.Do(req)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp
}

func TestAugmenter_Headers(t *testing.T) {
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
	}))
	defer srv.Close()

	t.Run("bearer token attached", func(t *testing.T) {
		a := transport.New(newStore(t, "tok123"), navigation.NewHistory("/dashboard"))
		get(t, a.Client(0), srv.URL+"/reports", nil)

		assert.Equal(t, "Bearer tok123", seen.Get("Authorization"))
		assert.NotEmpty(t, seen.Get(transport.RequestIDHeader))
		assert.Empty(t, seen.Get(transport.LegacyHeader))
	})

	t.Run("legacy token attached", func(t *testing.T) {
		a := transport.New(newStore(t, "tok123"), navigation.NewHistory("/dashboard"),
			transport.WithHeaderMode(transport.HeaderLegacy))
		get(t, a.Client(0), srv.URL+"/reports", nil)

		assert.Equal(t, `{"token":"tok123"}`, seen.Get(transport.LegacyHeader))
		assert.Empty(t, seen.Get("Authorization"))
	})

	t.Run("anonymous request has no token", func(t *testing.T) {
		a := transport.New(newStore(t, ""), navigation.NewHistory("/login"))
		get(t, a.Client(0), srv.URL+"/reports", nil)

		assert.Empty(t, seen.Get("Authorization"))
	})

	t.Run("existing header is not overridden", func(t *testing.T) {
		a := transport.New(newStore(t, "tok123"), navigation.NewHistory("/dashboard"))
		get(t, a.Client(0), srv.URL+"/reports", http.Header{
			"Authorization":           {"Bearer explicit"},
			transport.RequestIDHeader: {"req-1"},
		})

		assert.Equal(t, "Bearer explicit", seen.Get("Authorization"))
		assert.Equal(t, "req-1", seen.Get(transport.RequestIDHeader))
	})
}

func TestAugmenter_AuthFailure(t *testing.T) {
	statusServer := func(status int) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
	}

	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, transport.StatusSessionExpired} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			srv := statusServer(status)
			defer srv.Close()

			store := newStore(t, "tok123")
			nav := navigation.NewHistory("/reports")
			a := transport.New(store, nav)

			resp := get(t, a.Client(0), srv.URL+"/reports", nil)
			assert.Equal(t, status, resp.StatusCode, "response passed through")

			assert.Nil(t, store.Get(context.Background()))
			entries := nav.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, navigation.LoginPath, entries[0].Path)
			assert.Equal(t, "/reports", entries[0].Query.Get(navigation.ReturnURLParam))
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		srv := statusServer(http.StatusInternalServerError)
		defer srv.Close()

		store := newStore(t, "tok123")
		nav := navigation.NewHistory("/reports")
		resp := get(t, transport.New(store, nav).Client(0), srv.URL+"/reports", nil)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.True(t, store.IsAuthenticated(context.Background()))
		assert.Empty(t, nav.Entries())
	})

	t.Run("skipped on login screen", func(t *testing.T) {
		srv := statusServer(http.StatusUnauthorized)
		defer srv.Close()

		store := newStore(t, "tok123")
		nav := navigation.NewHistory("/login")
		get(t, transport.New(store, nav).Client(0), srv.URL+"/reports", nil)

		assert.True(t, store.IsAuthenticated(context.Background()))
		assert.Empty(t, nav.Entries())
	})

	for _, endpoint := range []string{"login", "loginWithToken", "loginWithDeviceId", "loginByOTP", "loginAnonymous"} {
		t.Run("login call "+endpoint+" does not invalidate", func(t *testing.T) {
			srv := statusServer(http.StatusUnauthorized)
			defer srv.Close()

			store := newStore(t, "tok123")
			nav := navigation.NewHistory("/dashboard")
			get(t, transport.New(store, nav).Client(0), srv.URL+"/api/"+endpoint, nil)

			assert.True(t, store.IsAuthenticated(context.Background()))
			assert.Empty(t, nav.Entries())
		})
	}

	for _, endpoint := range []string{"/api/loginHistory", "/login/report", "/api/logins"} {
		t.Run("endpoint "+endpoint+" invalidates", func(t *testing.T) {
			srv := statusServer(http.StatusUnauthorized)
			defer srv.Close()

			store := newStore(t, "tok123")
			nav := navigation.NewHistory("/dashboard")
			get(t, transport.New(store, nav).Client(0), srv.URL+endpoint, nil)

			assert.Nil(t, store.Get(context.Background()))
			entries := nav.Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, navigation.LoginPath, entries[0].Path)
		})
	}

	t.Run("failure for a replaced token keeps the new session", func(t *testing.T) {
		srv := statusServer(http.StatusUnauthorized)
		defer srv.Close()

		store := newStore(t, "fresh")
		nav := navigation.NewHistory("/dashboard")
		get(t, transport.New(store, nav).Client(0), srv.URL+"/reports", http.Header{
			"Authorization": {"Bearer stale"},
		})

		assert.Equal(t, "fresh", store.Get(context.Background()).Token)
		assert.Empty(t, nav.Entries())
	})
}

func TestAugmenter_ConcurrentFailuresRedirectOnce(t *testing.T) {
	var release sync.WaitGroup
	release.Add(1)
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		release.Wait()
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := newStore(t, "tok123")
	nav := navigation.NewHistory("/dashboard")
	reg := prometheus.NewRegistry()
	a := transport.New(store, nav, transport.WithMetrics(metrics.New(reg)))
	client := a.Client(0)

	const n = 8
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := get(t, client, srv.URL+"/reports", nil)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		}()
	}

	require.Eventually(t, func() bool { return hits.Load() == n }, testTimeout, testTick)
	release.Done()
	wg.Wait()

	assert.Nil(t, store.Get(context.Background()))
	assert.Len(t, nav.Entries(), 1)
	expected := `
# HELP posdash_auth_failures_total Total number of backend responses that invalidated the session.
# TYPE posdash_auth_failures_total counter
posdash_auth_failures_total{status="403"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "posdash_auth_failures_total"))
}

func TestParseHeaderMode(t *testing.T) {
	m, err := transport.ParseHeaderMode("")
	require.NoError(t, err)
	assert.Equal(t, transport.HeaderBearer, m)

	m, err = transport.ParseHeaderMode("LEGACY")
	require.NoError(t, err)
	assert.Equal(t, transport.HeaderLegacy, m)

	_, err = transport.ParseHeaderMode("cookie")
	assert.ErrorIs(t, err, transport.ErrInvalidHeaderMode)
}

func TestSetTokenAndTokenFrom(t *testing.T) {
	for _, mode := range []transport.HeaderMode{transport.HeaderBearer, transport.HeaderLegacy} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		_, ok := transport.TokenFrom(req, mode)
		assert.False(t, ok)

		transport.SetToken(req, mode, "abc")
		tok, ok := transport.TokenFrom(req, mode)
		assert.True(t, ok)
		assert.Equal(t, "abc", tok, mode)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	transport.SetToken(req, transport.HeaderBearer, "")
	assert.Empty(t, req.Header.Get("Authorization"))
}
