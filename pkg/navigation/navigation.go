// Package navigation models the screen the dashboard operator is on and the
// routes the session components redirect to.
package navigation

import (
	"net/url"
	"strings"
	"sync"

	"github.com/otot/posdash/pkg/session"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
	NotFoundPath  = "/404"

	// ReturnURLParam carries the originally requested route to the login
	// screen.
	ReturnURLParam = "returnUrl"
)

// Navigator moves the operator between screens.
type Navigator interface {
	Current() string
	Navigate(path string, query url.Values)
}

// IsLogin reports whether target points at the login screen.
func IsLogin(target string) bool {
	p := target
	if u, err := url.Parse(target); err == nil {
		p = u.Path
	}
	first, _, _ := strings.Cut(strings.TrimPrefix(p, "/"), "/")
	return first == "login"
}

// LoginQuery builds the login screen query for a redirect away from target.
func LoginQuery(target string) url.Values {
	if target == "" || IsLogin(target) {
		return nil
	}
	return url.Values{ReturnURLParam: {target}}
}

// ReturnTarget sanitises a return URL. Only local absolute paths are kept;
// anything else yields DashboardPath.
func ReturnTarget(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return DashboardPath
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || IsLogin(u.Path) {
		return DashboardPath
	}
	return u.RequestURI()
}

var layouts = map[session.AccountType]string{
	session.AccountManager:       "/admin-layout",
	session.AccountTutor:         "/tutor-layout",
	session.AccountGeneralWorker: "/popup-app-layout",
	session.AccountSecretary:     "/secretary-layout",
	session.AccountSupplier:      "/supplier-layout",
}

// DefaultLayoutPath is the main screen for account types without a
// dedicated layout.
const DefaultLayoutPath = "/user-layout"

// MainAppPath returns the main layout for an account type.
func MainAppPath(t session.AccountType) string {
	if p, ok := layouts[t]; ok {
		return p
	}
	return DefaultLayoutPath
}

// LayoutPaths returns every layout route.
func LayoutPaths() []string {
	return []string{
		"/admin-layout",
		"/tutor-layout",
		"/popup-app-layout",
		"/secretary-layout",
		"/supplier-layout",
		DefaultLayoutPath,
	}
}

// Entry is one navigation performed through a History.
type Entry struct {
	Path  string
	Query url.Values
}

// URL renders the entry as a relative URL.
func (e Entry) URL() string {
	if len(e.Query) == 0 {
		return e.Path
	}
	return e.Path + "?" + e.Query.Encode()
}

// History is an in-memory Navigator that records every navigation.
// It is safe for concurrent use.
type History struct {
	mu      sync.Mutex
	current string
	entries []Entry
}

// NewHistory creates a History positioned at start.
func NewHistory(start string) *History {
	return &History{current: start}
}

func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *History) Navigate(path string, query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()

	e := Entry{Path: path, Query: cloneValues(query)}
	h.entries = append(h.entries, e)
	h.current = e.URL()
}

// Entries returns a copy of the recorded navigations.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[i] = Entry{Path: e.Path, Query: cloneValues(e.Query)}
	}
	return out
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vs := range v {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
