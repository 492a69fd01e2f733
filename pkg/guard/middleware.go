package guard

import (
	"net/http"

	"github.com/otot/posdash/pkg/navigation"
)

// Middleware guards an http.Handler. Denied requests are redirected to the
// login page with the requested URI as return target.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.RequestURI()
		if d := g.Check(r.Context(), target); d.Allowed() {
			next.ServeHTTP(w, r)
			return
		}

		e := navigation.Entry{Path: navigation.LoginPath, Query: navigation.LoginQuery(target)}
		http.Redirect(w, r, e.URL(), http.StatusSeeOther)
	})
}
