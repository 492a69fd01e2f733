package dashboard

import (
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/otot/posdash/pkg/logger"
	"github.com/otot/posdash/pkg/transport"
)

// apiProxy forwards /api/* to the backend. Client supplied credentials are
// dropped so the transport attaches the session token.
func (s *Server) apiProxy() http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, "/api")
			pr.Out.URL.RawPath = ""
			pr.SetURL(s.apiTarget)
			pr.SetXForwarded()
			pr.Out.Header.Del("Authorization")
			pr.Out.Header.Del(transport.LegacyHeader)
			pr.Out.Header.Del("Cookie")
		},
		Transport: s.apiRT,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			s.logger.WarnContext(r.Context(), "api proxy failed", logger.Path(r.URL.Path), logger.Error(err))
			writeError(w, http.StatusBadGateway, &errorDetail{Code: "bad_gateway", Message: http.StatusText(http.StatusBadGateway)})
		},
	}
}
