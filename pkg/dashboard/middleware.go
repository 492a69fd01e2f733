package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/otot/posdash/pkg/logger"
)

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.DebugContext(r.Context(), "request served",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Path(r.Method+" "+r.URL.Path),
			logger.Status(ww.Status()),
			logger.Duration(time.Since(start)),
		)
	})
}
