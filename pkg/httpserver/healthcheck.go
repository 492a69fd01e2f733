package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/otot/posdash/pkg/logger"
)

// Check is a named readiness check.
type Check struct {
	Name string
	Run  func(context.Context) error
}

// Liveness answers 200 with body "ALIVE".
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ALIVE"))
	}
}

// Readiness runs every check with the request context and answers 200 when
// all pass, 503 otherwise. The body maps check names to "ok" or "fail".
func Readiness(log *slog.Logger, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		report := make(map[string]string, len(checks))
		for _, c := range checks {
			if err := c.Run(r.Context()); err != nil {
				log.WarnContext(r.Context(), "readiness check failed", slog.String("check", c.Name), logger.Error(err))
				report[c.Name] = "fail"
				status = http.StatusServiceUnavailable
				continue
			}
			report[c.Name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(report)
	}
}
