package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tallyup/tallyup/internal/metrics"
)

// RequestLogger logs every request with its route, status, owner and
// duration, and records the latency histogram. Client errors log at WARN,
// server errors at ERROR.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = r.URL.Path
			}
			ownerID := GetOwnerID(r.Context())

			m.RequestDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).
				Observe(duration.Seconds())

			attrs := []any{
				"method", r.Method,
				"route", route,
				"status", status,
				"owner_id", ownerID,
				"duration_ms", duration.Milliseconds(),
			}
			switch {
			case status >= 500:
				logger.Error("request failed", attrs...)
			case status >= 400:
				logger.Warn("request rejected", attrs...)
			default:
				logger.Info("request ok", attrs...)
			}
		})
	}
}
