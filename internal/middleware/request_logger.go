package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"ms-meetup/internal/logger"
	"ms-meetup/internal/metrics"
)

// RequestLogger logs every request through the API category and records its
// latency under the matched route pattern.
func RequestLogger(log *logger.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			path := r.URL.Path
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				path = fmt.Sprintf("%s [%s]", path, reqID)
			}
			log.LogAPI(r.Method, path, fmt.Sprintf("%d", status), elapsed.String())
			m.ObserveRequest(r.Method, route, status, elapsed)
		})
	}
}
