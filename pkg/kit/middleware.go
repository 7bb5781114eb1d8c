package kit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func Recoverer(next http.Handler) http.Handler {
	return middleware.Recoverer(next)
}

func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", ChiRoutePatternOrPath(r)),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}

// ChiRoutePatternOrPath keeps metric label cardinality bounded by preferring
// the matched route pattern over the raw path.
func ChiRoutePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if rp := rc.RoutePattern(); rp != "" {
			return rp
		}
	}
	return r.URL.Path
}

// Setup installs the middleware chain shared by every service and, when a
// registry is given, the request metrics and the token-protected /metrics
// endpoint.
func Setup(r chi.Router, log *zap.Logger, service string, m *Metrics, metricsToken string) {
	r.Use(middleware.RequestID)
	r.Use(Recoverer)
	r.Use(Logging(log))

	if m == nil {
		return
	}
	r.Use(m.Middleware(service, ChiRoutePatternOrPath))
	r.With(MetricsAuth(metricsToken)).Handle("/metrics", m.Handler())
}
