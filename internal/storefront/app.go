package storefront

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log     *zap.Logger
	Service string

	// Metrics is optional; nil disables request metrics and /metrics.
	Metrics      *kit.Metrics
	MetricsToken string
}

const (
	checkoutLimitPerMin = 10
	limitWindow         = 60 * time.Second
)

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}
	if s.Metrics == nil {
		s.Metrics = NewMetrics(deps.Metrics)
	}

	r := chi.NewRouter()
	kit.Setup(r, deps.Log, deps.Service, deps.Metrics, deps.MetricsToken)

	checkoutLimiter := kit.NewIPRateLimiter(checkoutLimitPerMin, limitWindow)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Route("/cart", func(cr chi.Router) {
		cr.Get("/", s.getCart)
		cr.Post("/items", s.addItem)
		cr.Patch("/items/{id}", s.updateItem)
		cr.Delete("/items/{id}", s.removeItem)
	})
	r.With(checkoutLimiter.Middleware).Post("/checkout", s.checkout)

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.log().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}
