package order

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Storefront/internal/auth"
	"Storefront/pkg/kit"
)

type HTTPDeps struct {
	Log     *zap.Logger
	Service string
	JWT     *auth.TokenMaker

	Metrics      *kit.Metrics
	MetricsToken string
}

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()
	kit.Setup(r, deps.Log, deps.Service, deps.Metrics, deps.MetricsToken)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.log().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(AuthJWT(deps.JWT, auth.RoleCustomer))
		pr.Post("/orders", s.CreateHandler())
		pr.Get("/orders", s.ListHandler())
		pr.Get("/orders/{id}", s.GetHandler())
	})

	return r
}
