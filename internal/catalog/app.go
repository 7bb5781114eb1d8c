package catalog

import (
	"net/http"

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

func NewHandler(s *Server, deps HTTPDeps) http.Handler {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if s.Log == nil {
		s.Log = deps.Log
	}

	r := chi.NewRouter()
	kit.Setup(r, deps.Log, deps.Service, deps.Metrics, deps.MetricsToken)

	r.Mount("/", s.Routes())
	return r
}
