package gateway

import (
	"context"
	"fmt"
	"io"
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

	// Metrics is optional; nil disables request metrics and /metrics.
	Metrics      *kit.Metrics
	MetricsToken string
}

type Deps struct {
	AuthURL       string
	CatalogURL    string
	OrderURL      string
	StorefrontURL string
	JWTSecret     string
}

type upstream struct {
	name string
	url  string
}

func (d Deps) upstreams() []upstream {
	return []upstream{
		{"auth", d.AuthURL},
		{"catalog", d.CatalogURL},
		{"storefront", d.StorefrontURL},
		{"order", d.OrderURL},
	}
}

const (
	readyTimeout      = 2 * time.Second
	readyProbeTimeout = 700 * time.Millisecond
)

var readyClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	},
}

func NewHandler(deps Deps, httpDeps HTTPDeps) (http.Handler, error) {
	if httpDeps.Log == nil {
		httpDeps.Log = zap.NewNop()
	}

	proxies := make(map[string]http.Handler, 4)
	for _, up := range deps.upstreams() {
		p, err := NewReverseProxy(up.url, httpDeps.Log)
		if err != nil {
			return nil, fmt.Errorf("%s proxy: %w", up.name, err)
		}
		proxies[up.name] = p
	}

	jwt := auth.NewTokenMaker(deps.JWTSecret)

	r := chi.NewRouter()
	kit.Setup(r, httpDeps.Log, httpDeps.Service, httpDeps.Metrics, httpDeps.MetricsToken)

	r.Get("/healthz", healthz)
	r.Get("/readyz", readyz(deps, httpDeps.Log))

	r.Handle("/auth/*", proxies["auth"])

	r.Handle("/products", proxies["catalog"])
	r.Handle("/products/*", proxies["catalog"])
	r.Handle("/categories", proxies["catalog"])

	r.Handle("/cart", proxies["storefront"])
	r.Handle("/cart/*", proxies["storefront"])
	r.Handle("/checkout", proxies["storefront"])

	r.Group(func(pr chi.Router) {
		pr.Use(AuthJWT(jwt))
		pr.Handle("/orders", proxies["order"])
		pr.Handle("/orders/*", proxies["order"])
	})

	return r, nil
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readyz(deps Deps, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, up := range deps.upstreams() {
			if err := checkReady(ctx, up.url+"/readyz"); err != nil {
				log.Warn("readyz failed", zap.String("upstream", up.name), zap.Error(err))
				kit.WriteError(w, r, http.StatusServiceUnavailable, up.name+" not ready", nil)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func checkReady(ctx context.Context, url string) error {
	cctx, cancel := context.WithTimeout(ctx, readyProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(cctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := readyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status=%d", resp.StatusCode)
	}

	return nil
}
