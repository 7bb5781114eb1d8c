package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"Storefront/internal/auth"
	"Storefront/pkg/kit"
)

// AuthJWT rejects requests without a valid bearer token before they reach
// an upstream. Role checks stay with the upstream service.
func AuthJWT(jwt *auth.TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, ok := kit.BearerToken(r)
			if !ok {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}
			if _, err := jwt.Parse(tok); err != nil {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewReverseProxy forwards to target, propagating the chi request id so
// upstream logs correlate. Transport failures become a JSON 502.
func NewReverseProxy(target string, log *zap.Logger) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bad upstream url %q", target)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
			if id := chimw.GetReqID(pr.In.Context()); id != "" {
				pr.Out.Header.Set(chimw.RequestIDHeader, id)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, r.Context().Err()) {
				return
			}
			log.Warn("upstream request failed",
				zap.String("upstream", u.Host),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			kit.WriteError(w, r, http.StatusBadGateway, "upstream unavailable", map[string]any{"upstream": u.Host})
		},
	}, nil
}
