package main

import (
	"go.uber.org/zap"

	"Storefront/internal/gateway"
	"Storefront/pkg/kit"
)

type config struct {
	kit.BaseConfig

	Port          string `env:"PORT" envDefault:"8080"`
	JWTSecret     string `env:"JWT_SECRET,required"`
	AuthURL       string `env:"AUTH_URL" envDefault:"http://auth:8081"`
	CatalogURL    string `env:"CATALOG_URL" envDefault:"http://catalog:8082"`
	OrderURL      string `env:"ORDER_URL" envDefault:"http://order:8083"`
	StorefrontURL string `env:"STOREFRONT_URL" envDefault:"http://storefront:8084"`
}

func main() {
	const service = "gateway"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 chars")
	}

	h, err := gateway.NewHandler(gateway.Deps{
		JWTSecret:     cfg.JWTSecret,
		AuthURL:       cfg.AuthURL,
		CatalogURL:    cfg.CatalogURL,
		OrderURL:      cfg.OrderURL,
		StorefrontURL: cfg.StorefrontURL,
	}, gateway.HTTPDeps{
		Log:          log,
		Service:      service,
		Metrics:      cfg.NewServiceMetrics(),
		MetricsToken: cfg.MetricsToken,
	})
	if err != nil {
		log.Fatal("init gateway handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
