package main

import (
	"context"

	"go.uber.org/zap"

	"Storefront/internal/auth"
	"Storefront/internal/catalog"
	"Storefront/internal/order"
	"Storefront/pkg/kit"
)

type config struct {
	kit.BaseConfig

	Port        string `env:"PORT" envDefault:"8083"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	CatalogURL  string `env:"CATALOG_URL" envDefault:"http://localhost:8082"`
	DatabaseURL string `env:"DATABASE_URL"`
}

func main() {
	const service = "order"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	metrics := cfg.NewServiceMetrics()

	store := order.NewStore()
	if cfg.DatabaseURL != "" {
		db, err := kit.OpenPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres unavailable", zap.Error(err))
		}
		defer db.Close()

		pg := order.NewPostgresStore(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatal("orders schema", zap.Error(err))
		}
		store = pg
	}

	bcfg := kit.DefaultBreakerConfig("catalog")
	bcfg.IsSuccessful = catalog.BreakerSuccess

	cat := catalog.NewClient(cfg.CatalogURL)
	cat.Breaker = kit.NewBreaker[catalog.Product](bcfg, log, metrics.BreakerGauge())

	s := &order.Server{Store: store, Catalog: cat, Log: log}

	h := order.NewHandler(s, order.HTTPDeps{
		Log:          log,
		Service:      service,
		JWT:          auth.NewTokenMaker(cfg.JWTSecret),
		Metrics:      metrics,
		MetricsToken: cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
