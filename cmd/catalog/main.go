package main

import (
	"context"

	"go.uber.org/zap"

	"Storefront/internal/catalog"
	"Storefront/pkg/kit"
)

type config struct {
	kit.BaseConfig

	Port        string `env:"PORT" envDefault:"8082"`
	DatabaseURL string `env:"DATABASE_URL"`
}

func main() {
	const service = "catalog"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	store := catalog.NewStore()
	if cfg.DatabaseURL != "" {
		db, err := kit.OpenPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres unavailable", zap.Error(err))
		}
		defer db.Close()

		pg := catalog.NewPostgresStore(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatal("products schema", zap.Error(err))
		}
		store = pg
	}

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:          log,
		Service:      service,
		Metrics:      cfg.NewServiceMetrics(),
		MetricsToken: cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
