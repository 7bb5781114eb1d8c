package main

import (
	"context"

	"go.uber.org/zap"

	"Storefront/internal/auth"
	"Storefront/pkg/kit"
)

type config struct {
	kit.BaseConfig

	Port        string `env:"PORT" envDefault:"8081"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	DatabaseURL string `env:"DATABASE_URL"`
}

func main() {
	const service = "auth"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	var store auth.UserStore = auth.NewMemStore()
	if cfg.DatabaseURL != "" {
		db, err := kit.OpenPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres unavailable", zap.Error(err))
		}
		defer db.Close()

		pg := auth.NewPostgresStore(db)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatal("users schema", zap.Error(err))
		}
		store = pg
	} else {
		log.Warn("DATABASE_URL not set, users are kept in memory")
	}

	s := &auth.Server{
		Log:   log,
		Store: store,
		JWT:   auth.NewTokenMaker(cfg.JWTSecret),
	}

	h := auth.NewHandler(s, auth.HTTPDeps{
		Log:          log,
		Service:      service,
		Metrics:      cfg.NewServiceMetrics(),
		MetricsToken: cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
