package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"Storefront/internal/auth"
	"Storefront/internal/cart"
	"Storefront/internal/catalog"
	"Storefront/internal/order"
	"Storefront/internal/storefront"
	"Storefront/pkg/kit"
)

type config struct {
	kit.BaseConfig

	Port       string `env:"PORT" envDefault:"8084"`
	JWTSecret  string `env:"JWT_SECRET,required"`
	CatalogURL string `env:"CATALOG_URL" envDefault:"http://localhost:8082"`
	OrderURL   string `env:"ORDER_URL" envDefault:"http://localhost:8083"`

	CartStore     string `env:"CART_STORE" envDefault:"memory"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_KEY_PREFIX" envDefault:"storefront:"`
	DatabaseURL   string `env:"DATABASE_URL"`
}

func main() {
	const service = "storefront"

	var cfg config
	if err := kit.LoadConfig(&cfg); err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openCartStore(context.Background(), cfg)
	if err != nil {
		log.Fatal("cart store unavailable", zap.String("kind", cfg.CartStore), zap.Error(err))
	}
	defer closeStore()
	log.Info("cart store ready", zap.String("kind", cfg.CartStore))

	metrics := cfg.NewServiceMetrics()

	catCfg := kit.DefaultBreakerConfig("catalog")
	catCfg.IsSuccessful = catalog.BreakerSuccess
	cat := catalog.NewClient(cfg.CatalogURL)
	cat.Breaker = kit.NewBreaker[catalog.Product](catCfg, log, metrics.BreakerGauge())

	ordCfg := kit.DefaultBreakerConfig("order")
	ordCfg.IsSuccessful = order.BreakerSuccess
	orders := order.NewClient(cfg.OrderURL)
	orders.Breaker = kit.NewBreaker[order.Order](ordCfg, log, metrics.BreakerGauge())

	s := &storefront.Server{
		Store:   store,
		Catalog: cat,
		Orders:  orders,
		JWT:     auth.NewTokenMaker(cfg.JWTSecret),
		Log:     log,
	}

	h := storefront.NewHandler(s, storefront.HTTPDeps{
		Log:          log,
		Service:      service,
		Metrics:      metrics,
		MetricsToken: cfg.MetricsToken,
	})

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log, cfg.ShutdownTimeout); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openCartStore(ctx context.Context, cfg config) (cart.Store, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	switch cfg.CartStore {
	case "memory":
		return cart.NewMemStore(), func() {}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := cart.NewRedisStore(client, cfg.RedisPrefix)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, func() { _ = client.Close() }, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("CART_STORE=postgres needs DATABASE_URL")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := cart.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown CART_STORE %q", cfg.CartStore)
	}
}
