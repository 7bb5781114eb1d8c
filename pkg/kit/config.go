package kit

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/prometheus/client_golang/prometheus"
)

// BaseConfig carries the settings shared by every service. Service configs
// embed it next to their own fields.
type BaseConfig struct {
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsToken    string        `env:"METRICS_TOKEN"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadConfig fills cfg from environment variables using its env tags.
func LoadConfig(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// NewServiceMetrics returns request metrics on a fresh registry, or nil when
// metrics are disabled.
func (c BaseConfig) NewServiceMetrics() *Metrics {
	if !c.MetricsEnabled {
		return nil
	}
	return NewMetrics(prometheus.NewRegistry())
}
