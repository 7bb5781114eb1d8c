package kit

import (
	"testing"
	"time"
)

type testConfig struct {
	BaseConfig
	Port string `env:"PORT" envDefault:"8084"`
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	var cfg testConfig
	if err := LoadConfig(&cfg); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8084" {
		t.Fatalf("port=%s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level=%s", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("shutdown timeout=%s", cfg.ShutdownTimeout)
	}
	if !cfg.MetricsEnabled {
		t.Fatalf("metrics must default to enabled")
	}
}

func TestLoadConfig_BadValue(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	var cfg testConfig
	if err := LoadConfig(&cfg); err == nil {
		t.Fatalf("expected parse error")
	}
}
