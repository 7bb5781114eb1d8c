package kit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerConfig struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32

	// IsSuccessful decides which errors count against the breaker. Business
	// rejections (404, 400) should not trip it.
	IsSuccessful func(err error) bool
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// NewBreaker builds a circuit breaker that logs state changes and, when a
// gauge is given, exports the current state.
func NewBreaker[T any](cfg BreakerConfig, log *zap.Logger, gauge *prometheus.GaugeVec) *gobreaker.CircuitBreaker[T] {
	if log == nil {
		log = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			if gauge != nil {
				gauge.WithLabelValues(name).Set(breakerStateValue(to))
			}
		},
	}

	if gauge != nil {
		gauge.WithLabelValues(cfg.Name).Set(0)
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}
