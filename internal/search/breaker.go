package search

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/chchsunny/PcWeb/internal/catalog"
)

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.5,
		MinRequests:      5,
	}
}

// Breaker guards index queries with a circuit breaker. While it is open,
// Search fails immediately with gobreaker.ErrOpenState and callers take
// their fallback path without waiting on a dead index. Writes pass through.
type Breaker struct {
	catalog.SearchIndex
	cb *gobreaker.CircuitBreaker
}

func NewBreaker(next catalog.SearchIndex, cfg BreakerConfig, log *zap.Logger) *Breaker {
	if log == nil {
		log = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "search-index",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Breaker{SearchIndex: next, cb: cb}
}

func (b *Breaker) Search(ctx context.Context, q string, size int) ([]catalog.Part, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.SearchIndex.Search(ctx, q, size)
	})
	if err != nil {
		return nil, err
	}
	return v.([]catalog.Part), nil
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
