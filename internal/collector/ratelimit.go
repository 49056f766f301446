package collector

import (
	"context"

	"TradeHelper/internal/model"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped fetcher.
type RateLimited struct {
	Fetcher Fetcher
	Limiter *rate.Limiter
}

// NewRateLimited allows requestsPerSecond sustained calls with the given burst.
func NewRateLimited(f Fetcher, requestsPerSecond float64, burst int) *RateLimited {
	return &RateLimited{
		Fetcher: f,
		Limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (r *RateLimited) Name() string { return r.Fetcher.Name() }

func (r *RateLimited) FetchTicks(ctx context.Context, symbol string, iv model.Interval) ([]model.Tick, error) {
	if err := r.Limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.Fetcher.FetchTicks(ctx, symbol, iv)
}
