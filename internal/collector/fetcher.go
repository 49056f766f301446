package collector

import (
	"context"
	"errors"

	"TradeHelper/internal/model"
)

// ErrNoData is returned when the provider has no usable ticks for a symbol.
var ErrNoData = errors.New("no market data")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchTicks returns raw ticks at iv's source granularity covering iv's lookback.
	FetchTicks(ctx context.Context, symbol string, iv model.Interval) ([]model.Tick, error)
	Name() string
}
