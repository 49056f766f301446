package collector

import (
	"context"
	"fmt"
	"time"

	"TradeHelper/internal/calculator"
	"TradeHelper/internal/model"

	"github.com/sirupsen/logrus"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Ticks []model.Tick
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchTicks(_ context.Context, _ string, iv model.Interval) ([]model.Tick, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Ticks != nil {
		return m.Ticks, nil
	}
	step := 24 * time.Hour
	if iv == model.IntervalMinute {
		step = time.Minute
	}
	return generateMockTicks(m.Price, 90, step), nil
}

func generateMockTicks(basePrice float64, count int, step time.Duration) []model.Tick {
	end := time.Now().UTC().Truncate(step)
	ticks := make([]model.Tick, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		ticks[i] = model.Tick{
			Time:   end.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return ticks
}

// Series is the fetched raw ticks alongside their resampled buckets.
type Series struct {
	Symbol   string         `json:"symbol"`
	Interval model.Interval `json:"interval"`
	Ticks    []model.Tick   `json:"-"`
	Buckets  []model.Bucket `json:"buckets"`
}

// LastPrice is the close of the most recent tick.
func (s *Series) LastPrice() float64 {
	if len(s.Ticks) == 0 {
		return 0
	}
	return s.Ticks[len(s.Ticks)-1].Close
}

// Collector orchestrates data fetching and resampling.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Collect fetches ticks for symbol and resamples them into iv buckets.
func (c *Collector) Collect(ctx context.Context, symbol string, iv model.Interval) (*Series, error) {
	ticks, err := c.Fetcher.FetchTicks(ctx, symbol, iv)
	if err != nil {
		return nil, fmt.Errorf("fetch %s ticks from %s: %w", iv, c.Fetcher.Name(), err)
	}
	window := calculator.LastTicks(ticks, len(ticks))
	if len(window) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	series := &Series{
		Symbol:   symbol,
		Interval: iv,
		Ticks:    window,
		Buckets:  calculator.Buckets(window, iv),
	}
	logrus.WithFields(logrus.Fields{
		"symbol":  symbol,
		"source":  c.Fetcher.Name(),
		"ticks":   len(window),
		"buckets": len(series.Buckets),
	}).Debug("collected market data")
	return series, nil
}
