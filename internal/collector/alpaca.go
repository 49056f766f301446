package collector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeHelper/internal/model"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaFetcher implements Fetcher on top of the Alpaca market data API.
type AlpacaFetcher struct {
	client *marketdata.Client
	now    func() time.Time
}

// NewAlpacaFetcher creates a fetcher authenticated with the given key pair.
func NewAlpacaFetcher(apiKey, apiSecret string) *AlpacaFetcher {
	return &AlpacaFetcher{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
		now: time.Now,
	}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

// lookback translates an interval's fetch range into a start time.
func lookback(iv model.Interval, now time.Time) time.Time {
	switch iv.FetchRange() {
	case "1y":
		return now.AddDate(-1, 0, 0)
	case "5y":
		return now.AddDate(-5, 0, 0)
	case "max":
		return now.AddDate(-20, 0, 0)
	default:
		return now.Add(-24 * time.Hour)
	}
}

func timeFrame(iv model.Interval) marketdata.TimeFrame {
	if iv.SourceInterval() == "1m" {
		return marketdata.OneMin
	}
	return marketdata.OneDay
}

func (f *AlpacaFetcher) FetchTicks(ctx context.Context, symbol string, iv model.Interval) ([]model.Tick, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := f.now()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	bars, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: timeFrame(iv),
		Start:     lookback(iv, now),
		End:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpaca %s: %w", symbol, ErrNoData)
	}

	ticks := make([]model.Tick, 0, len(bars))
	for _, b := range bars {
		ticks = append(ticks, model.Tick{
			Time:   b.Timestamp.UTC(),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: float64(b.Volume),
		})
	}
	return ticks, nil
}
