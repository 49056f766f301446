package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeHelper/internal/calculator"
	"TradeHelper/internal/collector"
	"TradeHelper/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	// WindowSize is how many of the latest minute ticks go into a prompt.
	WindowSize = 30
	// HistoryLimit caps the prior trades included as learning context.
	HistoryLimit = 10
)

// Completer sends a prompt to a text-generation model.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// TradeHistory reads prior trades for prompt context.
type TradeHistory interface {
	RecentTrades(ctx context.Context, userID, symbol string, limit int) ([]model.TradeRecord, error)
}

// Request describes one analysis call.
type Request struct {
	UserID     string
	Symbol     string
	Params     *model.TradeParams
	Bought     bool
	EntryPrice float64
}

// Report is the outcome of one analysis call.
type Report struct {
	Symbol       string       `json:"symbol"`
	CurrentPrice float64      `json:"currentPrice"`
	PriceChange  float64      `json:"priceChange"`
	Candles      []model.Tick `json:"candlestickData"`
	model.Analysis
	Timestamp time.Time `json:"timestamp"`
}

// Advisor runs the fetch, prompt, model and parse pipeline.
type Advisor struct {
	Collector *collector.Collector
	Model     Completer
	History   TradeHistory
	now       func() time.Time
}

// New creates an Advisor. history may be nil.
func New(c *collector.Collector, m Completer, history TradeHistory) *Advisor {
	return &Advisor{Collector: c, Model: m, History: history, now: time.Now}
}

// Analyze fetches the intraday window for req.Symbol and asks the model for a
// recommendation. Upstream failures are returned as errors; an unusable reply
// is not an error and comes back as a fallback Analysis.
func (a *Advisor) Analyze(ctx context.Context, req Request) (*Report, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	log := logrus.WithFields(logrus.Fields{"symbol": symbol, "user": req.UserID})

	series, err := a.Collector.Collect(ctx, symbol, model.IntervalMinute)
	if err != nil {
		return nil, fmt.Errorf("market data: %w", err)
	}
	window := calculator.LastTicks(series.Ticks, WindowSize)
	ind := calculator.Summarize(window)

	var history []model.TradeRecord
	if a.History != nil && req.UserID != "" {
		history, err = a.History.RecentTrades(ctx, req.UserID, symbol, HistoryLimit)
		if err != nil {
			log.Warnf("recent trades unavailable: %v", err)
			history = nil
		}
	}

	prompt := BuildPrompt(PromptInput{
		Symbol:     symbol,
		Window:     window,
		Params:     req.Params,
		Bought:     req.Bought,
		EntryPrice: req.EntryPrice,
		History:    history,
	})

	reply, err := a.Model.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	analysis := ParseReply(reply, req.Bought)
	if analysis.IsFallback() {
		log.Warnf("unusable model reply, using fallback: %.200q", reply)
	} else {
		log.Infof("recommendation %s (%.0f%%)", analysis.Recommendation.Action, analysis.Recommendation.Confidence)
	}

	return &Report{
		Symbol:       symbol,
		CurrentPrice: ind.CurrentPrice,
		PriceChange:  ind.PriceChange,
		Candles:      series.Ticks,
		Analysis:     analysis,
		Timestamp:    a.now().UTC(),
	}, nil
}
