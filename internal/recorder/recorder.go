package recorder

import (
	"context"
	"errors"
	"time"

	"TradeHelper/internal/model"
)

// ErrTradeNotFound is returned when a sell refers to an unknown trade.
var ErrTradeNotFound = errors.New("trade not found")

// Sale closes a previously recorded buy.
type Sale struct {
	TradeID      string
	SellPrice    float64
	ActualProfit float64
	SoldAt       time.Time
}

// Recorder persists simulated trades so later analyses can learn from them.
type Recorder interface {
	// RecordBuy inserts an open trade. rec.ID is generated when empty.
	RecordBuy(ctx context.Context, rec *model.TradeRecord) error
	// RecordSell closes the trade with the realized profit.
	RecordSell(ctx context.Context, sale Sale) error
	// RecentTrades returns up to limit trades for the user and symbol, newest first.
	RecentTrades(ctx context.Context, userID, symbol string, limit int) ([]model.TradeRecord, error)
	Close() error
}
