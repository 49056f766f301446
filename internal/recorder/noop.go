package recorder

import (
	"context"

	"TradeHelper/internal/model"

	"github.com/google/uuid"
)

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBuy(_ context.Context, rec *model.TradeRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	return nil
}

func (n *NoopRecorder) RecordSell(_ context.Context, _ Sale) error { return nil }

func (n *NoopRecorder) RecentTrades(_ context.Context, _, _ string, _ int) ([]model.TradeRecord, error) {
	return nil, nil
}

func (n *NoopRecorder) Close() error { return nil }
