package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TradeHelper/internal/model"
)

var (
	_ Recorder = (*SQLiteRecorder)(nil)
	_ Recorder = (*PostgresRecorder)(nil)
	_ Recorder = (*NoopRecorder)(nil)
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "trades.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func ptr(v float64) *float64 { return &v }

func TestSQLiteRecorder_BuyThenSell(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()
	bought := time.Date(2025, 3, 12, 14, 31, 0, 0, time.UTC)

	rec := &model.TradeRecord{
		UserID:           "u1",
		Symbol:           "aapl",
		Action:           model.ActionBuy,
		BuyPrice:         ptr(100),
		InvestedAmount:   1000,
		TargetProfit:     50,
		StopLossPercent:  5,
		AIRecommendation: model.ActionBuy,
		AIConfidence:     80,
		BoughtAt:         &bought,
	}
	if err := r.RecordBuy(ctx, rec); err != nil {
		t.Fatalf("record buy: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected generated id")
	}

	if err := r.RecordSell(ctx, Sale{TradeID: rec.ID, SellPrice: 106, ActualProfit: 60, SoldAt: bought.Add(time.Hour)}); err != nil {
		t.Fatalf("record sell: %v", err)
	}

	trades, err := r.RecentTrades(ctx, "u1", "AAPL", 10)
	if err != nil {
		t.Fatalf("recent trades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	got := trades[0]
	if got.Action != model.ActionSell || got.Symbol != "AAPL" {
		t.Errorf("unexpected trade %+v", got)
	}
	if got.SellPrice == nil || *got.SellPrice != 106 {
		t.Errorf("expected sell price 106, got %v", got.SellPrice)
	}
	if got.Outcome() != "WIN" {
		t.Errorf("expected WIN, got %q", got.Outcome())
	}
	if got.BoughtAt == nil || !got.BoughtAt.Equal(bought) {
		t.Errorf("expected bought_at %v, got %v", bought, got.BoughtAt)
	}
}

func TestSQLiteRecorder_RecentTradesOrderAndScope(t *testing.T) {
	r := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 12; i++ {
		rec := &model.TradeRecord{UserID: "u1", Symbol: "MSFT", Action: model.ActionBuy, BuyPrice: ptr(float64(300 + i)), CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := r.RecordBuy(ctx, rec); err != nil {
			t.Fatalf("record buy: %v", err)
		}
	}
	other := &model.TradeRecord{UserID: "u2", Symbol: "MSFT", Action: model.ActionBuy, CreatedAt: base.Add(48 * time.Hour)}
	if err := r.RecordBuy(ctx, other); err != nil {
		t.Fatalf("record buy: %v", err)
	}

	trades, err := r.RecentTrades(ctx, "u1", "msft", 10)
	if err != nil {
		t.Fatalf("recent trades: %v", err)
	}
	if len(trades) != 10 {
		t.Fatalf("expected 10 trades, got %d", len(trades))
	}
	if *trades[0].BuyPrice != 311 {
		t.Errorf("expected newest trade first, got buy price %.0f", *trades[0].BuyPrice)
	}
	for _, tr := range trades {
		if tr.UserID != "u1" {
			t.Errorf("trade from another user leaked: %+v", tr)
		}
		if tr.SellPrice != nil || tr.Outcome() != "" {
			t.Errorf("open trade should have no sell data: %+v", tr)
		}
	}
}

func TestSQLiteRecorder_SellUnknown(t *testing.T) {
	r := openTestDB(t)
	err := r.RecordSell(context.Background(), Sale{TradeID: "missing", SellPrice: 1, SoldAt: time.Now()})
	if !errors.Is(err, ErrTradeNotFound) {
		t.Errorf("expected ErrTradeNotFound, got %v", err)
	}
}

func TestEnsureSSLModeRequire(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://u:p@db.example.com:5432/app", "sslmode=require"},
		{"postgres://u:p@localhost/app?sslmode=disable", "sslmode=disable"},
	}
	for _, tt := range tests {
		if got := ensureSSLModeRequire(tt.in); !strings.Contains(got, tt.want) {
			t.Errorf("ensureSSLModeRequire(%q) = %q, want it to contain %q", tt.in, got, tt.want)
		}
	}
}

func TestNoopRecorder(t *testing.T) {
	n := NewNoopRecorder()
	rec := &model.TradeRecord{}
	if err := n.RecordBuy(context.Background(), rec); err != nil || rec.ID == "" {
		t.Errorf("expected id assigned without error, got %q %v", rec.ID, err)
	}
	trades, err := n.RecentTrades(context.Background(), "u", "X", 10)
	if err != nil || len(trades) != 0 {
		t.Errorf("expected no trades, got %v %v", trades, err)
	}
}
