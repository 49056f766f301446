package strategy

import (
	"testing"

	"TradeHelper/internal/model"
)

func position(entry, current float64) *model.Position {
	return &model.Position{
		EntryPrice:         entry,
		CurrentPrice:       current,
		InvestedAmount:     1000,
		TargetProfitAmount: 50,
		StopLossPercent:    5,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name string
		pos  *model.Position
		want model.PositionAction
	}{
		{"target reached", position(100, 110), model.PositionSellProfit},
		{"stop loss breached", position(100, 94), model.PositionSellLoss},
		{"inside band", position(100, 102), model.PositionHold},
		{"loss exactly at stop", position(100, 95), model.PositionSellLoss},
		{"profit exactly at target", position(100, 105), model.PositionSellProfit},
		{"nil position", nil, model.PositionHold},
		{"no entry price", position(0, 110), model.PositionHold},
		{"no current price", position(100, 0), model.PositionHold},
		{"no stop loss", &model.Position{EntryPrice: 100, CurrentPrice: 90, InvestedAmount: 1000, TargetProfitAmount: 50, StopLossPercent: -1}, model.PositionHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.pos); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEvaluate_UnsetThresholds(t *testing.T) {
	tests := []struct {
		name         string
		target, stop float64
		current      float64
	}{
		{"zero stop at entry", 50, 0, 100},
		{"zero stop below entry", 50, 0, 90},
		{"zero target above entry", 0, 5, 120},
		{"both zero", 0, 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &model.Position{
				EntryPrice:         100,
				CurrentPrice:       tt.current,
				InvestedAmount:     1000,
				TargetProfitAmount: tt.target,
				StopLossPercent:    tt.stop,
			}
			if got := Evaluate(p); got != model.PositionHold {
				t.Errorf("expected HOLD, got %s", got)
			}
		})
	}
}

func TestEvaluate_FlooredShares(t *testing.T) {
	// 299 buys no share at 300, so the profit is -299 and only the loss rule can fire.
	p := &model.Position{
		EntryPrice:         300,
		CurrentPrice:       290,
		InvestedAmount:     299,
		TargetProfitAmount: 1,
		StopLossPercent:    1,
	}
	if got := Evaluate(p); got != model.PositionSellLoss {
		t.Fatalf("expected SELL_LOSS, got %s", got)
	}
}

func TestDescribe(t *testing.T) {
	snap := Describe(position(100, 110))
	if snap.SharesOwned != 10 {
		t.Errorf("expected 10 shares, got %d", snap.SharesOwned)
	}
	if snap.CurrentValue != 1100 {
		t.Errorf("expected value 1100, got %.2f", snap.CurrentValue)
	}
	if snap.CurrentProfit != 100 {
		t.Errorf("expected profit 100, got %.2f", snap.CurrentProfit)
	}
	if snap.ProfitPercent != 10 {
		t.Errorf("expected 10%%, got %.2f", snap.ProfitPercent)
	}

	loss := Describe(position(100, 94))
	if loss.CurrentLossPercent != 6 {
		t.Errorf("expected loss 6%%, got %.4f", loss.CurrentLossPercent)
	}

	odd := Describe(&model.Position{EntryPrice: 33, CurrentPrice: 33, InvestedAmount: 100})
	if odd.SharesOwned != 3 {
		t.Errorf("expected shares floored to 3, got %d", odd.SharesOwned)
	}

	if (Describe(nil) != Snapshot{}) {
		t.Error("expected zero snapshot for nil position")
	}
}
