package strategy

import (
	"TradeHelper/internal/model"

	"github.com/shopspring/decimal"
)

// Evaluate decides whether an open position should be held or closed.
// The profit check runs first, so a price that breaches both thresholds
// resolves to SELL_PROFIT.
func Evaluate(p *model.Position) model.PositionAction {
	if !complete(p) {
		return model.PositionHold
	}
	d := derive(p)

	if d.profit.GreaterThanOrEqual(decimal.NewFromFloat(p.TargetProfitAmount)) {
		return model.PositionSellProfit
	}
	if d.lossPct.GreaterThanOrEqual(decimal.NewFromFloat(p.StopLossPercent)) {
		return model.PositionSellLoss
	}
	return model.PositionHold
}

// complete reports whether every input the rules depend on is present.
// A zero threshold is what an omitted field decodes to, so it counts as unset.
func complete(p *model.Position) bool {
	if p == nil {
		return false
	}
	return p.EntryPrice > 0 &&
		p.CurrentPrice > 0 &&
		p.InvestedAmount > 0 &&
		p.TargetProfitAmount > 0 &&
		p.StopLossPercent > 0
}
