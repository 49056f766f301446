package strategy

import (
	"TradeHelper/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Snapshot holds the derived quantities of an open position.
type Snapshot struct {
	SharesOwned        int64   `json:"sharesOwned"`
	CurrentValue       float64 `json:"currentValue"`
	CurrentProfit      float64 `json:"currentProfit"`
	ProfitPercent      float64 `json:"profitPercent"`
	CurrentLossPercent float64 `json:"currentLossPercent"`
}

type derived struct {
	shares  decimal.Decimal
	value   decimal.Decimal
	profit  decimal.Decimal
	lossPct decimal.Decimal
}

func derive(p *model.Position) derived {
	entry := decimal.NewFromFloat(p.EntryPrice)
	current := decimal.NewFromFloat(p.CurrentPrice)
	invested := decimal.NewFromFloat(p.InvestedAmount)

	shares := invested.Div(entry).Floor()
	value := shares.Mul(current)
	return derived{
		shares:  shares,
		value:   value,
		profit:  value.Sub(invested),
		lossPct: entry.Sub(current).Div(entry).Mul(hundred),
	}
}

// Describe returns the derived quantities, or a zero Snapshot when the
// position cannot be evaluated.
func Describe(p *model.Position) Snapshot {
	if p == nil || p.EntryPrice <= 0 || p.InvestedAmount <= 0 {
		return Snapshot{}
	}
	d := derive(p)
	invested := decimal.NewFromFloat(p.InvestedAmount)

	snap := Snapshot{SharesOwned: d.shares.IntPart()}
	snap.CurrentValue, _ = d.value.Round(2).Float64()
	snap.CurrentProfit, _ = d.profit.Round(2).Float64()
	snap.ProfitPercent, _ = d.profit.Div(invested).Mul(hundred).Round(2).Float64()
	snap.CurrentLossPercent, _ = d.lossPct.Round(4).Float64()
	return snap
}
