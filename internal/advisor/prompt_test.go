package advisor

import (
	"strings"
	"testing"
	"time"

	"TradeHelper/internal/model"
)

func window(n int, start, step float64) []model.Tick {
	base := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)
	out := make([]model.Tick, n)
	for i := range out {
		p := start + float64(i)*step
		out[i] = model.Tick{Time: base.Add(time.Duration(i) * time.Minute), Open: p, High: p + 0.5, Low: p - 0.5, Close: p + step, Volume: 1000}
	}
	return out
}

func f(v float64) *float64 { return &v }

func TestBuildPrompt_Basics(t *testing.T) {
	p := BuildPrompt(PromptInput{Symbol: "AAPL", Window: window(30, 100, 0.1)})

	for _, want := range []string{
		"data for AAPL",
		"Current Price: $103.00",
		"Price Change (last 30 min): 3.00%",
		"Time: 2025-03-12T14:30:00Z, O: 100.00",
		`"recommendation": "BUY" | "SELL" | "HOLD"`,
		`"indicators": string[]`,
		"DAY TRADING RULES",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	for _, absent := range []string{"Investment Analysis", "ACTIVE POSITION", "HISTORICAL LEARNING"} {
		if strings.Contains(p, absent) {
			t.Errorf("prompt should not contain %q", absent)
		}
	}
}

func TestBuildPrompt_InvestmentGoals(t *testing.T) {
	p := BuildPrompt(PromptInput{
		Symbol: "AAPL",
		Window: window(2, 100, 0), // current price 100
		Params: &model.TradeParams{InvestmentAmount: 1000, TargetProfit: 50},
	})
	for _, want := range []string{
		"Shares Purchasable: 10",
		"Target Price per Share: $105.00",
		"Gain Needed: 5.00%",
		"and the investment goals",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_ZeroSharesOmitsTarget(t *testing.T) {
	p := BuildPrompt(PromptInput{
		Symbol: "BRK.A",
		Window: window(2, 600000, 0),
		Params: &model.TradeParams{InvestmentAmount: 1000, TargetProfit: 50},
	})
	if !strings.Contains(p, "Shares Purchasable: 0") || !strings.Contains(p, "Target Price per Share: N/A") {
		t.Errorf("expected N/A target when no share is affordable:\n%s", p)
	}
}

func TestBuildPrompt_PositionActive(t *testing.T) {
	p := BuildPrompt(PromptInput{
		Symbol:     "AAPL",
		Window:     window(2, 110, 0), // current 110
		Params:     &model.TradeParams{InvestmentAmount: 1000, TargetProfit: 150},
		Bought:     true,
		EntryPrice: 100,
	})
	for _, want := range []string{
		"ACTIVE POSITION",
		"Shares Owned: 10",
		"Entry Price: $100.00",
		"Current Value: $1100.00",
		"Current Profit/Loss: $100.00 (10.00%)",
		"Target Price: $115.00",
		"ONLY be HOLD or SELL",
		`"recommendation": "HOLD" | "SELL"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(p, `"BUY"`) {
		t.Error("position-active prompt must not offer BUY")
	}
}

func TestBuildPrompt_History(t *testing.T) {
	bought := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	history := []model.TradeRecord{
		{Action: model.ActionSell, BuyPrice: f(100), SellPrice: f(104), ActualProfit: f(40), AIRecommendation: model.ActionSell, AIConfidence: 85, InvestedAmount: 1000, TargetProfit: 40, BoughtAt: &bought},
		{Action: model.ActionSell, BuyPrice: f(100), SellPrice: f(95), ActualProfit: f(-50), AIRecommendation: model.ActionHold, AIConfidence: 60, InvestedAmount: 1000, TargetProfit: 40, CreatedAt: bought},
		{Action: model.ActionBuy, BuyPrice: f(99), AIRecommendation: model.ActionBuy, AIConfidence: 70, CreatedAt: bought},
	}
	p := BuildPrompt(PromptInput{Symbol: "AAPL", Window: window(2, 100, 0), History: history})

	for _, want := range []string{
		"You have access to 3 recent trades",
		"Trade 1 (2025-03-10)",
		"Actual Profit: $40.00 (WIN)",
		"Actual Profit: $-50.00 (LOSS)",
		"Sell Price: N/A",
		"AI Recommendation: HOLD (60% confidence)",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Index(p, "(WIN)") > strings.Index(p, "(LOSS)") {
		t.Error("expected trades in the given most-recent-first order")
	}
}

func TestBuildPrompt_HistoryCapped(t *testing.T) {
	history := make([]model.TradeRecord, 15)
	for i := range history {
		history[i] = model.TradeRecord{Action: model.ActionBuy, CreatedAt: time.Now()}
	}
	p := BuildPrompt(PromptInput{Symbol: "AAPL", Window: window(2, 100, 0), History: history})
	if strings.Contains(p, "Trade 11 ") {
		t.Error("expected at most 10 trades")
	}
}
