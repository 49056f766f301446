package notifier

import (
	"fmt"
	"html"
	"strings"

	"TradeHelper/internal/model"
	"TradeHelper/internal/strategy"
)

// FormatPositionAlert formats a SELL_PROFIT / SELL_LOSS signal for Telegram.
func FormatPositionAlert(s model.Session, snap strategy.Snapshot) string {
	var b strings.Builder

	switch s.LastAction {
	case model.PositionSellProfit:
		fmt.Fprintf(&b, "🎯 <b>Target reached</b> | %s\n\n", html.EscapeString(s.Symbol))
	case model.PositionSellLoss:
		fmt.Fprintf(&b, "🛑 <b>Stop loss hit</b> | %s\n\n", html.EscapeString(s.Symbol))
	default:
		fmt.Fprintf(&b, "ℹ️ <b>%s</b> | %s\n\n", s.LastAction, html.EscapeString(s.Symbol))
	}

	fmt.Fprintf(&b, "Entry: $%.2f | Current: $%.2f\n", s.EntryPrice, s.CurrentPrice)
	fmt.Fprintf(&b, "Shares: %d | Value: $%.2f\n", snap.SharesOwned, snap.CurrentValue)
	fmt.Fprintf(&b, "P/L: %+.2f (%+.2f%%)\n", snap.CurrentProfit, snap.ProfitPercent)
	fmt.Fprintf(&b, "Target: $%.2f | Stop: %.1f%%\n", s.Params.TargetProfit, s.Params.StopLossPercent)

	if a := s.LastAnalysis; a != nil {
		fmt.Fprintf(&b, "\nAI: %s (%.0f%%)", a.Recommendation.Action, a.Recommendation.Confidence)
		if a.IsFallback() {
			b.WriteString(" [fallback]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSessionList renders every tracked session with its countdown.
func FormatSessionList(sessions []model.Session, countdowns map[string]int) string {
	if len(sessions) == 0 {
		return "No active sessions."
	}
	var b strings.Builder
	b.WriteString("📋 <b>Sessions</b>\n\n")
	for _, s := range sessions {
		state := "watching"
		if s.Bought {
			state = fmt.Sprintf("holding @ $%.2f", s.EntryPrice)
		}
		fmt.Fprintf(&b, "• %s (%s): $%.2f, %s", html.EscapeString(s.Symbol), html.EscapeString(s.UserID), s.CurrentPrice, state)
		if s.Polling {
			fmt.Fprintf(&b, ", next in %ds", countdowns[s.Key()])
		}
		if s.LastAnalysis != nil {
			fmt.Fprintf(&b, ", AI %s", s.LastAnalysis.Recommendation.Action)
		}
		b.WriteString("\n")
	}
	return b.String()
}
