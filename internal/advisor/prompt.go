package advisor

import (
	"fmt"
	"math"
	"strings"
	"time"

	"TradeHelper/internal/calculator"
	"TradeHelper/internal/model"
	"TradeHelper/internal/strategy"
)

// SystemPrompt is sent as the system role on every analysis request.
const SystemPrompt = "You are an expert DAY TRADING analyst specializing in INTRADAY technical analysis of candlestick patterns. " +
	"You focus on short-term price movements, momentum, and quick profit opportunities within a single trading day. " +
	"You NEVER recommend holding positions overnight."

// PromptInput is everything the request builder needs, passed by value.
type PromptInput struct {
	Symbol     string
	Window     []model.Tick // most recent last, at most WindowSize
	Params     *model.TradeParams
	Bought     bool
	EntryPrice float64
	History    []model.TradeRecord // most recent first
}

// positionOpen reports whether the position block can be computed.
func (in PromptInput) positionOpen() bool {
	return in.Bought && in.EntryPrice > 0
}

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }

func optionalMoney(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return money(*v)
}

// BuildPrompt assembles the user message for one analysis request.
func BuildPrompt(in PromptInput) string {
	ind := calculator.Summarize(in.Window)
	hasGoals := in.Params != nil && in.Params.Valid()

	var b strings.Builder
	fmt.Fprintf(&b, "You are a DAY TRADING analyst with learning capabilities. "+
		"This is INTRADAY analysis - all positions must be closed TODAY. "+
		"Analyze this 1-minute candlestick data for %s:\n", in.Symbol)

	writeHistory(&b, in.Symbol, in.History)

	fmt.Fprintf(&b, "\nCurrent Price: %s\n", money(ind.CurrentPrice))
	fmt.Fprintf(&b, "Price Change (last %d min): %.2f%%\n", len(in.Window), ind.PriceChange)
	fmt.Fprintf(&b, "RSI(14): %.1f, SMA: %s, Session Range: %s - %s\n",
		ind.RSI, money(ind.SMA), money(ind.SessionLow), money(ind.SessionHigh))

	if hasGoals {
		writeInvestment(&b, in, ind.CurrentPrice)
	}
	if in.Bought {
		b.WriteString("\nBOUGHT MODE ACTIVE\n" +
			"The user has ALREADY INVESTED real money in this position. Your recommendation should ONLY be HOLD or SELL.\n" +
			"- If target profit is reached or close, recommend SELL\n" +
			"- If you detect strong bearish signals that suggest the stock won't reach the target, recommend SELL to minimize losses\n" +
			"- Otherwise, recommend HOLD\n" +
			"Be VERY CAREFUL and CONSERVATIVE. Provide high confidence (80-95%) for clear signals.\n")
	}

	fmt.Fprintf(&b, "\nRecent Candles (last %d minutes):\n", len(in.Window))
	for _, t := range in.Window {
		fmt.Fprintf(&b, "Time: %s, O: %.2f, H: %.2f, L: %.2f, C: %.2f, Vol: %.0f\n",
			t.Time.UTC().Format(time.RFC3339), t.Open, t.High, t.Low, t.Close, t.Volume)
	}

	b.WriteString("\nDAY TRADING RULES:\n" +
		"- All positions MUST be closed before market close (4:00 PM ET)\n" +
		"- Focus on SHORT-TERM price movements and momentum\n" +
		"- Look for quick profit opportunities within the trading day\n" +
		"- Avoid holding positions overnight\n" +
		"- Consider time of day and remaining trading hours\n")

	actions, confidence := "BUY, SELL, or HOLD", "0-100%"
	replyActions := `"BUY" | "SELL" | "HOLD"`
	if in.Bought {
		actions, confidence = "HOLD or SELL", "80-95% - be precise and confident"
		replyActions = `"HOLD" | "SELL"`
	}
	goals := ""
	if hasGoals {
		goals = " and the investment goals"
	}
	fmt.Fprintf(&b, "\nBased on this INTRADAY candlestick pattern analysis%s, provide:\n", goals)
	fmt.Fprintf(&b, "1. A clear %s recommendation FOR TODAY", actions)
	if hasGoals {
		b.WriteString(" considering whether the target profit is realistic within TODAY'S trading session")
	}
	fmt.Fprintf(&b, "\n2. Confidence level (%s)\n", confidence)
	b.WriteString("3. Key technical indicators you observe (focus on short-term momentum, volume, support/resistance)\n")
	b.WriteString("4. Brief reasoning (2-3 sentences) including INTRADAY viability")
	if hasGoals {
		b.WriteString(" and assessment of the target profit feasibility within today's session")
	}

	fmt.Fprintf(&b, "\n\nFormat your response as JSON:\n{\n"+
		"  \"recommendation\": %s,\n"+
		"  \"confidence\": number,\n"+
		"  \"indicators\": string[],\n"+
		"  \"reasoning\": string\n}", replyActions)
	return b.String()
}

func writeInvestment(b *strings.Builder, in PromptInput, current float64) {
	p := in.Params
	basis := current
	if in.positionOpen() {
		basis = in.EntryPrice
	}
	if basis <= 0 {
		return
	}
	shares := math.Floor(p.InvestmentAmount / basis)

	targetPrice, gainNeeded := "N/A", "N/A"
	if shares > 0 && current > 0 {
		tp := basis + p.TargetProfit/shares
		targetPrice = money(tp)
		gainNeeded = fmt.Sprintf("%.2f%%", (tp-current)/current*100)
	}

	if in.positionOpen() {
		snap := strategy.Describe(&model.Position{
			EntryPrice:     in.EntryPrice,
			CurrentPrice:   current,
			InvestedAmount: p.InvestmentAmount,
		})
		b.WriteString("\nACTIVE POSITION (BOUGHT MODE - BE EXTREMELY CAREFUL):\n")
		fmt.Fprintf(b, "- Shares Owned: %d\n", snap.SharesOwned)
		fmt.Fprintf(b, "- Entry Price: %s\n", money(in.EntryPrice))
		fmt.Fprintf(b, "- Current Price: %s\n", money(current))
		fmt.Fprintf(b, "- Investment: %s\n", money(p.InvestmentAmount))
		fmt.Fprintf(b, "- Current Value: %s\n", money(snap.CurrentValue))
		fmt.Fprintf(b, "- Current Profit/Loss: %s (%.2f%%)\n", money(snap.CurrentProfit), snap.ProfitPercent)
		fmt.Fprintf(b, "- Target Profit: %s\n", money(p.TargetProfit))
		fmt.Fprintf(b, "- Target Price: %s\n", targetPrice)
		fmt.Fprintf(b, "- Gain Still Needed: %s\n", gainNeeded)
		b.WriteString("\nCRITICAL: User has real money invested. Analyze carefully whether to HOLD or SELL.\n")
		return
	}

	b.WriteString("\nInvestment Analysis:\n")
	fmt.Fprintf(b, "- Investment Amount: %s\n", money(p.InvestmentAmount))
	fmt.Fprintf(b, "- Shares Purchasable: %.0f\n", shares)
	fmt.Fprintf(b, "- Target Profit: %s\n", money(p.TargetProfit))
	fmt.Fprintf(b, "- Target Price per Share: %s\n", targetPrice)
	fmt.Fprintf(b, "- Gain Needed: %s\n", gainNeeded)
}

func writeHistory(b *strings.Builder, symbol string, history []model.TradeRecord) {
	if len(history) == 0 {
		return
	}
	if len(history) > HistoryLimit {
		history = history[:HistoryLimit]
	}
	fmt.Fprintf(b, "\nHISTORICAL LEARNING DATA FOR %s:\n", symbol)
	fmt.Fprintf(b, "You have access to %d recent trades. Learn from these patterns:\n\n", len(history))

	for i, tr := range history {
		when := tr.CreatedAt
		if tr.BoughtAt != nil {
			when = *tr.BoughtAt
		}
		fmt.Fprintf(b, "Trade %d (%s):\n", i+1, when.Format("2006-01-02"))
		fmt.Fprintf(b, "  - Action: %s\n", tr.Action)
		fmt.Fprintf(b, "  - Buy Price: %s\n", optionalMoney(tr.BuyPrice))
		fmt.Fprintf(b, "  - Sell Price: %s\n", optionalMoney(tr.SellPrice))
		switch tr.Outcome() {
		case "WIN":
			fmt.Fprintf(b, "  - Actual Profit: %s (WIN)\n", money(*tr.ActualProfit))
		case "LOSS":
			fmt.Fprintf(b, "  - Actual Profit: %s (LOSS)\n", money(*tr.ActualProfit))
		default:
			b.WriteString("  - Actual Profit: N/A\n")
		}
		fmt.Fprintf(b, "  - AI Recommendation: %s (%.0f%% confidence)\n", tr.AIRecommendation, tr.AIConfidence)
		fmt.Fprintf(b, "  - Investment: %s\n", money(tr.InvestedAmount))
		fmt.Fprintf(b, "  - Target Profit: %s\n\n", money(tr.TargetProfit))
	}
	b.WriteString("IMPORTANT: Use these past trades to identify what worked and what didn't. Adjust your analysis accordingly.\n")
}
