package model

// Action is a trade recommendation label.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Recommendation is the structured reply extracted from the model.
type Recommendation struct {
	Action     Action   `json:"recommendation"`
	Confidence float64  `json:"confidence"`
	Indicators []string `json:"indicators"`
	Reasoning  string   `json:"reasoning"`
}

// AnalysisSource tells a genuine model judgement apart from the safe default.
type AnalysisSource string

const (
	SourceModel    AnalysisSource = "model"
	SourceFallback AnalysisSource = "fallback"
)

// Analysis is the tagged result of parsing a model reply.
type Analysis struct {
	Recommendation Recommendation `json:"analysis"`
	Source         AnalysisSource `json:"source"`
}

// IsFallback reports whether the reply could not be used.
func (a Analysis) IsFallback() bool { return a.Source == SourceFallback }

// FallbackRecommendation is substituted whenever the model reply is unusable.
func FallbackRecommendation() Recommendation {
	return Recommendation{
		Action:     ActionHold,
		Confidence: 50,
		Indicators: []string{"Unable to parse AI response"},
		Reasoning:  "Analysis could not be completed. Please try again.",
	}
}

// PositionAction is the outcome of evaluating an open position.
type PositionAction string

const (
	PositionHold       PositionAction = "HOLD"
	PositionSellProfit PositionAction = "SELL_PROFIT"
	PositionSellLoss   PositionAction = "SELL_LOSS"
)

// Position is a simulated open position being tracked against thresholds.
type Position struct {
	EntryPrice         float64 `json:"entryPrice"`
	CurrentPrice       float64 `json:"currentPrice"`
	InvestedAmount     float64 `json:"investedAmount"`
	TargetProfitAmount float64 `json:"targetProfit"`
	StopLossPercent    float64 `json:"stopLossPercent"`
}
