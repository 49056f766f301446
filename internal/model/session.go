package model

import "time"

// TradeParams are the user-supplied investment goals for a session.
type TradeParams struct {
	InvestmentAmount float64 `json:"investmentAmount"`
	TargetProfit     float64 `json:"targetProfit"`
	StopLossPercent  float64 `json:"stopLossPercent"`
}

// Valid reports whether both investment and target are set.
func (p TradeParams) Valid() bool {
	return p.InvestmentAmount > 0 && p.TargetProfit > 0
}

// Session is the whole per-user, per-symbol trading state. Callers outside the
// session manager only ever see copies.
type Session struct {
	UserID       string         `json:"user_id"`
	Symbol       string         `json:"symbol"`
	Params       TradeParams    `json:"params"`
	Bought       bool           `json:"bought"`
	EntryPrice   float64        `json:"entry_price"`
	TradeID      string         `json:"trade_id,omitempty"`
	CurrentPrice float64        `json:"current_price"`
	LastAnalysis *Analysis      `json:"last_analysis,omitempty"`
	LastAction   PositionAction `json:"last_action,omitempty"`
	Polling      bool           `json:"polling"`
	// Revision changes whenever the goals or the position change.
	Revision  uint64    `json:"revision"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key identifies a session.
func (s Session) Key() string { return SessionKey(s.UserID, s.Symbol) }

// SessionKey builds the map key for a user and symbol.
func SessionKey(userID, symbol string) string { return userID + "/" + symbol }

// Position returns the open position, or nil when nothing is bought.
func (s Session) Position() *Position {
	if !s.Bought {
		return nil
	}
	return &Position{
		EntryPrice:         s.EntryPrice,
		CurrentPrice:       s.CurrentPrice,
		InvestedAmount:     s.Params.InvestmentAmount,
		TargetProfitAmount: s.Params.TargetProfit,
		StopLossPercent:    s.Params.StopLossPercent,
	}
}
