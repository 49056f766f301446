package model

import "time"

// TradeRecord is one simulated trade, kept as context for future prompts.
type TradeRecord struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Symbol           string     `json:"symbol"`
	Action           Action     `json:"action"`
	BuyPrice         *float64   `json:"buyPrice,omitempty"`
	SellPrice        *float64   `json:"sellPrice,omitempty"`
	InvestedAmount   float64    `json:"investmentAmount"`
	TargetProfit     float64    `json:"targetProfit"`
	StopLossPercent  float64    `json:"stopLossPercent"`
	ActualProfit     *float64   `json:"actualProfit,omitempty"`
	AIRecommendation Action     `json:"aiRecommendation"`
	AIConfidence     float64    `json:"aiConfidence"`
	BoughtAt         *time.Time `json:"boughtAt,omitempty"`
	SoldAt           *time.Time `json:"soldAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Outcome labels a closed trade by the sign of its realized profit.
func (r TradeRecord) Outcome() string {
	if r.ActualProfit == nil {
		return ""
	}
	if *r.ActualProfit >= 0 {
		return "WIN"
	}
	return "LOSS"
}
