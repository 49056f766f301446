package model

// Indicators holds the technical context computed from the analysis window.
type Indicators struct {
	CurrentPrice float64
	PriceChange  float64 // percent over the window
	RSI          float64
	SMA          float64
	SessionHigh  float64
	SessionLow   float64
}
