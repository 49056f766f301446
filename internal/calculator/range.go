package calculator

import (
	"errors"
	"math"

	"TradeHelper/internal/model"

	"github.com/sirupsen/logrus"
)

// SessionRange returns the highest high and lowest low across the ticks.
func SessionRange(ticks []model.Tick) (high, low float64, err error) {
	if len(ticks) == 0 {
		return 0, 0, errors.New("no ticks provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, t := range ticks {
		if t.High > high {
			high = t.High
		}
		if t.Low < low {
			low = t.Low
		}
	}
	return high, low, nil
}

// PriceChangePercent is (lastClose - firstOpen) / firstOpen * 100 over the window.
func PriceChangePercent(ticks []model.Tick) (float64, error) {
	if len(ticks) == 0 {
		return 0, errors.New("no ticks provided")
	}
	first := ticks[0].Open
	if first == 0 {
		return 0, errors.New("first open is zero")
	}
	last := ticks[len(ticks)-1].Close
	return (last - first) / first * 100, nil
}

// Summarize computes the prompt indicators for an analysis window.
// Individual failures fall back to neutral values.
func Summarize(window []model.Tick) model.Indicators {
	ind := model.Indicators{}
	if len(window) == 0 {
		return ind
	}
	ind.CurrentPrice = window[len(window)-1].Close

	if chg, err := PriceChangePercent(window); err != nil {
		logrus.Warnf("price change calculation failed: %v", err)
	} else {
		ind.PriceChange = chg
	}

	if rsi, err := CalculateRSI(window, 14); err != nil {
		ind.RSI = 50
	} else {
		ind.RSI = rsi
	}

	if sma, err := MovingAverage(window, 20); err != nil {
		ind.SMA = ind.CurrentPrice
	} else {
		ind.SMA = sma
	}

	if h, l, err := SessionRange(window); err != nil {
		ind.SessionHigh, ind.SessionLow = ind.CurrentPrice, ind.CurrentPrice
	} else {
		ind.SessionHigh, ind.SessionLow = h, l
	}
	return ind
}
