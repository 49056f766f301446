package calculator

import (
	"errors"

	"TradeHelper/internal/model"
)

var errPeriod = errors.New("period must be positive")

func closesOf(ticks []model.Tick) []float64 {
	out := make([]float64, len(ticks))
	for i, t := range ticks {
		out[i] = t.Close
	}
	return out
}

// MovingAverage is the mean close of the trailing period ticks. A window
// shorter than period is averaged whole.
func MovingAverage(ticks []model.Tick, period int) (float64, error) {
	if period <= 0 {
		return 0, errPeriod
	}
	if len(ticks) == 0 {
		return 0, errors.New("no ticks provided")
	}
	tail := ticks[max(0, len(ticks)-period):]
	var sum float64
	for _, c := range closesOf(tail) {
		sum += c
	}
	return sum / float64(len(tail)), nil
}

// CalculateRSI is Wilder's relative strength index. Windows with fewer than
// period+1 ticks read as neutral (50).
func CalculateRSI(ticks []model.Tick, period int) (float64, error) {
	if period <= 0 {
		return 0, errPeriod
	}
	if len(ticks) <= period {
		return 50, nil
	}

	closes := closesOf(ticks)
	n := float64(period)
	var gain, loss float64
	for i := 1; i < len(closes); i++ {
		up, down := split(closes[i] - closes[i-1])
		if i <= period {
			gain += up / n
			loss += down / n
			continue
		}
		gain = (gain*(n-1) + up) / n
		loss = (loss*(n-1) + down) / n
	}

	if loss == 0 {
		return 100, nil
	}
	return 100 - 100/(1+gain/loss), nil
}

// split separates a price change into its gain and loss parts.
func split(delta float64) (up, down float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}
