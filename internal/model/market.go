package model

import (
	"fmt"
	"math"
	"time"
)

// Tick is a single OHLCV observation as returned by the market-data provider.
// A missing Open (NaN) marks a non-trading gap.
type Tick struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Gap reports whether the tick carries no open price.
func (t Tick) Gap() bool { return math.IsNaN(t.Open) }

// Bucket is the aggregated view of all ticks falling in one interval window.
type Bucket struct {
	Start  time.Time `json:"timestamp"`
	Price  float64   `json:"price"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Volume float64   `json:"volume"`
}

// Interval selects the bucket width used for charting.
type Interval string

const (
	IntervalMinute Interval = "1m"
	IntervalDay    Interval = "1d"
	IntervalWeek   Interval = "1wk"
	IntervalMonth  Interval = "1mo"
	IntervalYear   Interval = "1y"
)

// ParseInterval maps provider interval strings onto an Interval.
func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case IntervalMinute, IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return Interval(s), nil
	case "":
		return IntervalMinute, nil
	}
	return "", fmt.Errorf("unsupported interval %q", s)
}

// Truncate returns the start of the interval window containing t, in t's location.
func (iv Interval) Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch iv {
	case IntervalDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case IntervalWeek:
		// weeks start on Monday
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, 0, 0, 0, 0, loc)
	case IntervalMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case IntervalYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
	}
}

// FetchRange is the provider lookback that goes with an interval.
func (iv Interval) FetchRange() string {
	switch iv {
	case IntervalDay:
		return "1y"
	case IntervalWeek:
		return "5y"
	case IntervalMonth, IntervalYear:
		return "max"
	default:
		return "1d"
	}
}

// SourceInterval is the provider granularity fetched to build buckets of this interval.
func (iv Interval) SourceInterval() string {
	if iv == IntervalMinute {
		return "1m"
	}
	return "1d"
}
