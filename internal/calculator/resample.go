package calculator

import (
	"iter"
	"slices"
	"sync/atomic"
	"time"

	"TradeHelper/internal/model"
)

// MinuteWindow is how many 1-minute buckets are kept for the intraday chart.
const MinuteWindow = 60

// Resample aggregates ticks into interval buckets ordered by bucket start.
// Gap ticks are skipped. Ticks are stably sorted by time first, so the last close
// seen in a bucket is the chronologically last one. For IntervalMinute only the
// most recent MinuteWindow buckets are emitted.
//
// The returned sequence is single-use: ranging over it a second time yields nothing.
func Resample(ticks []model.Tick, iv model.Interval) iter.Seq[model.Bucket] {
	var used atomic.Bool
	return func(yield func(model.Bucket) bool) {
		if used.Swap(true) {
			return
		}
		for _, b := range aggregate(ticks, iv) {
			if !yield(b) {
				return
			}
		}
	}
}

// Buckets collects Resample into a slice.
func Buckets(ticks []model.Tick, iv model.Interval) []model.Bucket {
	out := slices.Collect(Resample(ticks, iv))
	if out == nil {
		return []model.Bucket{}
	}
	return out
}

func aggregate(ticks []model.Tick, iv model.Interval) []model.Bucket {
	sorted := make([]model.Tick, 0, len(ticks))
	for _, t := range ticks {
		if t.Gap() {
			continue
		}
		sorted = append(sorted, t)
	}
	slices.SortStableFunc(sorted, func(a, b model.Tick) int { return a.Time.Compare(b.Time) })

	index := make(map[time.Time]int, len(sorted))
	buckets := make([]model.Bucket, 0, len(sorted))
	for _, t := range sorted {
		start := iv.Truncate(t.Time)
		// key on the instant so equal times in different locations collapse
		key := start.UTC()
		i, ok := index[key]
		if !ok {
			index[key] = len(buckets)
			buckets = append(buckets, model.Bucket{
				Start:  start,
				Price:  t.Close,
				High:   t.High,
				Low:    t.Low,
				Volume: t.Volume,
			})
			continue
		}
		b := &buckets[i]
		if t.High > b.High {
			b.High = t.High
		}
		if t.Low < b.Low {
			b.Low = t.Low
		}
		b.Price = t.Close
		b.Volume += t.Volume
	}

	// sorted input already yields ascending starts; keep the sort for mixed locations
	slices.SortStableFunc(buckets, func(a, b model.Bucket) int { return a.Start.Compare(b.Start) })

	if iv == model.IntervalMinute && len(buckets) > MinuteWindow {
		buckets = buckets[len(buckets)-MinuteWindow:]
	}
	return buckets
}

// LastTicks returns at most n of the most recent ticks, skipping gaps.
func LastTicks(ticks []model.Tick, n int) []model.Tick {
	out := make([]model.Tick, 0, len(ticks))
	for _, t := range ticks {
		if !t.Gap() {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Tick) int { return a.Time.Compare(b.Time) })
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}
