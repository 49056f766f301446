package collector

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"TradeHelper/internal/model"

	"golang.org/x/time/rate"
)

type memStore struct {
	data    map[string][]model.Tick
	getErr  error
	setErrs int
}

func (m *memStore) Get(_ context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return ErrCacheMiss
	}
	*(dest.(*[]model.Tick)) = v
	return nil
}

func (m *memStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if m.data == nil {
		m.data = map[string][]model.Tick{}
	}
	m.data[key] = value.([]model.Tick)
	return nil
}

func TestCollector_Collect(t *testing.T) {
	base := time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC)
	mock := &MockFetcher{Ticks: []model.Tick{
		{Time: base.Add(30 * time.Second), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 5},
		{Time: base, Open: math.NaN(), High: 50, Low: 1, Close: 2},
		{Time: base.Add(90 * time.Second), Open: 10.5, High: 12, Low: 10, Close: 11, Volume: 7},
	}}
	c := NewCollector(mock)

	series, err := c.Collect(context.Background(), "AAPL", model.IntervalMinute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Ticks) != 2 {
		t.Errorf("expected gap tick dropped, got %d ticks", len(series.Ticks))
	}
	if len(series.Buckets) != 2 {
		t.Errorf("expected 2 buckets, got %d", len(series.Buckets))
	}
	if series.LastPrice() != 11 {
		t.Errorf("expected last price 11, got %.2f", series.LastPrice())
	}
}

func TestCollector_NoData(t *testing.T) {
	c := NewCollector(&MockFetcher{Ticks: []model.Tick{}})
	if _, err := c.Collect(context.Background(), "AAPL", model.IntervalDay); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}

	upstream := errors.New("down")
	c = NewCollector(&MockFetcher{Err: upstream})
	if _, err := c.Collect(context.Background(), "AAPL", model.IntervalDay); !errors.Is(err, upstream) {
		t.Errorf("expected wrapped upstream error, got %v", err)
	}
}

func TestCachedFetcher(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	store := &memStore{}
	cf := &CachedFetcher{Fetcher: mock, Store: store, TTL: 10 * time.Second}

	first, err := cf.FetchTicks(context.Background(), "aapl", model.IntervalMinute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cf.FetchTicks(context.Background(), "AAPL", model.IntervalMinute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls != 1 {
		t.Errorf("expected one upstream call, got %d", mock.Calls)
	}
	if len(first) != len(second) {
		t.Errorf("cached reply differs: %d vs %d ticks", len(first), len(second))
	}

	if _, err := cf.FetchTicks(context.Background(), "AAPL", model.IntervalDay); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls != 2 {
		t.Errorf("expected interval to be part of the key, got %d calls", mock.Calls)
	}
}

func TestCachedFetcher_StoreFailureFallsThrough(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	cf := &CachedFetcher{Fetcher: mock, Store: &memStore{getErr: errors.New("connection refused")}, TTL: time.Second}

	ticks, err := cf.FetchTicks(context.Background(), "AAPL", model.IntervalMinute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ticks) == 0 || mock.Calls != 1 {
		t.Errorf("expected upstream fetch, got %d ticks after %d calls", len(ticks), mock.Calls)
	}
}

func TestRateLimited_RespectsContext(t *testing.T) {
	mock := &MockFetcher{Price: 100}
	rl := &RateLimited{Fetcher: mock, Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}

	if _, err := rl.FetchTicks(context.Background(), "AAPL", model.IntervalMinute); err != nil {
		t.Fatalf("first call should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := rl.FetchTicks(ctx, "AAPL", model.IntervalMinute); err == nil {
		t.Error("expected second call to fail while throttled")
	}
	if mock.Calls != 1 {
		t.Errorf("expected one upstream call, got %d", mock.Calls)
	}
}

func TestLookback(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	if got := lookback(model.IntervalMinute, now); !got.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("minute lookback: got %v", got)
	}
	if got := lookback(model.IntervalWeek, now); got.Year() != 2020 {
		t.Errorf("weekly lookback: got %v", got)
	}
}
