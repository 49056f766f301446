package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"TradeHelper/internal/model"
)

const defaultYahooURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: defaultYahooURL,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
			"NDX":   "^NDX",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Quote arrays are parallel to Timestamp and hold nulls for missing bars.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

func (f *YahooFetcher) FetchTicks(ctx context.Context, symbol string, iv model.Interval) ([]model.Tick, error) {
	base := f.BaseURL
	if base == "" {
		base = defaultYahooURL
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s",
		base, url.PathEscape(f.yahooSymbol(symbol)), iv.FetchRange(), iv.SourceInterval())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 ||
		len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	ticks := make([]model.Tick, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		c, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue // market closed or halted
		}
		v, _ := at(quote.Volume, i)
		ticks = append(ticks, model.Tick{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: v,
		})
	}
	if len(ticks) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}

	slices.SortStableFunc(ticks, func(a, b model.Tick) int { return a.Time.Compare(b.Time) })
	return ticks, nil
}
