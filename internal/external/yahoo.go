package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const YahooBaseURL = "https://query1.finance.yahoo.com"

type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
)

func (f Frequency) Interval() string {
	switch f {
	case Weekly:
		return "1wk"
	case Monthly:
		return "1mo"
	default:
		return "1d"
	}
}

func (f Frequency) String() string {
	switch f {
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "daily"
	}
}

// PriceTick is one bar of a Yahoo price history.
type PriceTick struct {
	Date          time.Time
	Open          decimal.Decimal
	High          decimal.Decimal
	Low           decimal.Decimal
	Close         decimal.Decimal
	AdjustedClose decimal.Decimal
	Volume        int64
}

type yahooChartResponse struct {
	Chart struct {
		Result []yahooResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

type YahooClient struct {
	base
}

func NewYahooClient(opts ...Option) *YahooClient {
	c := &YahooClient{base: newBase(YahooBaseURL, opts)}
	// Yahoo rejects requests without a browser-like agent.
	c.header = http.Header{"User-Agent": []string{"Mozilla/5.0 (compatible; quantdata/1.0)"}}
	return c
}

// GetPriceHistory returns the ticks from start until now, oldest first. A nil
// slice means Yahoo had no history for the ticker or the call failed.
func (c *YahooClient) GetPriceHistory(ctx context.Context, ticker string, start time.Time, freq Frequency) ([]PriceTick, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s&events=div%%2Csplit&includeAdjustedClose=true",
		c.baseURL, url.PathEscape(ticker), start.Unix(), c.now().Unix(), freq.Interval())

	body, err := c.get(ctx, u)
	if err != nil {
		c.logger.Error().Err(err).Str("ticker", ticker).Msg("Error calling Yahoo chart endpoint")
		return nil, nil
	}

	var resp yahooChartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode yahoo chart for %s: %w", ticker, err)
	}
	if resp.Chart.Error != nil || len(resp.Chart.Result) == 0 {
		return nil, nil
	}
	return resp.Chart.Result[0].ticks(), nil
}

// ticks zips the parallel indicator arrays, skipping bars Yahoo left null.
func (r yahooResult) ticks() []PriceTick {
	if len(r.Indicators.Quote) == 0 {
		return []PriceTick{}
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	out := make([]PriceTick, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePx := at(q.Close, i)
		if closePx == nil {
			continue
		}
		local := time.Unix(ts+r.Meta.GMTOffset, 0).UTC()
		tick := PriceTick{
			Date:          time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:          dec(at(q.Open, i)),
			High:          dec(at(q.High, i)),
			Low:           dec(at(q.Low, i)),
			Close:         decimal.NewFromFloat(*closePx),
			AdjustedClose: dec(at(adj, i)),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			tick.Volume = *q.Volume[i]
		}
		if tick.AdjustedClose.IsZero() {
			tick.AdjustedClose = tick.Close
		}
		out = append(out, tick)
	}
	return out
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func dec(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}
