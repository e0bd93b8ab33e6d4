package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/guregu/null/v6"
)

const IEXBaseURL = "https://cloud.iexapis.com/stable"

// IexResponse carries either data or the error text IEX returned.
type IexResponse[T any] struct {
	Data         T
	ErrorMessage string
}

type IexHistoricalPrice struct {
	Date   string     `json:"date"`
	Open   null.Float `json:"open"`
	High   null.Float `json:"high"`
	Low    null.Float `json:"low"`
	Close  null.Float `json:"close"`
	Volume null.Float `json:"volume"`
}

// IexQuote mirrors the /quote payload. Times are Unix milliseconds except
// LatestTime, which IEX formats for display.
type IexQuote struct {
	Symbol           string     `json:"symbol"`
	IexOpen          null.Float `json:"iexOpen"`
	IexOpenTime      null.Int   `json:"iexOpenTime"`
	IexClose         null.Float `json:"iexClose"`
	IexCloseTime     null.Int   `json:"iexCloseTime"`
	LatestPrice      null.Float `json:"latestPrice"`
	LatestTime       string     `json:"latestTime"`
	LatestUpdate     null.Int   `json:"latestUpdate"`
	LatestVolume     null.Float `json:"latestVolume"`
	DelayedPrice     null.Float `json:"delayedPrice"`
	DelayedPriceTime null.Int   `json:"delayedPriceTime"`
	PreviousClose    null.Float `json:"previousClose"`
	IexRealtimePrice null.Float `json:"iexRealtimePrice"`
	IexRealtimeSize  null.Float `json:"iexRealtimeSize"`
	LastTradeTime    null.Int   `json:"lastTradeTime"`
	IexBidPrice      null.Float `json:"iexBidPrice"`
	IexBidSize       null.Float `json:"iexBidSize"`
	IexAskPrice      null.Float `json:"iexAskPrice"`
	IexAskSize       null.Float `json:"iexAskSize"`
	Change           null.Float `json:"change"`
	ChangePercent    null.Float `json:"changePercent"`
	MarketCap        null.Float `json:"marketCap"`
	PeRatio          null.Float `json:"peRatio"`
	Week52High       null.Float `json:"week52High"`
	Week52Low        null.Float `json:"week52Low"`
	YtdChange        null.Float `json:"ytdChange"`
}

var iexChartRanges = map[string]bool{
	"max": true, "5y": true, "2y": true, "1y": true, "ytd": true,
	"6m": true, "3m": true, "1m": true, "1mm": true, "5d": true,
	"5dm": true, "date": true, "dynamic": true,
}

// ValidChartRange reports whether r is a chart range IEX understands.
func ValidChartRange(r string) bool {
	return iexChartRanges[strings.ToLower(r)]
}

type IEXClient struct {
	base
	token string
}

func NewIEXClient(token string, opts ...Option) *IEXClient {
	return &IEXClient{
		base:  newBase(IEXBaseURL, opts),
		token: token,
	}
}

func (c *IEXClient) GetHistoricalPrices(ctx context.Context, ticker, chartRange string) (*IexResponse[[]IexHistoricalPrice], error) {
	if !ValidChartRange(chartRange) {
		return nil, fmt.Errorf("%w: chart range %q", ErrInvalidArgument, chartRange)
	}
	u := fmt.Sprintf("%s/stock/%s/chart/%s?token=%s",
		c.baseURL, url.PathEscape(ticker), strings.ToLower(chartRange), url.QueryEscape(c.token))

	resp := &IexResponse[[]IexHistoricalPrice]{}
	resp.ErrorMessage = c.decode(ctx, u, &resp.Data)
	return resp, nil
}

func (c *IEXClient) GetQuote(ctx context.Context, ticker string) (*IexResponse[IexQuote], error) {
	u := fmt.Sprintf("%s/stock/%s/quote?token=%s", c.baseURL, url.PathEscape(ticker), url.QueryEscape(c.token))

	resp := &IexResponse[IexQuote]{}
	resp.ErrorMessage = c.decode(ctx, u, &resp.Data)
	return resp, nil
}

// decode fetches u into dst and returns the failure as an error message.
func (c *IEXClient) decode(ctx context.Context, u string, dst any) string {
	body, err := c.get(ctx, u)
	if err != nil {
		return err.Error()
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Sprintf("decode IEX response: %v", err)
	}
	return ""
}
