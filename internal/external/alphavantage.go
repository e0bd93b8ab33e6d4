package external

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	AlphaVantageBaseURL = "https://www.alphavantage.co"

	// A start date further back than this needs the full history.
	fullHistoryDays = 120
	// Bar requests above this many points need the full intraday series.
	compactBarLimit = 100
)

type AlphaVantageClient struct {
	base
	apiKey string
}

// NewAlphaVantageClient builds a client. AlphaVantage's free tier allows five
// calls a minute; pass WithRateLimit to match the subscription.
func NewAlphaVantageClient(apiKey string, opts ...Option) *AlphaVantageClient {
	return &AlphaVantageClient{
		base:   newBase(AlphaVantageBaseURL, opts),
		apiKey: apiKey,
	}
}

// GetStockEOD returns the adjusted daily/weekly/monthly series as CSV.
func (c *AlphaVantageClient) GetStockEOD(ctx context.Context, ticker string, start time.Time, period string) (string, error) {
	fn, err := stockFunction(period)
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/query?function=%s&symbol=%s&outputsize=%s&apikey=%s&datatype=csv",
		c.baseURL, fn, url.QueryEscape(ticker), c.historySize(start), url.QueryEscape(c.apiKey))
	return c.fetch(ctx, ticker, u), nil
}

// GetStockBar returns intraday bars at the given minute interval as CSV.
func (c *AlphaVantageClient) GetStockBar(ctx context.Context, ticker string, interval, outputSize int) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("%w: interval %d", ErrInvalidArgument, interval)
	}
	u := fmt.Sprintf("%s/query?function=TIME_SERIES_INTRADAY&symbol=%s&interval=%dmin&outputsize=%s&apikey=%s&datatype=csv",
		c.baseURL, url.QueryEscape(ticker), interval, barSize(outputSize), url.QueryEscape(c.apiKey))
	return c.fetch(ctx, ticker, u), nil
}

func (c *AlphaVantageClient) GetStockQuote(ctx context.Context, ticker string) (string, error) {
	u := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s&datatype=csv",
		c.baseURL, url.QueryEscape(ticker), url.QueryEscape(c.apiKey))
	return c.fetch(ctx, ticker, u), nil
}

// GetFxEOD returns daily/weekly/monthly FX rates as CSV. The ticker may be
// written GBPUSD or GBP/USD.
func (c *AlphaVantageClient) GetFxEOD(ctx context.Context, ticker string, start time.Time, period string) (string, error) {
	from, to, err := SplitFxTicker(ticker)
	if err != nil {
		return "", err
	}
	fn, err := fxFunction(period)
	if err != nil {
		return "", err
	}
	u := fmt.Sprintf("%s/query?function=%s&from_symbol=%s&to_symbol=%s&outputsize=%s&apikey=%s&datatype=csv",
		c.baseURL, fn, from, to, c.historySize(start), url.QueryEscape(c.apiKey))
	return c.fetch(ctx, ticker, u), nil
}

func (c *AlphaVantageClient) GetFxBar(ctx context.Context, ticker string, interval, outputSize int) (string, error) {
	from, to, err := SplitFxTicker(ticker)
	if err != nil {
		return "", err
	}
	if interval <= 0 {
		return "", fmt.Errorf("%w: interval %d", ErrInvalidArgument, interval)
	}
	u := fmt.Sprintf("%s/query?function=FX_INTRADAY&from_symbol=%s&to_symbol=%s&interval=%dmin&outputsize=%s&apikey=%s&datatype=csv",
		c.baseURL, from, to, interval, barSize(outputSize), url.QueryEscape(c.apiKey))
	return c.fetch(ctx, ticker, u), nil
}

// GetSectorPerformance returns the sector ranking JSON document.
func (c *AlphaVantageClient) GetSectorPerformance(ctx context.Context) (string, error) {
	u := fmt.Sprintf("%s/query?function=SECTOR&apikey=%s", c.baseURL, url.QueryEscape(c.apiKey))
	return c.fetch(ctx, "SECTOR", u), nil
}

// fetch logs transport failures and reports them as an empty payload so the
// caller classifies them the same way as an empty response.
func (c *AlphaVantageClient) fetch(ctx context.Context, ticker, u string) string {
	body, err := c.get(ctx, u)
	if err != nil {
		c.logger.Error().Err(err).Str("ticker", ticker).
			Msgf("Unknown error occurred calling AlphaVantage endpoint for ticker %s.", ticker)
		return ""
	}
	return string(body)
}

func (c *AlphaVantageClient) historySize(start time.Time) string {
	now := c.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if start.Before(today.AddDate(0, 0, -fullHistoryDays)) {
		return "full"
	}
	return "compact"
}

func barSize(outputSize int) string {
	if outputSize > compactBarLimit {
		return "full"
	}
	return "compact"
}

func stockFunction(period string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "":
		return "", fmt.Errorf("%w: period is required", ErrInvalidArgument)
	case "weekly":
		return "TIME_SERIES_WEEKLY_ADJUSTED", nil
	case "monthly":
		return "TIME_SERIES_MONTHLY_ADJUSTED", nil
	default:
		return "TIME_SERIES_DAILY_ADJUSTED", nil
	}
}

func fxFunction(period string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "":
		return "", fmt.Errorf("%w: period is required", ErrInvalidArgument)
	case "weekly":
		return "FX_WEEKLY", nil
	case "monthly":
		return "FX_MONTHLY", nil
	default:
		return "FX_DAILY", nil
	}
}

// SanitizeFxTicker strips separators and upper-cases a currency pair.
func SanitizeFxTicker(ticker string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(ticker), "/", ""))
}

// SplitFxTicker returns the base and quote currencies of a pair such as GBP/USD.
func SplitFxTicker(ticker string) (from, to string, err error) {
	t := SanitizeFxTicker(ticker)
	if len(t) != 6 {
		return "", "", fmt.Errorf("%w: %q is not a currency pair", ErrInvalidTicker, ticker)
	}
	return t[:3], t[3:], nil
}
