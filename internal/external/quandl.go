package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

const (
	QuandlBaseURL = "https://data.nasdaq.com/api/v3"
	quandlDataset = "WIKI"
)

// QuandlDataset is the dataset_data envelope of a time-series request. Cells
// are strings for dates, json.Number for values and nil for gaps.
type QuandlDataset struct {
	DatasetData struct {
		ColumnNames []string `json:"column_names"`
		StartDate   string   `json:"start_date"`
		EndDate     string   `json:"end_date"`
		Data        [][]any  `json:"data"`
	} `json:"dataset_data"`
}

type QuandlClient struct {
	base
	apiKey string
}

func NewQuandlClient(apiKey string, opts ...Option) *QuandlClient {
	return &QuandlClient{
		base:   newBase(QuandlBaseURL, opts),
		apiKey: apiKey,
	}
}

// GetTimeseries returns WIKI end-of-day rows between start and end. Failures
// are logged and reported as a nil dataset.
func (c *QuandlClient) GetTimeseries(ctx context.Context, ticker string, start, end time.Time) (*QuandlDataset, error) {
	q := url.Values{}
	q.Set("start_date", start.Format(time.DateOnly))
	q.Set("end_date", end.Format(time.DateOnly))
	q.Set("order", "asc")
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	u := fmt.Sprintf("%s/datasets/%s/%s/data.json?%s", c.baseURL, quandlDataset, url.PathEscape(ticker), q.Encode())

	body, err := c.get(ctx, u)
	if err != nil {
		c.logger.Error().Err(err).Str("ticker", ticker).Msg("Error calling Quandl dataset endpoint")
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var ds QuandlDataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode quandl dataset for %s: %w", ticker, err)
	}
	return &ds, nil
}
