package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

type YahooAPI interface {
	GetPriceHistory(ctx context.Context, ticker string, start time.Time, freq external.Frequency) ([]external.PriceTick, error)
}

var _ YahooAPI = (*external.YahooClient)(nil)

type YahooService struct {
	api    YahooAPI
	logger *logging.Logger
}

func NewYahooService(api YahooAPI, logger *logging.Logger) *YahooService {
	return &YahooService{api: api, logger: logger}
}

// FrequencyFromPeriod maps weekly and monthly; anything else is daily.
func FrequencyFromPeriod(period string) external.Frequency {
	switch strings.ToLower(period) {
	case "weekly":
		return external.Weekly
	case "monthly":
		return external.Monthly
	default:
		return external.Daily
	}
}

// GetStockDataWithPrices returns bars from start up to and including end.
func (s *YahooService) GetStockDataWithPrices(ctx context.Context, ticker string, start, end time.Time, period string) ([]models.StockData, error) {
	ticks, err := s.api.GetPriceHistory(ctx, ticker, start.UTC(), FrequencyFromPeriod(period))
	if err != nil {
		return nil, err
	}
	if ticks == nil {
		msg := fmt.Sprintf("Failed to get ticker: '%s' with history", ticker)
		s.logger.Info().Msg(msg)
		return nil, fmt.Errorf("%w: %s", ErrNoHistory, msg)
	}

	endDate := truncateDay(end)
	out := make([]models.StockData, 0, len(ticks))
	for _, t := range ticks {
		if t.Date.After(endDate) {
			break
		}
		out = append(out, models.StockData{
			Ticker:   ticker,
			Date:     t.Date,
			Open:     t.Open,
			High:     t.High,
			Low:      t.Low,
			Close:    t.Close,
			CloseAdj: t.AdjustedClose,
			Volume:   decimal.NewFromInt(t.Volume),
		})
	}
	return out, nil
}

// GetEODData returns daily bars between start and end.
func (s *YahooService) GetEODData(ctx context.Context, ticker string, start, end time.Time) ([]models.StockData, error) {
	return s.GetStockDataWithPrices(ctx, ticker, start, end, "daily")
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
