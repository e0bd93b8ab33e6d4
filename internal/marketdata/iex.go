package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

type IEXAPI interface {
	GetHistoricalPrices(ctx context.Context, ticker, chartRange string) (*external.IexResponse[[]external.IexHistoricalPrice], error)
	GetQuote(ctx context.Context, ticker string) (*external.IexResponse[external.IexQuote], error)
}

var _ IEXAPI = (*external.IEXClient)(nil)

type IEXService struct {
	api    IEXAPI
	logger *logging.Logger
}

func NewIEXService(api IEXAPI, logger *logging.Logger) *IEXService {
	return &IEXService{api: api, logger: logger}
}

// GetStock returns the historical bars for a chart range, oldest first.
func (s *IEXService) GetStock(ctx context.Context, ticker, chartRange string) ([]models.StockData, error) {
	resp, err := s.api.GetHistoricalPrices(ctx, ticker, chartRange)
	if err != nil {
		return []models.StockData{}, err
	}
	out := []models.StockData{}
	if resp == nil {
		return out, nil
	}
	if resp.ErrorMessage != "" {
		s.logger.Error().Str("ticker", ticker).Msg(resp.ErrorMessage)
		return out, nil
	}

	for _, p := range resp.Data {
		if strings.TrimSpace(p.Date) == "" {
			return []models.StockData{}, fmt.Errorf("%w: IEX bar for %s has no date", ErrMissingTimestamp, ticker)
		}
		date, err := time.Parse(time.DateOnly, p.Date)
		if err != nil {
			return []models.StockData{}, fmt.Errorf("IEX bar date %q: %w", p.Date, err)
		}
		out = append(out, models.StockData{
			Ticker: ticker,
			Date:   date,
			Open:   decOrZero(p.Open),
			High:   decOrZero(p.High),
			Low:    decOrZero(p.Low),
			Close:  decOrZero(p.Close),
			Volume: decOrZero(p.Volume),
		})
	}
	sortStockData(out)
	return out, nil
}

// GetQuote returns the real-time quote. Empty or failed responses give a zero
// quote; a quote without latestUpdate is an error.
func (s *IEXService) GetQuote(ctx context.Context, ticker string) (models.IexStockQuote, error) {
	resp, err := s.api.GetQuote(ctx, ticker)
	if err != nil {
		return models.IexStockQuote{}, err
	}
	if resp == nil {
		return models.IexStockQuote{}, nil
	}
	if resp.ErrorMessage != "" {
		s.logger.Error().Str("ticker", ticker).Msg(resp.ErrorMessage)
		return models.IexStockQuote{}, nil
	}

	d := resp.Data
	if !d.LatestUpdate.Valid {
		return models.IexStockQuote{}, fmt.Errorf("%w: IEX quote for %s has no latestUpdate", ErrMissingTimestamp, ticker)
	}
	latestUpdate := fromUnixMilli(d.LatestUpdate)

	latestTime, err := parseIexLatestTime(d.LatestTime)
	if err != nil {
		s.logger.Warn().Str("ticker", ticker).Str("latestTime", d.LatestTime).Msg("Unrecognised IEX latestTime, using latestUpdate")
		latestTime = latestUpdate
	}

	return models.IexStockQuote{
		Ticker:           d.Symbol,
		IexOpen:          decOrZero(d.IexOpen),
		IexOpenTime:      fromUnixMilli(d.IexOpenTime),
		IexClose:         decOrZero(d.IexClose),
		IexCloseTime:     fromUnixMilli(d.IexCloseTime),
		LatestPrice:      decOrZero(d.LatestPrice),
		LatestTime:       latestTime,
		LatestUpdate:     latestUpdate,
		LatestVolume:     decOrZero(d.LatestVolume),
		DelayedPrice:     decOrZero(d.DelayedPrice),
		DelayedPriceTime: fromUnixMilli(d.DelayedPriceTime),
		PreviousClose:    decOrZero(d.PreviousClose),
		IexRealtimePrice: decOrZero(d.IexRealtimePrice),
		IexRealtimeSize:  decOrZero(d.IexRealtimeSize),
		IexLastUpdated:   fromUnixMilli(d.LastTradeTime),
		IexBidPrice:      decOrZero(d.IexBidPrice),
		IexBidSize:       decOrZero(d.IexBidSize),
		IexAskPrice:      decOrZero(d.IexAskPrice),
		IexAskSize:       decOrZero(d.IexAskSize),
		Change:           decOrZero(d.Change),
		ChangePercent:    decOrZero(d.ChangePercent),
		MarketCap:        decOrZero(d.MarketCap),
		PeRatio:          decOrZero(d.PeRatio),
		Week52High:       decOrZero(d.Week52High),
		Week52Low:        decOrZero(d.Week52Low),
		YtdChange:        decOrZero(d.YtdChange),
	}, nil
}

func decOrZero(f null.Float) decimal.Decimal {
	if !f.Valid {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f.Float64)
}

// fromUnixMilli converts an IEX millisecond timestamp to local time. Null
// timestamps map to the zero time: IEX leaves iexOpenTime, iexCloseTime,
// delayedPriceTime and lastTradeTime null outside market hours, so only
// latestUpdate is required.
func fromUnixMilli(ms null.Int) time.Time {
	if !ms.Valid {
		return time.Time{}
	}
	return time.UnixMilli(ms.Int64).Local()
}

// IEX reports latestTime as "July 11, 2022" after the close and as a clock
// time such as "10:35:21 AM" during the session.
func parseIexLatestTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("January 2, 2006", s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised latestTime %q", s)
}
