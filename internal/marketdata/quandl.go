package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
)

type QuandlAPI interface {
	GetTimeseries(ctx context.Context, ticker string, start, end time.Time) (*external.QuandlDataset, error)
}

var _ QuandlAPI = (*external.QuandlClient)(nil)

// WIKI dataset columns.
const (
	qDate = iota
	qOpen
	qHigh
	qLow
	qClose
	qVolume
	qExDividend
	qSplitRatio
	qOpenAdj
	qHighAdj
	qLowAdj
	qCloseAdj
	qVolumeAdj
	qColumns
)

type QuandlService struct {
	api    QuandlAPI
	logger *logging.Logger
}

func NewQuandlService(api QuandlAPI, logger *logging.Logger) *QuandlService {
	return &QuandlService{api: api, logger: logger}
}

// GetQuandlStock returns WIKI rows between start and end, oldest first.
// Malformed rows are logged and skipped.
func (s *QuandlService) GetQuandlStock(ctx context.Context, ticker string, start, end time.Time) ([]models.QuandlStockData, error) {
	ds, err := s.api.GetTimeseries(ctx, ticker, start, end)
	if err != nil {
		return []models.QuandlStockData{}, err
	}
	out := []models.QuandlStockData{}
	if ds == nil {
		return out, nil
	}

	for _, row := range ds.DatasetData.Data {
		d, err := parseQuandlRow(ticker, row)
		if err != nil {
			s.logger.Error().Msgf("Failed to process QuandlStockData result item: %v", err)
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func parseQuandlRow(ticker string, row []any) (models.QuandlStockData, error) {
	if len(row) < qColumns {
		return models.QuandlStockData{}, fmt.Errorf("%w: have %d of %d columns", errShortRow, len(row), qColumns)
	}
	date, err := time.Parse(time.DateOnly, fmt.Sprint(row[qDate]))
	if err != nil {
		return models.QuandlStockData{}, err
	}

	var v [qColumns]decimal.Decimal
	for i := qOpen; i < qColumns; i++ {
		if row[i] == nil {
			continue
		}
		d, err := decimal.NewFromString(fmt.Sprint(row[i]))
		if err != nil {
			return models.QuandlStockData{}, fmt.Errorf("column %d: %w", i, err)
		}
		v[i] = d
	}

	return models.QuandlStockData{
		Ticker:     ticker,
		Date:       date,
		Open:       v[qOpen],
		High:       v[qHigh],
		Low:        v[qLow],
		Close:      v[qClose],
		Volume:     v[qVolume],
		ExDividend: v[qExDividend],
		SplitRatio: v[qSplitRatio],
		OpenAdj:    v[qOpenAdj],
		HighAdj:    v[qHighAdj],
		LowAdj:     v[qLowAdj],
		CloseAdj:   v[qCloseAdj],
		VolumeAdj:  v[qVolumeAdj],
	}, nil
}
