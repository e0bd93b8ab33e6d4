package marketdata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
)

func TestFrequencyFromPeriod(t *testing.T) {
	assert.Equal(t, external.Weekly, FrequencyFromPeriod("weekly"))
	assert.Equal(t, external.Monthly, FrequencyFromPeriod("MONTHLY"))
	assert.Equal(t, external.Daily, FrequencyFromPeriod("daily"))
	assert.Equal(t, external.Daily, FrequencyFromPeriod("hourly"))
	assert.Equal(t, external.Daily, FrequencyFromPeriod(""))
}

func ticks() []external.PriceTick {
	mk := func(dd int, c string) external.PriceTick {
		px := decimal.RequireFromString(c)
		return external.PriceTick{Date: day(2017, 11, dd), Open: px, High: px, Low: px, Close: px, AdjustedClose: px, Volume: 1000}
	}
	return []external.PriceTick{mk(7, "151.37"), mk(8, "151.57"), mk(9, "150.3"), mk(10, "149.16"), mk(13, "148.4")}
}

func TestGetStockDataWithPrices_TakesUntilEnd(t *testing.T) {
	api := &fakeYahoo{ticks: ticks()}
	svc := NewYahooService(api, logging.NewSilent())

	got, err := svc.GetStockDataWithPrices(context.Background(), "IBM", day(2017, 11, 7), day(2017, 11, 9), "weekly")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, external.Weekly, api.freq)
	assert.Equal(t, day(2017, 11, 9), got[2].Date)
	assert.Equal(t, "IBM", got[0].Ticker)
	assert.True(t, decimal.NewFromInt(1000).Equal(got[0].Volume))
	assert.True(t, got[0].CloseAdj.Equal(got[0].Close))
}

func TestGetStockDataWithPrices_NilHistory(t *testing.T) {
	logger, buf := bufferLogger()
	svc := NewYahooService(&fakeYahoo{}, logger)

	_, err := svc.GetStockDataWithPrices(context.Background(), "NOPE", day(2017, 11, 7), day(2017, 11, 9), "daily")
	require.ErrorIs(t, err, ErrNoHistory)
	assert.Contains(t, err.Error(), "Failed to get ticker: 'NOPE' with history")
	assert.Contains(t, buf.String(), `"level":"info"`)
}

func TestGetEODData(t *testing.T) {
	api := &fakeYahoo{ticks: ticks(), freq: external.Monthly}
	svc := NewYahooService(api, logging.NewSilent())

	got, err := svc.GetEODData(context.Background(), "IBM", day(2017, 11, 7), day(2017, 11, 30))
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, external.Daily, api.freq)
}
