package marketdata

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/quantdata/internal/external"
	"github.com/kjannette/quantdata/internal/logging"
)

func quandlRow(date string, vals ...string) []any {
	row := []any{date}
	for _, v := range vals {
		row = append(row, json.Number(v))
	}
	return row
}

func TestGetQuandlStock(t *testing.T) {
	ds := &external.QuandlDataset{}
	ds.DatasetData.Data = [][]any{
		quandlRow("2017-01-04", "115.85", "116.51", "115.75", "116.02", "21118116.0", "0.0", "1.0",
			"112.41", "113.05", "112.31", "112.57", "21118116.0"),
		quandlRow("2017-01-03", "115.8", "116.33", "114.76", "116.15", "28781865.0", "0.0", "1.0",
			"112.36", "112.87", "111.35", "112.70", "28781865.0"),
		quandlRow("2017-01-05", "116.0"),
		quandlRow("bad-date", "1", "1", "1", "1", "1", "0", "1", "1", "1", "1", "1", "1"),
	}
	logger, buf := bufferLogger()
	svc := NewQuandlService(&fakeQuandl{ds: ds}, logger)

	got, err := svc.GetQuandlStock(context.Background(), "AAPL", day(2017, 1, 1), day(2017, 1, 31))
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, day(2017, 1, 3), first.Date)
	assert.Equal(t, "AAPL", first.Ticker)
	assert.True(t, d("115.8").Equal(first.Open))
	assert.True(t, d("116.15").Equal(first.Close))
	assert.True(t, d("28781865").Equal(first.Volume))
	assert.True(t, d("1").Equal(first.SplitRatio))
	assert.True(t, d("112.36").Equal(first.OpenAdj))
	assert.True(t, d("112.70").Equal(first.CloseAdj))
	assert.True(t, d("28781865").Equal(first.VolumeAdj))

	assert.Contains(t, buf.String(), "Failed to process QuandlStockData result item")
}

func TestGetQuandlStock_NullCellsAreZero(t *testing.T) {
	row := quandlRow("2017-01-03", "115.8", "116.33", "114.76", "116.15", "28781865.0", "0.0", "1.0",
		"112.36", "112.87", "111.35", "112.70", "28781865.0")
	row[6] = nil
	ds := &external.QuandlDataset{}
	ds.DatasetData.Data = [][]any{row}

	svc := NewQuandlService(&fakeQuandl{ds: ds}, logging.NewSilent())
	got, err := svc.GetQuandlStock(context.Background(), "AAPL", day(2017, 1, 1), day(2017, 1, 31))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ExDividend.IsZero())
}

func TestGetQuandlStock_NilDataset(t *testing.T) {
	svc := NewQuandlService(&fakeQuandl{}, logging.NewSilent())
	got, err := svc.GetQuandlStock(context.Background(), "AAPL", day(2017, 1, 1), day(2017, 1, 31))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
