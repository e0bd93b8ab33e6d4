package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var errShortRow = errors.New("row has too few columns")

// csvRows returns the data rows of a CSV payload with the header dropped.
// Quoting errors on a row are reported per row through onErr.
func csvRows(payload string, onErr func(error)) [][]string {
	r := csv.NewReader(strings.NewReader(strings.ReplaceAll(payload, "\r", "")))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	header := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			onErr(err)
			continue
		}
		if header {
			header = false
			continue
		}
		rows = append(rows, rec)
	}
	return rows
}

// decimals parses columns idx of row, in order.
func decimals(row []string, idx ...int) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(idx))
	for i, col := range idx {
		if col >= len(row) {
			return nil, fmt.Errorf("%w: want column %d, have %d", errShortRow, col, len(row))
		}
		d, err := decimal.NewFromString(strings.TrimSpace(row[col]))
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", col, err)
		}
		out[i] = d
	}
	return out, nil
}

var avTimeLayouts = []string{time.DateOnly, time.DateTime, "2006-01-02 15:04"}

// parseAvTime reads AlphaVantage timestamps, which are dates for daily series
// and exchange-local date-times for intraday series.
func parseAvTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range avTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
