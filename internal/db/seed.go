package db

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kjannette/quantdata/internal/logging"
	"github.com/kjannette/quantdata/internal/models"
	"github.com/kjannette/quantdata/internal/repository"
)

const (
	SymbolsFile   = "StockTickers.csv"
	IndicesFile   = "Indices.csv"
	IBMPricesFile = "IBM.csv"

	seedPriceTicker = "IBM"
)

var seedDateLayouts = []string{
	time.DateOnly,
	"1/2/2006",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
}

// ResolveSeedDir returns dir as is when absolute or present in the working
// directory, otherwise relative to the executable.
func ResolveSeedDir(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	if _, err := os.Stat(dir); err == nil {
		return dir
	}
	exe, err := os.Executable()
	if err != nil {
		return dir
	}
	return filepath.Join(filepath.Dir(exe), dir)
}

// Seed loads the CSV seed files into any of symbol, index_data and price that
// are still empty. Symbols go first so IBM prices can reference their symbol.
func Seed(ctx context.Context, p *pgxpool.Pool, dir string, logger *logging.Logger) error {
	symbols := repository.NewSymbolRepo(p)
	prices := repository.NewPriceRepo(p)
	index := repository.NewIndexDataRepo(p)

	nSym, err := symbols.Count(ctx)
	if err != nil {
		return fmt.Errorf("count symbols: %w", err)
	}
	nIdx, err := index.Count(ctx)
	if err != nil {
		return fmt.Errorf("count index data: %w", err)
	}
	nPx, err := prices.Count(ctx)
	if err != nil {
		return fmt.Errorf("count prices: %w", err)
	}
	if nSym > 0 && nIdx > 0 && nPx > 0 {
		logger.Debug().Msg("Seed skipped, tables already populated")
		return nil
	}

	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return fmt.Errorf("seed data directory %s not found", dir)
	}

	if nSym == 0 {
		syms, err := ReadSymbols(filepath.Join(dir, SymbolsFile))
		if err != nil {
			return err
		}
		n, err := symbols.InsertMany(ctx, syms)
		if err != nil {
			return fmt.Errorf("insert symbols: %w", err)
		}
		logger.Info().Int("rows", n).Msg("Seeded symbols")
	}

	if nIdx == 0 {
		data, err := ReadIndexData(filepath.Join(dir, IndicesFile))
		if err != nil {
			return err
		}
		n, err := index.InsertMany(ctx, data)
		if err != nil {
			return fmt.Errorf("insert index data: %w", err)
		}
		logger.Info().Int("rows", n).Msg("Seeded index data")
	}

	if nPx == 0 {
		sym, err := symbols.GetByTicker(ctx, seedPriceTicker)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", seedPriceTicker, err)
		}
		if sym == nil {
			return fmt.Errorf("seed prices: symbol %s missing from %s", seedPriceTicker, SymbolsFile)
		}
		px, err := ReadPrices(filepath.Join(dir, IBMPricesFile), sym.SymbolID)
		if err != nil {
			return err
		}
		n, err := prices.InsertMany(ctx, px)
		if err != nil {
			return fmt.Errorf("insert prices: %w", err)
		}
		logger.Info().Int("rows", n).Str("ticker", seedPriceTicker).Msg("Seeded prices")
	}
	return nil
}

// ReadSymbols parses ticker,region,sector rows.
func ReadSymbols(path string) ([]models.Symbol, error) {
	var out []models.Symbol
	err := readCSV(path, 3, func(row []string) error {
		out = append(out, models.Symbol{
			Ticker: strings.ToUpper(row[0]),
			Region: row[1],
			Sector: row[2],
		})
		return nil
	})
	return out, err
}

// ReadIndexData parses date,ig,hy,spx,vix rows.
func ReadIndexData(path string) ([]models.IndexData, error) {
	var out []models.IndexData
	err := readCSV(path, 5, func(row []string) error {
		date, err := parseSeedDate(row[0])
		if err != nil {
			return err
		}
		v, err := parseDecimals(row[1:5])
		if err != nil {
			return err
		}
		out = append(out, models.IndexData{Date: date, IGSpread: v[0], HYSpread: v[1], SPX: v[2], VIX: v[3]})
		return nil
	})
	return out, err
}

// ReadPrices parses date,open,high,low,close,adj close,volume rows for one symbol.
func ReadPrices(path string, symbolID int) ([]models.Price, error) {
	var out []models.Price
	err := readCSV(path, 7, func(row []string) error {
		date, err := parseSeedDate(row[0])
		if err != nil {
			return err
		}
		v, err := parseDecimals(row[1:7])
		if err != nil {
			return err
		}
		out = append(out, models.Price{
			SymbolID: symbolID, Date: date,
			Open: v[0], High: v[1], Low: v[2], Close: v[3], CloseAdj: v[4], Volume: v[5],
		})
		return nil
	})
	return out, err
}

// readCSV skips the header row and hands each record with at least minCols
// fields to fn. Any bad row fails the whole file.
func readCSV(path string, minCols int, fn func([]string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	line := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		line++
		if line == 1 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < minCols {
			return fmt.Errorf("%s line %d: want %d columns, got %d", filepath.Base(path), line, minCols, len(row))
		}
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
	}
}

func parseSeedDate(s string) (time.Time, error) {
	for _, layout := range seedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func parseDecimals(cells []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(cells))
	for i, c := range cells {
		d, err := decimal.NewFromString(c)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i+1, err)
		}
		out[i] = d
	}
	return out, nil
}
