package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/quantdata/internal/models"
)

const priceColumns = `price_id, symbol_id, date, open, high, low, close, close_adj, volume`

type PriceRepo struct {
	pool *pgxpool.Pool
}

func NewPriceRepo(pool *pgxpool.Pool) *PriceRepo {
	return &PriceRepo{pool: pool}
}

func (r *PriceRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM price`).Scan(&n)
	return n, err
}

// Between returns a symbol's prices dated start..end inclusive, oldest first.
func (r *PriceRepo) Between(ctx context.Context, symbolID int, start, end time.Time) ([]models.Price, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+priceColumns+` FROM price
		 WHERE symbol_id = $1 AND date BETWEEN $2 AND $3
		 ORDER BY date ASC`,
		symbolID, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanPrice)
}

// ExistingDates returns which of dates already have a price for the symbol.
func (r *PriceRepo) ExistingDates(ctx context.Context, symbolID int, dates []time.Time) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date FROM price WHERE symbol_id = $1 AND date = ANY($2)`,
		symbolID, dates,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// InsertMany stores prices in one batch and returns how many rows were new.
func (r *PriceRepo) InsertMany(ctx context.Context, prices []models.Price) (int, error) {
	rows := make([][]any, len(prices))
	for i, p := range prices {
		rows[i] = []any{p.SymbolID, p.Date, p.Open, p.High, p.Low, p.Close, p.CloseAdj, p.Volume}
	}
	return execBatch(ctx, r.pool,
		`INSERT INTO price (symbol_id, date, open, high, low, close, close_adj, volume)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (symbol_id, date) DO NOTHING`,
		rows)
}

func (r *PriceRepo) LastDate(ctx context.Context, symbolID int) (time.Time, bool, error) {
	var d *time.Time
	err := r.pool.QueryRow(ctx, `SELECT MAX(date) FROM price WHERE symbol_id = $1`, symbolID).Scan(&d)
	if err != nil || d == nil {
		return time.Time{}, false, err
	}
	return *d, true, nil
}

func scanPrice(row scannable) (models.Price, error) {
	var p models.Price
	err := row.Scan(&p.PriceID, &p.SymbolID, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.CloseAdj, &p.Volume)
	return p, err
}

// execBatch runs one statement per argument row inside a transaction and sums
// the affected rows. Any failure rolls the whole batch back.
func execBatch(ctx context.Context, pool *pgxpool.Pool, sql string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(sql, args...)
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	n := 0
	for range rows {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return 0, err
		}
		n += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
