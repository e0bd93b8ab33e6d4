package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/quantdata/internal/models"
)

const indexDataColumns = `id, date, ig_spread, hy_spread, spx, vix`

type IndexDataRepo struct {
	pool *pgxpool.Pool
}

func NewIndexDataRepo(pool *pgxpool.Pool) *IndexDataRepo {
	return &IndexDataRepo{pool: pool}
}

func (r *IndexDataRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM index_data`).Scan(&n)
	return n, err
}

func (r *IndexDataRepo) List(ctx context.Context) ([]models.IndexData, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+indexDataColumns+` FROM index_data ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanIndexData)
}

func (r *IndexDataRepo) Between(ctx context.Context, start, end time.Time) ([]models.IndexData, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+indexDataColumns+` FROM index_data WHERE date BETWEEN $1 AND $2 ORDER BY date ASC`,
		start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanIndexData)
}

func (r *IndexDataRepo) InsertMany(ctx context.Context, data []models.IndexData) (int, error) {
	rows := make([][]any, len(data))
	for i, d := range data {
		rows[i] = []any{d.Date, d.IGSpread, d.HYSpread, d.SPX, d.VIX}
	}
	return execBatch(ctx, r.pool,
		`INSERT INTO index_data (date, ig_spread, hy_spread, spx, vix)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (date) DO NOTHING`,
		rows)
}

func scanIndexData(row scannable) (models.IndexData, error) {
	var d models.IndexData
	err := row.Scan(&d.ID, &d.Date, &d.IGSpread, &d.HYSpread, &d.SPX, &d.VIX)
	return d, err
}
