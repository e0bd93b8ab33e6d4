package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/quantdata/internal/models"
)

const symbolColumns = `symbol_id, ticker, region, sector`

type SymbolRepo struct {
	pool *pgxpool.Pool
}

func NewSymbolRepo(pool *pgxpool.Pool) *SymbolRepo {
	return &SymbolRepo{pool: pool}
}

func (r *SymbolRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM symbol`).Scan(&n)
	return n, err
}

func (r *SymbolRepo) List(ctx context.Context) ([]models.Symbol, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+symbolColumns+` FROM symbol ORDER BY symbol_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows, scanSymbol)
}

func (r *SymbolRepo) GetByID(ctx context.Context, id int) (*models.Symbol, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+symbolColumns+` FROM symbol WHERE symbol_id = $1`, id)
	return r.one(row)
}

func (r *SymbolRepo) GetByTicker(ctx context.Context, ticker string) (*models.Symbol, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+symbolColumns+` FROM symbol WHERE ticker = $1`, ticker)
	return r.one(row)
}

// Insert adds the symbol and returns its id. A ticker that already exists
// returns the existing id.
func (r *SymbolRepo) Insert(ctx context.Context, sym models.Symbol) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO symbol (ticker, region, sector)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (ticker) DO UPDATE SET ticker = EXCLUDED.ticker
		 RETURNING symbol_id`,
		sym.Ticker, sym.Region, sym.Sector,
	).Scan(&id)
	return id, err
}

// InsertMany adds symbols in one batch, leaving existing tickers untouched.
func (r *SymbolRepo) InsertMany(ctx context.Context, syms []models.Symbol) (int, error) {
	rows := make([][]any, len(syms))
	for i, s := range syms {
		rows[i] = []any{s.Ticker, s.Region, s.Sector}
	}
	return execBatch(ctx, r.pool,
		`INSERT INTO symbol (ticker, region, sector) VALUES ($1, $2, $3) ON CONFLICT (ticker) DO NOTHING`,
		rows)
}

func (r *SymbolRepo) Update(ctx context.Context, sym models.Symbol) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE symbol SET ticker = $2, region = $3, sector = $4 WHERE symbol_id = $1`,
		sym.SymbolID, sym.Ticker, sym.Region, sym.Sector,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the symbol; its prices go with it through ON DELETE CASCADE.
func (r *SymbolRepo) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM symbol WHERE symbol_id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SymbolRepo) one(row scannable) (*models.Symbol, error) {
	s, err := scanSymbol(row)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func scanSymbol(row scannable) (models.Symbol, error) {
	var s models.Symbol
	err := row.Scan(&s.SymbolID, &s.Ticker, &s.Region, &s.Sector)
	return s, err
}
