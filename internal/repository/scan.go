package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

type scannable interface {
	Scan(dest ...any) error
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// collect scans every row with scan, returning an empty slice rather than nil.
func collect[T any](rows rowsIter, scan func(scannable) (T, error)) ([]T, error) {
	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
