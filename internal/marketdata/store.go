// Package marketdata caches the historical index/inflation/CAPE rows the
// Historical Driver and scheduler consume, backed by SQLite. It persists
// inputs only — no simulation state or results are ever written here.
package marketdata

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/aristath/ruhestand-sim/internal/historical"
)

// Store wraps a SQLite-backed cache of historical market rows.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) the database directory and schema at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create market data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open market data db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate market data db: %w", err)
	}

	return &Store{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS market_rows (
	series     TEXT NOT NULL,
	year       INTEGER NOT NULL,
	idx_value  REAL NOT NULL,
	inflation  REAL NOT NULL,
	cape       REAL,
	gold_perf  REAL,
	PRIMARY KEY (series, year)
);
`

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert stores one series's rows, replacing any existing rows for the
// same (series, year) pairs.
func (s *Store) Upsert(series string, rows []historical.MarketRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO market_rows (series, year, idx_value, inflation, cape, gold_perf)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(series, year) DO UPDATE SET
			idx_value = excluded.idx_value,
			inflation = excluded.inflation,
			cape = excluded.cape,
			gold_perf = excluded.gold_perf
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(series, r.Year, r.Index, r.InflationPct, nullableFloat(r.CAPERatio), nullableFloat(r.GoldPerfPct)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load returns a series's rows ordered by year ascending.
func (s *Store) Load(series string, startYear, endYear int) ([]historical.MarketRow, error) {
	rows, err := s.db.Query(`
		SELECT year, idx_value, inflation, cape, gold_perf
		FROM market_rows
		WHERE series = ? AND year BETWEEN ? AND ?
		ORDER BY year ASC
	`, series, startYear, endYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []historical.MarketRow
	for rows.Next() {
		var (
			year            int
			idx, infl       float64
			cape, goldPerf  sql.NullFloat64
		)
		if err := rows.Scan(&year, &idx, &infl, &cape, &goldPerf); err != nil {
			return nil, err
		}

		row := historical.MarketRow{Year: year, Index: idx, InflationPct: infl}
		if cape.Valid {
			v := cape.Float64
			row.CAPERatio = &v
		}
		if goldPerf.Valid {
			v := goldPerf.Float64
			row.GoldPerfPct = &v
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
