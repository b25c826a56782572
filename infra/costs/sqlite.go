package costs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/dayplan/core/planner"
)

// SQLiteProvider reads hourly profiles from a SQLite table.
type SQLiteProvider struct {
	db          *sql.DB
	defaultCost float64
}

// NewSQLiteProvider opens or creates the database at path and ensures schema.
func NewSQLiteProvider(path string, defaultCost float64) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS cost_profiles (
        category TEXT PRIMARY KEY,
        hourly TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteProvider{db: db, defaultCost: orDefault(defaultCost)}, nil
}

// Import inserts or replaces profiles in one transaction.
func (s *SQLiteProvider) Import(ctx context.Context, profiles []Profile) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, p := range profiles {
		b, merr := json.Marshal(p.Hourly)
		if merr != nil {
			return merr
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO cost_profiles (category, hourly) VALUES (?, ?)
            ON CONFLICT(category) DO UPDATE SET hourly = excluded.hourly`,
			planner.CanonicalCategory(p.Category), string(b)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// HourlyCosts returns the stored row of each category, or a flat default row
// when the category has none.
func (s *SQLiteProvider) HourlyCosts(ctx context.Context, categories []string) ([][]float64, error) {
	out := make([][]float64, len(categories))
	for i, c := range categories {
		var data string
		err := s.db.QueryRowContext(ctx,
			`SELECT hourly FROM cost_profiles WHERE category = ?`, planner.CanonicalCategory(c)).Scan(&data)
		if errors.Is(err, sql.ErrNoRows) {
			out[i] = flatRow(s.defaultCost)
			continue
		}
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &out[i]); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", c, err)
		}
	}
	return out, nil
}

// Profiles lists every stored profile ordered by category.
func (s *SQLiteProvider) Profiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, hourly FROM cost_profiles ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Profile
	for rows.Next() {
		var p Profile
		var data string
		if err := rows.Scan(&p.Category, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &p.Hourly); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", p.Category, err)
		}
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteProvider) Close() error { return s.db.Close() }
