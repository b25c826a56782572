package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/dayplan/core/model"
)

// SQLiteStore persists committed schedules in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := []string{`CREATE TABLE IF NOT EXISTS schedule_days (
        user_id TEXT,
        date TEXT,
        PRIMARY KEY(user_id, date)
    );`, `CREATE TABLE IF NOT EXISTS schedule_tasks (
        user_id TEXT,
        date TEXT,
        task_key TEXT,
        idx INTEGER,
        description TEXT,
        start_time TEXT,
        end_time TEXT,
        category TEXT,
        task_id TEXT,
        PRIMARY KEY(user_id, date, task_key)
    );`}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			if cerr := db.Close(); cerr != nil {
				return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
			}
			return nil, err
		}
	}
	return &SQLiteStore{db: db}, nil
}

// ReadCommitted returns the schedule of user on date, or nil if none was
// ever written.
func (s *SQLiteStore) ReadCommitted(ctx context.Context, user, date string) (*model.DaySchedule, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM schedule_days WHERE user_id = ? AND date = ?`, user, date).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT idx, description, start_time, end_time, category, task_id
        FROM schedule_tasks WHERE user_id = ? AND date = ? ORDER BY idx, start_time`, user, date)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	day := &model.DaySchedule{User: user, Date: date, Tasks: []model.Placement{}}
	for rows.Next() {
		p := model.Placement{Date: date}
		if err := rows.Scan(&p.Index, &p.Desc, &p.StartTime, &p.EndTime, &p.Category, &p.TaskID); err != nil {
			return nil, err
		}
		day.Tasks = append(day.Tasks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return day, nil
}

// WriteCommitted upserts tasks by (description, start time) in a single
// transaction.
func (s *SQLiteStore) WriteCommitted(ctx context.Context, user, date string, tasks []model.Placement) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO schedule_days (user_id, date) VALUES (?, ?) ON CONFLICT(user_id, date) DO NOTHING`,
		user, date); err != nil {
		return err
	}
	for _, p := range tasks {
		if _, err = tx.ExecContext(ctx, `INSERT INTO schedule_tasks
            (user_id, date, task_key, idx, description, start_time, end_time, category, task_id)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(user_id, date, task_key) DO UPDATE SET
                idx = excluded.idx,
                end_time = excluded.end_time,
                category = excluded.category,
                task_id = excluded.task_id`,
			user, date, p.Key(), p.Index, p.Desc, p.StartTime, p.EndTime, p.Category, p.TaskID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
