package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/subsync/internal/logstore"
)

// GridRepository implements logstore.Grid over the log_cells table.
type GridRepository struct {
	db *sql.DB
}

// NewGridRepository creates a new GridRepository with the given database connection
func NewGridRepository(db *sql.DB) *GridRepository {
	return &GridRepository{db: db}
}

// Column returns the occupied cells of a column pair keyed by row.
func (r *GridRepository) Column(pair int) (map[int]logstore.Entry, error) {
	rows, err := r.db.Query("SELECT row, ts, message FROM log_cells WHERE pair = ?", pair)
	if err != nil {
		return nil, fmt.Errorf("failed to query log cells: %w", err)
	}
	defer rows.Close()

	col := map[int]logstore.Entry{}
	for rows.Next() {
		var (
			row int
			e   logstore.Entry
		)
		if err := rows.Scan(&row, &e.Timestamp, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan log cell: %w", err)
		}
		col[row] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cell iteration error: %w", err)
	}

	return col, nil
}

// Write stores an entry at the given cell.
func (r *GridRepository) Write(pair, row int, e logstore.Entry) error {
	_, err := r.db.Exec(`
		INSERT INTO log_cells (pair, row, ts, message) VALUES (?, ?, ?, ?)
		ON CONFLICT(pair, row) DO UPDATE SET ts = excluded.ts, message = excluded.message
	`, pair, row, e.Timestamp, e.Message)
	if err != nil {
		return fmt.Errorf("failed to write log cell: %w", err)
	}
	return nil
}

// Clear empties an entire column pair, including any rows past the
// nominal capacity.
func (r *GridRepository) Clear(pair int) error {
	if _, err := r.db.Exec("DELETE FROM log_cells WHERE pair = ?", pair); err != nil {
		return fmt.Errorf("failed to clear log column: %w", err)
	}
	return nil
}

// RunIndexRepository implements logstore.RunIndex over the run_index table.
type RunIndexRepository struct {
	db *sql.DB
}

// NewRunIndexRepository creates a new RunIndexRepository with the given database connection
func NewRunIndexRepository(db *sql.DB) *RunIndexRepository {
	return &RunIndexRepository{db: db}
}

// Record stores a run start timestamp.
func (r *RunIndexRepository) Record(runTS string) error {
	if _, err := r.db.Exec("INSERT INTO run_index (run_ts) VALUES (?)", runTS); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to limit run timestamps, newest first.
func (r *RunIndexRepository) Recent(limit int) ([]string, error) {
	rows, err := r.db.Query("SELECT run_ts FROM run_index ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run index: %w", err)
	}
	defer rows.Close()

	var recent []string
	for rows.Next() {
		var ts string
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("failed to scan run timestamp: %w", err)
		}
		recent = append(recent, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run iteration error: %w", err)
	}

	return recent, nil
}
