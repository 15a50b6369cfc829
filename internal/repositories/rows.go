package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/shared"
)

// headerMarker is the value the meta table must carry for a database to be
// recognized as an initialized tracking table.
const headerMarker = "Playlist ID"

// RowRepository persists tracked rows and their ordered source tokens.
type RowRepository struct {
	db *sql.DB
}

// NewRowRepository creates a new RowRepository with the given database connection
func NewRowRepository(db *sql.DB) *RowRepository {
	return &RowRepository{db: db}
}

// Validate checks the header marker and fails fast when the database is
// not an initialized tracking table, naming whatever was found instead.
func (r *RowRepository) Validate() error {
	var marker string
	err := r.db.QueryRow("SELECT value FROM meta WHERE key = 'header_marker'").Scan(&marker)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: no header marker, run setup first", shared.ErrTableNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTableNotFound, err)
	}
	if marker != headerMarker {
		return fmt.Errorf("%w: expected header marker %q, instead found %q", shared.ErrTableNotFound, headerMarker, marker)
	}
	return nil
}

// Rows returns all tracked rows in table order with their source tokens.
func (r *RowRepository) Rows() ([]models.TrackedRow, error) {
	query := `
		SELECT id, position, playlist_id, last_sync, frequency_hours, retention_days
		FROM tracked_rows
		WHERE deleted_at IS NULL
		ORDER BY position ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked rows: %w", err)
	}
	defer rows.Close()

	var tracked []models.TrackedRow
	byID := map[string]int{}

	for rows.Next() {
		var (
			id         string
			position   int
			playlistID string
			lastSync   sql.NullString
			frequency  float64
			retention  int
		)
		if err := rows.Scan(&id, &position, &playlistID, &lastSync, &frequency, &retention); err != nil {
			return nil, fmt.Errorf("failed to scan tracked row: %w", err)
		}

		row := models.TrackedRow{
			Position:       position,
			PlaylistID:     playlistID,
			FrequencyHours: frequency,
			RetentionDays:  retention,
		}
		if lastSync.Valid && lastSync.String != "" {
			ts, err := shared.ParseTimestamp(lastSync.String)
			if err != nil {
				return nil, fmt.Errorf("invalid checkpoint for row %d: %w", position, err)
			}
			row.LastSync = ts
		}

		byID[id] = len(tracked)
		tracked = append(tracked, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if len(tracked) == 0 {
		return tracked, nil
	}

	sources, err := r.db.Query("SELECT row_id, token FROM row_sources ORDER BY row_id, position ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query row sources: %w", err)
	}
	defer sources.Close()

	for sources.Next() {
		var rowID, token string
		if err := sources.Scan(&rowID, &token); err != nil {
			return nil, fmt.Errorf("failed to scan row source: %w", err)
		}
		if idx, ok := byID[rowID]; ok {
			tracked[idx].Sources = append(tracked[idx].Sources, token)
		}
	}
	if err := sources.Err(); err != nil {
		return nil, fmt.Errorf("source iteration error: %w", err)
	}

	return tracked, nil
}

// SetCheckpoint advances a row's last-sync timestamp.
func (r *RowRepository) SetCheckpoint(position int, ts time.Time) error {
	result, err := r.db.Exec(
		"UPDATE tracked_rows SET last_sync = ?, updated_at = ? WHERE position = ? AND deleted_at IS NULL",
		shared.FormatTimestamp(ts), time.Now(), position,
	)
	if err != nil {
		return fmt.Errorf("failed to set checkpoint: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tracked row not found at position %d", position)
	}

	return nil
}

// Create inserts a tracked row at the next free position and stores its
// source tokens in order. The assigned position is written back.
func (r *RowRepository) Create(row *models.TrackedRow) error {
	if err := row.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracked_rows")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxPosition sql.NullInt64
	if err := tx.QueryRow("SELECT MAX(position) FROM tracked_rows").Scan(&maxPosition); err != nil {
		return fmt.Errorf("failed to find next position: %w", err)
	}
	position := int(maxPosition.Int64) + 1

	id := shared.GenerateID()
	now := time.Now()

	var lastSync any
	if !row.LastSync.IsZero() {
		lastSync = shared.FormatTimestamp(row.LastSync)
	}

	_, err = tx.Exec(`
		INSERT INTO tracked_rows (id, sequence, position, playlist_id, last_sync, frequency_hours, retention_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, sequence, position, row.PlaylistID, lastSync, row.FrequencyHours, row.RetentionDays, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert tracked row: %w", err)
	}

	for i, token := range row.Sources {
		if _, err := tx.Exec("INSERT INTO row_sources (row_id, position, token) VALUES (?, ?, ?)", id, i, token); err != nil {
			return fmt.Errorf("failed to insert source token: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tracked row: %w", err)
	}

	row.Position = position
	return nil
}

// Delete soft-deletes the tracked row at the given position.
func (r *RowRepository) Delete(position int) error {
	result, err := r.db.Exec(
		"UPDATE tracked_rows SET deleted_at = ? WHERE position = ? AND deleted_at IS NULL",
		time.Now(), position,
	)
	if err != nil {
		return fmt.Errorf("failed to delete tracked row: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("tracked row not found at position %d", position)
	}

	return nil
}
