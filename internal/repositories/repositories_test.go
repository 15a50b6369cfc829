package repositories

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestRowRepository(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		t.Run("passes on a migrated database", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if err := NewRowRepository(db).Validate(); err != nil {
				t.Errorf("expected validation to pass, got %v", err)
			}
		})

		t.Run("fails without a header marker", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if _, err := db.Exec("DELETE FROM meta WHERE key = 'header_marker'"); err != nil {
				t.Fatalf("failed to remove marker: %v", err)
			}

			err := NewRowRepository(db).Validate()
			if !errors.Is(err, shared.ErrTableNotFound) {
				t.Errorf("expected ErrTableNotFound, got %v", err)
			}
		})

		t.Run("names a mismatched marker", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			if _, err := db.Exec("UPDATE meta SET value = 'Spreadsheet' WHERE key = 'header_marker'"); err != nil {
				t.Fatalf("failed to corrupt marker: %v", err)
			}

			err := NewRowRepository(db).Validate()
			if !errors.Is(err, shared.ErrTableNotFound) {
				t.Fatalf("expected ErrTableNotFound, got %v", err)
			}
			if got := err.Error(); !strings.Contains(got, "Spreadsheet") {
				t.Errorf("expected found value in message, got %q", got)
			}
		})
	})

	t.Run("Create assigns sequential positions", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRowRepository(db)

		first := &models.TrackedRow{PlaylistID: "PLfirst12345678", Sources: []string{"ALL"}}
		second := &models.TrackedRow{PlaylistID: "PLsecond1234567", Sources: []string{"UCchannel123456", "somecreator"}}

		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create first row: %v", err)
		}
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create second row: %v", err)
		}

		if first.Position != 1 || second.Position != 2 {
			t.Errorf("expected positions 1 and 2, got %d and %d", first.Position, second.Position)
		}
	})

	t.Run("Create rejects a missing playlist id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewRowRepository(db).Create(&models.TrackedRow{Sources: []string{"ALL"}})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Rows returns rows in position order with sources", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRowRepository(db)
		for _, row := range []*models.TrackedRow{
			{PlaylistID: "PLfirst12345678", Sources: []string{"ALL"}},
			{PlaylistID: "PLsecond1234567", Sources: []string{"UCchannel123456", "somecreator"}},
		} {
			if err := repo.Create(row); err != nil {
				t.Fatalf("failed to create row: %v", err)
			}
		}

		rows, err := repo.Rows()
		if err != nil {
			t.Fatalf("failed to load rows: %v", err)
		}

		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0].PlaylistID != "PLfirst12345678" || rows[1].PlaylistID != "PLsecond1234567" {
			t.Errorf("unexpected order: %+v", rows)
		}
		if len(rows[1].Sources) != 2 || rows[1].Sources[0] != "UCchannel123456" {
			t.Errorf("expected ordered sources, got %v", rows[1].Sources)
		}
		if !rows[0].LastSync.IsZero() {
			t.Errorf("expected zero checkpoint for a new row, got %v", rows[0].LastSync)
		}
	})

	t.Run("SetCheckpoint round-trips through Rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRowRepository(db)
		row := &models.TrackedRow{PlaylistID: "PLfirst12345678", Sources: []string{"ALL"}}
		if err := repo.Create(row); err != nil {
			t.Fatalf("failed to create row: %v", err)
		}

		ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		if err := repo.SetCheckpoint(row.Position, ts); err != nil {
			t.Fatalf("failed to set checkpoint: %v", err)
		}

		rows, err := repo.Rows()
		if err != nil {
			t.Fatalf("failed to load rows: %v", err)
		}
		if !rows[0].LastSync.Equal(ts) {
			t.Errorf("expected checkpoint %v, got %v", ts, rows[0].LastSync)
		}
	})

	t.Run("SetCheckpoint fails for an unknown position", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if err := NewRowRepository(db).SetCheckpoint(9, time.Now()); err == nil {
			t.Error("expected error for unknown position")
		}
	})

	t.Run("Delete hides the row from Rows", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRowRepository(db)
		row := &models.TrackedRow{PlaylistID: "PLfirst12345678", Sources: []string{"ALL"}}
		if err := repo.Create(row); err != nil {
			t.Fatalf("failed to create row: %v", err)
		}

		if err := repo.Delete(row.Position); err != nil {
			t.Fatalf("failed to delete row: %v", err)
		}

		rows, err := repo.Rows()
		if err != nil {
			t.Fatalf("failed to load rows: %v", err)
		}
		if len(rows) != 0 {
			t.Errorf("expected no rows after delete, got %+v", rows)
		}

		if err := repo.Delete(row.Position); err == nil {
			t.Error("expected error deleting an already-deleted row")
		}
	})
}

func TestProperties(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	if _, err := GetProperty(db, "missing"); err == nil {
		t.Error("expected error for unset property")
	}

	if err := SetProperty(db, "last_backup", "2025-03-01"); err != nil {
		t.Fatalf("failed to set property: %v", err)
	}
	if err := SetProperty(db, "last_backup", "2025-03-02"); err != nil {
		t.Fatalf("failed to overwrite property: %v", err)
	}

	value, err := GetProperty(db, "last_backup")
	if err != nil {
		t.Fatalf("failed to get property: %v", err)
	}
	if value != "2025-03-02" {
		t.Errorf("expected overwritten value, got %q", value)
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "tracked_rows")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	second, err := NextSequence(db, "tracked_rows")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected monotonic sequence, got %d then %d", first, second)
	}
}
