package repositories

import (
	"testing"

	"github.com/desertthunder/subsync/internal/logstore"
)

func TestGridRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	grid := NewGridRepository(db)

	t.Run("round-trips cells", func(t *testing.T) {
		if err := grid.Write(0, 0, logstore.Entry{Timestamp: "run-1", Message: "Run started"}); err != nil {
			t.Fatalf("failed to write cell: %v", err)
		}
		if err := grid.Write(0, 1, logstore.Entry{Message: "summary only"}); err != nil {
			t.Fatalf("failed to write summary cell: %v", err)
		}

		col, err := grid.Column(0)
		if err != nil {
			t.Fatalf("failed to read column: %v", err)
		}
		if col[0].Timestamp != "run-1" || col[0].Message != "Run started" {
			t.Errorf("unexpected cell: %+v", col[0])
		}
		if col[1].Timestamp != "" || col[1].Message != "summary only" {
			t.Errorf("unexpected summary cell: %+v", col[1])
		}
	})

	t.Run("overwrites on conflict", func(t *testing.T) {
		if err := grid.Write(0, 0, logstore.Entry{Timestamp: "run-2", Message: "replaced"}); err != nil {
			t.Fatalf("failed to overwrite cell: %v", err)
		}

		col, _ := grid.Column(0)
		if col[0].Message != "replaced" {
			t.Errorf("expected overwritten cell, got %+v", col[0])
		}
	})

	t.Run("Clear removes only the target pair", func(t *testing.T) {
		if err := grid.Write(1, 0, logstore.Entry{Timestamp: "other", Message: "keep"}); err != nil {
			t.Fatalf("failed to write cell: %v", err)
		}

		if err := grid.Clear(0); err != nil {
			t.Fatalf("failed to clear pair: %v", err)
		}

		col0, _ := grid.Column(0)
		if len(col0) != 0 {
			t.Errorf("expected pair 0 cleared, got %v", col0)
		}
		col1, _ := grid.Column(1)
		if col1[0].Message != "keep" {
			t.Errorf("expected pair 1 intact, got %v", col1)
		}
	})
}

func TestRunIndexRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	index := NewRunIndexRepository(db)

	for _, ts := range []string{"run-1", "run-2", "run-3"} {
		if err := index.Record(ts); err != nil {
			t.Fatalf("failed to record run: %v", err)
		}
	}

	recent, err := index.Recent(2)
	if err != nil {
		t.Fatalf("failed to read recent runs: %v", err)
	}
	if len(recent) != 2 || recent[0] != "run-3" || recent[1] != "run-2" {
		t.Errorf("unexpected recent runs: %v", recent)
	}
}

func TestStoreOverSQLite(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	store := logstore.New(NewGridRepository(db), NewRunIndexRepository(db), logstore.Options{Rows: 10, Columns: 4})

	if err := store.Begin("run-1"); err != nil {
		t.Fatalf("failed to begin run: %v", err)
	}
	if err := store.Append(logstore.Entry{Timestamp: "run-1", Message: "Run started"}); err != nil {
		t.Fatalf("failed to append: %v", err)
	}
	if err := store.End(true); err != nil {
		t.Fatalf("failed to end run: %v", err)
	}

	messages, err := store.Logs("run-1")
	if err != nil {
		t.Fatalf("failed to read logs: %v", err)
	}
	if len(messages) != 1 || messages[0] != "Run started" {
		t.Errorf("unexpected messages: %v", messages)
	}

	recent, err := store.Recent()
	if err != nil {
		t.Fatalf("failed to read recent runs: %v", err)
	}
	if len(recent) != 1 || recent[0] != "run-1" {
		t.Errorf("unexpected recent runs: %v", recent)
	}
}
