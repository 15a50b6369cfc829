package logstore

import (
	"fmt"
	"testing"
)

func writeRun(t *testing.T, s *Store, runTS string, lines int, success bool) {
	t.Helper()

	if err := s.Begin(runTS); err != nil {
		t.Fatalf("failed to begin run: %v", err)
	}
	if err := s.Append(Entry{Timestamp: runTS, Message: "Run started"}); err != nil {
		t.Fatalf("failed to append first entry: %v", err)
	}
	for i := 1; i < lines; i++ {
		if err := s.Append(Entry{Timestamp: runTS, Message: fmt.Sprintf("line %d", i)}); err != nil {
			t.Fatalf("failed to append entry: %v", err)
		}
	}
	if err := s.End(success); err != nil {
		t.Fatalf("failed to end run: %v", err)
	}
}

func TestStore(t *testing.T) {
	t.Run("run block is retrievable by its start timestamp", func(t *testing.T) {
		grid := NewMemoryGrid()
		s := New(grid, NewMemoryIndex(), Options{Rows: 10, Columns: 4})

		writeRun(t, s, "run-1", 3, true)

		messages, err := s.Logs("run-1")
		if err != nil {
			t.Fatalf("failed to read logs: %v", err)
		}
		if len(messages) != 3 {
			t.Fatalf("expected 3 messages, got %d: %v", len(messages), messages)
		}
		if messages[0] != "Run started" || messages[2] != "line 2" {
			t.Errorf("unexpected messages: %v", messages)
		}
	})

	t.Run("summary line closes the block", func(t *testing.T) {
		grid := NewMemoryGrid()
		s := New(grid, nil, Options{Rows: 10, Columns: 4})

		writeRun(t, s, "run-1", 2, true)
		writeRun(t, s, "run-2", 2, false)

		messages, err := s.Logs("run-1")
		if err != nil {
			t.Fatalf("failed to read logs: %v", err)
		}
		// The second run's lines sit directly below in the same column but
		// must not leak into the first block.
		if len(messages) != 2 {
			t.Errorf("expected 2 messages, got %v", messages)
		}

		col, _ := grid.Column(0)
		if col[2].Timestamp != "" {
			t.Errorf("expected message-only summary cell, got %+v", col[2])
		}
		if col[2].Message != "Updated all rows, run finished successfully" {
			t.Errorf("unexpected success summary: %q", col[2].Message)
		}
		if col[5].Message != "Run did not finish successfully" {
			t.Errorf("unexpected failure summary: %q", col[5].Message)
		}
	})

	t.Run("unknown timestamp returns nil", func(t *testing.T) {
		s := New(NewMemoryGrid(), nil, Options{Rows: 10, Columns: 4})
		writeRun(t, s, "run-1", 2, true)

		messages, err := s.Logs("run-x")
		if err != nil {
			t.Fatalf("failed to read logs: %v", err)
		}
		if messages != nil {
			t.Errorf("expected nil for unknown run, got %v", messages)
		}

		if messages, _ := s.Logs(""); messages != nil {
			t.Errorf("expected nil for empty timestamp, got %v", messages)
		}
	})

	t.Run("runs stack in a column until it fills", func(t *testing.T) {
		grid := NewMemoryGrid()
		s := New(grid, nil, Options{Rows: 10, Columns: 6})

		writeRun(t, s, "run-1", 2, true)
		writeRun(t, s, "run-2", 2, true)

		col, _ := grid.Column(0)
		if col[3].Timestamp != "run-2" {
			t.Errorf("expected second run below the first, got %+v", col[3])
		}
		col1, _ := grid.Column(1)
		if len(col1) != 0 {
			t.Errorf("expected column 1 empty, got %v", col1)
		}
	})

	t.Run("full column moves allocation to the next pair", func(t *testing.T) {
		grid := NewMemoryGrid()
		s := New(grid, nil, Options{Rows: 6, Columns: 6})

		// Exactly fills rows 0..5 of pair 0.
		writeRun(t, s, "run-1", 5, true)
		writeRun(t, s, "run-2", 2, true)

		col1, _ := grid.Column(1)
		if col1[0].Timestamp != "run-2" {
			t.Errorf("expected run-2 in pair 1, got %v", col1)
		}
	})

	t.Run("overflow past capacity clears the next pair", func(t *testing.T) {
		grid := NewMemoryGrid()
		s := New(grid, nil, Options{Rows: 4, Columns: 4})

		grid.Write(1, 0, Entry{Timestamp: "old", Message: "old content"})

		// Four lines plus the summary spill past the four-row capacity, so
		// End must recycle pair 1 for the next allocation.
		writeRun(t, s, "run-big", 4, true)

		col0, _ := grid.Column(0)
		if col0[4].Message == "" {
			t.Errorf("expected summary spilled past capacity, got %v", col0)
		}
		col1, _ := grid.Column(1)
		if len(col1) != 0 {
			t.Errorf("expected pair 1 recycled, got %v", col1)
		}
	})

	t.Run("all pairs full recycles pair 0", func(t *testing.T) {
		grid := NewMemoryGrid()
		s := New(grid, nil, Options{Rows: 3, Columns: 4})

		writeRun(t, s, "run-1", 2, true)
		writeRun(t, s, "run-2", 2, true)

		// Both pairs now have occupied last rows.
		writeRun(t, s, "run-3", 2, true)

		col0, _ := grid.Column(0)
		if col0[0].Timestamp != "run-3" {
			t.Errorf("expected run-3 at the top of recycled pair 0, got %v", col0)
		}
		if messages, _ := s.Logs("run-1"); messages != nil {
			t.Errorf("expected run-1 evicted, got %v", messages)
		}
	})

	t.Run("append without a run fails", func(t *testing.T) {
		s := New(NewMemoryGrid(), nil, Options{})
		if err := s.Append(Entry{Message: "orphan"}); err == nil {
			t.Error("expected error appending without Begin")
		}
		if err := s.End(true); err == nil {
			t.Error("expected error ending without Begin")
		}
	})

	t.Run("recent runs come back newest first", func(t *testing.T) {
		index := NewMemoryIndex()
		s := New(NewMemoryGrid(), index, Options{Rows: 20, Columns: 4, RecentRuns: 2})

		writeRun(t, s, "run-1", 2, true)
		writeRun(t, s, "run-2", 2, true)
		writeRun(t, s, "run-3", 2, true)

		recent, err := s.Recent()
		if err != nil {
			t.Fatalf("failed to read recent runs: %v", err)
		}
		if len(recent) != 2 || recent[0] != "run-3" || recent[1] != "run-2" {
			t.Errorf("unexpected recent runs: %v", recent)
		}
	})

	t.Run("defaults apply for zero options", func(t *testing.T) {
		s := New(NewMemoryGrid(), nil, Options{Columns: 2})
		if s.rows != DefaultRows {
			t.Errorf("expected default rows %d, got %d", DefaultRows, s.rows)
		}
		if s.pairs != DefaultColumns/2 {
			t.Errorf("expected undersized columns to take the default, got %d pairs", s.pairs)
		}
	})
}
