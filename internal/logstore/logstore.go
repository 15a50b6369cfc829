// package logstore implements the bounded execution-log store.
//
// Logs live in a fixed-capacity grid of R rows by C physical columns.
// Each run occupies one logical column pair (timestamp cell + message
// cell) starting at the first free row; when every pair is full the
// earliest pair in rotation order is cleared and reused. A run's block is
// addressable by its first entry's timestamp and is terminated by a
// message-only summary line (empty timestamp cell).
package logstore

import (
	"fmt"
)

// Default grid capacity. Columns counts physical columns and must be at
// least 4 so the rotation can cycle; each run column occupies two.
const (
	DefaultRows       = 900
	DefaultColumns    = 26
	DefaultRecentRuns = 10
)

// Entry is one log line: a timestamp cell and a message cell.
type Entry struct {
	Timestamp string
	Message   string
}

// Grid is cell-addressed storage for log entries. Columns are identified
// by pair index (physical column / 2). Implementations may hold rows past
// the nominal capacity; Clear removes those too.
type Grid interface {
	// Column returns the occupied cells of a column pair keyed by row.
	Column(pair int) (map[int]Entry, error)
	// Write stores an entry at the given cell.
	Write(pair, row int, e Entry) error
	// Clear empties an entire column pair.
	Clear(pair int) error
}

// RunIndex records run start timestamps for the most-recent-N view.
type RunIndex interface {
	Record(runTS string) error
	Recent(limit int) ([]string, error)
}

// Options sizes a Store. Zero fields take the defaults.
type Options struct {
	Rows       int
	Columns    int
	RecentRuns int
}

// Store appends run logs into a Grid and locates past runs.
type Store struct {
	grid   Grid
	index  RunIndex
	rows   int
	pairs  int
	recent int

	pair   int
	row    int
	active bool
}

// New creates a Store over the given grid. index may be nil when no
// recent-run view is needed.
func New(grid Grid, index RunIndex, opts Options) *Store {
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.Columns < 4 {
		opts.Columns = DefaultColumns
	}
	if opts.RecentRuns <= 0 {
		opts.RecentRuns = DefaultRecentRuns
	}

	return &Store{
		grid:   grid,
		index:  index,
		rows:   opts.Rows,
		pairs:  opts.Columns / 2,
		recent: opts.RecentRuns,
	}
}

// Begin allocates the write slot for a new run and records the run in the
// recent index. runTS must match the timestamp of the run's first entry.
func (s *Store) Begin(runTS string) error {
	pair, row, err := s.allocateSlot()
	if err != nil {
		return err
	}

	s.pair, s.row = pair, row
	s.active = true

	if s.index != nil {
		if err := s.index.Record(runTS); err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}
	}

	return nil
}

// allocateSlot finds the first column pair that is unused or has free rows
// remaining. If every pair is full, pair 0 is cleared and reused.
func (s *Store) allocateSlot() (int, int, error) {
	for pair := 0; pair < s.pairs; pair++ {
		col, err := s.grid.Column(pair)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to read column %d: %w", pair, err)
		}
		if !s.columnFull(col) {
			return pair, s.nextFreeRow(col), nil
		}
	}

	if err := s.grid.Clear(0); err != nil {
		return 0, 0, fmt.Errorf("failed to recycle column 0: %w", err)
	}
	return 0, 0, nil
}

// columnFull checks the message cell of the last reserved row; a run can
// spill past the nominal capacity, so occupancy there marks the pair full.
func (s *Store) columnFull(col map[int]Entry) bool {
	return col[s.rows-1].Message != ""
}

// nextFreeRow returns the first row whose message cell is empty.
func (s *Store) nextFreeRow(col map[int]Entry) int {
	for row := 0; row < s.rows; row++ {
		if col[row].Message == "" {
			return row
		}
	}
	return 0
}

// Append writes one log line at the cursor.
func (s *Store) Append(e Entry) error {
	if !s.active {
		return fmt.Errorf("no active run")
	}
	if err := s.grid.Write(s.pair, s.row, e); err != nil {
		return fmt.Errorf("failed to write log cell: %w", err)
	}
	s.row++
	return nil
}

// End closes the run with a message-only summary line. Leaving the
// timestamp cell empty is what terminates the block for Logs. When the
// fill crossed the row capacity, the next pair in rotation order is
// cleared so a future allocation finds a free slot.
func (s *Store) End(success bool) error {
	if !s.active {
		return fmt.Errorf("no active run")
	}

	message := "Updated all rows, run finished successfully"
	if !success {
		message = "Run did not finish successfully"
	}
	if err := s.grid.Write(s.pair, s.row, Entry{Message: message}); err != nil {
		return fmt.Errorf("failed to write summary cell: %w", err)
	}
	s.row++
	s.active = false

	if s.row > s.rows-1 {
		next := 0
		if s.pair < s.pairs-1 {
			next = s.pair + 1
		}
		if err := s.grid.Clear(next); err != nil {
			return fmt.Errorf("failed to recycle column %d: %w", next, err)
		}
	}

	return nil
}

// Logs returns the messages of the run whose first entry carries runTS.
// The block runs until the first cell with an empty timestamp (the
// summary line) or a gap. Returns nil when no run matches.
func (s *Store) Logs(runTS string) ([]string, error) {
	if runTS == "" {
		return nil, nil
	}

	for pair := 0; pair < s.pairs; pair++ {
		col, err := s.grid.Column(pair)
		if err != nil {
			return nil, fmt.Errorf("failed to read column %d: %w", pair, err)
		}

		last := lastRow(col)
		for row := 0; row <= last; row++ {
			if col[row].Timestamp != runTS {
				continue
			}

			var messages []string
			for ; row <= last; row++ {
				cell, ok := col[row]
				if !ok || cell.Timestamp == "" {
					break
				}
				messages = append(messages, cell.Message)
			}
			return messages, nil
		}
	}

	return nil, nil
}

// Recent returns up to the configured number of most recent run
// timestamps, newest first.
func (s *Store) Recent() ([]string, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Recent(s.recent)
}

func lastRow(col map[int]Entry) int {
	last := -1
	for row := range col {
		if row > last {
			last = row
		}
	}
	return last
}

// MemoryGrid is an in-memory Grid, used in tests and as the fallback when
// no database is configured.
type MemoryGrid struct {
	cells map[int]map[int]Entry
}

// NewMemoryGrid creates an empty MemoryGrid.
func NewMemoryGrid() *MemoryGrid {
	return &MemoryGrid{cells: make(map[int]map[int]Entry)}
}

func (g *MemoryGrid) Column(pair int) (map[int]Entry, error) {
	col := make(map[int]Entry, len(g.cells[pair]))
	for row, cell := range g.cells[pair] {
		col[row] = cell
	}
	return col, nil
}

func (g *MemoryGrid) Write(pair, row int, e Entry) error {
	if g.cells[pair] == nil {
		g.cells[pair] = make(map[int]Entry)
	}
	g.cells[pair][row] = e
	return nil
}

func (g *MemoryGrid) Clear(pair int) error {
	delete(g.cells, pair)
	return nil
}

// MemoryIndex is an in-memory RunIndex.
type MemoryIndex struct {
	runs []string
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{}
}

func (i *MemoryIndex) Record(runTS string) error {
	i.runs = append(i.runs, runTS)
	return nil
}

func (i *MemoryIndex) Recent(limit int) ([]string, error) {
	var recent []string
	for j := len(i.runs) - 1; j >= 0 && len(recent) < limit; j-- {
		recent = append(recent, i.runs[j])
	}
	return recent, nil
}
