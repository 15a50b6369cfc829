// package tasks implements the playlist synchronization engine.
//
// The core abstraction is Engine, which walks the tracking table row by
// row: resolve sources, fetch new videos since the row's checkpoint,
// insert them into the destination playlist, prune entries past the
// retention window, and advance the checkpoint only when the row finished
// without errors. Rows, sources, and pages are processed strictly
// sequentially; the destination playlist and the checkpoint must observe
// resolve -> fetch -> insert -> prune -> advance in order, and the
// platform quota is shared across every call in a run.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/subsync/internal/logstore"
	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/services"
	"github.com/desertthunder/subsync/internal/shared"
)

const (
	// DefaultMaxVideos is the hard cap on insertions for one row per run.
	DefaultMaxVideos = 200
	// DefaultSubscriptionPageCap bounds subscription pagination against a
	// next-page-token defect upstream that can cycle indefinitely.
	DefaultSubscriptionPageCap = 20
	// bootstrapBacklog seeds a never-synced row's checkpoint so the first
	// run picks up one day of history instead of everything.
	bootstrapBacklog = 24 * time.Hour
)

// Table is the tracking-table collaborator the engine drives.
type Table interface {
	// Validate fails fast when the storage is not an initialized tracking
	// table, naming what was found instead.
	Validate() error
	// Rows returns all tracked rows in table order.
	Rows() ([]models.TrackedRow, error)
	// SetCheckpoint advances a row's last-sync timestamp.
	SetCheckpoint(position int, ts time.Time) error
}

// Options tunes an Engine. Zero fields take the defaults.
type Options struct {
	MaxVideos           int
	SubscriptionPageCap int

	// SkipCheckpoint leaves every checkpoint untouched (debug).
	SkipCheckpoint bool
	// SkipInserts records an error instead of mutating playlists (debug).
	SkipInserts bool
	// Only restricts the run to the given row positions; empty means all.
	Only []int

	// Clock overrides the time source in tests.
	Clock func() time.Time
}

// RowResult is the outcome of processing one tracked row. The driver
// aggregates these instead of sharing mutable counters across calls.
type RowResult struct {
	Position           int
	PlaylistID         string
	Skipped            bool // empty row, filtered out, or not due yet
	Videos             int  // candidates discovered
	Added              int  // candidates actually inserted
	Errors             int  // per-row error count at fold time
	CheckpointAdvanced bool
}

// RunResult is the outcome of one full pass over the tracking table.
type RunResult struct {
	StartedAt   time.Time
	Rows        []RowResult
	TotalErrors int
}

// Engine implements the synchronization run.
type Engine struct {
	table   Table
	video   services.VideoService
	store   *logstore.Store
	tracker *Tracker
	logger  *log.Logger
	now     func() time.Time
	opts    Options
}

// NewEngine creates an Engine. store may be nil when no execution log is
// kept (tests).
func NewEngine(table Table, video services.VideoService, store *logstore.Store, logger *log.Logger, opts Options) *Engine {
	if opts.MaxVideos <= 0 {
		opts.MaxVideos = DefaultMaxVideos
	}
	if opts.SubscriptionPageCap <= 0 {
		opts.SubscriptionPageCap = DefaultSubscriptionPageCap
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	e := &Engine{
		table:  table,
		video:  video,
		store:  store,
		logger: logger,
		now:    opts.Clock,
		opts:   opts,
	}
	e.tracker = NewTracker(e.logError)
	return e
}

// Tracker exposes the engine's error tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// Run performs one full pass over the tracking table. Individual row
// failures are recorded and the pass continues; a non-zero cumulative
// error count makes the run as a whole report failure even though the
// successful rows' work and checkpoint advances are retained.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	e.tracker.Reset()

	if err := e.table.Validate(); err != nil {
		return nil, err
	}

	rows, err := e.table.Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking table: %w", err)
	}

	start := e.now()
	runTS := shared.FormatTimestamp(start)
	if e.store != nil {
		if err := e.store.Begin(runTS); err != nil {
			return nil, fmt.Errorf("failed to open execution log: %w", err)
		}
	}
	e.append(logstore.Entry{Timestamp: runTS, Message: fmt.Sprintf("Run started with %d row(s)", len(rows))})

	result := &RunResult{StartedAt: start}
	for _, row := range rows {
		rr := e.processRow(ctx, row, start)
		rr.Errors = e.tracker.PlaylistErrorCount()
		result.Rows = append(result.Rows, rr)
		e.tracker.ResetForNextPlaylist()
	}

	result.TotalErrors = e.tracker.TotalErrorCount()
	if e.store != nil {
		if err := e.store.End(result.TotalErrors == 0); err != nil {
			e.logger.Warn("failed to close execution log", "err", err)
		}
	}

	if result.TotalErrors > 0 {
		return result, fmt.Errorf(
			"%w: %d video(s) were not added to playlists correctly, see run logs for %s; checkpoints for the affected rows were not updated",
			shared.ErrRunFailed, result.TotalErrors, runTS,
		)
	}

	return result, nil
}

// processRow runs resolve -> fetch -> insert -> prune -> checkpoint for a
// single row. Errors are recorded on the tracker; the returned RowResult
// carries everything else the driver reports.
func (e *Engine) processRow(ctx context.Context, row models.TrackedRow, start time.Time) RowResult {
	rr := RowResult{Position: row.Position, PlaylistID: row.PlaylistID}

	if len(e.opts.Only) > 0 && !containsPosition(e.opts.Only, row.Position) {
		rr.Skipped = true
		return rr
	}
	if row.PlaylistID == "" || len(row.Sources) == 0 {
		rr.Skipped = true
		return rr
	}

	e.logf("Row: %d", row.Position)

	checkpoint := row.LastSync
	if checkpoint.IsZero() {
		checkpoint = start.Add(-bootstrapBacklog)
		if err := e.table.SetCheckpoint(row.Position, checkpoint); err != nil {
			e.tracker.AddError(fmt.Sprintf("Cannot seed checkpoint for row %d: %v", row.Position, err))
			return rr
		}
		e.logf("Seeded checkpoint to %s", shared.FormatTimestamp(checkpoint))
	}

	if row.FrequencyHours > 0 {
		interval := time.Duration(row.FrequencyHours * float64(time.Hour))
		if start.Sub(checkpoint) <= interval {
			e.logf("Skipped: Not time yet")
			rr.Skipped = true
			return rr
		}
	}

	channelIDs, playlistIDs := e.resolveSources(ctx, row.Sources)

	var videos []models.VideoCandidate
	for _, channelID := range channelIDs {
		videos = append(videos, e.channelVideos(ctx, channelID, checkpoint)...)
	}
	for _, playlistID := range playlistIDs {
		videos = append(videos, e.playlistVideos(ctx, playlistID, checkpoint)...)
	}
	rr.Videos = len(videos)
	e.logf("Acquired %d videos", len(videos))

	if !e.tracker.HasErrors() {
		if e.opts.SkipInserts {
			e.tracker.AddError("Don't Update Playlists debug flag is set")
		} else {
			rr.Added = e.addVideos(ctx, row.PlaylistID, videos)
		}

		// Pruning only runs when every insert landed; deleting old items
		// while new ones failed would shrink the playlist on a bad run.
		if row.RetentionDays > 0 && !e.tracker.HasErrors() {
			cutoff := start.Add(-time.Duration(row.RetentionDays) * 24 * time.Hour)
			e.logf("Delete before: %s", shared.FormatTimestamp(cutoff))
			e.prune(ctx, row.PlaylistID, cutoff)
		}
	}

	if !e.tracker.HasErrors() && !e.opts.SkipCheckpoint {
		if err := e.table.SetCheckpoint(row.Position, start); err != nil {
			e.tracker.AddError(fmt.Sprintf("Cannot advance checkpoint for row %d: %v", row.Position, err))
		} else {
			rr.CheckpointAdvanced = true
		}
	}

	return rr
}

// logf writes a timestamped line to the execution log and the logger.
func (e *Engine) logf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	e.logger.Info(message)
	e.append(logstore.Entry{Timestamp: shared.FormatTimestamp(e.now()), Message: message})
}

// logError is the tracker's sink.
func (e *Engine) logError(message string) {
	e.logger.Error(message)
	e.append(logstore.Entry{Timestamp: shared.FormatTimestamp(e.now()), Message: message})
}

func (e *Engine) append(entry logstore.Entry) {
	if e.store == nil {
		return
	}
	if err := e.store.Append(entry); err != nil {
		e.logger.Warn("failed to append execution log entry", "err", err)
	}
}

func containsPosition(positions []int, position int) bool {
	for _, p := range positions {
		if p == position {
			return true
		}
	}
	return false
}
