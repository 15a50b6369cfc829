package main

import (
	"context"
	"errors"

	"github.com/desertthunder/subsync/internal/shared"
	"github.com/desertthunder/subsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun performs one sync pass over the tracking table.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	opts := tasks.Options{
		SkipCheckpoint: cmd.Bool("skip-checkpoint"),
		SkipInserts:    cmd.Bool("skip-inserts"),
	}
	if position := cmd.Int("row"); position > 0 {
		opts.Only = []int{position}
	}

	engine, err := r.buildEngine(ctx, db, opts)
	if err != nil {
		return err
	}

	result, runErr := engine.Run(ctx)
	if runErr != nil && !errors.Is(runErr, shared.ErrRunFailed) {
		return runErr
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
		return runErr
	}

	for _, rr := range result.Rows {
		if rr.Skipped {
			r.writePlain("%d. %s skipped\n", rr.Position, rr.PlaylistID)
			continue
		}
		r.writePlain("%d. %s found %d, added %d, errors %d\n",
			rr.Position, rr.PlaylistID, rr.Videos, rr.Added, rr.Errors)
	}

	if result.TotalErrors > 0 {
		r.writePlain("Run finished with %d error(s), see 'logs show %s'\n",
			result.TotalErrors, shared.FormatTimestamp(result.StartedAt))
	} else {
		r.writePlain("Run finished successfully\n")
	}

	return runErr
}
