package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/repositories"
	"github.com/desertthunder/subsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// RowsList prints the tracked rows.
func (r *Runner) RowsList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRowRepository(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	rows, err := repo.Rows()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	if len(rows) == 0 {
		return r.writePlain("No tracked rows. Add one with 'rows add'.\n")
	}

	for _, row := range rows {
		lastSync := "never"
		if !row.LastSync.IsZero() {
			lastSync = shared.FormatTimestamp(row.LastSync)
		}
		r.writePlain("%d. %s\n", row.Position, row.PlaylistID)
		r.writePlain("   sources: %s\n", strings.Join(row.Sources, ", "))
		r.writePlain("   last sync: %s", lastSync)
		if row.FrequencyHours > 0 {
			r.writePlain("  every %.0fh", row.FrequencyHours)
		}
		if row.RetentionDays > 0 {
			r.writePlain("  keep %dd", row.RetentionDays)
		}
		r.writePlain("\n")
	}

	return nil
}

// RowsAdd tracks a new destination playlist.
func (r *Runner) RowsAdd(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRowRepository(db)
	if err := repo.Validate(); err != nil {
		return err
	}

	row := &models.TrackedRow{
		PlaylistID:     cmd.String("playlist"),
		Sources:        cmd.StringSlice("source"),
		FrequencyHours: cmd.Float("frequency"),
		RetentionDays:  cmd.Int("retention"),
	}

	if err := repo.Create(row); err != nil {
		return fmt.Errorf("failed to track playlist: %w", err)
	}

	r.logger.Info("row added", "position", row.Position, "playlist", row.PlaylistID)
	return r.writePlain("Tracking %s at position %d\n", row.PlaylistID, row.Position)
}

// RowsRemove stops tracking a row.
func (r *Runner) RowsRemove(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRowRepository(db)
	position := cmd.Int("position")
	if err := repo.Delete(position); err != nil {
		return err
	}

	return r.writePlain("Removed row %d\n", position)
}
