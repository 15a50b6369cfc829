package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/subsync/internal/shared"
	"github.com/desertthunder/subsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// LogsList prints the most recent run timestamps.
func (r *Runner) LogsList(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	recent, err := r.buildStore(db).Recent()
	if err != nil {
		return err
	}

	if len(recent) == 0 {
		return r.writePlain("No runs recorded yet\n")
	}
	for _, runTS := range recent {
		r.writePlain("%s\n", runTS)
	}
	return nil
}

// LogsShow prints one run's log lines.
func (r *Runner) LogsShow(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	runTS := cmd.StringArg("run")
	if runTS == "" {
		return fmt.Errorf("%w: run timestamp", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	messages, err := r.buildStore(db).Logs(runTS)
	if err != nil {
		return err
	}
	if messages == nil {
		return r.writePlain("No log block found for %s; its column may have been recycled\n", runTS)
	}

	return r.writePlain("%s", ui.RenderRunSummary(runTS, messages))
}

// LogsUI launches the interactive log browser.
func (r *Runner) LogsUI(ctx context.Context, cmd *cli.Command) error {
	r.reloadConfig(cmd)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	model := ui.NewModel(r.buildStore(db))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
