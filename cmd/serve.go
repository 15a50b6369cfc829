package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/subsync/internal/models"
	"github.com/desertthunder/subsync/internal/repositories"
	"github.com/desertthunder/subsync/internal/server"
	"github.com/desertthunder/subsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve starts the HTTP trigger server. GET /sync?update=True runs a sync
// pass the same way 'sync run' does; GET /playlist redirects to a row's
// destination playlist.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
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

	run := func(ctx context.Context, only []int) (*tasks.RunResult, error) {
		engine, err := r.buildEngine(ctx, db, tasks.Options{Only: only})
		if err != nil {
			return nil, err
		}
		return engine.Run(ctx)
	}
	rows := func() ([]models.TrackedRow, error) {
		return repo.Rows()
	}

	router := server.NewBasicRouter()
	router.Use(server.Logging(r.logger))
	router.Handler(server.NewSyncHandler(run, rows, r.logger))

	host := r.config.Server.Host
	if flagHost := cmd.String("host"); flagHost != "" {
		host = flagHost
	}
	port := r.config.Server.Port
	if flagPort := cmd.Int("port"); flagPort != 0 {
		port = flagPort
	}

	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", host, port)
	return server.Serve(serveCtx, addr, router, r.logger)
}
