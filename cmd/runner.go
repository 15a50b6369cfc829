package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/subsync/internal/logstore"
	"github.com/desertthunder/subsync/internal/repositories"
	"github.com/desertthunder/subsync/internal/services"
	"github.com/desertthunder/subsync/internal/shared"
	"github.com/desertthunder/subsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	video      services.VideoService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Video      services.VideoService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		video:      opts.Video,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, rowsCommand, syncCommand, logsCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// reloadConfig swaps in the config file named by the command's --config
// flag when it exists.
func (r *Runner) reloadConfig(cmd *cli.Command) {
	configPath := cmd.String("config")
	if configPath == "" {
		return
	}
	if _, err := os.Stat(configPath); err != nil {
		return
	}
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, keeping current settings", "path", configPath, "error", err)
		return
	}
	r.config = config
}

// openDatabase opens the configured SQLite database.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// videoService returns the injected service or builds the YouTube client
// from configured credentials. Playlist mutation needs the OAuth token;
// an API key alone only covers read paths.
func (r *Runner) videoService(ctx context.Context) (services.VideoService, error) {
	if r.video != nil {
		return r.video, nil
	}

	creds := r.config.Credentials.YouTube
	client := r.httpClient
	if creds.ClientID != "" && creds.ClientSecret != "" && creds.TokenPath != "" {
		oauthClient, err := services.OAuthClient(ctx, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to build OAuth client: %w", err)
		}
		client = oauthClient
	} else if creds.APIKey == "" {
		return nil, fmt.Errorf("%w: configure either an API key or OAuth credentials", shared.ErrMissingConfig)
	}

	r.video = services.NewYouTubeService("", creds.APIKey, client, r.config.Sync.RateLimit)
	return r.video, nil
}

// buildStore wires the execution-log store over the database-backed grid.
func (r *Runner) buildStore(db *sql.DB) *logstore.Store {
	return logstore.New(
		repositories.NewGridRepository(db),
		repositories.NewRunIndexRepository(db),
		logstore.Options{
			Rows:       r.config.Sync.LogRows,
			Columns:    r.config.Sync.LogColumns,
			RecentRuns: r.config.Sync.RecentRuns,
		},
	)
}

// buildEngine assembles a sync engine over the given database.
func (r *Runner) buildEngine(ctx context.Context, db *sql.DB, opts tasks.Options) (*tasks.Engine, error) {
	video, err := r.videoService(ctx)
	if err != nil {
		return nil, err
	}

	if opts.MaxVideos == 0 {
		opts.MaxVideos = r.config.Sync.MaxVideos
	}
	if opts.SubscriptionPageCap == 0 {
		opts.SubscriptionPageCap = r.config.Sync.SubscriptionPageCap
	}

	table := repositories.NewRowRepository(db)
	return tasks.NewEngine(table, video, r.buildStore(db), r.logger, opts), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
