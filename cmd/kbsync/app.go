package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/config"
	"github.com/fyrsmithlabs/kbsync/internal/github"
	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/reconcile"
	"github.com/fyrsmithlabs/kbsync/internal/repository"
	"github.com/fyrsmithlabs/kbsync/internal/scrub"
	"github.com/fyrsmithlabs/kbsync/internal/telemetry"
)

// newRepository opens the knowledge-base repository. Tests replace it.
var newRepository = func(ctx context.Context, cfg *config.Config, log *logging.Logger) (repository.Repository, error) {
	if err := cfg.ValidateGitHub(); err != nil {
		return nil, err
	}
	client, err := github.NewClient(ctx, github.ClientConfig{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
		Timeout: cfg.GitHub.Timeout,
	})
	if err != nil {
		return nil, err
	}
	retry := github.DefaultRetryConfig()
	retry.MaxRetries = cfg.GitHub.MaxRetries
	retry.InitialBackoff = cfg.GitHub.RetryBackoff
	return github.NewRepository(client, cfg.GitHub.RepoOwner, cfg.GitHub.RepoName,
		github.WithRetry(retry),
		github.WithLogger(log),
	), nil
}

// app holds what every command needs.
type app struct {
	cfg       *config.Config
	log       *logging.Logger
	telemetry *telemetry.Telemetry
}

// setup loads the environment and configuration, then builds the logger
// and telemetry. Logs go to stderr so stdout only carries results.
func setup(ctx context.Context) (*app, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromObservability(cfg.Observability, version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if problem := tel.Degraded(); problem != nil {
		log.Warn(ctx, "telemetry degraded", zap.Error(problem))
	}
	return &app{cfg: cfg, log: log, telemetry: tel}, nil
}

func (a *app) close(ctx context.Context) {
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.log.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = a.log.Sync()
}

// reconciler wires a Reconciler over the configured repository. dryRun
// keeps every write local.
func (a *app) reconciler(ctx context.Context, dryRun bool) (*reconcile.Reconciler, error) {
	repo, err := newRepository(ctx, a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	if dryRun {
		repo = repository.NewDryRun(repo)
	}
	return reconcile.New(repo, reconcile.Config{
		Directory:    a.cfg.GitHub.Directory,
		BranchPrefix: a.cfg.GitHub.BranchPrefix,
	}, reconcile.WithLogger(a.log))
}

func (a *app) scrubber() (*scrub.Scrubber, error) {
	return scrub.New(scrub.Config{Enabled: a.cfg.Scrub.Enabled}, a.log)
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	lc := logging.NewDefaultConfig()
	lc.Level = level
	lc.Format = cfg.Logging.Format
	lc.Output.Stream = "stderr"
	return logging.NewLogger(lc, nil)
}

// loadEnvFile populates unset environment variables from path. A missing
// file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// readInput reads a file, or stdin when name is "-".
func readInput(name string, stdin io.Reader) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", name, err)
	}
	return data, nil
}
