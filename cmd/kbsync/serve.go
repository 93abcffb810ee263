package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	kbhttp "github.com/fyrsmithlabs/kbsync/internal/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the reconcile HTTP API",
		Long: `Serve the HTTP API.

Endpoints:
  POST /api/v1/reconcile   file a summary, rate limited per client IP
  GET  /health             liveness
  GET  /metrics            Prometheus metrics

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	rec, err := a.reconciler(ctx, false)
	if err != nil {
		return err
	}
	scrubber, err := a.scrubber()
	if err != nil {
		return err
	}

	srv, err := kbhttp.NewServer(rec, scrubber, a.log, &kbhttp.Config{
		Host:        a.cfg.Server.Host,
		Port:        a.cfg.Server.Port,
		RateLimit:   a.cfg.Server.RateLimit,
		RateBurst:   a.cfg.Server.RateBurst,
		WorkspaceID: a.cfg.Slack.WorkspaceID,
		Meter:       a.telemetry.Meter("github.com/fyrsmithlabs/kbsync/internal/http"),
	})
	if err != nil {
		return err
	}

	a.log.Info(ctx, "starting kbsync",
		zap.Int("port", a.cfg.Server.Port),
		zap.String("repository", a.cfg.GitHub.RepoOwner+"/"+a.cfg.GitHub.RepoName),
		zap.Duration("shutdown_timeout", a.cfg.Server.ShutdownTimeout),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.log.Info(shutdownCtx, "server shutdown complete")
	return nil
}
