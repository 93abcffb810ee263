package main

import (
	"bytes"
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/config"
	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/notify"
	"github.com/fyrsmithlabs/kbsync/internal/summarize"
)

// newSummarizer builds the configured summarizer. Tests replace it.
var newSummarizer = func(ctx context.Context, cfg *config.Config, log *logging.Logger) (summarize.Summarizer, error) {
	if err := cfg.ValidateSummarizer(); err != nil {
		return nil, err
	}
	return summarize.NewGemini(ctx, summarize.GeminiConfig{
		APIKey:  cfg.Summarizer.APIKey,
		Model:   cfg.Summarizer.Model,
		Timeout: cfg.Summarizer.Timeout,
	}, log)
}

type summarizeFlags struct {
	thread string
	dryRun bool
}

func newSummarizeCmd() *cobra.Command {
	var f summarizeFlags
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a Slack thread and file it as a pull request",
		Long: `Summarize an exported Slack thread with the configured model and file the
result into the knowledge base.

The thread is JSON:

  {
    "channel_id": "C042",
    "channel_name": "ops",
    "thread_ts": "1700000000.000100",
    "workspace_id": "T01",
    "messages": [{"user": "U1", "text": "...", "ts": "1700000000.000100"}]
  }

When SLACK_RESPONSE_URL is set the outcome is posted back to Slack, and
when GITHUB_STEP_SUMMARY is set the pull request is added to the job
summary. The pull request URL is printed as PR_URL=<url>.

Examples:
  # Summarize a saved thread
  kbsync summarize --thread thread.json

  # Pipe a thread in from another tool
  fetch-thread C042 1700000000.000100 | kbsync summarize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.thread, "thread", "t", "-", "thread JSON file, - for stdin")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "read the repository but write nothing, print the resulting document")
	return cmd
}

func runSummarize(cmd *cobra.Command, f summarizeFlags) error {
	data, err := readInput(f.thread, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	thread, err := summarize.ReadThread(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, summarize.ErrNoMessages) {
			a.notifier(cmd.OutOrStdout()).Say(ctx, notify.TargetFromEnv(""), notify.NoMessagesText)
		}
		return err
	}

	ctx = logging.WithThread(ctx, logging.Thread{
		ChannelID:   thread.ChannelID,
		ChannelName: thread.ChannelName,
		TS:          thread.ThreadTS,
	})

	summarizer, err := newSummarizer(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	summary, err := summarizer.Summarize(ctx, thread)
	if err == nil {
		err = summarize.Check(summary)
	}
	if err != nil {
		a.log.Error(ctx, "failed to summarize thread", zap.Error(err))
		if !f.dryRun {
			a.notifier(cmd.OutOrStdout()).Failed(ctx, a.target(thread.ChannelID, thread.ThreadTS), err)
		}
		return err
	}

	_, err = a.submit(ctx, cmd.OutOrStdout(), submission{
		Summary:     summary,
		ChannelID:   thread.ChannelID,
		ChannelName: thread.ChannelName,
		TS:          thread.ThreadTS,
		WorkspaceID: thread.WorkspaceID,
		Messages:    len(thread.Messages),
		DryRun:      f.dryRun,
	})
	return err
}
