package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/kbsync/internal/article"
	"github.com/fyrsmithlabs/kbsync/internal/logging"
	"github.com/fyrsmithlabs/kbsync/internal/notify"
	"github.com/fyrsmithlabs/kbsync/internal/reconcile"
)

// submission is a summary ready to be filed.
type submission struct {
	Summary     string
	ChannelID   string
	ChannelName string
	TS          string
	WorkspaceID string
	// Messages is the number of summarized messages, zero when unknown.
	Messages int
	DryRun   bool
}

// notifier is built per run so tests can point it at their own writer.
func (a *app) notifier(out io.Writer) *notify.Notifier {
	return notify.New(out, a.cfg.Slack.ReplyTimeout, a.log)
}

// target is where outcomes for a thread are reported.
func (a *app) target(channelID, ts string) notify.Target {
	return notify.TargetFromEnv(notify.MessageLink(a.cfg.Slack.WorkspaceName, channelID, ts))
}

// submit scrubs and reconciles s, then reports the outcome. In a dry run
// the document that would have been committed is written to out and
// nobody is notified.
func (a *app) submit(ctx context.Context, out io.Writer, s submission) (*reconcile.Result, error) {
	ctx = logging.WithThread(ctx, logging.Thread{ChannelID: s.ChannelID, ChannelName: s.ChannelName, TS: s.TS})
	n := a.notifier(out)
	target := a.target(s.ChannelID, s.TS)

	result, err := a.reconcile(ctx, s)
	if err != nil {
		a.log.Error(ctx, "failed to file summary", zap.Error(err))
		if !s.DryRun {
			n.Failed(ctx, target, err)
		}
		return nil, err
	}

	if s.DryRun {
		a.log.Info(ctx, "dry run, nothing was written",
			zap.String("path", result.Path),
			zap.String("branch", result.Branch),
			zap.Bool("is_update", result.IsUpdate),
		)
		fmt.Fprint(out, result.Content)
		return result, nil
	}

	n.Succeeded(ctx, target, s.Messages, result.URL)
	return result, nil
}

func (a *app) reconcile(ctx context.Context, s submission) (*reconcile.Result, error) {
	scrubber, err := a.scrubber()
	if err != nil {
		return nil, err
	}
	rec, err := a.reconciler(ctx, s.DryRun)
	if err != nil {
		return nil, err
	}

	workspace := s.WorkspaceID
	if workspace == "" {
		workspace = a.cfg.Slack.WorkspaceID
	}
	channelName := s.ChannelName
	if channelName == "" {
		channelName = s.ChannelID
	}

	return rec.Reconcile(ctx, reconcile.Request{
		Summary:     scrubber.Scrub(ctx, s.Summary).Text,
		SourceURL:   article.SlackThreadLink(workspace, s.ChannelID, s.TS),
		ChannelName: channelName,
		MessageTS:   s.TS,
	})
}
