package main

import (
	"github.com/spf13/cobra"
)

type reconcileFlags struct {
	summary     string
	channel     string
	channelName string
	ts          string
	workspaceID string
	dryRun      bool
}

func newReconcileCmd() *cobra.Command {
	var f reconcileFlags
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "File a finished summary as a knowledge-base pull request",
		Long: `File a Markdown summary into the knowledge base.

The summary's title decides the article it belongs to. A matching article
is extended with the new keywords, content and source link; otherwise a
new article is created. Either way the change lands on a new branch with
a pull request against the default branch.

Examples:
  # File a summary for a thread in #ops
  kbsync reconcile --summary summary.md --channel C042 --channel-name ops --ts 1700000000.000100

  # Read the summary from stdin
  cat summary.md | kbsync reconcile --summary - --channel C042 --ts 1700000000.000100

  # Print the document that would be committed, without writing anything
  kbsync reconcile --summary summary.md --channel C042 --ts 1700000000.000100 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.summary, "summary", "s", "-", "summary file, - for stdin")
	cmd.Flags().StringVar(&f.channel, "channel", "", "Slack channel ID the thread lives in")
	cmd.Flags().StringVar(&f.channelName, "channel-name", "", "channel name shown in the pull request (default channel ID)")
	cmd.Flags().StringVar(&f.ts, "ts", "", "thread timestamp, e.g. 1700000000.000100")
	cmd.Flags().StringVar(&f.workspaceID, "workspace-id", "", "Slack team ID for source links (default slack.workspace_id)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "read the repository but write nothing, print the resulting document")
	_ = cmd.MarkFlagRequired("channel")
	_ = cmd.MarkFlagRequired("ts")
	return cmd
}

func runReconcile(cmd *cobra.Command, f reconcileFlags) error {
	summary, err := readInput(f.summary, cmd.InOrStdin())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	_, err = a.submit(ctx, cmd.OutOrStdout(), submission{
		Summary:     string(summary),
		ChannelID:   f.channel,
		ChannelName: f.channelName,
		TS:          f.ts,
		WorkspaceID: f.workspaceID,
		DryRun:      f.dryRun,
	})
	return err
}
