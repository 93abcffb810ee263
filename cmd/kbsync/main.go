// Kbsync files Slack thread summaries into a knowledge-base repository as
// GitHub pull requests.
//
// Configuration is loaded from an optional YAML file, a .env file and
// environment variables. See internal/config for details.
//
// Usage:
//
//	# Summarize an exported thread and open a pull request
//	kbsync summarize --thread thread.json
//
//	# File an existing summary
//	kbsync reconcile --summary summary.md --channel C042 --ts 1700000000.000100
//
//	# Serve the HTTP API
//	kbsync serve
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var (
	configPath string
	envFile    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kbsync",
		Short: "Turn Slack threads into knowledge-base pull requests",
		Long: `kbsync files summaries of Slack threads into a Markdown knowledge base
kept in a GitHub repository. A summary whose topic matches an existing
article extends that article; otherwise a new article is created. Every
change is proposed as a pull request on its own branch.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/kbsync/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration, ignored when missing")

	root.AddCommand(newReconcileCmd())
	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("kbsync by Fyrsmith Labs\n")
			cmd.Printf("Version:    %s\n", version)
			cmd.Printf("Commit:     %s\n", gitCommit)
			cmd.Printf("Build Date: %s\n", buildDate)
		},
	}
}
