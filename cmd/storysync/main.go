// Command storysync keeps story document checkboxes in step with an
// assistant's todo list.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"storysync/internal/story"
)

var Version = "dev"

type rootOptions struct {
	configPath string
	workspace  string
	logLevel   string

	// loader is kept across invocations by long-running commands.
	loader *story.Loader
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "storysync",
		Short:         "Sync story checkboxes with the assistant todo list",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config JSON/JSONC")
	rootCmd.PersistentFlags().StringVar(&opts.workspace, "cwd", "", "Workspace root override")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		initCmd(opts),
		enableCmd(opts, true),
		enableCmd(opts, false),
		loadCmd(opts),
		reconcileCmd(opts),
		hookCmd(opts),
		statusCmd(opts),
		contextCmd(opts),
		historyCmd(opts),
		clearCmd(opts),
		boardCmd(opts),
		watchCmd(opts),
		toolCmd(opts),
	)
	return rootCmd
}
