package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storysync/internal/config"
)

func initCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a project config scaffold to .storysync/config.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := opts.resolveRoot(config.Config{})
			if err != nil {
				return err
			}
			path, err := config.InitProjectConfigScaffold(root)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "project config: %s\n", path)
			return nil
		},
	}
}

func enableCmd(opts *rootOptions, enabled bool) *cobra.Command {
	use, short := "enable", "Turn checkbox synchronization on for this project"
	if !enabled {
		use, short = "disable", "Turn checkbox synchronization off for this project"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := opts.resolveRoot(config.Config{})
			if err != nil {
				return err
			}
			if err := config.WriteSyncEnabled(root, enabled); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sync %sd\n", use)
			return nil
		},
	}
}
