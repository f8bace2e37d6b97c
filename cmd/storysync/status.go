package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"storysync/internal/contextmgr"
	"storysync/internal/tracker"
	"storysync/internal/tui"
)

func statusCmd(opts *rootOptions) *cobra.Command {
	var (
		set    string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current story and todo list, or move the story to a new status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if set != "" {
				status, ok := tracker.ParseStatus(set)
				if !ok {
					return fmt.Errorf("unknown story status %q", set)
				}
				if err := a.tracker.UpdateStoryStatus(status); err != nil {
					return err
				}
			}
			st := a.tracker.Snapshot()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderStatus(st, tui.DarkTheme()))
			return nil
		},
	}
	cmd.Flags().StringVar(&set, "set", "", "Move the current story to this status")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tracker state as JSON")
	return cmd
}

func contextCmd(opts *rootOptions) *cobra.Command {
	var (
		budget   int
		encoding string
	)
	cmd := &cobra.Command{
		Use:   "context",
		Short: "Print the current story block for a session prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("budget") {
				budget = a.cfg.Context.TokenBudget
			}
			if encoding == "" {
				encoding = a.cfg.Context.Encoding
			}
			tok := contextmgr.Resolve(encoding)
			if !tok.IsPrecise() {
				a.logger.Debug("tokenizer unavailable, using heuristic counts", "encoding", tok.EncodingName())
			}
			out := contextmgr.BuildStoryContext(a.tracker.Snapshot(), budget, tok)
			if out != "" {
				fmt.Fprintln(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&budget, "budget", 0, "Token budget; 0 disables truncation")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Token encoding or model name; \"heuristic\" skips BPE loading")
	return cmd
}

func historyCmd(opts *rootOptions) *cobra.Command {
	var (
		events bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show story status history, or stored sync events with --events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			theme := tui.DarkTheme()
			if events {
				list, err := a.listEvents(limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tui.RenderEvents(list, theme))
				return nil
			}
			entries := a.tracker.History()
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.RenderHistory(entries, theme))
			return nil
		},
	}
	cmd.Flags().BoolVar(&events, "events", false, "Show recorded sync events (sqlite backend)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries")
	return cmd
}

func clearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the current story and todo snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.tracker.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}
}
