package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"storysync/internal/reconcile"
	"storysync/internal/tui"
)

func reconcileCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		dryRun bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a todo list (JSON on stdin) with the story checkboxes",
		Long: `Reads a todo list as JSON, either a bare array or {"todos": [...]},
pairs it with the stored snapshot and writes the resulting checkbox changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			a.withDryRun(dryRun)

			report, err := a.engine.ReconcileJSON(cmd.Context(), todosPayload(data))
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report, asJSON)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the todo list from a file instead of stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show checkbox diffs without writing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// hookPayload is the part of an assistant host's post-tool hook input that
// matters here.
type hookPayload struct {
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		Todos json.RawMessage `json:"todos"`
	} `json:"tool_input"`
	Cwd string `json:"cwd"`
}

func hookCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Handle a TodoWrite post-tool hook payload on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read hook payload: %w", err)
			}
			var payload hookPayload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("decode hook payload: %w", err)
			}
			if payload.ToolName != "TodoWrite" {
				return nil
			}
			if strings.TrimSpace(opts.workspace) == "" {
				opts.workspace = payload.Cwd
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			todos := payload.ToolInput.Todos
			if len(todos) == 0 || string(todos) == "null" {
				todos = json.RawMessage("[]")
			}
			report, err := a.engine.ReconcileJSON(cmd.Context(), todos)
			if err != nil {
				return err
			}
			if report.Updated() > 0 || len(report.Previews) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "storysync: "+report.String())
			}
			return nil
		},
	}
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if strings.TrimSpace(file) != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}

// todosPayload unwraps {"todos": [...]}; anything else is passed through.
func todosPayload(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []byte("[]")
	}
	if trimmed[0] != '{' {
		return trimmed
	}
	var wrapped struct {
		Todos json.RawMessage `json:"todos"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil || len(wrapped.Todos) == 0 {
		return trimmed
	}
	return wrapped.Todos
}

func printReport(w io.Writer, report reconcile.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintln(w, tui.RenderReport(report, tui.DarkTheme()))
	return nil
}
