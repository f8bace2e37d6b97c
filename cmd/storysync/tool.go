package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"storysync/internal/tools"
)

func toolCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "Expose the todo and story tools to an assistant host",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "defs",
		Short: "Print the tool definitions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(a.registry().Definitions())
		},
	})

	var file string
	exec := &cobra.Command{
		Use:   "exec <name>",
		Short: "Run a tool with JSON arguments from stdin",
		Args:  cobra.ExactArgs(1),
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

			reg := a.registry()
			if !reg.Has(args[0]) {
				return fmt.Errorf("unknown tool %q (have %s)", args[0], strings.Join(reg.Names(), ", "))
			}
			raw := strings.TrimSpace(string(data))
			if raw == "" {
				raw = "{}"
			}
			out, err := reg.Execute(cmd.Context(), args[0], json.RawMessage(raw))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	exec.Flags().StringVarP(&file, "file", "f", "", "Read arguments from a file instead of stdin")
	cmd.AddCommand(exec)

	var callFile string
	call := &cobra.Command{
		Use:   "call",
		Short: "Run a host tool call ({\"name\", \"input\"}) from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), callFile)
			if err != nil {
				return err
			}
			var c tools.Call
			if err := json.Unmarshal(data, &c); err != nil {
				return fmt.Errorf("parse tool call: %w", err)
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.registry().ExecuteCall(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	call.Flags().StringVarP(&callFile, "file", "f", "", "Read the call from a file instead of stdin")
	cmd.AddCommand(call)
	return cmd
}
