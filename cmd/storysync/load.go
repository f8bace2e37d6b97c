package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func loadCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "load <story-id>",
		Short: "Load a story and seed the todo list from its checkboxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.loader.Load(args[0])
			if err != nil {
				return err
			}
			res, err := a.engine.LoadStory(cmd.Context(), doc.StoryID, doc.Raw, doc.Path)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"story_id": res.StoryID,
					"path":     res.Path,
					"todos":    res.Todos,
					"hint":     res.Hint,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Hint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the merged todo list as JSON")
	return cmd
}
