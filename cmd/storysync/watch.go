package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"storysync/internal/watch"
)

func watchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reload the current story whenever its document changes on disk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.Close()
			opts.loader = a.loader
			dirs := storyDirs(a)
			logger := a.logger.WithPrefix("watch")

			out := cmd.OutOrStdout()
			w, err := watch.New(dirs, func(paths []string) {
				if err := opts.reloadChanged(cmd.Context(), out, paths); err != nil {
					logger.Warn("reload failed", "err", err)
				}
			}, watch.Options{Filter: watch.MarkdownOnly, Logger: logger})
			if err != nil {
				return err
			}
			if err := w.Start(cmd.Context()); err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			logger.Info("watching story documents", "dirs", dirs)
			<-w.Done()
			return nil
		},
	}
}

// reloadChanged re-runs the story load when one of paths is the current
// story's document and it drifted from the tracked todos.
func (o *rootOptions) reloadChanged(ctx context.Context, out io.Writer, paths []string) error {
	a, err := o.open()
	if err != nil {
		return err
	}
	defer a.Close()

	current, ok := a.tracker.CurrentStory()
	if !ok || current.Path == "" {
		return nil
	}
	hit := false
	for _, p := range paths {
		if resolved, err := a.ws.Resolve(p); err == nil && resolved == current.Path {
			hit = true
			break
		}
	}
	if !hit {
		return nil
	}

	doc, err := a.loader.LoadPath(current.Path, current.ID)
	if err != nil {
		return err
	}
	if !a.engine.Stale(doc.StoryID, doc.Raw) {
		a.logger.Debug("story unchanged", "story", doc.StoryID)
		return nil
	}
	res, err := a.engine.LoadStory(ctx, doc.StoryID, doc.Raw, doc.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "reloaded story %s: %d tasks, %d todos\n", res.StoryID, len(res.Tasks), len(res.Todos))
	return nil
}
