package main

import (
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"storysync/internal/story"
	"storysync/internal/tui"
	"storysync/internal/watch"
)

const eventLimit = 50

func boardCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Open a live view of the current story, todos and sync events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel == "" {
				opts.logLevel = "error"
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			dirs := append(storyDirs(a), a.cfg.Storage.BaseDir)
			root := a.ws.Root()
			opts.loader = a.loader
			a.Close()

			refresh := func() tea.Msg { return opts.snapshot() }
			feed := make(chan tea.Msg, 8)
			w, err := watch.New(dirs, func([]string) {
				select {
				case feed <- refresh():
				default:
				}
			}, watch.Options{Debounce: 200 * time.Millisecond})
			if err != nil {
				return err
			}
			// Without a watchable directory the board still works with manual refresh.
			if err := w.Start(cmd.Context()); err == nil {
				defer w.Stop()
			}
			return tui.Run(tui.Options{
				Workspace:    root,
				Refresh:      refresh,
				ReadDocument: opts.readDocument,
			}, feed)
		},
	}
}

// snapshot reopens the stores and returns the latest state for the board.
func (o *rootOptions) snapshot() tea.Msg {
	a, err := o.open()
	if err != nil {
		return tui.ErrMsg{Err: err}
	}
	defer a.Close()
	msg := tui.StateMsg{State: a.tracker.Snapshot()}
	if a.events != nil {
		events, err := a.listEvents(eventLimit)
		if err != nil {
			return tui.ErrMsg{Err: err}
		}
		msg.Events = events
	}
	return msg
}

// readDocument serves board reads through the shared loader so refreshes of
// an unchanged story reuse the cached parse.
func (o *rootOptions) readDocument(path string) ([]byte, error) {
	if o.loader == nil {
		return os.ReadFile(path)
	}
	id, _ := story.NormalizeStoryID(filepath.Base(path))
	doc, err := o.loader.LoadPath(path, id)
	if err != nil {
		return nil, err
	}
	return []byte(doc.Raw), nil
}

// storyDirs returns the story directories resolved inside the workspace.
func storyDirs(a *app) []string {
	var out []string
	for _, dir := range a.loader.Dirs() {
		resolved, err := a.ws.Resolve(dir)
		if err != nil {
			a.logger.Warn("story dir outside workspace", "dir", dir, "err", err)
			continue
		}
		out = append(out, filepath.Clean(resolved))
	}
	return out
}
