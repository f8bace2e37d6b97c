// Package merge combines a freshly projected story with the todo list that
// was already being tracked.
package merge

import (
	"storysync/internal/story"
	"storysync/internal/todo"
)

// Options tunes which other-story items survive a merge.
type Options struct {
	// StoryFinished reports whether a story is known to be finished. Items
	// of finished stories are dropped even when they are still open.
	StoryFinished func(storyID string) bool
}

// Partition 分区结果
// Partition is existing split by provenance.
type Partition struct {
	User        []todo.Item
	OtherActive []todo.Item
	Dropped     []todo.Item
}

// Split sorts existing into user items, still-active items of other stories
// and items superseded by loading storyID. Completed work of other stories
// is dropped; cancelled items stay while their story is active.
func Split(existing []todo.Item, loadingStoryID string, opts Options) Partition {
	var p Partition
	for _, item := range existing {
		owner, ok := story.Provenance(item.ID, item.Content)
		switch {
		case !ok:
			p.User = append(p.User, item)
		case owner == loadingStoryID:
			p.Dropped = append(p.Dropped, item)
		case item.Status == todo.StatusCompleted:
			p.Dropped = append(p.Dropped, item)
		case opts.StoryFinished != nil && opts.StoryFinished(owner):
			p.Dropped = append(p.Dropped, item)
		default:
			p.OtherActive = append(p.OtherActive, item)
		}
	}
	return p
}

// Merge returns user ++ otherActive ++ fresh. Fresh items win id collisions;
// inside the kept partitions the first occurrence of an id wins. Items
// without an id are never deduplicated.
func Merge(existing, fresh []todo.Item, loadingStoryID string, opts Options) []todo.Item {
	p := Split(existing, loadingStoryID, opts)

	taken := make(map[string]struct{}, len(fresh))
	out := make([]todo.Item, 0, len(p.User)+len(p.OtherActive)+len(fresh))

	var freshOut []todo.Item
	for _, item := range fresh {
		if item.ID != "" {
			if _, dup := taken[item.ID]; dup {
				continue
			}
			taken[item.ID] = struct{}{}
		}
		freshOut = append(freshOut, item)
	}

	keep := func(items []todo.Item) {
		for _, item := range items {
			if item.ID != "" {
				if _, dup := taken[item.ID]; dup {
					continue
				}
				taken[item.ID] = struct{}{}
			}
			out = append(out, item)
		}
	}
	keep(p.User)
	keep(p.OtherActive)

	return append(out, freshOut...)
}
