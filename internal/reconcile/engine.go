// Package reconcile keeps story checkboxes and the assistant's todo list in
// step. Loading a story seeds the todo list from its checkboxes; a later
// todo list from the assistant is paired against the previous snapshot and
// status changes are written back to the checkboxes.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"storysync/internal/checkbox"
	"storysync/internal/logging"
	"storysync/internal/match"
	"storysync/internal/merge"
	"storysync/internal/storage"
	"storysync/internal/story"
	"storysync/internal/todo"
	"storysync/internal/tracker"
)

// ErrInvalidStoryID is returned by LoadStory for ids that are not in
// epic.number form.
var ErrInvalidStoryID = errors.New("invalid story id")

// EventSink receives one event per reconciliation pass.
type EventSink interface {
	RecordSyncEvent(ev storage.SyncEvent) error
}

// Resolver finds the document of a story that is not the current one.
type Resolver interface {
	Find(storyID string) (string, error)
}

// Options configures an Engine.
type Options struct {
	// Enabled gates document writes. A disabled engine still tracks the
	// snapshot.
	Enabled  bool
	DryRun   bool
	Floor    float64
	Radius   int
	Parser   *story.Parser
	Resolver Resolver
	Sink     EventSink
	Metrics  *Metrics
	Logger   *log.Logger
}

// Engine runs load and reconcile passes against one tracker. Passes are
// serialized; the checkbox writes are plain read-modify-write.
type Engine struct {
	mu      sync.Mutex
	tracker *tracker.Tracker
	matcher match.Matcher
	locator checkbox.Locator
	parser  *story.Parser
	opts    Options
	logger  *log.Logger
}

// New returns an engine bound to tr.
func New(tr *tracker.Tracker, opts Options) *Engine {
	parser := opts.Parser
	if parser == nil {
		parser = story.NewParser(story.ParserOptions{})
	}
	return &Engine{
		tracker: tr,
		matcher: match.New(opts.Floor),
		locator: checkbox.NewLocator(opts.Radius, opts.Floor),
		parser:  parser,
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger),
	}
}

// Tracker returns the tracker the engine commits to.
func (e *Engine) Tracker() *tracker.Tracker { return e.tracker }

// LoadResult is what a story load hands back to the host.
type LoadResult struct {
	StoryID string
	Path    string
	Tasks   []story.Task
	Fresh   []todo.Item
	Todos   []todo.Item
	Hint    string
}

// LoadStory parses raw as story storyID, merges its tasks into the tracked
// todo list and makes it the current story.
func (e *Engine) LoadStory(ctx context.Context, storyID, raw, path string) (LoadResult, error) {
	if err := ctx.Err(); err != nil {
		return LoadResult{}, err
	}
	id, ok := story.NormalizeStoryID(storyID)
	if !ok {
		return LoadResult{}, fmt.Errorf("%w: %q", ErrInvalidStoryID, storyID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tasks := e.parser.Parse(raw, id)
	fresh := story.Project(tasks)
	existing := e.tracker.CurrentTodos()
	merged := merge.Merge(existing, fresh, id, merge.Options{StoryFinished: e.tracker.StoryFinished})

	if err := e.tracker.SetCurrentStory(id, raw, path); err != nil {
		e.logger.Warn("persist current story failed", "story", id, "error", err)
	}
	if err := e.tracker.SetCurrentTodos(merged); err != nil {
		e.logger.Warn("persist todos failed", "story", id, "error", err)
	}
	e.opts.Metrics.observeLoad()

	kept := len(merged) - len(fresh)
	e.logger.Info("story loaded", "story", id, "tasks", len(tasks), "kept", kept)
	return LoadResult{
		StoryID: id,
		Path:    path,
		Tasks:   tasks,
		Fresh:   fresh,
		Todos:   merged,
		Hint:    RenderHint(id, path, tasks, fresh, kept),
	}, nil
}

// Stale reports whether raw, parsed as story storyID, disagrees with the
// tracked snapshot: a task was added or removed, or a checkbox no longer
// matches the completed state of its todo. Tracked items are keyed by their
// content prefix, or by id when the prefix is gone, so hook payloads
// without ids and pure line moves do not count as drift.
func (e *Engine) Stale(storyID, raw string) bool {
	id, ok := story.NormalizeStoryID(storyID)
	if !ok {
		return false
	}
	fresh := story.Project(e.parser.Parse(raw, id))
	byKey := make(map[string]todo.Item, len(fresh))
	keyOfID := make(map[string]string, len(fresh))
	for _, f := range fresh {
		k := prefixKey(f.Content)
		byKey[k] = f
		keyOfID[f.ID] = k
	}

	seen := make(map[string]struct{}, len(fresh))
	for _, item := range e.tracker.CurrentTodos() {
		if owner, ok := story.Provenance(item.ID, item.Content); !ok || owner != id {
			continue
		}
		k := prefixKey(item.Content)
		if k == "" {
			k = keyOfID[item.ID]
		}
		f, ok := byKey[k]
		if !ok {
			return true
		}
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		if (f.Status == todo.StatusCompleted) != (item.Status == todo.StatusCompleted) {
			return true
		}
	}
	return len(seen) != len(fresh)
}

func prefixKey(content string) string {
	p, ok := story.DecodePrefix(content)
	if !ok {
		return ""
	}
	return story.EncodePrefix(p.StoryID, p.Section, p.SectionIndex)
}

// ReconcileJSON validates a raw todo payload and reconciles the valid
// items. Only a payload that is not a list at all is an error.
func (e *Engine) ReconcileJSON(ctx context.Context, data []byte) (Report, error) {
	parsed, err := todo.ParseList(data)
	if err != nil {
		return Report{}, err
	}
	for _, inv := range parsed.Invalid {
		e.logger.Warn("invalid todo item", "index", inv.Index, "reason", inv.Reason)
	}
	return e.reconcile(ctx, parsed.Items, parsed.Invalid), nil
}

// Reconcile pairs incoming against the previous snapshot and writes the
// resulting status changes to the story checkboxes. The incoming list is
// committed as the new snapshot no matter how many items were skipped.
func (e *Engine) Reconcile(ctx context.Context, incoming []todo.Item) Report {
	return e.reconcile(ctx, incoming, nil)
}

// reconcile runs one pass. invalid holds the payload entries rejected
// before the pass so they are counted in the recorded event and metrics.
func (e *Engine) reconcile(ctx context.Context, incoming []todo.Item, invalid []todo.Invalid) Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := Report{DryRun: e.opts.DryRun, Disabled: !e.opts.Enabled, Invalid: invalid}
	current, hasCurrent := e.tracker.CurrentStory()
	if hasCurrent {
		report.StoryID = current.ID
	}

	if e.opts.Enabled {
		prior := e.tracker.CurrentTodos()
		for _, item := range incoming {
			if ctx.Err() != nil {
				e.logger.Warn("reconcile cancelled, remaining items skipped", "error", ctx.Err())
				break
			}
			e.reconcileItem(item, prior, current, hasCurrent, &report)
		}
	}

	if !e.opts.DryRun {
		if err := e.tracker.SetCurrentTodos(incoming); err != nil {
			e.logger.Warn("persist todos failed", "error", err)
		} else {
			report.Committed = true
		}
		e.promote(current, hasCurrent, incoming)
	}

	e.record(report)
	return report
}

func (e *Engine) reconcileItem(item todo.Item, prior []todo.Item, current tracker.Story, hasCurrent bool, report *Report) {
	report.Processed++

	res := e.matcher.Find(item, prior)
	switch res.Type {
	case match.TypeID:
		report.MatchedID++
	case match.TypeExactContent:
		report.MatchedExact++
	case match.TypeSimilarContent:
		report.MatchedSimilar++
	default:
		if res.LowConfidence() {
			report.LowConfidence++
			e.logger.Debug("low confidence match skipped", "content", item.Content, "best", res.BestScore)
		} else {
			report.Unmatched++
		}
		return
	}

	checked, transition := checkboxTransition(res.Matched.Status, item.Status)
	if !transition {
		report.Unchanged++
		return
	}

	storyID, ok := story.Provenance(item.ID, item.Content)
	if !ok {
		storyID, ok = story.Provenance(res.Matched.ID, res.Matched.Content)
	}
	if !ok {
		report.IdentityMisses++
		e.logger.Debug("no story provenance", "id", item.ID, "content", item.Content)
		return
	}

	path, err := e.documentPath(storyID, current, hasCurrent)
	if err != nil {
		report.LocateMisses++
		e.logger.Warn("story document not found", "story", storyID, "error", err)
		return
	}

	line, found := e.locate(path, item, *res.Matched)
	if !found {
		report.LocateMisses++
		e.logger.Warn("checkbox not found", "story", storyID, "content", item.Content, "path", path)
		return
	}

	if e.opts.DryRun {
		diff, err := checkbox.Preview(path, line, checked)
		if err != nil {
			report.LocateMisses++
			e.logger.Warn("preview failed", "path", path, "line", line, "error", err)
			return
		}
		if diff == "" {
			report.Unchanged++
			return
		}
		report.Previews = append(report.Previews, Preview{Path: path, Line: line, Checked: checked, Diff: diff})
		return
	}

	updated, err := checkbox.SetChecked(path, line, checked)
	switch {
	case err != nil:
		report.LocateMisses++
		e.logger.Warn("checkbox update failed", "path", path, "line", line, "error", err)
	case !updated:
		report.Unchanged++
	case checked:
		report.Checked++
		e.logger.Info("checkbox checked", "story", storyID, "line", line+1)
	default:
		report.Unchecked++
		e.logger.Info("checkbox unchecked", "story", storyID, "line", line+1)
	}
}

// checkboxTransition maps a status change onto a checkbox state. Cancelled
// items never touch the document.
func checkboxTransition(before, after todo.Status) (checked bool, ok bool) {
	if after == todo.StatusCancelled || before == todo.StatusCancelled && after != todo.StatusCompleted {
		return false, false
	}
	wasDone := before == todo.StatusCompleted
	isDone := after == todo.StatusCompleted
	if wasDone == isDone {
		return false, false
	}
	return isDone, true
}

func (e *Engine) documentPath(storyID string, current tracker.Story, hasCurrent bool) (string, error) {
	if hasCurrent && current.ID == storyID && current.Path != "" {
		return current.Path, nil
	}
	if e.opts.Resolver == nil {
		return "", fmt.Errorf("%w: %s", story.ErrStoryNotFound, storyID)
	}
	return e.opts.Resolver.Find(storyID)
}

// locate finds the live line of the item, trying the text the document was
// projected from before the assistant's text.
func (e *Engine) locate(path string, item, matched todo.Item) (int, bool) {
	hint := -1
	if ident, ok := story.DecodeID(item.ID); ok {
		hint = ident.LineHint
	} else if ident, ok := story.DecodeID(matched.ID); ok {
		hint = ident.LineHint
	}

	texts := []string{matched.Content}
	if item.Content != matched.Content {
		texts = append(texts, item.Content)
	}
	for _, text := range texts {
		line, found, err := e.locator.Locate(path, text, hint)
		if err != nil {
			e.logger.Warn("read story document failed", "path", path, "error", err)
			return -1, false
		}
		if found {
			return line, true
		}
	}
	return -1, false
}

// promote moves a freshly loaded story to in_progress once one of its items
// is being worked on.
func (e *Engine) promote(current tracker.Story, hasCurrent bool, incoming []todo.Item) {
	if !hasCurrent || current.Status != tracker.StatusLoading {
		return
	}
	for _, item := range incoming {
		owner, ok := story.Provenance(item.ID, item.Content)
		if !ok || owner != current.ID {
			continue
		}
		if item.Status == todo.StatusInProgress || item.Status == todo.StatusCompleted {
			if err := e.tracker.UpdateStoryStatus(tracker.StatusInProgress); err != nil {
				e.logger.Warn("promote story failed", "story", current.ID, "error", err)
			}
			return
		}
	}
}

func (e *Engine) record(report Report) {
	e.logger.Info("reconcile pass", "story", report.StoryID, "processed", report.Processed,
		"matched_id", report.MatchedID, "matched_exact", report.MatchedExact,
		"matched_similar", report.MatchedSimilar, "low_confidence", report.LowConfidence,
		"identity_misses", report.IdentityMisses, "locate_misses", report.LocateMisses,
		"updated", report.Updated(), "dry_run", report.DryRun)
	e.opts.Metrics.observe(report)
	if e.opts.Sink != nil {
		ev := report.Event(e.tracker.SessionID(), e.tracker.ProjectDir())
		if err := e.opts.Sink.RecordSyncEvent(ev); err != nil {
			e.logger.Warn("record sync event failed", "error", err)
		}
	}
}
