package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storysync/internal/storage"
	"storysync/internal/todo"
	"storysync/internal/tracker"
)

const loginStory = `# Story 2.3: Login

## Acceptance Criteria
- [ ] Users can log in

## Tasks / Subtasks
- [ ] Implement login
- [x] Add logout
`

type recordingSink struct{ events []storage.SyncEvent }

func (s *recordingSink) RecordSyncEvent(ev storage.SyncEvent) error {
	s.events = append(s.events, ev)
	return nil
}

type fixture struct {
	engine  *Engine
	tracker *tracker.Tracker
	path    string
	sink    *recordingSink
	metrics *Metrics
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "2.3.login.md")
	require.NoError(t, os.WriteFile(path, []byte(loginStory), 0o644))

	tr := tracker.Open(&tracker.MemoryStore{}, dir, tracker.Options{})
	sink := &recordingSink{}
	metrics := NewMetrics()
	opts.Sink = sink
	opts.Metrics = metrics
	return fixture{engine: New(tr, opts), tracker: tr, path: path, sink: sink, metrics: metrics}
}

func (f fixture) load(t *testing.T) LoadResult {
	t.Helper()
	res, err := f.engine.LoadStory(context.Background(), "2.3", loginStory, f.path)
	require.NoError(t, err)
	return res
}

func (f fixture) document(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	return string(data)
}

func withStatus(items []todo.Item, id string, status todo.Status) []todo.Item {
	out := todo.Clone(items)
	for i := range out {
		if out[i].ID == id {
			out[i].Status = status
		}
	}
	return out
}

func TestLoadStorySeedsTodos(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	res := f.load(t)

	require.Len(t, res.Fresh, 3)
	assert.Equal(t, "2.3Δacceptance-criteriaΔ3", res.Fresh[0].ID)
	assert.Equal(t, "[2.3ΔAC1] Users can log in", res.Fresh[0].Content)
	assert.Equal(t, todo.PriorityHigh, res.Fresh[0].Priority)
	assert.Equal(t, "2.3ΔtasksΔ6", res.Fresh[1].ID)
	assert.Equal(t, todo.StatusCompleted, res.Fresh[2].Status)

	assert.Contains(t, res.Hint, "Story 2.3")
	assert.Contains(t, res.Hint, "- [ ] [2.3ΔTask1] Implement login")
	assert.Contains(t, res.Hint, "1 already checked")

	story, ok := f.tracker.CurrentStory()
	require.True(t, ok)
	assert.Equal(t, tracker.StatusLoading, story.Status)
	assert.Equal(t, f.path, story.Path)
	assert.Equal(t, res.Todos, f.tracker.CurrentTodos())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.loads))
}

func TestLoadStoryMergesUserTodos(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	require.NoError(t, f.tracker.SetCurrentTodos([]todo.Item{
		{ID: "u1", Content: "update changelog", Status: todo.StatusPending, Priority: todo.PriorityLow},
		{ID: "2.3ΔtasksΔ9", Content: "[2.3ΔTask1] stale copy", Status: todo.StatusPending},
	}))

	res := f.load(t)
	require.Len(t, res.Todos, 4)
	assert.Equal(t, "u1", res.Todos[0].ID)
	assert.Contains(t, res.Hint, "1 existing todos were kept")

	again := f.load(t)
	assert.Equal(t, res.Todos, again.Todos)
}

func TestLoadStoryRejectsBadID(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	_, err := f.engine.LoadStory(context.Background(), "login", loginStory, f.path)
	assert.ErrorIs(t, err, ErrInvalidStoryID)
}

func TestReconcileChecksBox(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	res := f.load(t)

	incoming := withStatus(res.Todos, "2.3ΔtasksΔ6", todo.StatusCompleted)
	report := f.engine.Reconcile(context.Background(), incoming)

	assert.Equal(t, 3, report.Processed)
	assert.Equal(t, 3, report.MatchedID)
	assert.Equal(t, 1, report.Checked)
	assert.True(t, report.Committed)
	assert.Equal(t, strings.Replace(loginStory, "- [ ] Implement login", "- [x] Implement login", 1), f.document(t))
	assert.Equal(t, incoming, f.tracker.CurrentTodos())

	story, _ := f.tracker.CurrentStory()
	assert.Equal(t, tracker.StatusInProgress, story.Status)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, 1, f.sink.events[0].Updated)
	assert.Equal(t, f.tracker.SessionID(), f.sink.events[0].SessionID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.updates.WithLabelValues("checked")))
}

func TestReconcileUnchecksReopenedItem(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	res := f.load(t)

	incoming := withStatus(res.Todos, "2.3ΔtasksΔ7", todo.StatusPending)
	report := f.engine.Reconcile(context.Background(), incoming)

	assert.Equal(t, 1, report.Unchecked)
	assert.Contains(t, f.document(t), "- [ ] Add logout")
}

func TestReconcileNoMatchLeavesDocument(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.load(t)

	incoming := []todo.Item{{Content: "Implement the login flow", Status: todo.StatusCompleted, Priority: todo.PriorityMedium}}
	report := f.engine.Reconcile(context.Background(), incoming)

	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.LowConfidence)
	assert.Zero(t, report.Updated())
	assert.Equal(t, loginStory, f.document(t))
	assert.True(t, report.Committed)
	assert.Equal(t, incoming, f.tracker.CurrentTodos())
}

func TestReconcileRelocatesMovedCheckbox(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	res := f.load(t)

	edited := strings.Replace(loginStory, "## Tasks / Subtasks\n", "## Tasks / Subtasks\n\nSome notes added later.\nAnd more.\n\n", 1)
	require.NoError(t, os.WriteFile(f.path, []byte(edited), 0o644))

	report := f.engine.Reconcile(context.Background(), withStatus(res.Todos, "2.3ΔtasksΔ6", todo.StatusCompleted))
	assert.Equal(t, 1, report.Checked)
	assert.Contains(t, f.document(t), "- [x] Implement login")
	assert.Contains(t, f.document(t), "- [ ] Users can log in")
}

func TestReconcileCancelledNeverTouchesDocument(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	res := f.load(t)

	report := f.engine.Reconcile(context.Background(), withStatus(res.Todos, "2.3ΔtasksΔ6", todo.StatusCancelled))
	assert.Zero(t, report.Updated())
	assert.Equal(t, loginStory, f.document(t))
}

func TestReconcileIdentityMiss(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	require.NoError(t, f.tracker.SetCurrentTodos([]todo.Item{{ID: "u1", Content: "update changelog", Status: todo.StatusPending}}))

	report := f.engine.Reconcile(context.Background(), []todo.Item{{ID: "u1", Content: "update changelog", Status: todo.StatusCompleted}})
	assert.Equal(t, 1, report.MatchedID)
	assert.Equal(t, 1, report.IdentityMisses)
}

func TestReconcileDryRunPreviews(t *testing.T) {
	f := newFixture(t, Options{Enabled: true, DryRun: true})
	res := f.load(t)

	incoming := withStatus(res.Todos, "2.3ΔtasksΔ6", todo.StatusCompleted)
	report := f.engine.Reconcile(context.Background(), incoming)

	require.Len(t, report.Previews, 1)
	assert.Contains(t, report.Previews[0].Diff, "+- [x] Implement login")
	assert.Equal(t, loginStory, f.document(t))
	assert.False(t, report.Committed)
	assert.Equal(t, res.Todos, f.tracker.CurrentTodos())
}

func TestReconcileDisabledStillCommits(t *testing.T) {
	f := newFixture(t, Options{Enabled: false})
	res := f.load(t)

	incoming := withStatus(res.Todos, "2.3ΔtasksΔ6", todo.StatusCompleted)
	report := f.engine.Reconcile(context.Background(), incoming)

	assert.True(t, report.Disabled)
	assert.Zero(t, report.Processed)
	assert.Equal(t, loginStory, f.document(t))
	assert.Equal(t, incoming, f.tracker.CurrentTodos())
}

func TestReconcileJSONReportsInvalid(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.load(t)

	payload := `[
		{"id": "2.3ΔtasksΔ6", "content": "[2.3ΔTask1] Implement login", "status": "completed", "priority": "medium"},
		{"id": "x", "content": "", "status": "pending"}
	]`
	report, err := f.engine.ReconcileJSON(context.Background(), []byte(payload))
	require.NoError(t, err)
	assert.Len(t, report.Invalid, 1)
	assert.Equal(t, 1, report.Checked)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.items.WithLabelValues("invalid")))
	require.NotEmpty(t, f.sink.events)
	assert.Equal(t, 1, f.sink.events[len(f.sink.events)-1].Invalid)

	_, err = f.engine.ReconcileJSON(context.Background(), []byte(`{"todos": 1}`))
	assert.Error(t, err)
}

func TestMetricsTextfile(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.load(t)
	f.engine.Reconcile(context.Background(), f.tracker.CurrentTodos())

	path := filepath.Join(t.TempDir(), "metrics", "storysync.prom")
	require.NoError(t, f.metrics.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "storysync_reconcile_passes_total 1")
}

func TestReportString(t *testing.T) {
	r := Report{Processed: 3, MatchedID: 2, Checked: 1, LowConfidence: 1}
	assert.Equal(t, "processed 3 (id 2, exact 0, similar 0, new 0); checked 1, unchecked 0; skipped 1 (low confidence 1, identity 0, locate 0)", r.String())
	assert.Contains(t, Report{Disabled: true}.String(), "disabled")
}

func TestStaleDetectsExternalEdits(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	assert.True(t, f.engine.Stale("2.3", loginStory), "nothing tracked yet")

	res := f.load(t)
	assert.False(t, f.engine.Stale("2.3", loginStory))

	// in_progress is not reflected by a checkbox, so it is not drift
	f.engine.Reconcile(context.Background(), withStatus(res.Todos, "2.3ΔtasksΔ6", todo.StatusInProgress))
	assert.False(t, f.engine.Stale("2.3", f.document(t)))

	edited := strings.Replace(loginStory, "- [ ] Users can log in", "- [x] Users can log in", 1)
	assert.True(t, f.engine.Stale("2.3", edited))

	// a blank line shifts every id hint but no task changed
	moved := strings.Replace(loginStory, "## Tasks / Subtasks\n", "## Tasks / Subtasks\n\n", 1)
	assert.False(t, f.engine.Stale("2.3", moved))

	added := loginStory + "- [ ] Write release notes\n"
	assert.True(t, f.engine.Stale("2.3", added))

	// hook payloads carry the content prefix but no ids
	noIDs := todo.Clone(f.tracker.CurrentTodos())
	for i := range noIDs {
		noIDs[i].ID = ""
	}
	f.engine.Reconcile(context.Background(), noIDs)
	assert.False(t, f.engine.Stale("2.3", f.document(t)))

	assert.False(t, f.engine.Stale("not-a-story", loginStory))
}
