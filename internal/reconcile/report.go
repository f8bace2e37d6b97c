package reconcile

import (
	"fmt"
	"strings"

	"storysync/internal/storage"
	"storysync/internal/todo"
)

// Preview is a checkbox change that a dry run would have written.
type Preview struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Checked bool   `json:"checked"`
	Diff    string `json:"diff"`
}

// Report summarizes a reconciliation pass. Misses are counted, never
// returned as errors.
type Report struct {
	StoryID        string         `json:"story_id,omitempty"`
	Disabled       bool           `json:"disabled,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	Processed      int            `json:"processed"`
	MatchedID      int            `json:"matched_id"`
	MatchedExact   int            `json:"matched_exact"`
	MatchedSimilar int            `json:"matched_similar"`
	Unmatched      int            `json:"unmatched"`
	LowConfidence  int            `json:"low_confidence"`
	IdentityMisses int            `json:"identity_misses"`
	LocateMisses   int            `json:"locate_misses"`
	Checked        int            `json:"checked"`
	Unchecked      int            `json:"unchecked"`
	Unchanged      int            `json:"unchanged"`
	Invalid        []todo.Invalid `json:"invalid,omitempty"`
	Previews       []Preview      `json:"previews,omitempty"`
	Committed      bool           `json:"committed"`
}

// Updated is the number of checkboxes written.
func (r Report) Updated() int { return r.Checked + r.Unchecked }

// String renders a one-line summary.
func (r Report) String() string {
	if r.Disabled {
		return "sync disabled: snapshot stored, documents untouched"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "processed %d (id %d, exact %d, similar %d, new %d)",
		r.Processed, r.MatchedID, r.MatchedExact, r.MatchedSimilar, r.Unmatched)
	if r.DryRun {
		fmt.Fprintf(&b, "; would update %d", len(r.Previews))
	} else {
		fmt.Fprintf(&b, "; checked %d, unchecked %d", r.Checked, r.Unchecked)
	}
	if skipped := r.LowConfidence + r.IdentityMisses + r.LocateMisses; skipped > 0 {
		fmt.Fprintf(&b, "; skipped %d (low confidence %d, identity %d, locate %d)",
			skipped, r.LowConfidence, r.IdentityMisses, r.LocateMisses)
	}
	if len(r.Invalid) > 0 {
		fmt.Fprintf(&b, "; invalid %d", len(r.Invalid))
	}
	return b.String()
}

// Event converts the report into a storable sync event.
func (r Report) Event(sessionID, projectDir string) storage.SyncEvent {
	return storage.SyncEvent{
		SessionID:      sessionID,
		ProjectDir:     projectDir,
		StoryID:        r.StoryID,
		Processed:      r.Processed,
		MatchedID:      r.MatchedID,
		MatchedExact:   r.MatchedExact,
		MatchedSimilar: r.MatchedSimilar,
		LowConfidence:  r.LowConfidence,
		IdentityMisses: r.IdentityMisses,
		LocateMisses:   r.LocateMisses,
		Updated:        r.Updated(),
		Invalid:        len(r.Invalid),
		DryRun:         r.DryRun,
	}
}
