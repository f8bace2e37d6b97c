// Package story parses checkbox tasks out of markdown story documents and
// projects them onto assistant todo items.
//
// A story document is identified by its dotted "epic.number" id (for
// example "2.3"). Only checkboxes under a recognized section heading are
// tasks: Acceptance Criteria, Tasks / Subtasks and Implementation Notes.
// Each projected todo item carries its provenance twice, once in the
// opaque id ("2.3ΔtasksΔ12", where 12 is the line the checkbox was parsed
// from) and once as a visible content prefix ("[2.3ΔTask1] ..."). The line
// number is only ever a hint; callers confirm it against the live document
// before acting on it.
package story

import "storysync/internal/todo"

// Section classifies the heading a task was found under.
type Section string

const (
	SectionAcceptanceCriteria  Section = "acceptance-criteria"
	SectionTasks               Section = "tasks"
	SectionImplementationNotes Section = "implementation-notes"
)

// Sections lists every known section in document order.
var Sections = []Section{SectionAcceptanceCriteria, SectionTasks, SectionImplementationNotes}

// Label returns the short label used in content prefixes.
func (s Section) Label() string {
	switch s {
	case SectionAcceptanceCriteria:
		return "AC"
	case SectionTasks:
		return "Task"
	case SectionImplementationNotes:
		return "Note"
	}
	return ""
}

// Valid reports whether s is one of the known sections.
func (s Section) Valid() bool {
	return s.Label() != ""
}

func sectionForLabel(label string) (Section, bool) {
	for _, s := range Sections {
		if s.Label() == label {
			return s, true
		}
	}
	return "", false
}

// Task is a single checkbox line parsed from a story document.
type Task struct {
	StoryID      string
	Section      Section
	SectionIndex int // 1-based ordinal within Section
	LineNumber   int // 0-based line at parse time
	Content      string
	Checked      bool
	Priority     todo.Priority
	Indent       int
}
