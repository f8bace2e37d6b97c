package story

import (
	"regexp"
	"strings"

	"storysync/internal/todo"
)

var (
	headingRe  = regexp.MustCompile(`^\s{0,3}(#{1,6})\s+(.*?)\s*#*\s*$`)
	checkboxRe = regexp.MustCompile(`^(\s*)[-*+]\s+\[([ xX])\]\s+(.*?)\s*$`)

	priorityRe = regexp.MustCompile(`(?i)\bpriority:\s*(high|medium|low)\b`)
	criticalRe = regexp.MustCompile(`(?i)\bcritical:`)
)

var defaultHeadingAliases = map[Section][]string{
	SectionAcceptanceCriteria: {
		"acceptance criteria",
		"acceptance criterion",
		"ac",
	},
	SectionTasks: {
		"tasks / subtasks",
		"tasks/subtasks",
		"tasks",
		"subtasks",
		"tasks and subtasks",
		"tasks & subtasks",
	},
	SectionImplementationNotes: {
		"implementation notes",
		"implementation",
		"dev notes",
		"developer notes",
	},
}

// DefaultHeadingAliases returns a copy of the built-in heading aliases.
func DefaultHeadingAliases() map[Section][]string {
	out := make(map[Section][]string, len(defaultHeadingAliases))
	for s, aliases := range defaultHeadingAliases {
		out[s] = append([]string(nil), aliases...)
	}
	return out
}

// ParserOptions customizes a Parser.
type ParserOptions struct {
	// HeadingAliases adds aliases per section on top of the defaults.
	HeadingAliases map[Section][]string
}

// Parser extracts tasks from story markdown. It is immutable after
// construction and safe for concurrent use.
type Parser struct {
	headings map[string]Section
}

// NewParser builds a parser from the default aliases plus opts overrides.
func NewParser(opts ParserOptions) *Parser {
	p := &Parser{headings: make(map[string]Section)}
	for s, aliases := range defaultHeadingAliases {
		for _, a := range aliases {
			p.headings[normalizeHeading(a)] = s
		}
	}
	for s, aliases := range opts.HeadingAliases {
		if !s.Valid() {
			continue
		}
		for _, a := range aliases {
			if key := normalizeHeading(a); key != "" {
				p.headings[key] = s
			}
		}
	}
	return p
}

var defaultParser = NewParser(ParserOptions{})

// Parse parses raw with the default aliases.
func Parse(raw, storyID string) []Task {
	return defaultParser.Parse(raw, storyID)
}

// Parse scans raw line by line and returns the tasks in document order.
// Lines that do not fit the expected shape are skipped.
func (p *Parser) Parse(raw, storyID string) []Task {
	var (
		tasks   []Task
		current Section
		ordinal int
	)
	for i, line := range SplitLines(raw) {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			section, ok := p.headings[normalizeHeading(m[2])]
			if ok {
				current = section
			} else {
				current = ""
			}
			ordinal = 0
			continue
		}
		if current == "" {
			continue
		}
		cb, ok := ParseCheckbox(line)
		if !ok {
			continue
		}
		ordinal++
		tasks = append(tasks, Task{
			StoryID:      storyID,
			Section:      current,
			SectionIndex: ordinal,
			LineNumber:   i,
			Content:      cb.Text,
			Checked:      cb.Checked,
			Priority:     derivePriority(cb.Text, current),
			Indent:       len(cb.Indent),
		})
	}
	return tasks
}

// Checkbox is one checkbox line split into its parts.
type Checkbox struct {
	Indent  string
	Checked bool
	Text    string
}

// ParseCheckbox matches a single markdown checkbox line.
func ParseCheckbox(line string) (Checkbox, bool) {
	m := checkboxRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
	if m == nil {
		return Checkbox{}, false
	}
	return Checkbox{
		Indent:  m[1],
		Checked: m[2] != " ",
		Text:    strings.TrimSpace(m[3]),
	}, true
}

// SplitLines splits on "\n" and drops a trailing "\r" from each line.
func SplitLines(raw string) []string {
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func derivePriority(text string, section Section) todo.Priority {
	if m := priorityRe.FindStringSubmatch(text); m != nil {
		p, _ := todo.ParsePriority(m[1])
		return p
	}
	if criticalRe.MatchString(text) {
		return todo.PriorityHigh
	}
	if section == SectionAcceptanceCriteria {
		return todo.PriorityHigh
	}
	return todo.PriorityMedium
}

func normalizeHeading(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimRight(h, ":# ")
	return strings.Join(strings.Fields(h), " ")
}
