// Package checkbox finds and flips markdown checkboxes in story documents.
package checkbox

import (
	"fmt"
	"os"

	"storysync/internal/match"
	"storysync/internal/story"
)

// DefaultRadius is how far around the hinted line the locator looks before
// falling back to a full scan.
const DefaultRadius = 15

// Locator resolves a task's current line in a document. The hinted line
// comes from a todo id and may be stale, so every candidate is confirmed
// against the checkbox pattern and the task text before it is used.
type Locator struct {
	Radius int
	Floor  float64
}

// NewLocator returns a locator; non-positive values select the defaults.
func NewLocator(radius int, floor float64) Locator {
	if radius <= 0 {
		radius = DefaultRadius
	}
	if floor <= 0 || floor > 1 {
		floor = match.DefaultFloor
	}
	return Locator{Radius: radius, Floor: floor}
}

// Locate reads path and returns the line holding the checkbox for content.
// found is false when no line qualifies; the error is only for I/O.
func (l Locator) Locate(path, content string, hint int) (line int, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1, false, fmt.Errorf("read document: %w", err)
	}
	line, found = l.LocateLines(story.SplitLines(string(data)), content, hint)
	return line, found, nil
}

type candidate struct {
	line     int
	strength match.Strength
	score    float64
	dist     int
}

func (c candidate) beats(o candidate) bool {
	if c.strength != o.strength {
		return c.strength > o.strength
	}
	if c.strength == match.StrengthSimilar && c.score != o.score {
		return c.score > o.score
	}
	return c.dist < o.dist
}

// LocateLines is Locate over an already split document. The hint line is
// accepted immediately on an exact match; otherwise the strongest candidate
// within the radius wins, nearest first, and only then the whole document
// is scanned.
func (l Locator) LocateLines(lines []string, content string, hint int) (int, bool) {
	want := story.StripPrefix(content)
	if want == "" {
		return -1, false
	}
	radius, floor := l.Radius, l.Floor
	if radius <= 0 {
		radius = DefaultRadius
	}
	if floor <= 0 {
		floor = match.DefaultFloor
	}

	eval := func(i int) (candidate, bool) {
		if i < 0 || i >= len(lines) {
			return candidate{}, false
		}
		cb, ok := story.ParseCheckbox(lines[i])
		if !ok {
			return candidate{}, false
		}
		strength, score := match.ContentMatches(want, cb.Text, floor)
		if strength == match.StrengthNone {
			return candidate{}, false
		}
		dist := i
		if hint >= 0 {
			dist = abs(i - hint)
		}
		return candidate{line: i, strength: strength, score: score, dist: dist}, true
	}

	if hint >= 0 {
		if c, ok := eval(hint); ok && c.strength == match.StrengthExact {
			return hint, true
		}

		var best *candidate
		consider := func(i int) {
			if c, ok := eval(i); ok && (best == nil || c.beats(*best)) {
				best = &c
			}
		}
		consider(hint)
		for d := 1; d <= radius; d++ {
			consider(hint + d)
			consider(hint - d)
		}
		if best != nil {
			return best.line, true
		}
	}

	var best *candidate
	for i := range lines {
		if c, ok := eval(i); ok && (best == nil || c.beats(*best)) {
			best = &c
		}
	}
	if best == nil {
		return -1, false
	}
	return best.line, true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
