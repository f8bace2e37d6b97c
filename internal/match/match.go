// Package match pairs todo items returned by the assistant with the items
// it was previously given.
//
// Matching prefers identity over content: an unchanged id always wins,
// then byte-identical content, and only then word-overlap similarity. A
// similarity match at or below the floor is reported as no match at all, so an
// ambiguous rewording is left alone instead of being applied to the wrong
// checkbox.
package match

import (
	"strings"

	"storysync/internal/story"
	"storysync/internal/todo"
)

// DefaultFloor is the similarity a fuzzy match must exceed.
const DefaultFloor = 0.7

// Type says how a match was established.
type Type string

const (
	TypeID             Type = "id"
	TypeExactContent   Type = "exact-content"
	TypeSimilarContent Type = "similar-content"
	TypeNone           Type = "none"
)

// Result is the outcome of Find. Matched is nil for TypeNone. Index is the
// position of Matched in the prior set, or -1. BestScore carries the best
// similarity seen even when it stayed below the floor.
type Result struct {
	Matched    *todo.Item
	Type       Type
	Confidence float64
	Index      int
	BestScore  float64
}

// LowConfidence reports whether a similarity candidate existed but was
// rejected by the floor.
func (r Result) LowConfidence() bool {
	return r.Type == TypeNone && r.BestScore > 0
}

// Matcher finds the prior todo item an incoming item corresponds to.
type Matcher struct {
	Floor float64
}

// New returns a matcher with the given floor; non-positive floors fall back
// to DefaultFloor.
func New(floor float64) Matcher {
	if floor <= 0 || floor > 1 {
		floor = DefaultFloor
	}
	return Matcher{Floor: floor}
}

// Find looks up incoming in prior: exact id, exact content, then the best
// similarity score above the floor. Ties keep the earliest prior item.
func (m Matcher) Find(incoming todo.Item, prior []todo.Item) Result {
	floor := m.Floor
	if floor <= 0 {
		floor = DefaultFloor
	}

	if id := strings.TrimSpace(incoming.ID); id != "" {
		for i := range prior {
			if strings.TrimSpace(prior[i].ID) == id {
				return found(prior, i, TypeID, 1)
			}
		}
	}

	content := strings.TrimSpace(incoming.Content)
	if content == "" {
		return Result{Type: TypeNone, Index: -1}
	}
	for i := range prior {
		if strings.TrimSpace(prior[i].Content) == content {
			return found(prior, i, TypeExactContent, 1)
		}
	}

	words := Words(story.StripPrefix(content))
	best, bestIdx := 0.0, -1
	for i := range prior {
		score := jaccard(words, Words(story.StripPrefix(prior[i].Content)))
		if score > best {
			best, bestIdx = score, i
		}
	}
	if bestIdx >= 0 && best > floor {
		res := found(prior, bestIdx, TypeSimilarContent, best)
		res.BestScore = best
		return res
	}
	return Result{Type: TypeNone, Index: -1, BestScore: best}
}

func found(prior []todo.Item, i int, typ Type, confidence float64) Result {
	item := prior[i]
	return Result{Matched: &item, Type: typ, Confidence: confidence, Index: i, BestScore: confidence}
}
