package match

import "strings"

// Words returns the lower-cased whitespace-separated word set of s.
func Words(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Similarity is the Jaccard index of the word sets of a and b, in [0,1].
func Similarity(a, b string) float64 {
	return jaccard(Words(a), Words(b))
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Strength grades how well a candidate text matches a wanted text.
type Strength int

const (
	StrengthNone Strength = iota
	StrengthSimilar
	StrengthSubstring
	StrengthExact
)

// ContentMatches applies the checkbox content rule: normalized equality,
// containment either way, or similarity above floor. It returns the
// strength and the similarity score.
func ContentMatches(want, candidate string, floor float64) (Strength, float64) {
	w := normalizeText(want)
	c := normalizeText(candidate)
	if w == "" || c == "" {
		return StrengthNone, 0
	}
	if w == c {
		return StrengthExact, 1
	}
	score := Similarity(w, c)
	if strings.Contains(w, c) || strings.Contains(c, w) {
		return StrengthSubstring, score
	}
	if score > floor {
		return StrengthSimilar, score
	}
	return StrengthNone, score
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
