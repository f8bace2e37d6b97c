package story

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Delimiter separates the parts of ids and content prefixes. It is a glyph
// that practically never shows up in task text.
const Delimiter = "Δ"

var (
	storyIDRe = regexp.MustCompile(`^\d+(?:\.\d+)+$`)
	prefixRe  = regexp.MustCompile(`^\s*\[(\d+(?:\.\d+)+)` + Delimiter + `([A-Za-z]+)(\d+)\]\s*`)

	looseStoryIDRe = regexp.MustCompile(`(?i)^(?:story[-_ ]?)?(\d+)[.\-_](\d+)(?:[.\-_].*)?$`)
)

// Identity is the provenance decoded from a todo item id.
type Identity struct {
	StoryID  string
	Section  Section
	LineHint int
}

// Prefix is the provenance decoded from a todo item content prefix.
type Prefix struct {
	StoryID      string
	Section      Section
	SectionIndex int
}

// EncodePrefix renders the human-visible content prefix, e.g. "[2.3ΔTask1]".
func EncodePrefix(storyID string, section Section, sectionIndex int) string {
	return fmt.Sprintf("[%s%s%s%d]", storyID, Delimiter, section.Label(), sectionIndex)
}

// EncodeID renders the opaque todo id, e.g. "2.3ΔtasksΔ12".
func EncodeID(storyID string, section Section, lineNumber int) string {
	return storyID + Delimiter + string(section) + Delimiter + strconv.Itoa(lineNumber)
}

// DecodeID parses an id produced by EncodeID. Anything else, including ids
// authored by the assistant or the user, yields false.
func DecodeID(id string) (Identity, bool) {
	parts := strings.Split(strings.TrimSpace(id), Delimiter)
	if len(parts) != 3 {
		return Identity{}, false
	}
	if !storyIDRe.MatchString(parts[0]) {
		return Identity{}, false
	}
	section := Section(parts[1])
	if !section.Valid() {
		return Identity{}, false
	}
	line, err := strconv.Atoi(parts[2])
	if err != nil || line < 0 {
		return Identity{}, false
	}
	return Identity{StoryID: parts[0], Section: section, LineHint: line}, true
}

// DecodePrefix parses the "[{storyID}Δ{label}{index}]" content prefix.
func DecodePrefix(content string) (Prefix, bool) {
	m := prefixRe.FindStringSubmatch(content)
	if m == nil {
		return Prefix{}, false
	}
	section, ok := sectionForLabel(m[2])
	if !ok {
		return Prefix{}, false
	}
	idx, err := strconv.Atoi(m[3])
	if err != nil {
		return Prefix{}, false
	}
	return Prefix{StoryID: m[1], Section: section, SectionIndex: idx}, true
}

// DecodeStoryFromContent returns the story id embedded in a content prefix.
func DecodeStoryFromContent(content string) (string, bool) {
	p, ok := DecodePrefix(content)
	if !ok {
		return "", false
	}
	return p.StoryID, true
}

// StripPrefix removes a leading content prefix if present.
func StripPrefix(content string) string {
	if loc := prefixRe.FindStringIndex(content); loc != nil {
		return strings.TrimSpace(content[loc[1]:])
	}
	return strings.TrimSpace(content)
}

// Provenance resolves which story owns a todo item. The content prefix is
// authoritative; the id is consulted only when no prefix is present.
func Provenance(id, content string) (string, bool) {
	if storyID, ok := DecodeStoryFromContent(content); ok {
		return storyID, true
	}
	if ident, ok := DecodeID(id); ok {
		return ident.StoryID, true
	}
	return "", false
}

// NormalizeStoryID accepts the common spellings of a story id ("2.3",
// "2-3", "story-2.3", "2.3.login-flow") and returns the dotted form.
func NormalizeStoryID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(raw, ".md")
	m := looseStoryIDRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	epic, _ := strconv.Atoi(m[1])
	num, _ := strconv.Atoi(m[2])
	return fmt.Sprintf("%d.%d", epic, num), true
}
