package checkbox

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"
)

var (
	// ErrNotCheckbox means the target line no longer holds a checkbox.
	ErrNotCheckbox = errors.New("line is not a checkbox")
	// ErrLineOutOfRange means the target line is past the end of the document.
	ErrLineOutOfRange = errors.New("line out of range")
)

var bracketRe = regexp.MustCompile(`^\s*[-*+]\s+\[([ xX])\]\s`)

// SetChecked sets the checkbox on line (0-based) of path. Only the bracket
// contents change; the rest of the document is written back byte for byte.
// updated is false when the checkbox already had the requested state, in
// which case nothing is written.
func SetChecked(path string, line int, checked bool) (updated bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read document: %w", err)
	}

	next, changed, err := toggle(string(data), line, checked)
	if err != nil || !changed {
		return false, err
	}

	if err := atomic.WriteFile(path, strings.NewReader(next)); err != nil {
		return false, fmt.Errorf("write document: %w", err)
	}
	return true, nil
}

// IsChecked reports the state of the checkbox on line.
func IsChecked(content string, line int) (bool, error) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return false, fmt.Errorf("%w: %d", ErrLineOutOfRange, line)
	}
	m := bracketRe.FindStringSubmatch(strings.TrimSuffix(lines[line], "\r"))
	if m == nil {
		return false, fmt.Errorf("%w: line %d", ErrNotCheckbox, line)
	}
	return m[1] != " ", nil
}

// toggle returns content with the checkbox on line set to checked.
func toggle(content string, line int, checked bool) (string, bool, error) {
	lines := strings.Split(content, "\n")
	if line < 0 || line >= len(lines) {
		return content, false, fmt.Errorf("%w: %d", ErrLineOutOfRange, line)
	}
	target := lines[line]
	loc := bracketRe.FindStringSubmatchIndex(strings.TrimSuffix(target, "\r"))
	if loc == nil {
		return content, false, fmt.Errorf("%w: line %d", ErrNotCheckbox, line)
	}
	start, end := loc[2], loc[3]
	current := target[start:end] != " "
	if current == checked {
		return content, false, nil
	}
	mark := " "
	if checked {
		mark = "x"
	}
	lines[line] = target[:start] + mark + target[end:]
	return strings.Join(lines, "\n"), true, nil
}
