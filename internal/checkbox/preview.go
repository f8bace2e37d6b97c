package checkbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Preview returns a unified-style diff of what SetChecked would write,
// without touching the file. An empty diff means no change.
func Preview(path string, line int, checked bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	before := string(data)
	after, changed, err := toggle(before, line, checked)
	if err != nil || !changed {
		return "", err
	}
	return LineDiff(filepath.ToSlash(path), before, after), nil
}

// LineDiff renders a line-level diff of before and after with one line of
// context around each change.
func LineDiff(name, before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, index := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), index)

	var out strings.Builder
	fmt.Fprintf(&out, "--- a/%s\n+++ b/%s\n", name, name)

	oldLine := 1
	var lastEqual []string
	pendingContext := 0
	for _, d := range diffs {
		lines := splitKeep(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			n := 0
			for ; n < pendingContext && n < len(lines); n++ {
				out.WriteString(" " + lines[n] + "\n")
			}
			pendingContext = 0
			lastEqual = lines[n:]
			oldLine += len(lines)
		case diffmatchpatch.DiffDelete:
			if len(lastEqual) > 0 {
				fmt.Fprintf(&out, "@@ -%d @@\n", oldLine-1)
				out.WriteString(" " + lastEqual[len(lastEqual)-1] + "\n")
				lastEqual = nil
			} else if pendingContext == 0 {
				fmt.Fprintf(&out, "@@ -%d @@\n", oldLine)
			}
			for _, l := range lines {
				out.WriteString("-" + l + "\n")
			}
			oldLine += len(lines)
			pendingContext = 1
		case diffmatchpatch.DiffInsert:
			if len(lastEqual) > 0 {
				fmt.Fprintf(&out, "@@ -%d @@\n", oldLine-1)
				out.WriteString(" " + lastEqual[len(lastEqual)-1] + "\n")
				lastEqual = nil
			} else if pendingContext == 0 {
				fmt.Fprintf(&out, "@@ -%d @@\n", oldLine)
			}
			for _, l := range lines {
				out.WriteString("+" + l + "\n")
			}
			pendingContext = 1
		}
	}
	return strings.TrimRight(out.String(), "\n")
}

func splitKeep(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{""}
	}
	return strings.Split(text, "\n")
}
