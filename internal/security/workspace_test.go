package security

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWorkspaceResolve_BlocksParentEscape(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	_, err = ws.Resolve("../stories/2.3.story.md")
	if !errors.Is(err, ErrPathOutsideWorkspace) {
		t.Fatalf("Resolve() error = %v, want ErrPathOutsideWorkspace", err)
	}
}

func TestWorkspaceResolve_BlocksSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(root, "stories")); err != nil {
		t.Skipf("symlink unsupported: %v", err)
	}
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	_, err = ws.Resolve("stories/2.3.story.md")
	if !errors.Is(err, ErrPathOutsideWorkspace) {
		t.Fatalf("Resolve() error = %v, want ErrPathOutsideWorkspace", err)
	}
}

func TestWorkspaceResolve_AllowsInsidePath(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	got, err := ws.Resolve("docs/stories/2.3.story.md")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if rel := ws.Rel(got); rel != "docs/stories/2.3.story.md" {
		t.Fatalf("Rel() = %q, want %q", rel, "docs/stories/2.3.story.md")
	}
	if !ws.Contains(got) {
		t.Fatalf("Contains(%q) = false", got)
	}
}

func TestWorkspaceReadFileAndRel(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "2.3.story.md"), []byte("# Story 2.3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved, data, err := ws.ReadFile("2.3.story.md")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "# Story 2.3\n" || ws.Rel(resolved) != "2.3.story.md" {
		t.Fatalf("ReadFile() = %q, %q", resolved, data)
	}
	if _, _, err := ws.ReadFile("missing.md"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadFile(missing) error = %v", err)
	}
	if got := ws.Rel("/elsewhere/x.md"); got != "/elsewhere/x.md" {
		t.Fatalf("Rel(outside) = %q", got)
	}
	if got, err := ws.Resolve(""); err != nil || got != ws.Root() {
		t.Fatalf("Resolve(\"\") = %q, %v", got, err)
	}
}
