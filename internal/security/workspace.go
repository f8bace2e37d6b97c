// Package security confines story document access to the project root.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathOutsideWorkspace = errors.New("path outside workspace")

// Workspace is the project directory story documents must live in. The
// root is stored symlink-free so containment checks compare real paths.
type Workspace struct {
	root string
}

func NewWorkspace(root string) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("workspace root %q: %w", root, err)
	}
	if evaluated, err := filepath.EvalSymlinks(abs); err == nil {
		abs = evaluated
	}
	return &Workspace{root: abs}, nil
}

func (w *Workspace) Root() string {
	return w.root
}

// Resolve maps path (absolute, or relative to the root) to a real absolute
// path and rejects anything that lands outside the root. The final path
// element may not exist yet.
func (w *Workspace) Resolve(path string) (string, error) {
	target := strings.TrimSpace(path)
	switch {
	case target == "":
		target = w.root
	case !filepath.IsAbs(target):
		target = filepath.Join(w.root, target)
	}

	evaluated, err := realPath(filepath.Clean(target))
	if err != nil {
		return "", err
	}
	if !w.Contains(evaluated) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideWorkspace, path)
	}
	return evaluated, nil
}

// ReadFile resolves path and reads it, returning the resolved path too.
func (w *Workspace) ReadFile(path string) (string, []byte, error) {
	resolved, err := w.Resolve(path)
	if err != nil {
		return "", nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return resolved, nil, err
	}
	return resolved, data, nil
}

// Contains reports whether a resolved absolute path is the root or below it.
func (w *Workspace) Contains(resolved string) bool {
	rel, err := filepath.Rel(w.root, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

// Rel returns path relative to the root in slash form for display. Paths
// outside the root come back unchanged.
func (w *Workspace) Rel(path string) string {
	if !w.Contains(path) {
		return path
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// realPath evaluates symlinks in path. When the leaf does not exist, only
// the parent directory is evaluated.
func realPath(path string) (string, error) {
	evaluated, err := filepath.EvalSymlinks(path)
	switch {
	case err == nil:
		return evaluated, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	dir, leaf := filepath.Split(path)
	realDir, err := filepath.EvalSymlinks(dir)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		realDir = filepath.Clean(dir)
	default:
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	return filepath.Join(realDir, leaf), nil
}
