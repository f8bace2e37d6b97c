package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherBatchesMarkdownChanges(t *testing.T) {
	dir := t.TempDir()
	batches := make(chan []string, 4)
	w, err := New([]string{dir, dir}, func(paths []string) { batches <- paths }, Options{
		Debounce: 50 * time.Millisecond,
		Filter:   MarkdownOnly,
	})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	story := filepath.Join(dir, "2.3.login.md")
	require.NoError(t, os.WriteFile(story, []byte("- [ ] a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(story, []byte("- [x] a\n"), 0o644))

	select {
	case got := <-batches:
		resolved, _ := filepath.EvalSymlinks(story)
		assert.Len(t, got, 1)
		gotResolved, _ := filepath.EvalSymlinks(got[0])
		assert.Equal(t, resolved, gotResolved)
	case <-time.After(3 * time.Second):
		t.Fatal("no change batch received")
	}
}

func TestWatcherStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	w, err := New([]string{dir}, func([]string) {}, Options{})
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
	w.Stop()
}

func TestWatcherRequiresAWatchableDir(t *testing.T) {
	_, err := New(nil, nil, Options{})
	assert.Error(t, err)

	w, err := New([]string{filepath.Join(t.TempDir(), "missing")}, func([]string) {}, Options{})
	require.NoError(t, err)
	assert.Error(t, w.Start(context.Background()))
}
