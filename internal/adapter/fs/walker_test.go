package fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "README.md"), "# a")
	writeFile(t, filepath.Join(root, "docs", "guide.markdown"), "# b")
	writeFile(t, filepath.Join(root, "docs", "notes.txt"), "c")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "README.md"), "# d")

	w := NewWalker([]string{"**/*.md", "**/*.markdown"}, []string{"**/node_modules/**"})
	files, err := w.Walk(root)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f.Path)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	sort.Strings(rel)
	assert.Equal(t, []string{"README.md", "docs/guide.markdown"}, rel)
}

func TestMatches(t *testing.T) {
	w := NewWalker(nil, []string{"drafts/**"})
	assert.True(t, w.Matches("a/b/c.md"))
	assert.False(t, w.Matches("a/b/c.txt"))
	assert.False(t, w.Matches("drafts/x.md"))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.md")
	writeFile(t, path, "hello")
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	w := NewWatcher(root, NewWalker(nil, nil), 50*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { changed <- paths })
	}()

	// Give the watcher time to register the root.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	writeFile(t, filepath.Join(root, "notes.md"), "```sh\necho\n```\n")

	select {
	case paths := <-changed:
		require.Len(t, paths, 1)
		assert.Equal(t, "notes.md", filepath.Base(paths[0]))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherWaitsForRunningCallback(t *testing.T) {
	root := t.TempDir()
	w := NewWatcher(root, NewWalker(nil, nil), 20*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var finished atomic.Bool
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
			finished.Store(true)
		})
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(root, "notes.md"), "x")

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("Run returned while the change callback was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-done:
		assert.NoError(t, err)
		assert.True(t, finished.Load())
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
