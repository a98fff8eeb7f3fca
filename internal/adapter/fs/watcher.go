package fs

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reports changes to markdown files under a root directory.
// Bursts of events are coalesced: onChange runs once per quiet period with
// the set of paths that changed.
type Watcher struct {
	root     string
	walker   *Walker
	debounce time.Duration
	logger   zerolog.Logger
}

func NewWatcher(root string, walker *Walker, debounce time.Duration, logger zerolog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	return &Watcher{
		root:     root,
		walker:   walker,
		debounce: debounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
	}
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := w.addTree(fw, root, root); err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		pending  = make(map[string]struct{})
		timer    *time.Timer
		stopped  bool
		inflight sync.WaitGroup
	)
	flush := func() {
		mu.Lock()
		if stopped {
			mu.Unlock()
			return
		}
		inflight.Add(1)
		defer inflight.Done()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = make(map[string]struct{})
		mu.Unlock()
		if len(paths) > 0 {
			onChange(paths)
		}
	}
	// onChange must not run once Run has returned.
	defer func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, root, ev.Name); err != nil {
						w.logger.Warn().Err(err).Str("dir", ev.Name).Msg("failed to watch new directory")
					}
					continue
				}
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			rel, err := filepath.Rel(root, ev.Name)
			if err != nil || !w.walker.Matches(filepath.ToSlash(rel)) {
				continue
			}

			w.logger.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("change")
			mu.Lock()
			pending[ev.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, flush)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
		}
	}
}

func (w *Watcher) addTree(fw *fsnotify.Watcher, root, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel != "." && w.walker.shouldExclude(filepath.ToSlash(rel)+"/") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
