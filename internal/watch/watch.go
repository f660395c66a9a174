// Package watch flags worktrees as modified when files change on disk.
// One fsnotify watcher covers all watched worktrees; events debounce per
// worktree before a notification fires, so a build touching hundreds of
// files produces one dispatch.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/calmren/atelier/internal/action"
	"github.com/calmren/atelier/internal/errors"
	"github.com/calmren/atelier/internal/logging"
)

// skipDirs are never watched; they churn constantly and say nothing about
// the user's edits.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"dist":         true,
	".next":        true,
}

// debounce is the quiet interval before a change notification fires.
const debounce = 300 * time.Millisecond

type watched struct {
	ref   action.WorktreeRef
	root  string
	timer *time.Timer
}

// Watcher tracks filesystem changes under registered worktrees.
type Watcher struct {
	logger *logging.Logger
	notify func(action.WorktreeRef)

	fsw *fsnotify.Watcher

	mu    sync.Mutex
	roots map[string]*watched // keyed by worktree id
	done  chan struct{}
	wg    sync.WaitGroup
}

// New starts a watcher. notify is called after the debounce window with the
// ref of the changed worktree; the caller turns that into a
// SetWorktreeModified dispatch.
func New(logger *logging.Logger, notify func(action.WorktreeRef)) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fs watcher")
	}
	w := &Watcher{
		logger: logger.WithComponent("watch"),
		notify: notify,
		fsw:    fsw,
		roots:  make(map[string]*watched),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Add registers a worktree root. Watching is recursive; excluded
// directories and those created later under excluded parents are skipped.
func (w *Watcher) Add(ref action.WorktreeRef, root string) error {
	w.mu.Lock()
	if _, ok := w.roots[ref.WorktreeID]; ok {
		w.mu.Unlock()
		return nil
	}
	w.roots[ref.WorktreeID] = &watched{ref: ref, root: root}
	w.mu.Unlock()

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if !info.IsDir() {
			return nil
		}
		if skipDirs[info.Name()] && path != root {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Debug("watch add failed", "path", path, "error", err)
		}
		return nil
	})
}

// Remove unregisters a worktree. Pending debounce timers are dropped.
func (w *Watcher) Remove(worktreeID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	entry, ok := w.roots[worktreeID]
	if !ok {
		return
	}
	if entry.timer != nil {
		entry.timer.Stop()
	}
	delete(w.roots, worktreeID)
	// fsnotify watches are removed lazily; stale events fall through the
	// root lookup and get dropped.
}

// Close stops the watcher and its event loop.
func (w *Watcher) Close() error {
	select {
	case <-w.done:
		return nil
	default:
	}
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	w.mu.Lock()
	for _, entry := range w.roots {
		if entry.timer != nil {
			entry.timer.Stop()
		}
	}
	w.roots = map[string]*watched{}
	w.mu.Unlock()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// New directories join the watch so nested edits keep arriving.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !skipDirs[filepath.Base(ev.Name)] {
			if err := w.fsw.Add(ev.Name); err != nil {
				w.logger.Debug("watch add failed", "path", ev.Name, "error", err)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, entry := range w.roots {
		if !underRoot(entry.root, ev.Name) {
			continue
		}
		ref := entry.ref
		if entry.timer == nil {
			entry.timer = time.AfterFunc(debounce, func() { w.fire(ref) })
		} else {
			entry.timer.Reset(debounce)
		}
		return
	}
}

func (w *Watcher) fire(ref action.WorktreeRef) {
	w.mu.Lock()
	entry, ok := w.roots[ref.WorktreeID]
	if ok {
		entry.timer = nil
	}
	w.mu.Unlock()
	if !ok {
		return
	}
	if w.notify != nil {
		w.notify(ref)
	}
}

func underRoot(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
