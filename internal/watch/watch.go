package watch

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gitlanes/gitlanes/internal/debounce"
)

// debounceDelay is the quiet period between the last filesystem event
// and the delivered notification.
const debounceDelay = 350 * time.Millisecond

type EventKind uint8

const (
	// RefsChanged fires when references moved: commits, checkouts,
	// fetches, ref deletion.
	RefsChanged EventKind = iota
	// WorkdirChanged fires when tracked content or the index changed
	// without a ref update.
	WorkdirChanged
)

func (k EventKind) String() string {
	if k == RefsChanged {
		return "refs"
	}
	return "workdir"
}

type Event struct {
	Kind EventKind
}

// Watcher monitors a repository and reports debounced change events on
// Events. Bursts within the quiet period collapse into at most one event
// per kind.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	events   chan Event

	mu             sync.Mutex
	pendingRefs    bool
	pendingWorkdir bool
	closed         bool
}

func New(repoPath string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for path := range watchPaths(repoPath) {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := fsw.Add(path); err != nil {
			err := errors.Join(err, fsw.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}

	w := &Watcher{
		watcher: fsw,
		events:  make(chan Event, 4),
	}
	debounce.Ensure(&w.debounce, debounceDelay, w.flush)
	go w.loop()
	return w, nil
}

// Events delivers the debounced notifications. The channel closes when
// the watcher is closed.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.debounce.Stop()
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	errs := w.watcher.Errors
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				w.mu.Lock()
				w.closed = true
				w.mu.Unlock()
				close(w.events)
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnorePath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			w.record(classify(ev.Name))
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) record(kind EventKind) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if kind == RefsChanged {
		w.pendingRefs = true
	} else {
		w.pendingWorkdir = true
	}
	w.mu.Unlock()
	w.debounce.Trigger()
}

// flush drains the accumulated kinds into the event channel. A full
// channel drops the notification; a pending event of the same kind is
// already queued for the consumer.
func (w *Watcher) flush() {
	w.mu.Lock()
	refs, workdir := w.pendingRefs, w.pendingWorkdir
	w.pendingRefs, w.pendingWorkdir = false, false
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}

	if refs {
		select {
		case w.events <- Event{Kind: RefsChanged}:
		default:
			slog.Debug("watch event dropped", slog.String("kind", "refs"))
		}
	}
	if workdir {
		select {
		case w.events <- Event{Kind: WorkdirChanged}:
		default:
			slog.Debug("watch event dropped", slog.String("kind", "workdir"))
		}
	}
}

// watchPaths yields the directories to monitor: the .git directory for
// ref updates plus the worktree root for content changes.
func watchPaths(root string) iter.Seq[string] {
	if root == "" {
		return nil
	}
	uniquePaths := map[string]struct{}{}
	appendUnique := func(p string) { uniquePaths[p] = struct{}{} }
	appendUnique(root)
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
		appendUnique(gitDir)
		// refs/heads and refs/tags are nested; fsnotify does not
		// recurse, so watch them explicitly when present.
		for _, sub := range []string{"refs", "refs/heads", "refs/tags"} {
			dir := filepath.Join(gitDir, filepath.FromSlash(sub))
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				appendUnique(dir)
			}
		}
	}
	return maps.Keys(uniquePaths)
}

func shouldIgnorePath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}

// classify decides whether a changed path implies moved references or
// only worktree content.
func classify(name string) EventKind {
	slashed := filepath.ToSlash(name)
	idx := strings.Index(slashed, "/.git/")
	if idx < 0 {
		if strings.HasSuffix(slashed, "/.git") {
			return RefsChanged
		}
		return WorkdirChanged
	}
	rel := slashed[idx+len("/.git/"):]
	switch {
	case rel == "HEAD", rel == "packed-refs", rel == "MERGE_HEAD":
		return RefsChanged
	case strings.HasPrefix(rel, "refs/"):
		return RefsChanged
	case rel == "index":
		return WorkdirChanged
	default:
		return WorkdirChanged
	}
}
