package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want EventKind
	}{
		{"/repo/.git/HEAD", RefsChanged},
		{"/repo/.git/packed-refs", RefsChanged},
		{"/repo/.git/MERGE_HEAD", RefsChanged},
		{"/repo/.git/refs/heads/main", RefsChanged},
		{"/repo/.git/refs/tags/v1", RefsChanged},
		{"/repo/.git", RefsChanged},
		{"/repo/.git/index", WorkdirChanged},
		{"/repo/.git/COMMIT_EDITMSG", WorkdirChanged},
		{"/repo/main.go", WorkdirChanged},
		{"/repo/sub/dir/file.txt", WorkdirChanged},
	}
	for _, tc := range cases {
		if got := classify(tc.path); got != tc.want {
			t.Errorf("classify(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestShouldIgnorePath(t *testing.T) {
	if !shouldIgnorePath("/repo/.git/index.lock") {
		t.Error("lock files must be ignored")
	}
	if shouldIgnorePath("/repo/.git/HEAD") {
		t.Error("HEAD must not be ignored")
	}
}

func TestWatchPathsIncludeGitDirAndRefs(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{".git/refs/heads", ".git/refs/tags"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	paths := map[string]struct{}{}
	for p := range watchPaths(dir) {
		paths[p] = struct{}{}
	}
	for _, want := range []string{
		dir,
		filepath.Join(dir, ".git"),
		filepath.Join(dir, ".git", "refs"),
		filepath.Join(dir, ".git", "refs", "heads"),
		filepath.Join(dir, ".git", "refs", "tags"),
	} {
		if _, ok := paths[want]; !ok {
			t.Errorf("watchPaths missing %s", want)
		}
	}
}

func TestWatchPathsEmptyRoot(t *testing.T) {
	if watchPaths("") != nil {
		t.Error("empty root must yield no paths")
	}
}

func waitForEvent(t *testing.T, w *Watcher, want EventKind) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Kind == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %v event", want)
		}
	}
}

func TestWatcherDeliversClassifiedEvents(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	if err := os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o755); err != nil {
		t.Fatal(err)
	}

	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, w, RefsChanged)

	if err := os.WriteFile(filepath.Join(dir, "file.txt"), []byte("content\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitForEvent(t, w, WorkdirChanged)
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}
