package graph

import (
	"errors"
	"io"
	"time"

	"github.com/gitlanes/gitlanes/internal/git"
)

type fakeBackend struct {
	repoPath  string
	commits   map[string]*git.Commit
	refs      []git.Ref
	head      *git.Ref
	upstream  map[string]git.Ref
	mergeHead string

	walkFunc   func(roots []string, order git.WalkOrder) (git.WalkHandle, error)
	statusFunc func(cancel *git.CancelFlag) (git.StatusDiff, error)

	walkRoots  [][]string
	walkOrders []git.WalkOrder
}

func (f *fakeBackend) RepoPath() string {
	if f.repoPath == "" {
		return "/tmp/fake"
	}
	return f.repoPath
}

func (f *fakeBackend) Head() (git.Ref, bool, error) {
	if f.head == nil {
		return git.Ref{}, false, nil
	}
	return *f.head, true, nil
}

func (f *fakeBackend) ResolveRef(name string) (git.Ref, bool, error) {
	for _, ref := range f.refs {
		if ref.Name == name || ref.Qualified == name {
			return ref, true, nil
		}
	}
	return git.Ref{}, false, nil
}

func (f *fakeBackend) ListRefs() ([]git.Ref, error) {
	return f.refs, nil
}

func (f *fakeBackend) Upstream(branch string) (git.Ref, bool, error) {
	ref, ok := f.upstream[branch]
	return ref, ok, nil
}

func (f *fakeBackend) MergeHead() (string, bool, error) {
	return f.mergeHead, f.mergeHead != "", nil
}

func (f *fakeBackend) LookupCommit(hash string) (*git.Commit, error) {
	if c, ok := f.commits[hash]; ok {
		return c, nil
	}
	return nil, errors.New("commit not found")
}

func (f *fakeBackend) Walk(roots []string, order git.WalkOrder) (git.WalkHandle, error) {
	f.walkRoots = append(f.walkRoots, roots)
	f.walkOrders = append(f.walkOrders, order)
	if f.walkFunc != nil {
		return f.walkFunc(roots, order)
	}
	return nil, errors.New("unexpected Walk call")
}

func (f *fakeBackend) WorktreeStatus(cancel *git.CancelFlag) (git.StatusDiff, error) {
	if f.statusFunc != nil {
		return f.statusFunc(cancel)
	}
	return git.StatusDiff{}, errors.New("unexpected WorktreeStatus call")
}

// fakeWalk replays a fixed commit sequence, ignoring pathspecs.
type fakeWalk struct {
	commits []*git.Commit
	pos     int
	closed  bool
}

func (w *fakeWalk) Next(pathspec string) (*git.Commit, error) {
	if w.closed || w.pos >= len(w.commits) {
		return nil, io.EOF
	}
	c := w.commits[w.pos]
	w.pos++
	return c, nil
}

func (w *fakeWalk) Close() error {
	w.closed = true
	return nil
}

// replayWalker returns a walkFunc that serves a fresh walk over the same
// sequence on every call, the way a real backend restarts from its roots.
func replayWalker(commits []*git.Commit) func([]string, git.WalkOrder) (git.WalkHandle, error) {
	return func([]string, git.WalkOrder) (git.WalkHandle, error) {
		return &fakeWalk{commits: commits}, nil
	}
}

var fakeClock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fakeCommit builds a commit whose committer date decreases with each
// call, matching the newest-first order walks deliver.
func fakeCommit(seq int, hash string, parents ...string) *git.Commit {
	when := fakeClock.Add(-time.Duration(seq) * time.Minute)
	return &git.Commit{
		Hash:         hash,
		ParentHashes: parents,
		Author:       git.Signature{Name: "Alice", Email: "alice@example.com", When: when},
		Committer:    git.Signature{Name: "Alice", Email: "alice@example.com", When: when},
		Message:      "commit " + hash,
	}
}
