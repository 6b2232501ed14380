package git

import (
	"errors"
	"sync/atomic"
)

// WalkOrder selects the ordering of a revision walk. Topological and time
// ordering combine the way git's --topo-order and --date-order do.
type WalkOrder uint8

const (
	OrderNone        WalkOrder = 0
	OrderTopological WalkOrder = 1 << 0
	OrderTime        WalkOrder = 1 << 1
)

// ErrStatusCanceled is returned by WorktreeStatus when the cancel flag was
// observed before the computation finished.
var ErrStatusCanceled = errors.New("status computation canceled")

// CancelFlag is a cooperative cancellation token. The computation polls it
// between units of work and aborts as soon as it observes the flag.
type CancelFlag struct {
	v atomic.Bool
}

func (c *CancelFlag) Cancel()        { c.v.Store(true) }
func (c *CancelFlag) Canceled() bool { return c.v.Load() }

// StatusDiff is the result of a working-tree status computation.
type StatusDiff struct {
	// Files lists changed paths, sorted, untracked included.
	Files []string
	// Untracked lists the subset of Files not known to the index.
	Untracked []string
	// Text is the unified diff of the tracked changes.
	Text string
}

func (d StatusDiff) Empty() bool { return len(d.Files) == 0 }

// Backend abstracts access to repository data.
//
// The default implementation is built on go-git, but the interface allows
// alternative implementations without changing the layout engine.
type Backend interface {
	RepoPath() string

	// Head returns the current HEAD reference. ok is false on an unborn
	// or otherwise unresolvable HEAD; that is not an error.
	Head() (ref Ref, ok bool, err error)
	ResolveRef(name string) (ref Ref, ok bool, err error)
	ListRefs() ([]Ref, error)

	// Upstream resolves the remote-tracking counterpart of a local branch.
	Upstream(branch string) (ref Ref, ok bool, err error)
	// MergeHead returns the MERGE_HEAD commit hash during an unfinished merge.
	MergeHead() (hash string, ok bool, err error)

	LookupCommit(hash string) (*Commit, error)

	// Walk starts a revision walk from the given root hashes. The handle
	// is restartable only by creating a new one.
	Walk(roots []string, order WalkOrder) (WalkHandle, error)

	// WorktreeStatus computes the uncommitted-changes diff. It is meant to
	// run off the calling goroutine and polls cancel between files.
	WorktreeStatus(cancel *CancelFlag) (StatusDiff, error)
}

// WalkHandle is a lazy commit sequence. Next returns io.EOF once the walk
// is exhausted. A non-empty pathspec restricts the walk to commits
// touching that path.
type WalkHandle interface {
	Next(pathspec string) (*Commit, error)
	Close() error
}
