package git

import (
	"container/heap"
	"fmt"
	"io"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// walker drains history from a set of root commits. Chronological walks
// stream through a committer-date priority queue; topological walks load
// the reachable set up front, the same trade-off git itself makes for
// --topo-order, and release commits only after all their walked children.
type walker struct {
	repo  *gitlib.Repository
	order WalkOrder

	queue commitQueue
	seen  map[plumbing.Hash]struct{}

	// pendingChildren and topoCommits are only populated for topological
	// walks: a commit becomes ready once its pending count drops to zero.
	pendingChildren map[plumbing.Hash]int
	topoCommits     map[plumbing.Hash]*object.Commit

	closed bool
}

func newWalker(repo *gitlib.Repository, roots []*object.Commit, order WalkOrder) (*walker, error) {
	w := &walker{
		repo:  repo,
		order: order,
		queue: commitQueue{byTime: order&OrderTime != 0 || order&OrderTopological == 0},
		seen:  make(map[plumbing.Hash]struct{}),
	}
	if order&OrderTopological != 0 {
		if err := w.loadTopological(roots); err != nil {
			return nil, err
		}
		return w, nil
	}
	for _, c := range roots {
		w.push(c)
	}
	return w, nil
}

func (w *walker) push(c *object.Commit) {
	if _, ok := w.seen[c.Hash]; ok {
		return
	}
	w.seen[c.Hash] = struct{}{}
	heap.Push(&w.queue, c)
}

// loadTopological walks the full reachable set, counts children per
// commit, and seeds the queue with the childless tips.
func (w *walker) loadTopological(roots []*object.Commit) error {
	reachable := make(map[plumbing.Hash]*object.Commit)
	stack := append([]*object.Commit(nil), roots...)
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := reachable[c.Hash]; ok {
			continue
		}
		reachable[c.Hash] = c
		for _, ph := range c.ParentHashes {
			if _, ok := reachable[ph]; ok {
				continue
			}
			parent, err := object.GetCommit(w.repo.Storer, ph)
			if err != nil {
				return fmt.Errorf("load commit %s: %w", ph, err)
			}
			stack = append(stack, parent)
		}
	}

	w.pendingChildren = make(map[plumbing.Hash]int, len(reachable))
	for _, c := range reachable {
		for _, ph := range c.ParentHashes {
			w.pendingChildren[ph]++
		}
	}
	for hash, c := range reachable {
		if w.pendingChildren[hash] == 0 {
			w.push(c)
		}
	}
	// Keep the reachable commits addressable while draining.
	w.topoCommits = reachable
	return nil
}

func (w *walker) Next(pathspec string) (*Commit, error) {
	for {
		c, err := w.nextCommit()
		if err != nil {
			return nil, err
		}
		if pathspec != "" {
			touched, err := commitTouchesPath(c, pathspec)
			if err != nil {
				return nil, err
			}
			if !touched {
				continue
			}
		}
		return convertCommit(c), nil
	}
}

func (w *walker) nextCommit() (*object.Commit, error) {
	if w.closed || w.queue.Len() == 0 {
		return nil, io.EOF
	}
	c := heap.Pop(&w.queue).(*object.Commit)
	if w.pendingChildren != nil {
		// Topological: a parent is released only when its last walked
		// child has been emitted.
		for _, ph := range c.ParentHashes {
			w.pendingChildren[ph]--
			if w.pendingChildren[ph] == 0 {
				if parent, ok := w.topoCommits[ph]; ok {
					w.push(parent)
				}
			}
		}
		return c, nil
	}
	for _, ph := range c.ParentHashes {
		parent, err := object.GetCommit(w.repo.Storer, ph)
		if err != nil {
			return nil, fmt.Errorf("load commit %s: %w", ph, err)
		}
		w.push(parent)
	}
	return c, nil
}

func (w *walker) Close() error {
	w.closed = true
	w.queue.items = nil
	w.topoCommits = nil
	w.pendingChildren = nil
	return nil
}

// commitTouchesPath reports whether the commit changed the tree entry at
// path relative to each of its parents (or introduced it, for roots).
func commitTouchesPath(c *object.Commit, path string) (bool, error) {
	entry, err := treeEntryHash(c, path)
	if err != nil {
		return false, err
	}
	if len(c.ParentHashes) == 0 {
		return entry != plumbing.ZeroHash, nil
	}
	parents := c.Parents()
	defer parents.Close()
	for {
		parent, err := parents.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false, err
		}
		parentEntry, err := treeEntryHash(parent, path)
		if err != nil {
			return false, err
		}
		if parentEntry != entry {
			return true, nil
		}
	}
	return false, nil
}

func treeEntryHash(c *object.Commit, path string) (plumbing.Hash, error) {
	tree, err := c.Tree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	entry, err := tree.FindEntry(path)
	if err != nil {
		// Path absent in this revision.
		return plumbing.ZeroHash, nil
	}
	return entry.Hash, nil
}

// commitQueue is a priority queue of commits: newest committer date first
// when byTime, insertion order otherwise. Insertion order breaks ties so
// the walk is deterministic for equal timestamps.
type commitQueue struct {
	byTime bool
	items  []queued
	seq    int
}

type queued struct {
	commit *object.Commit
	seq    int
}

func (q *commitQueue) Len() int { return len(q.items) }

func (q *commitQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if q.byTime {
		at, bt := a.commit.Committer.When, b.commit.Committer.When
		if !at.Equal(bt) {
			return at.After(bt)
		}
	}
	return a.seq < b.seq
}

func (q *commitQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *commitQueue) Push(x any) {
	q.items = append(q.items, queued{commit: x.(*object.Commit), seq: q.seq})
	q.seq++
}

func (q *commitQueue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item.commit
}
