package graph

import (
	"io"
	"log/slog"
	"slices"

	"github.com/gitlanes/gitlanes/internal/git"
)

// FetchBatch bounds how many commits one FetchMore call pulls, keeping a
// single pagination step non-blocking for the consumer.
const FetchBatch = 64

// Settings mirrors the walk-affecting configuration values.
type Settings struct {
	RefsAll      bool
	SortDate     bool
	CleanStatus  bool
	GraphVisible bool
	Compact      bool
}

// Listener receives row store notifications. All callbacks fire on the
// context that owns the Builder.
type Listener interface {
	RowsInserted(first, last int)
	ResetBegin()
	ResetEnd()
	StatusVisibilityChanged(visible bool)
}

type nopListener struct{}

func (nopListener) RowsInserted(int, int)        {}
func (nopListener) ResetBegin()                  {}
func (nopListener) ResetEnd()                    {}
func (nopListener) StatusVisibilityChanged(bool) {}

// Builder lays commits out into rows as they are pulled from a revision
// walk, maintaining the frontier of active lineages between rows.
//
// The Builder is single-threaded: FetchMore and Reset run to completion
// on the calling goroutine, and all external notifications must be
// marshalled onto that same context before touching it. The one
// asynchronous piece, the status computation, re-enters through the
// marshal function handed to New.
type Builder struct {
	backend  git.Backend
	palette  []Color
	settings Settings
	listener Listener

	ref      *git.Ref
	pathspec string

	walk     git.WalkHandle
	frontier frontier
	rows     []Row
	emitted  map[string]struct{}

	status *statusController
}

// New creates a Builder. listener may be nil; marshal must run its
// argument on the goroutine that owns the Builder and may be nil when the
// caller drives everything synchronously.
func New(backend git.Backend, palette []Color, settings Settings, listener Listener, marshal func(func())) *Builder {
	if listener == nil {
		listener = nopListener{}
	}
	if marshal == nil {
		marshal = func(fn func()) { fn() }
	}
	b := &Builder{
		backend:  backend,
		palette:  palette,
		settings: settings,
		listener: listener,
		emitted:  map[string]struct{}{},
	}
	b.status = newStatusController(backend.WorktreeStatus, func() {
		marshal(b.onStatusFinished)
	})
	return b
}

func (b *Builder) Ref() *git.Ref { return b.ref }

func (b *Builder) Settings() Settings { return b.settings }

// SetReference points the walk at a new reference and rebuilds the rows.
func (b *Builder) SetReference(ref *git.Ref) {
	b.ref = ref
	b.Reset()
}

func (b *Builder) SetPathspec(pathspec string) {
	if b.pathspec == pathspec {
		return
	}
	b.pathspec = pathspec
	b.Reset()
}

// ResetReference reacts to an external reference update: it re-points the
// selected ref when the update names it, restarts the status computation
// when HEAD is affected, and rebuilds the rows.
func (b *Builder) ResetReference(ref *git.Ref) {
	if ref != nil && b.ref != nil && ref.Qualified == b.ref.Qualified {
		b.ref = ref
	}
	b.Reset()
	if ref == nil || ref.IsHead() {
		b.StartStatus()
	}
}

// ResetSettings replaces the settings snapshot, optionally rebuilding.
func (b *Builder) ResetSettings(settings Settings, walk bool) {
	b.settings = settings
	if walk {
		b.Reset()
	}
}

// Reset discards the frontier and all rows, re-derives the status row,
// reconfigures the walk and pulls the first batch, so the result set is
// never left empty-but-fetchable. A status computation still in flight is
// cancelled first; its result would belong to the previous generation.
func (b *Builder) Reset() {
	b.status.cancelRun()
	b.listener.ResetBegin()

	b.frontier = nil
	b.rows = nil
	b.emitted = map[string]struct{}{}

	head := b.ref == nil || b.ref.IsHead()
	if head && b.statusRowValid() && b.pathspec == "" {
		var cols []Column
		if b.settings.GraphVisible && b.ref != nil && b.status.finished() {
			cols = append(cols, Column{{Bottom, TaintedColor}, {Dot, ""}})
			b.frontier = append(b.frontier, lineage{
				hash:    b.ref.Hash,
				color:   b.frontier.nextColor(b.palette),
				tainted: true,
			})
		}
		b.rows = append(b.rows, Row{Columns: cols})
	}

	if b.walk != nil {
		if err := b.walk.Close(); err != nil {
			slog.Debug("walk close", slog.Any("error", err))
		}
		b.walk = nil
	}
	if b.ref != nil {
		b.walk = b.configureWalk()
	}

	if b.CanFetchMore() {
		b.FetchMore()
	}
	b.listener.ResetEnd()
}

// statusRowValid implements the status row gate: show it while the
// computation is pending, when it found changes, or always under the
// clean-status setting.
func (b *Builder) statusRowValid() bool {
	if b.settings.CleanStatus || !b.status.finished() {
		return true
	}
	diff, ok := b.status.result()
	return ok && !diff.Empty()
}

func (b *Builder) configureWalk() git.WalkHandle {
	order := git.OrderNone
	if b.settings.GraphVisible {
		order |= git.OrderTopological
		if b.settings.SortDate {
			order |= git.OrderTime
		}
	} else if !b.settings.SortDate {
		order |= git.OrderTopological
	}

	roots := []string{b.ref.Hash}
	if b.ref.IsLocalBranch() {
		if upstream, ok, err := b.backend.Upstream(b.ref.Name); err == nil && ok {
			roots = append(roots, upstream.Hash)
		}
	}
	if b.ref.IsHead() {
		if mergeHead, ok, err := b.backend.MergeHead(); err == nil && ok {
			roots = append(roots, mergeHead)
		}
	}
	if b.settings.RefsAll {
		refs, err := b.backend.ListRefs()
		if err != nil {
			slog.Error("list refs", slog.Any("error", err))
		}
		for _, ref := range refs {
			if !ref.IsStash() {
				roots = append(roots, ref.Hash)
			}
		}
	}

	walk, err := b.backend.Walk(roots, order)
	if err != nil {
		slog.Error("start revision walk", slog.Any("error", err))
		return nil
	}
	return walk
}

// CanFetchMore reports whether the walk still has commits to deliver.
func (b *Builder) CanFetchMore() bool {
	return b.walk != nil
}

// FetchMore pulls at most FetchBatch commits from the walk, lays each out
// against the current frontier and appends the resulting rows. The walk
// handle is invalidated once exhausted; a full batch leaves it positioned
// to resume.
func (b *Builder) FetchMore() {
	if b.walk == nil {
		return
	}

	var rows []Row
	exhausted := false
	for len(rows) < FetchBatch {
		commit, err := b.walk.Next(b.pathspec)
		if err != nil {
			if err != io.EOF {
				slog.Error("revision walk", slog.Any("error", err))
			}
			exhausted = true
			break
		}
		rows = append(rows, b.layoutCommit(commit))
	}

	if len(rows) > 0 {
		first := len(b.rows)
		b.rows = append(b.rows, rows...)
		b.listener.RowsInserted(first, first+len(rows)-1)
		slog.Debug("fetched batch",
			slog.Int("rows", len(rows)),
			slog.Int("total", len(b.rows)),
			slog.Int("lanes", len(b.frontier)),
		)
	}

	if exhausted {
		if err := b.walk.Close(); err != nil {
			slog.Debug("walk close", slog.Any("error", err))
		}
		b.walk = nil
	}
}

// layoutCommit places one commit: allocates a lineage for fresh roots,
// advances the frontier (first unresolved parent replaces the lane in
// place, extra parents append with fresh colors) and computes the row's
// columns from the pre-advance snapshot.
func (b *Builder) layoutCommit(commit *git.Commit) Row {
	root := false
	if b.frontier.indexOf(commit.Hash) < 0 {
		root = true
		b.frontier = append(b.frontier, lineage{
			hash:  commit.Hash,
			color: b.frontier.nextColor(b.palette),
		})
	}

	parents := slices.Clone(b.frontier)

	// Parents already on another lane, or already emitted in a prior
	// row, collapse onto the existing lane instead of duplicating it.
	// A merge listing the same parent twice counts it once.
	var replacements []string
	for _, parent := range commit.ParentHashes {
		if slices.Contains(replacements, parent) {
			continue
		}
		if b.frontier.indexOf(parent) < 0 && !b.rowEmitted(parent) {
			replacements = append(replacements, parent)
		}
	}

	idx := b.frontier.indexOf(commit.Hash)
	if idx >= 0 {
		current := b.frontier[idx]
		b.frontier = slices.Delete(b.frontier, idx, idx+1)
		if len(replacements) > 0 {
			b.frontier = slices.Insert(b.frontier, idx, lineage{
				hash:  replacements[0],
				color: current.color,
			})
			for _, extra := range replacements[1:] {
				b.frontier = append(b.frontier, lineage{
					hash:  extra,
					color: b.frontier.nextColor(b.palette),
				})
			}
		}
	}

	var cols []Column
	if b.settings.GraphVisible && b.pathspec == "" {
		cols = layoutColumns(commit, parents, b.frontier, root)
	}

	b.emitted[commit.Hash] = struct{}{}
	return Row{Commit: commit, Columns: cols}
}

func (b *Builder) rowEmitted(hash string) bool {
	_, ok := b.emitted[hash]
	return ok
}

func (b *Builder) RowCount() int {
	return len(b.rows)
}

func (b *Builder) RowAt(i int) Row {
	return b.rows[i]
}

// FindRow locates the row displaying the commit, pulling further batches
// while the search stays plausible: the scan cuts off once rows older
// than the target's committer date appear. A nil commit addresses the
// status row. Returns -1 when not found.
func (b *Builder) FindRow(commit *git.Commit) int {
	if commit == nil {
		if len(b.rows) > 0 && b.rows[0].IsStatus() {
			return 0
		}
		return -1
	}
	for i := 0; i < len(b.rows); i++ {
		row := b.rows[i]
		if row.Commit != nil {
			if row.Commit.Hash == commit.Hash {
				return i
			}
			if row.Commit.Committer.When.Before(commit.Committer.When) {
				return -1
			}
		}
		if i == len(b.rows)-1 && b.CanFetchMore() {
			b.FetchMore()
		}
	}
	return -1
}

// StartStatus kicks off the asynchronous uncommitted-changes computation,
// cancelling any computation already in flight first. Row 0 reflects the
// pending state immediately, so a restart after a clean result brings the
// row back without waiting for completion.
func (b *Builder) StartStatus() {
	b.status.start()
	b.syncStatusRow()
}

// syncStatusRow inserts the synthetic row when the gate says it should be
// present but the last reset left it out. Completion goes through a full
// Reset instead, so rows are never removed here.
func (b *Builder) syncStatusRow() {
	head := b.ref == nil || b.ref.IsHead()
	if !head || !b.statusRowValid() || b.pathspec != "" {
		return
	}
	if len(b.rows) > 0 && b.rows[0].IsStatus() {
		return
	}
	b.rows = slices.Insert(b.rows, 0, Row{})
	b.listener.RowsInserted(0, 0)
	b.listener.StatusVisibilityChanged(true)
}

// CancelStatus cooperatively cancels the in-flight computation and blocks
// until the worker acknowledges.
func (b *Builder) CancelStatus() {
	b.status.cancelRun()
}

// Status returns the computed diff once the computation has finished
// without error or cancellation.
func (b *Builder) Status() (git.StatusDiff, bool) {
	return b.status.result()
}

func (b *Builder) StatusRunning() bool {
	return b.status.running()
}

// Progress is the busy counter incremented while the status computation
// runs. Cosmetic; it never affects layout state.
func (b *Builder) Progress() int {
	return b.status.progressCount()
}

func (b *Builder) onStatusFinished() {
	b.Reset()
	visible := len(b.rows) > 0 && b.rows[0].IsStatus()
	b.listener.StatusVisibilityChanged(visible)
}
