package git

import (
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	gitlib "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/require"
)

// fixture builds repositories in memory so the tests never touch disk.
type fixture struct {
	t    *testing.T
	repo *gitlib.Repository
	wt   *gitlib.Worktree
	base time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo, err := gitlib.Init(memory.NewStorage(), memfs.New())
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixture{
		t:    t,
		repo: repo,
		wt:   wt,
		base: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) backend() *Repo {
	return NewBackend(f.repo, "/tmp/fixture")
}

func (f *fixture) write(path, content string) {
	f.t.Helper()
	require.NoError(f.t, util.WriteFile(f.wt.Filesystem, path, []byte(content), 0o644))
	_, err := f.wt.Add(path)
	require.NoError(f.t, err)
}

// commitAt creates a commit with the committer date offset from the
// fixture base, so tests control chronological order precisely.
func (f *fixture) commitAt(msg string, offset time.Duration) string {
	f.t.Helper()
	sig := object.Signature{
		Name:  "Alice",
		Email: "alice@example.com",
		When:  f.base.Add(offset),
	}
	hash, err := f.wt.Commit(msg, &gitlib.CommitOptions{
		Author:            &sig,
		Committer:         &sig,
		AllowEmptyCommits: true,
	})
	require.NoError(f.t, err)
	return hash.String()
}

func (f *fixture) branch(name, from string) {
	f.t.Helper()
	err := f.wt.Checkout(&gitlib.CheckoutOptions{
		Hash:   plumbing.NewHash(from),
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	require.NoError(f.t, err)
}

func (f *fixture) checkout(branch string) {
	f.t.Helper()
	err := f.wt.Checkout(&gitlib.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	})
	require.NoError(f.t, err)
}

func (f *fixture) setRef(name, hash string) {
	f.t.Helper()
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), plumbing.NewHash(hash))
	require.NoError(f.t, f.repo.Storer.SetReference(ref))
}

func TestHeadResolvesCheckedOutBranch(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\n")
	c1 := f.commitAt("initial", 0)

	head, ok, err := f.backend().Head()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, c1, head.Hash)
	require.Equal(t, "master", head.Name)
	require.Equal(t, "refs/heads/master", head.Qualified)
	require.True(t, head.IsHead())
	require.True(t, head.IsLocalBranch())
}

func TestHeadOnUnbornBranchIsNotAnError(t *testing.T) {
	f := newFixture(t)

	_, ok, err := f.backend().Head()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolveRefTriesShortNames(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\n")
	c1 := f.commitAt("initial", 0)
	f.setRef("refs/remotes/origin/master", c1)

	for _, name := range []string{"master", "refs/heads/master"} {
		ref, ok, err := f.backend().ResolveRef(name)
		require.NoError(t, err)
		require.True(t, ok, "resolving %q", name)
		require.Equal(t, c1, ref.Hash)
		require.True(t, ref.IsHead())
	}

	remote, ok, err := f.backend().ResolveRef("origin/master")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, RefKindRemoteBranch, remote.Kind)
	require.False(t, remote.IsHead())

	_, ok, err = f.backend().ResolveRef("no-such-ref")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResolveRefPeelsAnnotatedTag(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\n")
	c1 := f.commitAt("initial", 0)

	tagger := object.Signature{Name: "Alice", Email: "alice@example.com", When: f.base}
	_, err := f.repo.CreateTag("v1", plumbing.NewHash(c1), &gitlib.CreateTagOptions{
		Tagger:  &tagger,
		Message: "release v1",
	})
	require.NoError(t, err)

	ref, ok, err := f.backend().ResolveRef("v1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, RefKindTag, ref.Kind)
	require.Equal(t, c1, ref.Hash, "annotated tag must peel to its commit")
}

func TestListRefsClassifiesKinds(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\n")
	c1 := f.commitAt("initial", 0)

	_, err := f.repo.CreateTag("v1", plumbing.NewHash(c1), nil)
	require.NoError(t, err)
	f.setRef("refs/remotes/origin/master", c1)
	f.setRef("refs/stash", c1)

	refs, err := f.backend().ListRefs()
	require.NoError(t, err)

	kinds := map[string]RefKind{}
	heads := map[string]bool{}
	for _, ref := range refs {
		kinds[ref.Qualified] = ref.Kind
		heads[ref.Qualified] = ref.Head
	}
	require.Equal(t, RefKindBranch, kinds["refs/heads/master"])
	require.Equal(t, RefKindTag, kinds["refs/tags/v1"])
	require.Equal(t, RefKindRemoteBranch, kinds["refs/remotes/origin/master"])
	require.Equal(t, RefKindStash, kinds["refs/stash"])
	require.True(t, heads["refs/heads/master"])
	require.False(t, heads["refs/remotes/origin/master"])
}

func TestUpstreamFollowsBranchConfig(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\n")
	c1 := f.commitAt("initial", 0)
	f.setRef("refs/remotes/origin/master", c1)

	cfg, err := f.repo.Config()
	require.NoError(t, err)
	cfg.Branches["master"] = &gitcfg.Branch{
		Name:   "master",
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName("master"),
	}
	require.NoError(t, f.repo.SetConfig(cfg))

	up, ok, err := f.backend().Upstream("master")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, c1, up.Hash)
	require.Equal(t, RefKindRemoteBranch, up.Kind)

	_, ok, err = f.backend().Upstream("feature")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMergeHeadPresentOnlyDuringMerge(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\n")
	c1 := f.commitAt("initial", 0)

	_, ok, err := f.backend().MergeHead()
	require.NoError(t, err)
	require.False(t, ok)

	f.setRef("MERGE_HEAD", c1)
	hash, ok, err := f.backend().MergeHead()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, c1, hash)
}

func TestLookupCommitConvertsMetadata(t *testing.T) {
	f := newFixture(t)
	f.write("a.txt", "one\n")
	c1 := f.commitAt("initial", 0)
	f.write("a.txt", "two\n")
	c2 := f.commitAt("second", time.Minute)

	commit, err := f.backend().LookupCommit(c2)
	require.NoError(t, err)
	require.Equal(t, c2, commit.Hash)
	require.Equal(t, []string{c1}, commit.ParentHashes)
	require.Equal(t, "Alice", commit.Committer.Name)
	require.Equal(t, f.base.Add(time.Minute).Unix(), commit.Committer.When.Unix())
	require.Equal(t, "second", commit.Summary())
}
