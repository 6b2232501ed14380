package git

import (
	"fmt"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const stashRefName = "refs/stash"

// Repo is the go-git implementation of Backend.
type Repo struct {
	repo *gitlib.Repository
	path string
}

func Open(repoPath string) (*Repo, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return &Repo{repo: repo, path: abs}, nil
}

// NewBackend wraps an already-open go-git repository. Used by tests that
// build fixture repositories in memory.
func NewBackend(repo *gitlib.Repository, path string) *Repo {
	return &Repo{repo: repo, path: path}
}

func (r *Repo) RepoPath() string {
	return r.path
}

func (r *Repo) Head() (Ref, bool, error) {
	head, err := r.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return Ref{}, false, nil
		}
		return Ref{}, false, fmt.Errorf("resolve HEAD: %w", err)
	}
	ref := r.refFrom(head)
	ref.Head = true
	return ref, true, nil
}

func (r *Repo) ResolveRef(name string) (Ref, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Ref{}, false, nil
	}
	candidates := []plumbing.ReferenceName{
		plumbing.ReferenceName(name),
		plumbing.NewBranchReferenceName(name),
		plumbing.NewTagReferenceName(name),
		plumbing.ReferenceName("refs/remotes/" + name),
	}
	for _, candidate := range candidates {
		found, err := r.repo.Reference(candidate, true)
		if err == plumbing.ErrReferenceNotFound {
			continue
		}
		if err != nil {
			return Ref{}, false, fmt.Errorf("resolve %s: %w", name, err)
		}
		ref := r.refFrom(found)
		if head, ok, _ := r.Head(); ok && head.Qualified == ref.Qualified {
			ref.Head = true
		}
		return ref, true, nil
	}
	return Ref{}, false, nil
}

func (r *Repo) ListRefs() ([]Ref, error) {
	iter, err := r.repo.References()
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var headQualified string
	if head, err := r.repo.Head(); err == nil {
		headQualified = head.Name().String()
	}

	var refs []Ref
	err = iter.ForEach(func(pref *plumbing.Reference) error {
		if pref.Type() != plumbing.HashReference {
			return nil
		}
		ref := r.refFrom(pref)
		ref.Head = ref.Qualified == headQualified
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *Repo) Upstream(branch string) (Ref, bool, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return Ref{}, false, err
	}
	bc, ok := cfg.Branches[branch]
	if !ok || bc.Remote == "" || bc.Merge == "" {
		return Ref{}, false, nil
	}
	tracking := plumbing.NewRemoteReferenceName(bc.Remote, bc.Merge.Short())
	pref, err := r.repo.Reference(tracking, true)
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return Ref{}, false, nil
		}
		return Ref{}, false, err
	}
	return r.refFrom(pref), true, nil
}

func (r *Repo) MergeHead() (string, bool, error) {
	pref, err := r.repo.Reference(plumbing.ReferenceName("MERGE_HEAD"), true)
	if err != nil {
		// Absent outside an unfinished merge.
		return "", false, nil
	}
	return pref.Hash().String(), true, nil
}

func (r *Repo) LookupCommit(hash string) (*Commit, error) {
	c, err := object.GetCommit(r.repo.Storer, plumbing.NewHash(hash))
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	return convertCommit(c), nil
}

func (r *Repo) Walk(roots []string, order WalkOrder) (WalkHandle, error) {
	var commits []*object.Commit
	seen := make(map[plumbing.Hash]struct{}, len(roots))
	for _, root := range roots {
		hash := plumbing.NewHash(root)
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		c, err := object.GetCommit(r.repo.Storer, hash)
		if err != nil {
			// Roots that don't resolve to commits (e.g. a tag object
			// pointing at a tree) are skipped, not fatal.
			continue
		}
		commits = append(commits, c)
	}
	return newWalker(r.repo, commits, order)
}

// refFrom classifies a plumbing reference, peeling annotated tags down to
// their commit so walk roots are always commit hashes.
func (r *Repo) refFrom(pref *plumbing.Reference) Ref {
	name := pref.Name()
	hash := pref.Hash()
	kind := RefKindBranch
	switch {
	case name.String() == stashRefName:
		kind = RefKindStash
	case name.IsRemote():
		kind = RefKindRemoteBranch
	case name.IsTag():
		kind = RefKindTag
		if tag, err := object.GetTag(r.repo.Storer, hash); err == nil {
			if c, err := tag.Commit(); err == nil {
				hash = c.Hash
			}
		}
	}
	short := name.Short()
	if short == "" {
		short = name.String()
	}
	return Ref{
		Hash:      hash.String(),
		Kind:      kind,
		Name:      short,
		Qualified: name.String(),
	}
}

func convertCommit(c *object.Commit) *Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:    Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:      c.Message,
	}
}
