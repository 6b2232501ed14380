package git

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

// WorktreeStatus computes the uncommitted-changes diff: every path whose
// index or worktree state differs from HEAD, untracked files included,
// with a unified diff of the tracked changes. cancel is polled between
// files so a caller can abort the computation cooperatively.
func (r *Repo) WorktreeStatus(cancel *CancelFlag) (StatusDiff, error) {
	var res StatusDiff
	wt, err := r.repo.Worktree()
	if err != nil {
		return res, err
	}
	status, err := wt.Status()
	if err != nil {
		return res, err
	}
	headTree, err := r.headTree()
	if err != nil {
		return res, err
	}

	var tracked []string
	for path, st := range status {
		if cancel != nil && cancel.Canceled() {
			return res, ErrStatusCanceled
		}
		if st.Worktree == gitlib.Untracked {
			res.Files = append(res.Files, path)
			res.Untracked = append(res.Untracked, path)
			continue
		}
		if st.Staging != gitlib.Unmodified || st.Worktree != gitlib.Unmodified {
			res.Files = append(res.Files, path)
			tracked = append(tracked, path)
		}
	}
	sort.Strings(res.Files)
	sort.Strings(res.Untracked)
	sort.Strings(tracked)

	var b strings.Builder
	for _, path := range tracked {
		if cancel != nil && cancel.Canceled() {
			return StatusDiff{}, ErrStatusCanceled
		}
		from, err := fileFromTree(headTree, path)
		if err != nil {
			return res, err
		}
		to, err := fileFromDisk(r.path, path)
		if err != nil {
			return res, err
		}
		if from == nil && to == nil {
			continue
		}
		if err := appendFileDiff(&b, path, from, to); err != nil {
			return res, err
		}
	}
	res.Text = b.String()
	return res, nil
}

func (r *Repo) headTree() (*object.Tree, error) {
	head, err := r.repo.Head()
	if err != nil {
		if err == plumbing.ErrReferenceNotFound {
			return nil, nil
		}
		return nil, err
	}
	commit, err := object.GetCommit(r.repo.Storer, head.Hash())
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func fileFromTree(tree *object.Tree, path string) (*object.File, error) {
	if tree == nil {
		return nil, nil
	}
	f, err := tree.File(path)
	if err == object.ErrFileNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func fileFromDisk(root, path string) (*object.File, error) {
	if root == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	file, err := os.Open(filepath.Join(root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	mem := &plumbing.MemoryObject{}
	mem.SetType(plumbing.BlobObject)
	if _, err := mem.Write(data); err != nil {
		return nil, err
	}
	blob, err := object.DecodeBlob(mem)
	if err != nil {
		return nil, err
	}
	mode := filemode.Regular
	if info, err := file.Stat(); err == nil {
		if m, err := filemode.NewFromOSFileMode(info.Mode()); err == nil {
			mode = m
		}
	}
	return object.NewFile(path, mode, blob), nil
}

func appendFileDiff(b *strings.Builder, path string, from, to *object.File) error {
	fmt.Fprintf(b, "diff --git a/%s b/%s\n", path, path)

	isBinary, err := binaryChange(from, to)
	if err != nil {
		return err
	}
	if isBinary {
		b.WriteString("(binary files differ)\n")
		return nil
	}

	fromLines, err := fileLines(from)
	if err != nil {
		return err
	}
	toLines, err := fileLines(to)
	if err != nil {
		return err
	}
	diffText, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: fmt.Sprintf("a/%s", path),
		ToFile:   fmt.Sprintf("b/%s", path),
		Context:  3,
	})
	if err != nil {
		return err
	}
	if diffText == "" {
		b.WriteString("(no textual changes)\n")
		return nil
	}
	b.WriteString(diffText)
	if !strings.HasSuffix(diffText, "\n") {
		b.WriteByte('\n')
	}
	return nil
}

func binaryChange(from, to *object.File) (bool, error) {
	for _, f := range []*object.File{from, to} {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

func fileLines(f *object.File) ([]string, error) {
	if f == nil {
		return []string{}, nil
	}
	content, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return difflib.SplitLines(content), nil
}
