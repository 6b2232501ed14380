package git

import (
	"fmt"
	"strings"
)

// BranchLabels maps commit hashes to the ref badges shown next to them.
// The HEAD label always sorts first on its commit.
func BranchLabels(b Backend) (map[string][]string, error) {
	labels := map[string][]string{}
	if b == nil || b.RepoPath() == "" {
		return labels, nil
	}

	refs, err := b.ListRefs()
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		if ref.Hash == "" || ref.Name == "" || ref.IsStash() {
			continue
		}
		// The checked-out branch is covered by the HEAD label below.
		if ref.Head {
			continue
		}
		if ref.Kind == RefKindRemoteBranch && strings.HasSuffix(ref.Name, "/HEAD") {
			continue
		}
		label := ref.Name
		if ref.Kind == RefKindTag {
			label = fmt.Sprintf("tag: %s", ref.Name)
		}
		labels[ref.Hash] = append(labels[ref.Hash], label)
	}

	head, ok, err := b.Head()
	if err != nil {
		return nil, err
	}
	if ok && head.Hash != "" {
		label := "HEAD"
		if head.Name != "" && head.Name != "HEAD" {
			label = fmt.Sprintf("HEAD -> %s", head.Name)
		}
		labels[head.Hash] = append([]string{label}, labels[head.Hash]...)
	}
	return labels, nil
}
