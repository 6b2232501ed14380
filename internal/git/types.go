package git

import (
	"strings"
	"time"
)

type Signature struct {
	Name  string
	Email string
	When  time.Time
}

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string
}

// Summary returns the first line of the commit message, truncated the way
// the list view displays it.
func (c *Commit) Summary() string {
	firstLine := strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0]
	if len(firstLine) > 80 {
		firstLine = firstLine[:77] + "..."
	}
	return firstLine
}

func (c *Commit) ShortHash() string {
	if len(c.Hash) < 7 {
		return c.Hash
	}
	return c.Hash[:7]
}

type RefKind uint8

const (
	RefKindBranch RefKind = iota
	RefKindRemoteBranch
	RefKindTag
	RefKindStash
)

type Ref struct {
	Hash      string
	Kind      RefKind
	Name      string // short name: main, origin/main, v1
	Qualified string // full name: refs/heads/main
	Head      bool
}

func (r Ref) IsHead() bool        { return r.Head }
func (r Ref) IsLocalBranch() bool { return r.Kind == RefKindBranch }
func (r Ref) IsStash() bool       { return r.Kind == RefKindStash }
