package graph

import "github.com/gitlanes/gitlanes/internal/git"

// Color identifies one entry of the ordered lane palette. The value is
// opaque to this package; the terminal layer feeds it lipgloss-compatible
// color strings.
type Color string

// TaintedColor is the fixed color used for provisional edges, e.g. the
// edge from the uncommitted-changes row down to HEAD. Renderers are
// expected to draw it in a muted/dashed style.
const TaintedColor Color = "8"

type SegmentKind uint8

const (
	Dot SegmentKind = iota
	Top
	Middle
	Bottom
	Cross
	LeftIn
	LeftOut
	RightIn
	RightOut
)

func (k SegmentKind) String() string {
	switch k {
	case Dot:
		return "dot"
	case Top:
		return "top"
	case Middle:
		return "middle"
	case Bottom:
		return "bottom"
	case Cross:
		return "cross"
	case LeftIn:
		return "left-in"
	case LeftOut:
		return "left-out"
	case RightIn:
		return "right-in"
	case RightOut:
		return "right-out"
	}
	return "unknown"
}

// Segment is one drawing primitive within a lane's vertical extent.
type Segment struct {
	Kind  SegmentKind
	Color Color
}

// Column stacks the segments of one lane for one row, in emission order:
// routing segments first, the Dot/Middle midline last.
type Column []Segment

// Row is one laid-out commit. A nil Commit marks the synthetic
// uncommitted-changes row, which only ever appears at index 0.
type Row struct {
	Commit  *git.Commit
	Columns []Column
}

// IsStatus reports whether this is the synthetic uncommitted-changes row.
func (r Row) IsStatus() bool {
	return r.Commit == nil
}
