package graph

// lineage is one active branch path awaiting its next commit. It stays
// bound to a frontier slot (the lane/column index) and a color until the
// path terminates or forks.
type lineage struct {
	hash    string
	color   Color
	tainted bool
}

// taintedColor returns the lineage color, except that a tainted lineage
// renders with the fixed TaintedColor for every segment not touching the
// commit it points at.
func (l lineage) taintedColor(hash string) Color {
	if l.tainted && l.hash != hash {
		return TaintedColor
	}
	return l.color
}

// frontier is the ordered set of active lineages. Slot order is the
// column index contract: lane i of the next row is frontier[i].
type frontier []lineage

func (f frontier) indexOf(hash string) int {
	for i := range f {
		if f[i].hash == hash {
			return i
		}
	}
	return -1
}

// nextColor picks the first palette color whose usage count across the
// frontier matches the lowest count present, scanning counts upward from
// zero. Freed colors are reused immediately and ties break by palette
// order; with more lineages than colors the counts simply climb past 1.
func (f frontier) nextColor(palette []Color) Color {
	if len(palette) == 0 {
		return ""
	}
	counts := make(map[Color]int, len(palette))
	for _, l := range f {
		counts[l.color]++
	}
	for count := 0; ; count++ {
		for _, c := range palette {
			if counts[c] == count {
				return c
			}
		}
	}
}
