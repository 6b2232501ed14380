package tui

import (
	"strings"

	"github.com/gitlanes/gitlanes/internal/graph"
)

// glyphFor collapses one column's segments into a single terminal cell.
// The dot always wins; a crossing over a live lane renders as a junction;
// bare routing segments render as their curve.
func glyphFor(col graph.Column) (rune, graph.Color) {
	var dot, vertical, cross, leftIn, rightIn, leftOut, rightOut bool
	var dotColor, vColor, hvColor, inColor, outColor graph.Color
	for _, seg := range col {
		switch seg.Kind {
		case graph.Dot:
			dot = true
			dotColor = seg.Color
		case graph.Top, graph.Middle, graph.Bottom:
			vertical = true
			vColor = seg.Color
		case graph.Cross:
			cross = true
			hvColor = seg.Color
		case graph.LeftIn:
			leftIn = true
			inColor = seg.Color
		case graph.RightIn:
			rightIn = true
			inColor = seg.Color
		case graph.LeftOut:
			leftOut = true
			outColor = seg.Color
		case graph.RightOut:
			rightOut = true
			outColor = seg.Color
		}
	}
	switch {
	case dot:
		return '●', dotColor
	case cross && vertical:
		return '┼', hvColor
	case rightIn:
		return '╭', inColor
	case leftIn:
		return '╮', inColor
	case cross:
		return '─', hvColor
	case vertical:
		return '│', vColor
	case rightOut:
		return '╰', outColor
	case leftOut:
		return '╯', outColor
	}
	return ' ', ""
}

// renderColumns draws the lane cells for one row. width pads the result
// to a fixed number of lanes so the text column lines up; compact drops
// the spacer between lanes.
func renderColumns(cols []graph.Column, width int, compact bool) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		var glyph rune = ' '
		var color graph.Color
		if i < len(cols) {
			glyph, color = glyphFor(cols[i])
		}
		cell := string(glyph)
		if glyph != ' ' {
			cell = laneStyle(color).Render(cell)
		}
		b.WriteString(cell)
		if !compact {
			spacer := " "
			if i < len(cols) {
				if ok, c := continuesRight(cols[i]); ok {
					spacer = laneStyle(c).Render("─")
				}
			}
			b.WriteString(spacer)
		}
	}
	return b.String()
}

// continuesRight reports whether the column carries a horizontal edge
// through the spacer on its right side.
func continuesRight(col graph.Column) (bool, graph.Color) {
	for _, seg := range col {
		switch seg.Kind {
		case graph.Cross, graph.RightOut, graph.RightIn:
			return true, seg.Color
		}
	}
	return false, ""
}
