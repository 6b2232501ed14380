package graph

import "github.com/gitlanes/gitlanes/internal/git"

// layoutColumns computes the graph columns for one row.
//
// parents is the frontier as it stood when commit was placed; lane i of
// the produced row corresponds to parents[i]. next is the frontier after
// the replace/append update, which decides where outgoing edges land on
// the following row. root marks a commit that had no frontier slot and
// whose lineage was appended just before layout; its freshly added lane
// gets no incoming segment.
//
// Segment emission order is a contract: incoming Tops, then all routing
// segments, then the Dot/Middle midline, so the node marker paints above
// crossing lines.
func layoutColumns(commit *git.Commit, parents, next frontier, root bool) []Column {
	count := len(parents)
	columns := make([]Column, count)

	incoming := count
	if root {
		incoming = count - 1
	}
	for i := 0; i < incoming; i++ {
		columns[i] = append(columns[i], Segment{Top, parents[i].taintedColor("")})
	}

	for i := 0; i < count; i++ {
		par := parents[i]

		// The lane holding the commit fans out to its parents; every
		// other lane carries its own commit straight through.
		var successors []string
		if par.hash == commit.Hash {
			successors = commit.ParentHashes
		} else {
			successors = []string{par.hash}
		}

		for _, succ := range successors {
			index := next.indexOf(succ)
			if index < 0 {
				// Not tracked yet; the edge appears once the successor
				// is discovered as a root.
				continue
			}

			// A single successor keeps the source lane's color. Fanned
			// out edges take the color of the lane they land on.
			var color Color
			if len(successors) == 1 {
				color = par.taintedColor(commit.Hash)
			} else {
				color = next[index].color
			}

			switch {
			case index < i:
				columns[index] = append(columns[index], Segment{RightIn, color})
				for j := index + 1; j < i; j++ {
					columns[j] = append(columns[j], Segment{Cross, color})
				}
				columns[i] = append(columns[i], Segment{LeftOut, color})

			case index > i:
				columns[i] = append(columns[i], Segment{RightOut, color})
				for j := i + 1; j < index; j++ {
					columns[j] = append(columns[j], Segment{Cross, color})
				}
				if index == len(columns) {
					columns = append(columns, Column{})
				}
				columns[index] = append(columns[index], Segment{LeftIn, color})

			default:
				columns[index] = append(columns[index], Segment{Bottom, color})
			}
		}
	}

	for i := 0; i < count; i++ {
		par := parents[i]
		kind := Middle
		if par.hash == commit.Hash {
			kind = Dot
		}
		columns[i] = append(columns[i], Segment{kind, par.taintedColor("")})
	}

	return columns
}
