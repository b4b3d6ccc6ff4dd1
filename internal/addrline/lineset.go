package addrline

import (
	"sort"

	"golang.org/x/exp/slices"
)

// LineSet is a sorted set of source line numbers an Index touches,
// folded into contiguous LineRanges for the mixed source+asm display's
// "which lines need rendering" query.
type LineSet struct {
	list []int
}

// Add inserts line into the set, keeping list sorted.
func (rs *LineSet) Add(line int) {
	if len(rs.list) == 0 {
		rs.list = append(rs.list, line)
		return
	}
	at := sort.SearchInts(rs.list, line)
	if at >= len(rs.list) {
		rs.list = append(rs.list, line)
	} else if rs.list[at] != line {
		rs.list = slices.Insert(rs.list, at, line)
	}
}

// Ranges folds the set into contiguous LineRanges, padding each side by
// context lines so a selected/sampled line shows with surrounding
// source, then merging ranges that overlap as a result.
func (rs *LineSet) Ranges(context int) []LineRange {
	if len(rs.list) == 0 {
		return nil
	}

	var all []LineRange

	current := LineRange{From: rs.list[0] - context, To: rs.list[0] + context + 1}
	if current.From < 1 {
		current.From = 1
	}
	for _, line := range rs.list {
		if line-context <= current.To {
			current.To = line + context + 1
		} else {
			all = append(all, current)
			current = LineRange{From: line - context, To: line + context + 1}
		}
	}
	all = append(all, current)

	return all
}
