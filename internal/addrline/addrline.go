// Package addrline builds the address<->line index for one decoded
// symbol (spec.md component E) and groups the lines that index touches
// into contiguous ranges for the mixed source+asm display.
//
// LineRange and LineSet below are the teacher's internal/disasm helpers
// (loov-lensm), unchanged in behavior: a sorted set of line numbers that
// folds into contiguous ranges, optionally padded with context lines.
package addrline

import (
	"sort"

	"github.com/feiyunwill/tracy/internal/capture"
)

// Index maps decoded addresses to source locations and back, restricted
// to one symbol's address range.
type Index struct {
	File uint32

	lineToAddrs map[int][]uint64
	addrToLine  map[uint64]int
}

// Build constructs an Index from every address in addrs by asking store
// for each address's source location. Addresses whose location falls
// on a different file than the first resolved one are kept in the
// addr->line map (for per-instruction attribution) but excluded from
// the file-scoped line->addr map, matching spec §4.4's "restricted to
// the current symbol" scoping.
func Build(store capture.Store, addrs []uint64) *Index {
	idx := &Index{
		lineToAddrs: make(map[int][]uint64),
		addrToLine:  make(map[uint64]int),
	}

	resolved := false
	for _, addr := range addrs {
		loc := store.LocationForAddress(addr)
		idx.addrToLine[addr] = loc.Line
		if loc.Line == 0 {
			continue
		}
		if !resolved {
			idx.File = loc.File
			resolved = true
		}
		if loc.File != idx.File {
			continue
		}
		idx.lineToAddrs[loc.Line] = append(idx.lineToAddrs[loc.Line], addr)
	}
	for line, list := range idx.lineToAddrs {
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
		idx.lineToAddrs[line] = list
	}
	return idx
}

// LineForAddr returns the source line attributed to addr, or 0 if
// unknown.
func (idx *Index) LineForAddr(addr uint64) int {
	return idx.addrToLine[addr]
}

// AddrsForLine returns the sorted addresses attributed to line within
// the indexed symbol.
func (idx *Index) AddrsForLine(line int) []uint64 {
	return idx.lineToAddrs[line]
}

// NeededLines returns the set of source lines this index touches, for
// use with LineSet.Ranges when building the mixed display's source
// ranges.
func (idx *Index) NeededLines() LineSet {
	var set LineSet
	for line := range idx.lineToAddrs {
		set.Add(line)
	}
	return set
}
