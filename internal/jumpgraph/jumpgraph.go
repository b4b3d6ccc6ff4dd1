// Package jumpgraph packs decoded branch targets into non-overlapping
// horizontal lanes for the jump-arrow gutter (spec.md component D).
//
// The packing follows TracySourceView.cpp's post-disassembly layout
// pass: entries are sorted by interval length ascending, and each is
// placed in the lowest level whose existing intervals don't overlap
// it. The teacher's own jump-stacking code in parse.go solves a
// related but different problem (a single growing stack of open
// brackets) and doesn't generalize to this level-assignment; this
// follows the level-packing algorithm the original system and spec.md
// actually describe.
package jumpgraph

import (
	"sort"

	"github.com/feiyunwill/tracy/internal/disasm"
)

// Graph is the set of intra-symbol jump entries, packed into lanes.
type Graph struct {
	Entries      []*disasm.JumpEntry
	MaxJumpLevel int
}

// ClassifyBranches partitions every decoded branch in lines into
// intra-symbol or out-of-symbol, mutating lines in place, per spec
// §4.3/§4.4: a target only counts as intra-symbol if it both falls in
// [base, base+codeLen) and lands exactly on an address this decode
// actually produced (a raw in-range immediate that lands mid-
// instruction is still an out-jump). Intra-symbol targets are left as
// AsmLine.JumpAddr for Build to group; out-of-symbol targets are
// cleared to 0 and their source address and original raw target are
// recorded in the returned out-set, matching TracySourceView.cpp's
// m_jumpOut bookkeeping (§4.8's click_jump_target needs the raw target
// back to surface as jump_out even though JumpAddr itself is cleared).
//
// Must run once, before Build, over a freshly decoded line slice.
func ClassifyBranches(lines []disasm.AsmLine, base, codeLen uint64) map[uint64]uint64 {
	addrSet := make(map[uint64]bool, len(lines))
	for i := range lines {
		addrSet[lines[i].Addr] = true
	}

	end := base + codeLen
	outSet := map[uint64]uint64{}
	for i := range lines {
		line := &lines[i]
		if line.JumpAddr == 0 {
			continue
		}
		if line.JumpAddr >= base && line.JumpAddr < end && addrSet[line.JumpAddr] {
			continue
		}
		outSet[line.Addr] = line.JumpAddr
		line.JumpAddr = 0
	}
	return outSet
}

// Build collects every branch in lines whose target falls within the
// symbol's own address range (addrMin/addrMax, both inclusive of the
// decoded span) into one JumpEntry per distinct target, then packs
// them into lanes.
func Build(lines []disasm.AsmLine, addrMin, addrMax uint64) *Graph {
	byTarget := map[uint64]*disasm.JumpEntry{}
	for _, line := range lines {
		if line.JumpAddr == 0 {
			continue
		}
		if line.JumpAddr < addrMin || line.JumpAddr > addrMax {
			continue // jump_out: target leaves the symbol, not this graph's concern
		}
		entry, ok := byTarget[line.JumpAddr]
		if !ok {
			entry = &disasm.JumpEntry{Target: line.JumpAddr}
			byTarget[line.JumpAddr] = entry
		}
		entry.Sources = append(entry.Sources, line.Addr)
	}

	g := &Graph{}
	for _, entry := range byTarget {
		sort.Slice(entry.Sources, func(i, j int) bool { return entry.Sources[i] < entry.Sources[j] })
		entry.Min, entry.Max = intervalBounds(entry.Target, entry.Sources)
		g.Entries = append(g.Entries, entry)
	}

	sort.Slice(g.Entries, func(i, j int) bool {
		li := g.Entries[i].Max - g.Entries[i].Min
		lj := g.Entries[j].Max - g.Entries[j].Min
		if li != lj {
			return li < lj
		}
		return g.Entries[i].Target < g.Entries[j].Target
	})

	placed := map[int][]*disasm.JumpEntry{}
	for _, entry := range g.Entries {
		level := 0
		for {
			if !overlapsAny(placed[level], entry) {
				break
			}
			level++
		}
		entry.Level = level
		placed[level] = append(placed[level], entry)
		if level > g.MaxJumpLevel {
			g.MaxJumpLevel = level
		}
	}
	return g
}

func intervalBounds(target uint64, sources []uint64) (min, max uint64) {
	min, max = target, target
	for _, src := range sources {
		if src < min {
			min = src
		}
		if src > max {
			max = src
		}
	}
	return min, max
}

func overlapsAny(existing []*disasm.JumpEntry, e *disasm.JumpEntry) bool {
	for _, other := range existing {
		if e.Min <= other.Max && other.Min <= e.Max {
			return true
		}
	}
	return false
}
