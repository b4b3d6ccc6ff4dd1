// Package hotness aggregates sampling-profiler instruction-pointer
// histograms into per-source-line and per-instruction sample totals
// (spec.md component F), byte-exact to TracySourceView.cpp's
// GatherIpStats.
package hotness

import (
	"github.com/feiyunwill/tracy/internal/capture"
)

// Stats holds the aggregated sample totals for one symbol view. TotalSrc
// and TotalAsm are independent: a sample always contributes to TotalAsm
// (via its canonical address) and, if its outermost frame resolves to a
// known line of the loaded source file, also to TotalSrc — these are two
// independent attributions per sample, not an either/or choice.
//
// IPTotalSrc and IPTotalAsm are the scalar denominators (`iptotal_src`/
// `iptotal_asm`) percentage bars divide by. Outside whole-function mode
// they equal the sum of TotalSrc/TotalAsm's values; in whole-function
// mode IPTotalSrc is overwritten to equal IPTotalAsm (see Gather), so it
// can diverge from Σ TotalSrc.
type Stats struct {
	TotalSrc map[int]uint32
	TotalAsm map[uint64]uint32

	IPTotalSrc uint32
	IPTotalAsm uint32

	MaxSrc uint32
	MaxAsm uint32

	CountSrc int // distinct source lines touched
	CountAsm int // distinct addresses touched
}

func newStats() *Stats {
	return &Stats{
		TotalSrc: make(map[int]uint32),
		TotalAsm: make(map[uint64]uint32),
	}
}

// Gather aggregates the sample histogram for the symbol at baseAddr. In
// inline-exclusive mode (the default), only samples recorded directly
// against baseAddr are counted. In whole-function mode, samples from
// every inline symbol nested in [baseAddr, baseAddr+codeLen) are folded
// in too, and afterward IPTotalSrc (the scalar denominator, not the
// per-line map) is overwritten to equal IPTotalAsm -- matching
// original_source's "iptotal_src is overwritten to equal iptotal_asm
// (so per-line percentages are taken against the same denominator)",
// not a re-keying of the per-line counts themselves.
//
// loadedFile gates src attribution exactly as GatherIpStats's `if(
// m_file )` check does: nil means no source file is currently loaded,
// so every sample still counts toward TotalAsm but none toward
// TotalSrc; non-nil additionally requires the sample's outermost frame
// to resolve to that exact file id before it counts toward TotalSrc.
// This gating applies identically in both modes -- whole-function mode
// only changes which addresses are walked and which denominator the
// scalar total uses, never how a line earns an entry in TotalSrc.
func Gather(store capture.Store, baseAddr uint64, codeLen uint64, wholeFunction bool, loadedFile *uint32) *Stats {
	stats := newStats()

	addrs := []uint64{baseAddr}
	if wholeFunction {
		addrs = append(addrs, store.InlineSymbols(baseAddr, codeLen)...)
	}

	for _, addr := range addrs {
		for _, ip := range store.SymbolInstructionPointers(addr) {
			canon := store.CanonicalPointer(ip.Addr)
			stats.TotalAsm[canon] += ip.Count

			if loadedFile == nil {
				continue
			}
			if frame, ok := store.CallstackFrame(ip.Addr); ok && frame.Outermost.Line != 0 && frame.Outermost.File == *loadedFile {
				stats.TotalSrc[frame.Outermost.Line] += ip.Count
			}
		}
	}

	for _, v := range stats.TotalSrc {
		stats.CountSrc++
		if v > stats.MaxSrc {
			stats.MaxSrc = v
		}
		stats.IPTotalSrc += v
	}
	for _, v := range stats.TotalAsm {
		stats.CountAsm++
		if v > stats.MaxAsm {
			stats.MaxAsm = v
		}
		stats.IPTotalAsm += v
	}

	if wholeFunction {
		stats.IPTotalSrc = stats.IPTotalAsm
	}
	return stats
}
