// Package display turns the engine's decoded/aggregated state into the
// flat, renderer-agnostic model spec.md §4.9 (component I) describes:
// SourceLineModel, AsmLineModel and the scrollbar minimap. It never
// draws a pixel -- per spec §1, the immediate-mode GUI renderer is an
// external collaborator -- but its field names and left-to-right
// ordering are carried straight from TracySourceView.cpp's
// RenderLine/RenderAsmLine gutter layout (hotness bar, then line
// number/address, then the asm-match or source-location chip, then
// text) so a future renderer has a direct, undegraded mapping.
package display

import (
	"fmt"
	"sort"
	"strings"

	"github.com/feiyunwill/tracy/internal/syntax"
	"github.com/feiyunwill/tracy/internal/uarch"
)

// RGBA is a packed 32-bit color, bit-for-bit the same layout
// GetHotnessColor builds in original_source (byte 3 = alpha, byte 2 =
// blue, byte 1 = green, byte 0 = red): 0xAABBGGRR.
type RGBA uint32

// NoSampleColor is the dim, mostly-transparent fill used where a bucket
// or line has no samples at all, matching the literal `0x22FFFFFF`
// original_source uses in both RenderLine and the minimap.
const NoSampleColor RGBA = 0x22FFFFFF

// HotnessColor computes the hotness gradient color for sum samples out
// of a max of maxCount, byte-exact to TracySourceView.cpp's
// GetHotnessColor: red ramping in alpha up to the halfway point, then
// green mixing in toward yellow up to the max, then blue mixing in up to
// white at double the max (clamped to pure white beyond that). maxCount == 0 is treated as "no
// data" and returns NoSampleColor rather than dividing by zero.
func HotnessColor(sum, maxCount uint32) RGBA {
	if maxCount == 0 {
		return NoSampleColor
	}
	percent := float32(sum) / float32(maxCount)
	switch {
	case percent <= 0.5:
		a := uint32((percent*1.5 + 0.25) * 255)
		return RGBA(0x000000FF | (a << 24))
	case percent <= 1.0:
		g := uint32((percent - 0.5) * 511)
		return RGBA(0xFF0000FF | (g << 8))
	case percent <= 2.0:
		b := uint32((percent - 1.0) * 255)
		return RGBA(0xFF00FFFF | (b << 16))
	default:
		return 0xFFFFFFFF
	}
}

// FileColor derives a stable, visually-distinct color for an interned
// file id, used by the asm view's source-location chip. original_source
// keys this off a shared GetHsvColor helper that isn't part of the
// retrieval pack (it lives outside TracySourceView.cpp); this is a
// reasonable deterministic substitute with the same inputs/purpose --
// golden-ratio hue stepping so adjacent ids land far apart on the color
// wheel, full saturation/value matching the small color box the
// original renders.
func FileColor(fileID uint32) RGBA {
	const goldenRatioConjugate = 0.6180339887498949
	hue := float32(float64(fileID)*goldenRatioConjugate - float64(uint64(fileID)))
	if hue < 0 {
		hue++
	}
	r, g, b := hsvToRGB(hue, 0.65, 0.95)
	return RGBA(0xFF000000 | uint32(b)<<16 | uint32(g)<<8 | uint32(r))
}

func hsvToRGB(h, s, v float32) (r, g, b uint8) {
	i := int(h * 6)
	f := h*6 - float32(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	var rf, gf, bf float32
	switch i % 6 {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

// SourceLocation is the asm view's file:line chip, §4.9's "source
// location chip (file color + path + line, ellipsized if too long)".
type SourceLocation struct {
	FileColor  RGBA
	Path       string
	Line       int
	Ellipsized bool
}

// maxLocationChipRunes mirrors original_source's hardcoded 30-character
// budget for the file:line chip in RenderAsmLine, before switching to a
// leading-"..." ellipsis.
const maxLocationChipRunes = 30

// BuildSourceLocation formats path/line into the fixed-width, possibly
// ellipsized chip text original_source's RenderAsmLine builds, given
// maxLineDigits (the current symbol's longest line-number width, which
// eats into the chip's budget exactly as m_maxLine does there).
func BuildSourceLocation(fileID uint32, path string, line int, maxLineDigits int) SourceLocation {
	loc := SourceLocation{FileColor: FileColor(fileID), Line: line}
	budget := maxLocationChipRunes - maxLineDigits
	if budget < 1 {
		budget = 1
	}
	full := fmt.Sprintf("%s:%d", path, line)
	if len(path) < budget {
		loc.Path = full
		return loc
	}
	loc.Ellipsized = true
	keep := budget - 3 - 1 // "..." + ':'
	if keep < 0 {
		keep = 0
	}
	if keep > len(path) {
		keep = len(path)
	}
	loc.Path = "..." + path[len(path)-keep:]
	return loc
}

// LatencyBar is the optional red/yellow cycle-count bar §4.9 describes:
// "red filled to min_latency, yellow extending to max_latency".
// MinBounded/MaxBounded mark a figure as a "<=" bound rather than an
// exact cycle count, original_source's var.minbound/var.maxbound,
// which the tooltip renders as "\xe2\x89\xa4" (<=) ahead of the number.
type LatencyBar struct {
	MinLatency, MaxLatency int
	MinBounded, MaxBounded bool
}

// BuildLatencyBar reports a LatencyBar for a selected micro-arch variant,
// or ok=false when the variant has no latency data (VariantLookupMiss
// per spec §7 -- the line simply omits latency info, no error).
func BuildLatencyBar(v *uarch.Variant) (LatencyBar, bool) {
	if v == nil || v.MinLat < 0 {
		return LatencyBar{}, false
	}
	return LatencyBar{
		MinLatency: v.MinLat,
		MaxLatency: v.MaxLat,
		MinBounded: v.MinBounded,
		MaxBounded: v.MaxBounded,
	}, true
}

// JumpTarget is the trailing "-> [sym+offset]" (or "[sym+offset]" for an
// out-of-symbol target) annotation §4.9 describes for call/jump lines
// whose target resolves to a known symbol.
type JumpTarget struct {
	SymbolName string
	Offset     uint64
	SameSymbol bool
}

func (jt JumpTarget) String() string {
	if jt.SameSymbol {
		return fmt.Sprintf("-> [%s+%d]", jt.SymbolName, jt.Offset)
	}
	return fmt.Sprintf("[%s+%d]", jt.SymbolName, jt.Offset)
}

// SourceLineModel is one rendered source line, fields ordered
// left-to-right per §4.9: hotness percentage + color, line number,
// asm-match indicator, then the tokenized text itself.
type SourceLineModel struct {
	LineNum    int
	Text       string
	Tokens     []syntax.Token
	HasSamples bool
	HotPercent float32
	HotColor   RGBA
	AsmMatch   int
	Selected   bool
	Hovered    bool
}

// AddrMatchFunc reports how many of the current symbol's decoded
// addresses are attributed to a source line, for the "@N" gutter.
type AddrMatchFunc func(line int) int

// LineInput is one line of already-loaded, tokenized source, the shape
// source.Line satisfies; kept narrow here so display never needs to
// import package source directly.
type LineInput struct {
	Text   string
	Tokens []syntax.Token
}

// BuildSourceLines assembles the per-line model for the whole loaded
// file. totalSamples == 0 means no hotness pass has run (or the symbol
// has never been sampled); in that case HasSamples stays false for
// every line rather than dividing by zero, per §4.6's "totals ... must
// be consistent" invariant.
func BuildSourceLines(lines []LineInput, countByLine map[int]uint32, totalSamples, maxSample uint32, addrMatch AddrMatchFunc, selectedLine, hoveredLine int) []SourceLineModel {
	out := make([]SourceLineModel, len(lines))
	for i, ln := range lines {
		lineNum := i + 1
		m := SourceLineModel{
			LineNum:  lineNum,
			Text:     ln.Text,
			Tokens:   ln.Tokens,
			Selected: lineNum == selectedLine,
			Hovered:  lineNum == hoveredLine,
		}
		if totalSamples != 0 {
			if c := countByLine[lineNum]; c != 0 {
				m.HasSamples = true
				m.HotPercent = 100 * float32(c) / float32(totalSamples)
				m.HotColor = HotnessColor(c, maxSample)
			}
		}
		if addrMatch != nil {
			m.AsmMatch = addrMatch(lineNum)
		}
		out[i] = m
	}
	return out
}

// AsmLineModel is one rendered instruction, fields ordered left-to-right
// per §4.9: hotness bar, address, source-location chip, raw bytes,
// jump-arrow lane, padded mnemonic + operands, latency bar, then the
// trailing jump-target annotation.
type AsmLineModel struct {
	Addr       uint64
	RelAddr    uint64
	HasSamples bool
	HotPercent float32
	HotColor   RGBA
	Selected   bool
	Hovered    bool
	Highlight  bool

	SourceLoc *SourceLocation
	Bytes     []byte

	JumpLevel int // -1 = this address has no outgoing jump arrow
	JumpOut   bool

	Mnemonic    string
	MnemonicPad int // spaces to insert so mnemonics align to maxMnemonicLen
	Operands    string

	Latency *LatencyBar
	Target  *JumpTarget
}

// AsmLineInputs bundles the per-instruction facts BuildAsmLines needs,
// kept as a plain struct (rather than disasm.AsmLine directly) so
// display doesn't have to import the jump-graph/uarch-selection glue
// that produced JumpLevel/Variant.
type AsmLineInputs struct {
	Addr       uint64
	Bytes      []byte
	Mnemonic   string
	Operands   string
	JumpAddr   uint64
	JumpOut    bool
	JumpLevel  int // -1 if JumpAddr == 0 and not in the out-set
	Variant    *uarch.Variant
	TargetSym  *JumpTarget
	SourceChip *SourceLocation
}

// BuildAsmLines assembles the per-instruction model for a decoded
// symbol. Both Addr and RelAddr (offset from base) are always
// populated; which one a renderer shows is the toggle(relative_addrs)
// event from §6, not a concern of this package.
func BuildAsmLines(insts []AsmLineInputs, base uint64, maxMnemonicLen int, countByAddr map[uint64]uint32, totalSamples, maxSample uint32, selected, hover map[uint64]bool, highlightAddr uint64) []AsmLineModel {
	out := make([]AsmLineModel, len(insts))
	for i, in := range insts {
		m := AsmLineModel{
			Addr:      in.Addr,
			RelAddr:   in.Addr - base,
			Selected:  selected[in.Addr],
			Hovered:   hover[in.Addr],
			Highlight: in.Addr == highlightAddr,
			SourceLoc: in.SourceChip,
			Bytes:     in.Bytes,
			JumpLevel: in.JumpLevel,
			JumpOut:   in.JumpOut,
			Mnemonic:  in.Mnemonic,
			Operands:  in.Operands,
			Target:    in.TargetSym,
		}
		if pad := maxMnemonicLen - len(in.Mnemonic); pad > 0 {
			m.MnemonicPad = pad
		}
		if totalSamples != 0 {
			if c := countByAddr[in.Addr]; c != 0 {
				m.HasSamples = true
				m.HotPercent = 100 * float32(c) / float32(totalSamples)
				m.HotColor = HotnessColor(c, maxSample)
			}
		}
		if bar, ok := BuildLatencyBar(in.Variant); ok {
			m.Latency = &bar
		}
		out[i] = m
	}
	return out
}

// MinimapBucket is one colored tick on the scrollbar minimap, §4.9's
// "aggregates hotness by bucket ... colors by hotness_color(sum,max)".
// PixelY is FirstLine's vertical position along the scrollbar, computed
// with Bounds.Lerp over [0, pixelHeight] the same way fileui_code.go
// lerps a line number into a pixel offset.
type MinimapBucket struct {
	FirstLine int
	Sum       uint32
	Color     RGBA
	PixelY    float32
}

// BuildMinimap buckets per-line sample counts into scrollbar ticks,
// byte-exact to TracySourceView.cpp's scrollbar-rendering loop: the
// bucket size is `lines*2/pixelHeight` lines, buckets are walked in
// line-number order, and a bucket with a zero sum still renders (as
// NoSampleColor) if any line in it has decoded addresses at all --
// hasAddr reports that per line.
func BuildMinimap(totalLines int, pixelHeight float32, countByLine map[int]uint32, maxSample uint32, hasAddr func(line int) bool) []MinimapBucket {
	if totalLines == 0 || pixelHeight <= 0 {
		return nil
	}

	type point struct {
		line  int
		count uint32
	}
	var points []point
	for line, count := range countByLine {
		points = append(points, point{line, count})
	}
	if hasAddr != nil {
		for line := 1; line <= totalLines; line++ {
			if _, sampled := countByLine[line]; sampled {
				continue
			}
			if hasAddr(line) {
				points = append(points, point{line, 0})
			}
		}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].line < points[j].line })

	step := uint32(totalLines*2) / uint32(pixelHeight)
	if step == 0 {
		step = 1
	}

	pixelSpan := Bounds{Min: 0, Max: pixelHeight}

	var buckets []MinimapBucket
	i := 0
	for i < len(points) {
		first := points[i].line
		var sum uint32
		for i < len(points) && uint32(points[i].line) <= uint32(first)+step {
			sum += points[i].count
			i++
		}
		color := NoSampleColor
		if sum != 0 {
			color = HotnessColor(sum, maxSample)
		}
		pixelY := pixelSpan.Lerp(float32(first-1) / float32(totalLines))
		buckets = append(buckets, MinimapBucket{FirstLine: first, Sum: sum, Color: color, PixelY: pixelY})
	}
	return buckets
}

// PadMnemonic renders a mnemonic padded to width spaces, matching
// original_source's fixed-width mnemonic+operands buffer in
// RenderAsmLine.
func PadMnemonic(mnemonic string, width int) string {
	if len(mnemonic) >= width {
		return mnemonic
	}
	return mnemonic + strings.Repeat(" ", width-len(mnemonic))
}
