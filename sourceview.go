// Package sourceview is the engine's selection/correlation controller
// (spec.md component H) and its top-level entry point: a single,
// single-threaded, non-reentrant View value per open symbol or
// source file, exactly as TracySourceView.cpp's SourceView class is
// used by its host (one instance, driven to completion by one caller
// thread, no internal concurrency -- spec §5).
package sourceview

import (
	"fmt"

	"github.com/feiyunwill/tracy/internal/addrline"
	"github.com/feiyunwill/tracy/internal/capture"
	"github.com/feiyunwill/tracy/internal/cpuarch"
	"github.com/feiyunwill/tracy/internal/decode"
	"github.com/feiyunwill/tracy/internal/disasm"
	"github.com/feiyunwill/tracy/internal/display"
	"github.com/feiyunwill/tracy/internal/hotness"
	"github.com/feiyunwill/tracy/internal/jumpgraph"
	"github.com/feiyunwill/tracy/internal/source"
	"github.com/feiyunwill/tracy/internal/uarch"
)

// DisplayMode picks which of the source/assembly panes OpenSymbol shows
// by default, per spec §4.8's OpenSymbol mode selection.
type DisplayMode int

const (
	DisplaySource DisplayMode = iota
	DisplayAsm
	DisplayMixed
)

func (m DisplayMode) String() string {
	switch m {
	case DisplaySource:
		return "source"
	case DisplayAsm:
		return "asm"
	case DisplayMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// View is one open source-file-or-symbol correlation session: the
// selection/correlation controller (component H) plus the decoded state
// components C, D, E, F and G produce for it. The zero value is not
// ready to use; construct with New.
type View struct {
	store   capture.Store
	policy  capture.ViewPolicy
	srcOpts source.Options

	// Source state (component B/A).
	file          string
	fileStringIdx uint32
	hasFile       bool
	src           *source.File

	// Symbol context (§3).
	baseAddr uint64
	symAddr  uint64
	codeLen  uint64
	arch     cpuarch.Arch

	// Disassembly state (components C, D, E).
	asmLines       []disasm.AsmLine
	jumpGraph      *jumpgraph.Graph
	jumpOut        map[uint64]uint64 // source addr -> raw out-of-symbol target
	truncated      bool
	disasmFail     uint64
	maxMnemonicLen int
	maxAsmBytes    int
	addrIdx        *addrline.Index
	sourceFiles    map[uint32]int // file id -> first line seen, over the decoded range

	// Selection state (§3, §4.8).
	displayMode            DisplayMode
	selectedLine           int
	targetLine             int
	targetAddr             uint64
	selectedAddresses      map[uint64]bool
	selectedAddressesHover map[uint64]bool
	highlightAddr          uint64
	hoveredLine            int
	hoveredSource          uint32
	hasHoveredSource       bool

	uarchIdx int

	wholeFunction bool
}

// New constructs a View against a capture store and its view policy.
// srcOpts configures the source loader (component B); the zero value
// uses source.DefaultMaxBytes and no path substitution beyond policy's.
func New(store capture.Store, policy capture.ViewPolicy, srcOpts source.Options) *View {
	return &View{
		store:   store,
		policy:  policy,
		srcOpts: srcOpts,
		src:     &source.File{},
	}
}

// File returns the path of the currently loaded source file, or "" if
// none is loaded.
func (v *View) File() string { return v.file }

// Source returns the currently loaded, tokenized source file.
func (v *View) Source() *source.File { return v.src }

// DisplayMode returns the pane OpenSymbol/OpenSource most recently chose.
func (v *View) DisplayMode() DisplayMode { return v.displayMode }

// AsmLines returns the current symbol's decoded instructions, or nil if
// no symbol is open.
func (v *View) AsmLines() []disasm.AsmLine { return v.asmLines }

// HasSymbol reports whether a symbol (as opposed to a raw source file)
// is currently open.
func (v *View) HasSymbol() bool { return v.symAddr != 0 }

// CodeRange returns the current symbol's [base, base+codeLen) range.
func (v *View) CodeRange() (base, end uint64) { return v.baseAddr, v.baseAddr + v.codeLen }

// Truncated reports whether the last Disassemble stopped before the end
// of the symbol's code bytes (spec §7 PartialDecode), and disasmFail is
// the offset, from baseAddr, where decoding stopped.
func (v *View) Truncated() (bool, uint64) { return v.truncated, v.disasmFail }

// MaxMnemonicLen and MaxAsmBytes are the component-C post-pass values
// spec §4.3 names, used by the display model to align the mnemonic and
// raw-bytes gutters.
func (v *View) MaxMnemonicLen() int { return v.maxMnemonicLen }
func (v *View) MaxAsmBytes() int    { return v.maxAsmBytes }

// SourceFiles returns, for every file touched by the current symbol's
// decoded address range, the first line number seen there -- the
// "(file_id, first_line)" presence set spec §4.3's post-pass builds.
func (v *View) SourceFiles() map[uint32]int { return v.sourceFiles }

// JumpGraph returns the current symbol's lane-packed jump table, or nil.
func (v *View) JumpGraph() *jumpgraph.Graph { return v.jumpGraph }

// JumpOutTarget reports the raw, out-of-symbol branch target recorded
// for a source address, if any (spec §3's JumpOutSet).
func (v *View) JumpOutTarget(addr uint64) (uint64, bool) {
	target, ok := v.jumpOut[addr]
	return target, ok
}

// AddrIndex exposes the current symbol's address<->line index
// (component E) for callers building a display model.
func (v *View) AddrIndex() *addrline.Index { return v.addrIdx }

// VisibleSourceRanges returns the contiguous source-line ranges the
// mixed source+asm view should render: every line the current symbol's
// addresses touch, padded by context lines on each side and merged
// where that padding makes ranges overlap.
func (v *View) VisibleSourceRanges(context int) []addrline.LineRange {
	if v.addrIdx == nil {
		return nil
	}
	needed := v.addrIdx.NeededLines()
	return needed.Ranges(context)
}

// LineVisible reports whether line falls within ranges, used to decide
// whether a newly selected or jumped-to line is already on screen or
// needs a scroll.
func LineVisible(ranges []addrline.LineRange, line int) bool {
	return addrline.LineRangesContain(ranges, line, line)
}

// SelectedLine, SelectedAddresses and SelectedAddressesHover expose the
// live selection state (§3).
func (v *View) SelectedLine() int { return v.selectedLine }

func (v *View) SelectedAddresses() map[uint64]bool { return v.selectedAddresses }

func (v *View) SelectedAddressesHover() map[uint64]bool { return v.selectedAddressesHover }

func (v *View) HighlightAddr() uint64 { return v.highlightAddr }

func (v *View) HoveredLine() (file uint32, line int, ok bool) {
	return v.hoveredSource, v.hoveredLine, v.hasHoveredSource
}

// ConsumeTargetLine returns and clears the one-shot scroll-to-line
// target, per §3's "target_line (one-shot scroll-to; cleared on
// consume)".
func (v *View) ConsumeTargetLine() (int, bool) {
	if v.targetLine == 0 {
		return 0, false
	}
	line := v.targetLine
	v.targetLine = 0
	return line, true
}

// ConsumeTargetAddr returns and clears the one-shot scroll-to-address
// target.
func (v *View) ConsumeTargetAddr() (uint64, bool) {
	if v.targetAddr == 0 {
		return 0, false
	}
	addr := v.targetAddr
	v.targetAddr = 0
	return addr, true
}

// DecayFrame clears the per-frame transient state (§3: highlight_addr,
// hovered_line, hovered_source, selected_addresses_hover all decay every
// render frame). Callers invoke this once per frame after consuming it.
func (v *View) DecayFrame() {
	v.highlightAddr = 0
	v.hoveredLine = 0
	v.hoveredSource = 0
	v.hasHoveredSource = false
	v.selectedAddressesHover = map[uint64]bool{}
}

// SymbolStats passes through the capture store's per-symbol sample
// counters (§6), unmodified; the engine itself has no use for these
// beyond making them available to a caller building a symbol list.
func (v *View) SymbolStats() map[uint64]capture.SymbolStats {
	return v.store.SymbolStats()
}

// OpenSource opens a raw source file with no associated symbol, per
// spec §4.8's "Open source": clears any symbol state and loads the
// file, selecting requestedLine.
func (v *View) OpenSource(fileName string, requestedLine int) error {
	v.targetAddr = 0
	v.baseAddr = 0
	v.symAddr = 0
	v.codeLen = 0
	v.clearSymbolState()

	err := v.parseSource(fileName)
	v.targetLine = requestedLine
	v.SelectLine(requestedLine, false, 0)
	v.displayMode = DisplaySource
	return err
}

// OpenSymbol opens a captured symbol: decodes its code (C), builds the
// jump graph (D) and address index (E), loads and selects its source
// (A, B), and picks a display mode, per spec §4.8's "Open symbol".
func (v *View) OpenSymbol(fileName string, requestedLine int, baseAddr, symAddr uint64) error {
	v.targetLine = requestedLine
	v.targetAddr = symAddr
	v.baseAddr = baseAddr
	v.symAddr = symAddr

	srcErr := v.parseSource(fileName)
	v.Disassemble(baseAddr)
	v.SelectLine(requestedLine, true, symAddr)
	if len(v.selectedAddresses) == 0 {
		// No source line mapped to an address yet (e.g. requestedLine
		// wasn't attributed any code, or no source file is loaded):
		// fall back to selecting the symbol's entry instruction.
		v.selectedAddresses = map[uint64]bool{symAddr: true}
	}

	switch {
	case len(v.src.Lines) > 0 && len(v.asmLines) > 0:
		v.displayMode = DisplayMixed
	case len(v.src.Lines) > 0:
		v.displayMode = DisplaySource
	default:
		v.displayMode = DisplayAsm
	}
	return srcErr
}

func (v *View) clearSymbolState() {
	v.asmLines = nil
	v.jumpGraph = nil
	v.jumpOut = nil
	v.truncated = false
	v.disasmFail = 0
	v.maxMnemonicLen = 0
	v.maxAsmBytes = 0
	v.addrIdx = nil
	v.sourceFiles = nil
	v.selectedAddresses = map[uint64]bool{}
	v.selectedAddressesHover = map[uint64]bool{}
}

// parseSource replaces the loaded source iff fileName differs from the
// currently loaded file (spec §4.2's idempotence contract). An empty
// fileName clears the loaded source.
func (v *View) parseSource(fileName string) error {
	if v.hasFile && fileName == v.file {
		return nil
	}

	opts := v.srcOpts
	if v.policy != nil {
		substitute := opts.Substitute
		opts.Substitute = func(path string) string {
			resolved := path
			if substitute != nil {
				resolved = substitute(path)
			}
			return v.policy.SourceSubstitution(resolved)
		}
	}

	f, err := source.Load(fileName, opts)

	v.file = fileName
	v.hasFile = fileName != ""
	if v.hasFile {
		v.fileStringIdx = v.store.FindStringIdx(fileName)
	} else {
		v.fileStringIdx = 0
	}

	if err != nil {
		v.src = &source.File{}
		return fmt.Errorf("sourceview: %w", err)
	}
	v.src = f
	return nil
}

// Disassemble runs components C, D and E for the symbol whose code
// starts at addr, replacing the asm vector and jump table atomically
// from the caller's perspective (spec §3's ownership rule, §5's
// all-or-nothing update guarantee). Returns false per spec §4.3's
// failure contract (zero address, unknown architecture, missing bytes,
// or a decoder that can't handle the architecture).
func (v *View) Disassemble(addr uint64) bool {
	v.clearSymbolState()
	if addr == 0 {
		return false
	}

	arch := v.store.CPUArch()
	if arch == cpuarch.Unknown {
		return false
	}
	code, ok := v.store.SymbolCode(addr)
	if !ok || len(code) == 0 {
		return false
	}

	codeLen := uint64(len(code))
	if data, ok := v.store.SymbolData(addr); ok && data.Size > 0 {
		codeLen = data.Size
	}

	result, err := decode.Symbol(arch, addr, code)
	if err != nil {
		return false
	}

	v.arch = arch
	v.codeLen = codeLen
	v.truncated = result.Truncated
	v.asmLines = result.Lines
	if result.Truncated && len(v.asmLines) > 0 {
		last := v.asmLines[len(v.asmLines)-1]
		v.disasmFail = (last.Addr + uint64(last.Size)) - addr
	}

	v.jumpOut = jumpgraph.ClassifyBranches(v.asmLines, addr, codeLen)
	if len(v.asmLines) > 0 {
		v.jumpGraph = jumpgraph.Build(v.asmLines, addr, addr+codeLen-1)
	} else {
		v.jumpGraph = &jumpgraph.Graph{}
	}

	addrs := make([]uint64, len(v.asmLines))
	for i := range v.asmLines {
		addrs[i] = v.asmLines[i].Addr
	}
	v.addrIdx = addrline.Build(v.store, addrs)

	v.sourceFiles = map[uint32]int{}
	for i := range v.asmLines {
		line := &v.asmLines[i]
		loc := v.store.LocationForAddress(line.Addr)
		line.File = loc.File
		line.Line = loc.Line
		if loc.Line != 0 {
			if first, ok := v.sourceFiles[loc.File]; !ok || loc.Line < first {
				v.sourceFiles[loc.File] = loc.Line
			}
		}
		if n := len(line.Mnemonic()); n > v.maxMnemonicLen {
			v.maxMnemonicLen = n
		}
		if int(line.Size) > v.maxAsmBytes {
			v.maxAsmBytes = int(line.Size)
		}
	}
	return true
}

// SelectLine implements spec §4.8's select_line: sets the selected
// source line and, if a symbol is open, recomputes selected_addresses
// and (when changeAsm) target_addr. A line outside the loaded source's
// range is ignored rather than producing a selection with no visible
// source line to highlight.
func (v *View) SelectLine(line int, changeAsm bool, targetAddr uint64) {
	if len(v.src.Lines) > 0 && !display.InRange(line-1, len(v.src.Lines)) {
		return
	}
	v.selectedLine = line
	if v.symAddr == 0 {
		return
	}
	v.selectAsmLines(v.fileStringIdx, line, changeAsm, targetAddr)
}

func (v *View) selectAsmLines(file uint32, line int, changeAsm bool, targetAddr uint64) {
	v.selectedAddresses = map[uint64]bool{}
	addrs := v.store.AddressesForLocation(file, line)
	if len(addrs) == 0 {
		if changeAsm && targetAddr != 0 {
			v.targetAddr = targetAddr
		}
		return
	}

	var first uint64
	haveFirst := false
	for _, a := range addrs {
		if a < v.baseAddr || a >= v.baseAddr+v.codeLen {
			continue
		}
		v.selectedAddresses[a] = true
		if !haveFirst || a < first {
			first, haveFirst = a, true
		}
	}
	if changeAsm {
		if targetAddr != 0 {
			v.targetAddr = targetAddr
		} else if haveFirst {
			v.targetAddr = first
		}
	}
}

// HoverSourceLine implements spec §4.8's hover_source_line: recomputes
// selected_addresses_hover and the hovered (file,line) pair.
func (v *View) HoverSourceLine(file uint32, line int) {
	v.selectedAddressesHover = map[uint64]bool{}
	for _, a := range v.store.AddressesForLocation(file, line) {
		if a >= v.baseAddr && a < v.baseAddr+v.codeLen {
			v.selectedAddressesHover[a] = true
		}
	}
	v.hoveredSource = file
	v.hoveredLine = line
	v.hasHoveredSource = true
}

// ClickAsmSourceLocation implements spec §4.8's
// click_asm_source_location: if addr's resolved source location is
// already the loaded file, behaves like select_line; otherwise it loads
// that file first.
func (v *View) ClickAsmSourceLocation(addr uint64) error {
	loc := v.store.LocationForAddress(addr)
	if loc.Line == 0 {
		return nil
	}

	if v.hasFile && loc.File == v.fileStringIdx {
		v.SelectLine(loc.Line, false, 0)
		v.displayMode = DisplayMixed
		return nil
	}

	fileName := v.store.String(loc.File)
	if err := v.parseSource(fileName); err != nil {
		return err
	}
	v.targetLine = loc.Line
	v.SelectLine(loc.Line, false, 0)
	v.displayMode = DisplayMixed
	return nil
}

// ClickJumpTarget implements spec §4.8's click_jump_target for an
// already-decoded instruction. If the instruction's branch target lies
// within the symbol, it becomes the new target/selection and ok is
// true. Otherwise the raw out-of-symbol target is returned as jumpOut
// for the caller to open as a new symbol view, per spec §1's
// out-of-scope "open a new symbol view" boundary.
func (v *View) ClickJumpTarget(line disasm.AsmLine) (jumpOut uint64, ok bool) {
	if line.JumpAddr != 0 {
		v.targetAddr = line.JumpAddr
		v.selectedAddresses = map[uint64]bool{line.JumpAddr: true}
		return 0, true
	}
	if target, isOut := v.jumpOut[line.Addr]; isOut {
		return target, false
	}
	return 0, true
}

// SelectMicroArchitecture implements spec §4.8's select_uarch toggle,
// choosing which of uarch.MicroArchitectureList subsequent variant
// lookups use.
func (v *View) SelectMicroArchitecture(moniker string) bool {
	for i, name := range uarch.MicroArchitectureList {
		if name == moniker {
			v.uarchIdx = i
			return true
		}
	}
	return false
}

// MicroArchitecture returns the currently selected micro-architecture's
// moniker.
func (v *View) MicroArchitecture() string {
	if v.uarchIdx < 0 || v.uarchIdx >= len(uarch.MicroArchitectureList) {
		return ""
	}
	return uarch.MicroArchitectureList[v.uarchIdx]
}

// SelectVariant looks up the micro-arch variant for a decoded
// instruction under the currently selected micro-architecture (spec
// §4.7, component G), or ok=false on a VariantLookupMiss.
func (v *View) SelectVariant(line disasm.AsmLine) (*uarch.Variant, bool) {
	return uarch.SelectVariant(v.MicroArchitecture(), line.Mnemonic(), line.Params)
}

// SetWholeFunction toggles inline-exclusive vs. whole-function hotness
// aggregation mode for subsequent Hotness calls (spec §4.6).
func (v *View) SetWholeFunction(wholeFunction bool) { v.wholeFunction = wholeFunction }

// Hotness runs component F (§4.6) against the currently open symbol,
// returning nil if none is open.
func (v *View) Hotness() *hotness.Stats {
	if v.symAddr == 0 {
		return nil
	}
	var loadedFile *uint32
	if v.hasFile {
		idx := v.fileStringIdx
		loadedFile = &idx
	}
	return hotness.Gather(v.store, v.baseAddr, v.codeLen, v.wholeFunction, loadedFile)
}
