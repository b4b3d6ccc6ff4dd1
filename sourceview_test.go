package sourceview

import (
	"testing"

	"github.com/feiyunwill/tracy/internal/capture"
	"github.com/feiyunwill/tracy/internal/cpuarch"
	"github.com/feiyunwill/tracy/internal/disasm"
	"github.com/feiyunwill/tracy/internal/source"
)

// x86EncodedAddRet is "add eax, ebx; ret" -- two real, decodable x64
// instructions, used wherever a test needs bytes that actually decode.
var x86EncodedAddRet = []byte{0x01, 0xd8, 0xc3}

func newStoreWithCode(addr uint64, code []byte) *capture.MemStore {
	store := capture.NewMemStore(cpuarch.X64)
	store.Code[addr] = code
	store.Symbols[addr] = capture.SymbolData{Size: uint64(len(code))}
	return store
}

func TestOpenSymbolDisassemblesAndSelectsAsmMode(t *testing.T) {
	store := newStoreWithCode(0x1000, x86EncodedAddRet)
	v := New(store, capture.IdentityPolicy{}, source.Options{})

	if err := v.OpenSymbol("", 0, 0x1000, 0x1000); err != nil {
		t.Fatalf("OpenSymbol: %v", err)
	}
	if len(v.AsmLines()) != 2 {
		t.Fatalf("expected 2 decoded instructions, got %d: %+v", len(v.AsmLines()), v.AsmLines())
	}
	if v.DisplayMode() != DisplayAsm {
		t.Fatalf("expected asm-only mode with no source, got %v", v.DisplayMode())
	}
	if !v.SelectedAddresses()[0x1000] {
		t.Fatalf("expected symbol base address selected")
	}
	addr, ok := v.ConsumeTargetAddr()
	if !ok || addr != 0x1000 {
		t.Fatalf("expected one-shot target addr 0x1000, got %#x ok=%v", addr, ok)
	}
	if _, ok := v.ConsumeTargetAddr(); ok {
		t.Fatalf("expected target addr cleared after first consume")
	}
}

func TestDisassembleFailsOnUnknownArch(t *testing.T) {
	store := capture.NewMemStore(cpuarch.Unknown)
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	if v.Disassemble(0x1000) {
		t.Fatalf("expected Disassemble to fail on unknown architecture")
	}
}

func TestDisassembleFailsOnZeroAddr(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	if v.Disassemble(0) {
		t.Fatalf("expected Disassemble to fail on zero address")
	}
}

func TestDisassembleFailsWhenBytesMissing(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	if v.Disassemble(0x1000) {
		t.Fatalf("expected Disassemble to fail when the store has no code bytes")
	}
}

func TestDisassembleBuildsMaxMnemonicLenAndSourceFiles(t *testing.T) {
	store := newStoreWithCode(0x2000, x86EncodedAddRet)
	store.Locations[0x2000] = capture.Location{File: 7, Line: 42}
	v := New(store, capture.IdentityPolicy{}, source.Options{})

	if !v.Disassemble(0x2000) {
		t.Fatalf("expected Disassemble to succeed")
	}
	if v.MaxMnemonicLen() < len("ADD") {
		t.Fatalf("expected max mnemonic len to cover ADD, got %d", v.MaxMnemonicLen())
	}
	if first, ok := v.SourceFiles()[7]; !ok || first != 42 {
		t.Fatalf("expected source-file presence set to record file 7 at line 42, got %+v", v.SourceFiles())
	}
}

func TestSelectLineWithoutSymbolOnlySetsSelectedLine(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	v.SelectLine(5, true, 0x1234)
	if v.SelectedLine() != 5 {
		t.Fatalf("expected selected line 5, got %d", v.SelectedLine())
	}
	if len(v.SelectedAddresses()) != 0 {
		t.Fatalf("expected no address selection without an open symbol")
	}
}

func TestSelectLinePicksFirstAddressAsTarget(t *testing.T) {
	store := newStoreWithCode(0x1000, x86EncodedAddRet)
	store.AddrsByLine[0] = map[int][]uint64{10: {0x1002, 0x1000}}
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	v.baseAddr = 0x1000
	v.Disassemble(0x1000)
	v.symAddr = 0x1000 // simulate an already-open symbol without OpenSymbol's source step

	v.SelectLine(10, true, 0)
	if !v.SelectedAddresses()[0x1000] || !v.SelectedAddresses()[0x1002] {
		t.Fatalf("expected both in-range addresses selected, got %v", v.SelectedAddresses())
	}
	addr, ok := v.ConsumeTargetAddr()
	if !ok || addr != 0x1000 {
		t.Fatalf("expected lowest address 0x1000 chosen as target, got %#x ok=%v", addr, ok)
	}
}

func TestSelectLineIgnoresOutOfRangeRequest(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	v.src = &source.File{Lines: make([]source.Line, 3)}

	v.SelectLine(7, false, 0)
	if v.SelectedLine() != 0 {
		t.Fatalf("expected out-of-range line request to be ignored, got %d", v.SelectedLine())
	}
	v.SelectLine(2, false, 0)
	if v.SelectedLine() != 2 {
		t.Fatalf("expected in-range line request to apply, got %d", v.SelectedLine())
	}
}

func TestHoverSourceLineIsTransientAndDecays(t *testing.T) {
	store := newStoreWithCode(0x1000, x86EncodedAddRet)
	store.AddrsByLine[3] = map[int][]uint64{10: {0x1000}}
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	v.baseAddr = 0x1000
	v.Disassemble(0x1000)
	v.symAddr = 0x1000

	v.HoverSourceLine(3, 10)
	if !v.SelectedAddressesHover()[0x1000] {
		t.Fatalf("expected hover address set")
	}
	file, line, ok := v.HoveredLine()
	if !ok || file != 3 || line != 10 {
		t.Fatalf("expected hovered (3,10), got (%d,%d,%v)", file, line, ok)
	}

	v.DecayFrame()
	if len(v.SelectedAddressesHover()) != 0 {
		t.Fatalf("expected hover set cleared after DecayFrame")
	}
	if _, _, ok := v.HoveredLine(); ok {
		t.Fatalf("expected hovered line cleared after DecayFrame")
	}
}

func TestClickJumpTargetIntraSymbol(t *testing.T) {
	v := New(capture.NewMemStore(cpuarch.X64), capture.IdentityPolicy{}, source.Options{})
	v.jumpOut = map[uint64]uint64{}

	line := asmLineWithJump(0x1000, 0x1010)
	jumpOut, ok := v.ClickJumpTarget(line)
	if !ok || jumpOut != 0 {
		t.Fatalf("expected intra-symbol jump to resolve locally, got jumpOut=%#x ok=%v", jumpOut, ok)
	}
	if !v.SelectedAddresses()[0x1010] {
		t.Fatalf("expected target address selected")
	}
}

func TestClickJumpTargetOutOfSymbolSurfacesRawTarget(t *testing.T) {
	v := New(capture.NewMemStore(cpuarch.X64), capture.IdentityPolicy{}, source.Options{})
	v.jumpOut = map[uint64]uint64{0x1000: 0x9000}

	line := asmLineWithJump(0x1000, 0)
	jumpOut, ok := v.ClickJumpTarget(line)
	if ok {
		t.Fatalf("expected out-of-symbol jump to report ok=false")
	}
	if jumpOut != 0x9000 {
		t.Fatalf("expected raw out-jump target 0x9000, got %#x", jumpOut)
	}
}

func TestSelectMicroArchitectureRoundTrip(t *testing.T) {
	v := New(capture.NewMemStore(cpuarch.X64), capture.IdentityPolicy{}, source.Options{})
	if !v.SelectMicroArchitecture("Skylake") {
		t.Fatalf("expected Skylake to be a known micro-architecture")
	}
	if v.MicroArchitecture() != "Skylake" {
		t.Fatalf("expected current micro-architecture Skylake, got %q", v.MicroArchitecture())
	}
	if v.SelectMicroArchitecture("NoSuchUArch") {
		t.Fatalf("expected unknown micro-architecture to be rejected")
	}
	if v.MicroArchitecture() != "Skylake" {
		t.Fatalf("expected selection unchanged after rejected choice, got %q", v.MicroArchitecture())
	}
}

func TestHotnessNilWithoutOpenSymbol(t *testing.T) {
	v := New(capture.NewMemStore(cpuarch.X64), capture.IdentityPolicy{}, source.Options{})
	if stats := v.Hotness(); stats != nil {
		t.Fatalf("expected nil hotness stats without an open symbol, got %+v", stats)
	}
}

func TestVisibleSourceRangesFoldsAddressedLines(t *testing.T) {
	store := newStoreWithCode(0x1000, x86EncodedAddRet)
	store.Locations[0x1000] = capture.Location{File: 1, Line: 10}
	store.Locations[0x1002] = capture.Location{File: 1, Line: 11}
	v := New(store, capture.IdentityPolicy{}, source.Options{})
	v.baseAddr = 0x1000
	v.Disassemble(0x1000)

	ranges := v.VisibleSourceRanges(0)
	if len(ranges) != 1 || ranges[0].From != 10 || ranges[0].To != 12 {
		t.Fatalf("expected a single folded range [10,12), got %+v", ranges)
	}
	if !LineVisible(ranges, 10) || !LineVisible(ranges, 11) {
		t.Fatalf("expected lines 10 and 11 visible in %+v", ranges)
	}
	if LineVisible(ranges, 50) {
		t.Fatalf("expected line 50 not visible in %+v", ranges)
	}
}

func TestVisibleSourceRangesNilWithoutSymbol(t *testing.T) {
	v := New(capture.NewMemStore(cpuarch.X64), capture.IdentityPolicy{}, source.Options{})
	if got := v.VisibleSourceRanges(2); got != nil {
		t.Fatalf("expected nil ranges without a disassembled symbol, got %+v", got)
	}
}

func TestHotnessGatesOnLoadedFile(t *testing.T) {
	store := newStoreWithCode(0x1000, x86EncodedAddRet)
	store.IPs[0x1000] = []capture.IP{{Addr: 0x1000, Count: 5}}
	store.Frames[0x1000] = capture.Frame{Outermost: capture.Location{File: 0, Line: 1}}
	store.Canon[0x1000] = 0x1000

	v := New(store, capture.IdentityPolicy{}, source.Options{})
	v.OpenSymbol("", 0, 0x1000, 0x1000)
	if stats := v.Hotness(); len(stats.TotalSrc) != 0 {
		t.Fatalf("expected no src attribution with no file loaded, got %+v", stats.TotalSrc)
	}
}

func TestHotnessWholeFunctionNoFileKeepsSrcEmptyButOverwritesTotal(t *testing.T) {
	store := newStoreWithCode(0x1000, x86EncodedAddRet)
	store.Symbols[0x1002] = capture.SymbolData{IsInline: true, Size: 1}
	store.IPs[0x1000] = []capture.IP{{Addr: 0x1000, Count: 5}}
	store.IPs[0x1002] = []capture.IP{{Addr: 0x1002, Count: 2}}
	store.Canon[0x1000] = 0x1000
	store.Canon[0x1002] = 0x1002
	store.Frames[0x1000] = capture.Frame{Outermost: capture.Location{File: 1, Line: 10}}
	store.Frames[0x1002] = capture.Frame{Outermost: capture.Location{File: 1, Line: 11}}

	v := New(store, capture.IdentityPolicy{}, source.Options{})
	if err := v.OpenSymbol("", 0, 0x1000, 0x1000); err != nil {
		t.Fatalf("OpenSymbol: %v", err)
	}
	v.SetWholeFunction(true)

	stats := v.Hotness()
	if len(stats.TotalSrc) != 0 {
		t.Fatalf("expected no src attribution with no source file loaded, got %+v", stats.TotalSrc)
	}
	if stats.IPTotalAsm != 7 {
		t.Fatalf("expected IPTotalAsm to fold in the inline sample, got %d", stats.IPTotalAsm)
	}
	if stats.IPTotalSrc != stats.IPTotalAsm {
		t.Fatalf("expected the scalar IPTotalSrc overwritten to IPTotalAsm even with no file loaded, got %d vs %d", stats.IPTotalSrc, stats.IPTotalAsm)
	}
}

// asmLineWithJump constructs a minimal disasm.AsmLine for ClickJumpTarget
// tests, which only look at Addr and JumpAddr.
func asmLineWithJump(addr, jumpAddr uint64) disasm.AsmLine {
	return disasm.AsmLine{Addr: addr, JumpAddr: jumpAddr}
}
