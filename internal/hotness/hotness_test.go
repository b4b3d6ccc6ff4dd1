package hotness

import (
	"testing"

	"github.com/feiyunwill/tracy/internal/capture"
	"github.com/feiyunwill/tracy/internal/cpuarch"
)

func TestGatherInlineExclusive(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	store.IPs[0x1000] = []capture.IP{
		{Addr: 0x1000, Count: 5},
		{Addr: 0x1004, Count: 3},
	}
	store.Frames[0x1000] = capture.Frame{Outermost: capture.Location{File: 1, Line: 10}}
	store.Frames[0x1004] = capture.Frame{Outermost: capture.Location{File: 1, Line: 11}}
	store.Canon[0x1000] = 0x1000
	store.Canon[0x1004] = 0x1004

	file := uint32(1)
	stats := Gather(store, 0x1000, 0x20, false, &file)
	if stats.TotalAsm[0x1000] != 5 || stats.TotalAsm[0x1004] != 3 {
		t.Fatalf("unexpected TotalAsm: %+v", stats.TotalAsm)
	}
	if stats.TotalSrc[10] != 5 || stats.TotalSrc[11] != 3 {
		t.Fatalf("unexpected TotalSrc: %+v", stats.TotalSrc)
	}
	if stats.MaxAsm != 5 || stats.MaxSrc != 5 {
		t.Fatalf("unexpected max: MaxAsm=%d MaxSrc=%d", stats.MaxAsm, stats.MaxSrc)
	}
	if stats.CountAsm != 2 || stats.CountSrc != 2 {
		t.Fatalf("unexpected counts: CountAsm=%d CountSrc=%d", stats.CountAsm, stats.CountSrc)
	}
}

func TestGatherUnknownFrameStillCountsAsm(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	store.IPs[0x2000] = []capture.IP{{Addr: 0x2000, Count: 7}}
	store.Canon[0x2000] = 0x2000
	// no Frames entry -- CallstackFrame returns ok=false

	stats := Gather(store, 0x2000, 0x10, false, nil)
	if stats.TotalAsm[0x2000] != 7 {
		t.Fatalf("expected asm attribution regardless of frame resolution")
	}
	if len(stats.TotalSrc) != 0 {
		t.Fatalf("expected no src attribution without a resolvable frame, got %+v", stats.TotalSrc)
	}
}

func TestGatherNoLoadedFileSkipsSrcAttribution(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	store.IPs[0x5000] = []capture.IP{{Addr: 0x5000, Count: 9}}
	store.Frames[0x5000] = capture.Frame{Outermost: capture.Location{File: 1, Line: 30}}
	store.Canon[0x5000] = 0x5000

	stats := Gather(store, 0x5000, 0x10, false, nil)
	if stats.TotalAsm[0x5000] != 9 {
		t.Fatalf("expected asm attribution, got %+v", stats.TotalAsm)
	}
	if len(stats.TotalSrc) != 0 {
		t.Fatalf("expected no src attribution when no file is loaded, got %+v", stats.TotalSrc)
	}
}

func TestGatherMismatchedFileSkipsSrcAttribution(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	store.IPs[0x6000] = []capture.IP{{Addr: 0x6000, Count: 4}}
	store.Frames[0x6000] = capture.Frame{Outermost: capture.Location{File: 1, Line: 5}}
	store.Canon[0x6000] = 0x6000

	other := uint32(2)
	stats := Gather(store, 0x6000, 0x10, false, &other)
	if len(stats.TotalSrc) != 0 {
		t.Fatalf("expected no src attribution for a non-matching file, got %+v", stats.TotalSrc)
	}
}

func TestGatherWholeFunctionFoldsInlinesAndOverwritesScalarTotalOnly(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	store.Symbols[0x3100] = capture.SymbolData{IsInline: true, Size: 0x10}
	store.IPs[0x3000] = []capture.IP{{Addr: 0x3000, Count: 4}}
	store.IPs[0x3100] = []capture.IP{{Addr: 0x3100, Count: 6}}
	store.Canon[0x3000] = 0x3000
	store.Canon[0x3100] = 0x3100
	store.Frames[0x3000] = capture.Frame{Outermost: capture.Location{File: 1, Line: 20}}
	store.Frames[0x3100] = capture.Frame{Outermost: capture.Location{File: 1, Line: 21}}

	file := uint32(1)
	stats := Gather(store, 0x3000, 0x200, true, &file)
	if stats.TotalAsm[0x3000] != 4 || stats.TotalAsm[0x3100] != 6 {
		t.Fatalf("expected both base and inline samples folded in: %+v", stats.TotalAsm)
	}
	if stats.TotalSrc[20] != 4 || stats.TotalSrc[21] != 6 {
		t.Fatalf("expected TotalSrc populated by the same gated per-sample accumulation, got %+v", stats.TotalSrc)
	}
	if stats.IPTotalAsm != 10 {
		t.Fatalf("expected IPTotalAsm 10, got %d", stats.IPTotalAsm)
	}
	if stats.IPTotalSrc != stats.IPTotalAsm {
		t.Fatalf("expected whole-function mode to overwrite the scalar IPTotalSrc to equal IPTotalAsm, got %d vs %d", stats.IPTotalSrc, stats.IPTotalAsm)
	}
}

func TestGatherWholeFunctionStillGatesSrcByLoadedFile(t *testing.T) {
	store := capture.NewMemStore(cpuarch.X64)
	store.Symbols[0x4100] = capture.SymbolData{IsInline: true, Size: 0x10}
	store.IPs[0x4000] = []capture.IP{{Addr: 0x4000, Count: 4}}
	store.IPs[0x4100] = []capture.IP{{Addr: 0x4100, Count: 6}}
	store.Canon[0x4000] = 0x4000
	store.Canon[0x4100] = 0x4100
	store.Frames[0x4000] = capture.Frame{Outermost: capture.Location{File: 1, Line: 20}}
	store.Frames[0x4100] = capture.Frame{Outermost: capture.Location{File: 2, Line: 21}}

	file := uint32(1)
	stats := Gather(store, 0x4000, 0x200, true, &file)
	if len(stats.TotalSrc) != 1 || stats.TotalSrc[20] != 4 {
		t.Fatalf("expected only the loaded-file inline's line attributed, got %+v", stats.TotalSrc)
	}
	if stats.IPTotalSrc != stats.IPTotalAsm {
		t.Fatalf("expected the scalar total still overwritten to IPTotalAsm even with partial file gating, got %d vs %d", stats.IPTotalSrc, stats.IPTotalAsm)
	}

	stats = Gather(store, 0x4000, 0x200, true, nil)
	if len(stats.TotalSrc) != 0 {
		t.Fatalf("expected no src attribution at all with no file loaded, got %+v", stats.TotalSrc)
	}
	if stats.IPTotalSrc != stats.IPTotalAsm {
		t.Fatalf("expected the scalar total still overwritten to IPTotalAsm with no file loaded, got %d vs %d", stats.IPTotalSrc, stats.IPTotalAsm)
	}
}
