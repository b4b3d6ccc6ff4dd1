// Package capture defines the read-only interfaces the correlation engine
// consumes from the profiler's capture/worker store and from the view
// policy. Both are external collaborators (see spec §6): this package
// only declares the contract and a small in-memory implementation used
// by tests.
package capture

import "github.com/feiyunwill/tracy/internal/cpuarch"

// Location identifies a source position by interned file id and line.
// Line == 0 means unknown.
type Location struct {
	File uint32
	Line int
}

// SymbolData describes a captured symbol's static metadata.
type SymbolData struct {
	NameID   uint32
	FileID   uint32
	Line     int
	Size     uint64
	IsInline bool
}

// SymbolStats holds per-symbol sample counters.
type SymbolStats struct {
	Excl uint32
	Incl uint32
}

// Frame is the outermost callstack frame resolved for an instruction
// pointer.
type Frame struct {
	Outermost Location
}

// IP is one (instruction pointer, sample count) histogram entry.
type IP struct {
	Addr  uint64
	Count uint32
}

// Store is the read-only capture/worker store interface named in spec §6.
type Store interface {
	// SymbolCode returns the captured machine-code bytes for a symbol,
	// or ok=false if unavailable.
	SymbolCode(addr uint64) (code []byte, ok bool)
	// SymbolData returns static metadata for a symbol, or ok=false.
	SymbolData(addr uint64) (data SymbolData, ok bool)
	// SymbolForAddress resolves addr to its enclosing symbol's base and
	// the offset within it.
	SymbolForAddress(addr uint64) (base uint64, offset uint64, ok bool)
	// InlineSymbols returns the inline symbol addresses nested inside
	// [base, base+codeLen), in ascending order.
	InlineSymbols(base uint64, codeLen uint64) []uint64
	// LocationForAddress resolves an instruction address to its source
	// location. Line == 0 means unknown.
	LocationForAddress(addr uint64) Location
	// AddressesForLocation returns the instruction addresses attributed
	// to a source location, or nil if none.
	AddressesForLocation(file uint32, line int) []uint64
	// SymbolInstructionPointers returns the sample histogram for a
	// symbol or inline frame, or nil if it was never sampled.
	SymbolInstructionPointers(addr uint64) []IP
	// CallstackFrame resolves a sampled instruction pointer to its
	// outermost callstack frame.
	CallstackFrame(ip uint64) (Frame, bool)
	// CanonicalPointer strips architecture-specific tag bits from ip.
	CanonicalPointer(ip uint64) uint64
	// String resolves an interned string id.
	String(id uint32) string
	// FindStringIdx interns (or looks up) a string, returning its id.
	FindStringIdx(s string) uint32
	// CPUArch returns the architecture of the captured process.
	CPUArch() cpuarch.Arch
	// SamplingPeriod returns the sampling period in nanoseconds.
	SamplingPeriod() uint64
	// CaptureTime returns the capture's timestamp in nanoseconds.
	CaptureTime() uint64
	// SymbolStats returns per-symbol sample statistics.
	SymbolStats() map[uint64]SymbolStats
}

// ViewPolicy is the source-file substitution/validation policy named in
// spec §6. It is consumed, never implemented, by this module.
type ViewPolicy interface {
	// SourceSubstitution resolves a captured path to a path the current
	// machine can actually read.
	SourceSubstitution(path string) string
	// SourceFileValid reports whether path is still a trustworthy
	// rendition of the code captured at captureTime.
	SourceFileValid(path string, captureTime uint64) bool
}
