package capture

import (
	"sort"

	"github.com/feiyunwill/tracy/internal/cpuarch"
)

// MemStore is a minimal in-memory Store used by tests across the engine's
// packages. It is not part of the public surface consumed by a real
// capture backend.
type MemStore struct {
	Arch cpuarch.Arch

	Code        map[uint64][]byte
	Symbols     map[uint64]SymbolData
	Locations   map[uint64]Location
	AddrsByLine map[uint32]map[int][]uint64
	IPs         map[uint64][]IP
	Frames      map[uint64]Frame
	Canon       map[uint64]uint64
	Strings     []string
	StringIdx   map[string]uint32
	Period      uint64
	CapturedAt  uint64
	Stats       map[uint64]SymbolStats
}

// NewMemStore returns an empty MemStore ready to be populated by a test.
func NewMemStore(arch cpuarch.Arch) *MemStore {
	return &MemStore{
		Arch:        arch,
		Code:        map[uint64][]byte{},
		Symbols:     map[uint64]SymbolData{},
		Locations:   map[uint64]Location{},
		AddrsByLine: map[uint32]map[int][]uint64{},
		IPs:         map[uint64][]IP{},
		Frames:      map[uint64]Frame{},
		Canon:       map[uint64]uint64{},
		StringIdx:   map[string]uint32{},
		Stats:       map[uint64]SymbolStats{},
	}
}

func (m *MemStore) SymbolCode(addr uint64) ([]byte, bool) {
	b, ok := m.Code[addr]
	return b, ok
}

func (m *MemStore) SymbolData(addr uint64) (SymbolData, bool) {
	d, ok := m.Symbols[addr]
	return d, ok
}

func (m *MemStore) SymbolForAddress(addr uint64) (uint64, uint64, bool) {
	for base, sym := range m.Symbols {
		if addr >= base && addr < base+sym.Size {
			return base, addr - base, true
		}
	}
	return 0, 0, false
}

func (m *MemStore) InlineSymbols(base uint64, codeLen uint64) []uint64 {
	var out []uint64
	for addr, sym := range m.Symbols {
		if sym.IsInline && addr >= base && addr < base+codeLen {
			out = append(out, addr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *MemStore) LocationForAddress(addr uint64) Location {
	if loc, ok := m.Locations[addr]; ok {
		return loc
	}
	return Location{}
}

func (m *MemStore) AddressesForLocation(file uint32, line int) []uint64 {
	byLine, ok := m.AddrsByLine[file]
	if !ok {
		return nil
	}
	return byLine[line]
}

func (m *MemStore) SymbolInstructionPointers(addr uint64) []IP {
	return m.IPs[addr]
}

func (m *MemStore) CallstackFrame(ip uint64) (Frame, bool) {
	f, ok := m.Frames[ip]
	return f, ok
}

func (m *MemStore) CanonicalPointer(ip uint64) uint64 {
	if addr, ok := m.Canon[ip]; ok {
		return addr
	}
	return ip
}

func (m *MemStore) String(id uint32) string {
	if int(id) < len(m.Strings) {
		return m.Strings[id]
	}
	return ""
}

func (m *MemStore) FindStringIdx(s string) uint32 {
	if id, ok := m.StringIdx[s]; ok {
		return id
	}
	id := uint32(len(m.Strings))
	m.Strings = append(m.Strings, s)
	m.StringIdx[s] = id
	return id
}

func (m *MemStore) CPUArch() cpuarch.Arch { return m.Arch }
func (m *MemStore) SamplingPeriod() uint64 { return m.Period }
func (m *MemStore) CaptureTime() uint64    { return m.CapturedAt }
func (m *MemStore) SymbolStats() map[uint64]SymbolStats { return m.Stats }

// IdentityPolicy is a ViewPolicy that performs no substitution and always
// considers the file valid; used by tests.
type IdentityPolicy struct{}

func (IdentityPolicy) SourceSubstitution(path string) string { return path }
func (IdentityPolicy) SourceFileValid(path string, captureTime uint64) bool { return true }
