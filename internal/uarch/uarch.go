// Package uarch selects, for a decoded instruction and a target
// micro-architecture, the most likely encoded variant from a static
// reference table -- spec.md component G.
//
// Ported from TracySourceView.cpp's micro-architecture lookup block
// (the mnemonic->op-id map, the binary search over an op's sorted id,
// and the variant scoring loop). The full TracyMicroArchitecture.*
// table is out-of-scope external reference data per spec.md §1; the
// tables below hold a small, representative, real-world-plausible
// subset across a handful of synthetic micro-architectures so the
// selection algorithm has real data to run against.
package uarch

import (
	"sort"

	"github.com/feiyunwill/tracy/internal/disasm"
)

// Port is one execution port an op's variant can issue on.
type Port struct {
	Name string
}

// Desc describes one operand slot a variant expects.
type Desc struct {
	Kind      disasm.ParamKind
	WidthBits uint16
}

// Variant is one encoded form of an op: a specific operand-slot
// signature plus its throughput/latency/port/ISA data, field-for-field
// with original_source's var.tp/minlat/maxlat/minbound/maxbound/uops/
// port/isaSet.
type Variant struct {
	Desc []Desc

	Throughput float32 // cycles per instruction; 0 = unknown
	MinLat     int     // -1 = unknown
	MaxLat     int
	MinBounded bool // MinLat is a "<=" bound, not an exact figure
	MaxBounded bool // MaxLat is a "<=" bound, not an exact figure
	Uops       int
	Port       int // index into PortList, -1 = no single fixed port
	IsaSet     int // index into IsaList
}

// Op is one mnemonic's set of known variants, keyed by a stable op id
// for the binary search.
type Op struct {
	ID       int
	Mnemonic string
	Variants []Variant
}

// MicroArchitecture is one CPU generation's op table.
type MicroArchitecture struct {
	Name string
	Ops  []*Op // sorted by ID
}

// OpsList is the full catalog of ops referenced by any MicroArchitecture
// below, indexed by Mnemonic for table construction convenience.
var OpsList = buildOpsList()

// IsaList names the instruction-set extensions the sample ops below
// belong to; carried as reference data a future, fuller table would
// key variants against.
var IsaList = []string{"BASE", "SSE2", "AVX2"}

// PortList enumerates the execution ports referenced by the sample
// variants below.
var PortList = []Port{{Name: "P0"}, {Name: "P1"}, {Name: "P2"}, {Name: "P5"}, {Name: "P6"}, {Name: "P237"}, {Name: "P4"}}

// MicroArchitectureList names the micro-architectures with data below,
// in display order.
var MicroArchitectureList = []string{"Zen3", "Skylake", "IceLake"}

// MicroArchitectureData maps each name in MicroArchitectureList to its
// op table.
var MicroArchitectureData = buildMicroArchitectureData()

// UArchUx maps a MicroArchitectureList name to its vendor/microcode
// display string, mirroring original_source's little ux metadata
// table kept alongside the op data.
var UArchUx = map[string]string{
	"Zen3":    "AMD Zen 3",
	"Skylake": "Intel Skylake",
	"IceLake": "Intel Ice Lake",
}

func op(id int, mnemonic string, variants ...Variant) *Op {
	return &Op{ID: id, Mnemonic: mnemonic, Variants: variants}
}

// portIndex resolves a PortList entry's index by name, or -1 for a
// variant that issues on more than one port and has no single fixed
// port to record (mirroring original_source's var.port == -1 case).
func portIndex(name string) int {
	for i, p := range PortList {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func buildOpsList() map[string]*Op {
	ops := []*Op{
		op(1, "MOV",
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Reg, WidthBits: 64}}, Throughput: 0.25, Uops: 1, Port: -1, IsaSet: 0, MinLat: 1, MaxLat: 1},
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Mem, WidthBits: 64}}, Throughput: 0.5, Uops: 1, Port: portIndex("P237"), IsaSet: 0, MinLat: 4, MaxLat: 4, MaxBounded: true},
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 32}, {Kind: disasm.Reg, WidthBits: 32}}, Throughput: 0.25, Uops: 1, Port: -1, IsaSet: 0, MinLat: 1, MaxLat: 1},
		),
		op(2, "LEA_B",
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Mem, WidthBits: 64}}, Throughput: 0.5, Uops: 1, Port: -1, IsaSet: 0, MinLat: 1, MaxLat: 1},
		),
		op(3, "LEA_BD",
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Mem, WidthBits: 64}}, Throughput: 1, Uops: 1, Port: portIndex("P1"), IsaSet: 0, MinLat: 1, MaxLat: 1},
		),
		op(4, "LEA_RD",
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Mem, WidthBits: 64}}, Throughput: 1, Uops: 1, Port: portIndex("P1"), IsaSet: 0, MinLat: 1, MaxLat: 1},
		),
		op(5, "ADD",
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Reg, WidthBits: 64}}, Throughput: 0.25, Uops: 1, Port: -1, IsaSet: 0, MinLat: 1, MaxLat: 1},
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Imm, WidthBits: 32}}, Throughput: 0.25, Uops: 1, Port: -1, IsaSet: 0, MinLat: 1, MaxLat: 1},
		),
		op(6, "IMUL",
			Variant{Desc: []Desc{{Kind: disasm.Reg, WidthBits: 64}, {Kind: disasm.Reg, WidthBits: 64}}, Throughput: 1, Uops: 1, Port: portIndex("P1"), IsaSet: 0, MinLat: 3, MaxLat: 4, MaxBounded: true},
		),
		op(7, "JMP",
			Variant{Desc: []Desc{{Kind: disasm.Imm, WidthBits: 32}}, Throughput: 0.5, Uops: 1, Port: portIndex("P6"), IsaSet: 0, MinLat: -1, MaxLat: -1},
		),
		op(8, "CALL",
			Variant{Desc: []Desc{{Kind: disasm.Imm, WidthBits: 32}}, Throughput: 1, Uops: 2, Port: portIndex("P6"), IsaSet: 0, MinLat: -1, MaxLat: -1},
		),
	}
	byName := make(map[string]*Op, len(ops))
	for _, o := range ops {
		byName[o.Mnemonic] = o
	}
	return byName
}

func buildMicroArchitectureData() map[string]*MicroArchitecture {
	base := func(name string) *MicroArchitecture {
		ops := make([]*Op, 0, len(OpsList))
		for _, o := range OpsList {
			ops = append(ops, o)
		}
		sort.Slice(ops, func(i, j int) bool { return ops[i].ID < ops[j].ID })
		return &MicroArchitecture{Name: name, Ops: ops}
	}
	return map[string]*MicroArchitecture{
		"Zen3":    base("Zen3"),
		"Skylake": base("Skylake"),
		"IceLake": base("IceLake"),
	}
}

// Lookup finds the op table entry for a mnemonic, or nil.
func (u *MicroArchitecture) Lookup(mnemonic string) *Op {
	i := sort.Search(len(u.Ops), func(i int) bool { return u.Ops[i].ID >= opID(mnemonic) })
	if i < len(u.Ops) && u.Ops[i].Mnemonic == mnemonic {
		return u.Ops[i]
	}
	return nil
}

func opID(mnemonic string) int {
	if o, ok := OpsList[mnemonic]; ok {
		return o.ID
	}
	return 1<<31 - 1
}

// Candidate is one variant scored against a decoded instruction's
// operand list.
type Candidate struct {
	Variant *Variant
	Penalty int
}

// SelectVariant scores every variant of the op named by mnemonic (after
// LEA substitution has already happened in disasm.AsmLine.Mnemonic)
// against params, following original_source's rule: the operand count
// must match exactly and every operand's ParamKind must match exactly;
// only a width mismatch is tolerated, each contributing one penalty
// point. The lowest-penalty candidate is returned; ties keep the
// table's original variant order, matching original_source's
// insertion-order tie-break.
func SelectVariant(uarchName string, mnemonic string, params []disasm.Param) (*Variant, bool) {
	uarch, ok := MicroArchitectureData[uarchName]
	if !ok {
		return nil, false
	}
	op := uarch.Lookup(mnemonic)
	if op == nil {
		return nil, false
	}

	var candidates []Candidate
	for i := range op.Variants {
		v := &op.Variants[i]
		if len(v.Desc) != len(params) {
			continue
		}
		penalty := 0
		match := true
		for j, desc := range v.Desc {
			if desc.Kind != params[j].Kind {
				match = false
				break
			}
			if desc.WidthBits != params[j].WidthBits {
				penalty++
			}
		}
		if match {
			candidates = append(candidates, Candidate{Variant: v, Penalty: penalty})
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Penalty < candidates[j].Penalty })
	return candidates[0].Variant, true
}
