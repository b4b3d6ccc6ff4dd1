// Package disasm holds the value types produced by the disassembler
// driver and consumed by the jump-graph builder, the hotness aggregator
// and the display model. Adapted from the teacher's internal/disasm
// package (loov-lensm), generalized to spec.md §3's richer AsmLine.
package disasm

// ParamKind classifies one decoded operand.
type ParamKind uint8

const (
	Imm   ParamKind = 0
	Reg   ParamKind = 1
	Mem   ParamKind = 2
	Other ParamKind = 255
)

// Param is one decoded operand's kind and width.
type Param struct {
	Kind      ParamKind
	WidthBits uint16
}

// LeaKind sub-classifies an x86/x64 LEA instruction's effective-address
// form, per spec §4.3. None means the instruction isn't an LEA with a
// memory second operand.
type LeaKind uint8

const (
	LeaNone LeaKind = iota
	LeaD            // [disp]
	LeaI            // [index]
	LeaID           // [index+disp]
	LeaR            // [rip]
	LeaRD           // [rip+disp]
	LeaB            // [base]
	LeaBD           // [base+disp]
	LeaBI           // [base+index]
	LeaBID          // [base+index+disp]
)

// mnemonic returns the LEA_* mnemonic substitution used by the
// micro-arch variant selector (§4.7), or plain "LEA" for LeaNone.
func (k LeaKind) mnemonic() string {
	switch k {
	case LeaB:
		return "LEA_B"
	case LeaBD:
		return "LEA_BD"
	case LeaBI:
		return "LEA_BI"
	case LeaBID:
		return "LEA_BID"
	case LeaD:
		return "LEA_D"
	case LeaI:
		return "LEA_I"
	case LeaID:
		return "LEA_ID"
	case LeaR:
		return "LEA_R"
	case LeaRD:
		return "LEA_RD"
	default:
		return "LEA"
	}
}

// Mnemonic returns the mnemonic the micro-arch selector should look up
// for this line: the instruction's own mnemonic, unless it's an LEA
// with a sub-kind, in which case the LEA_* substitution applies.
func (a AsmLine) Mnemonic() string {
	if a.LeaKind != LeaNone {
		return a.LeaKind.mnemonic()
	}
	return a.Mnemonic_
}

// AsmLine is one decoded instruction. Field names with a trailing
// underscore avoid colliding with the Mnemonic() accessor above, which
// carries the LEA substitution spec §4.7 requires.
type AsmLine struct {
	Addr      uint64
	JumpAddr  uint64 // 0 = not a branch, or target unresolved
	Mnemonic_ string
	Operands  string
	Size      uint8
	LeaKind   LeaKind
	Params    []Param

	// File/Line are the source location attributed to this address by
	// the capture store, cached here for convenience; Line == 0 means
	// unknown.
	File uint32
	Line int
}

// JumpEntry is one target address's intra-symbol jump table entry.
type JumpEntry struct {
	Target  uint64
	Min     uint64
	Max     uint64
	Level   int
	Sources []uint64 // sorted ascending
}
