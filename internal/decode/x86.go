package decode

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/feiyunwill/tracy/internal/disasm"
)

func x86Operands(inst x86asm.Inst) string {
	var parts []string
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, ", ")
}

// x86Params classifies each non-nil argument, computing width from
// Inst.DataSize for register/immediate operands and Inst.MemBytes*8 for
// memory operands. x86asm has no per-operand width field (unlike
// capstone), so DataSize/MemBytes are the closest Go-idiomatic
// equivalent; spec §4.3 leaves the exact source open.
func x86Params(inst x86asm.Inst) []disasm.Param {
	var params []disasm.Param
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		switch a := arg.(type) {
		case x86asm.Reg:
			params = append(params, disasm.Param{Kind: disasm.Reg, WidthBits: uint16(inst.DataSize)})
		case x86asm.Mem:
			_ = a
			params = append(params, disasm.Param{Kind: disasm.Mem, WidthBits: uint16(inst.MemBytes * 8)})
		case x86asm.Imm:
			params = append(params, disasm.Param{Kind: disasm.Imm, WidthBits: uint16(inst.DataSize)})
		default:
			params = append(params, disasm.Param{Kind: disasm.Other})
		}
	}
	return params
}

// x86LeaKind classifies an LEA instruction's memory operand into the
// sub-kinds spec §4.3/§4.7 use for micro-arch variant lookup, following
// TracySourceView.cpp's GetLeaData.
func x86LeaKind(inst x86asm.Inst) disasm.LeaKind {
	if inst.Op != x86asm.LEA {
		return disasm.LeaNone
	}
	mem, ok := secondArgMem(inst)
	if !ok {
		return disasm.LeaNone
	}

	hasBase := mem.Base != 0
	hasIndex := mem.Index != 0
	hasDisp := mem.Disp != 0
	isRip := mem.Base == x86asm.RIP

	switch {
	case isRip && hasDisp:
		return disasm.LeaRD
	case isRip:
		return disasm.LeaR
	case hasBase && hasIndex && hasDisp:
		return disasm.LeaBID
	case hasBase && hasIndex:
		return disasm.LeaBI
	case hasBase && hasDisp:
		return disasm.LeaBD
	case hasBase:
		return disasm.LeaB
	case hasIndex && hasDisp:
		return disasm.LeaID
	case hasIndex:
		return disasm.LeaI
	case hasDisp:
		return disasm.LeaD
	default:
		return disasm.LeaNone
	}
}

func secondArgMem(inst x86asm.Inst) (x86asm.Mem, bool) {
	if inst.Args[1] == nil {
		return x86asm.Mem{}, false
	}
	mem, ok := inst.Args[1].(x86asm.Mem)
	return mem, ok
}

// x86BranchTarget computes a branch's absolute target address from a
// Rel argument, per x86asm's documented convention: the target is
// relative to the address immediately following the instruction.
func x86BranchTarget(inst x86asm.Inst, addr uint64) (uint64, bool) {
	if !isBranchMnemonic(inst.Op.String()) {
		return 0, false
	}
	for _, arg := range inst.Args {
		if rel, ok := arg.(x86asm.Rel); ok {
			return addr + uint64(inst.Len) + uint64(int64(rel)), true
		}
	}
	return 0, false
}
