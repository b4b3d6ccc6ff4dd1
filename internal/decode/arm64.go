package decode

import (
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"github.com/feiyunwill/tracy/internal/disasm"
)

func arm64Operands(inst arm64asm.Inst) string {
	var parts []string
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, ", ")
}

func arm64Params(inst arm64asm.Inst) []disasm.Param {
	var params []disasm.Param
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		switch arg.(type) {
		case arm64asm.Reg, arm64asm.RegSP:
			params = append(params, disasm.Param{Kind: disasm.Reg})
		case arm64asm.MemImmediate, arm64asm.MemExtend:
			params = append(params, disasm.Param{Kind: disasm.Mem})
		case arm64asm.Imm, arm64asm.Imm64, arm64asm.ImmShift:
			params = append(params, disasm.Param{Kind: disasm.Imm})
		default:
			params = append(params, disasm.Param{Kind: disasm.Other})
		}
	}
	return params
}

func arm64BranchTarget(inst arm64asm.Inst, addr uint64) (uint64, bool) {
	if !isBranchMnemonic(inst.Op.String()) {
		return 0, false
	}
	for _, arg := range inst.Args {
		if rel, ok := arg.(arm64asm.PCRel); ok {
			return addr + uint64(rel), true
		}
	}
	return 0, false
}
