package decode

import (
	"strings"

	"golang.org/x/arch/arm/armasm"

	"github.com/feiyunwill/tracy/internal/disasm"
)

func armOperands(inst armasm.Inst) string {
	var parts []string
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, ", ")
}

// armParams classifies each argument. armasm exposes no per-operand
// bit width (ARM's uniform 32-bit general registers make the concept
// moot outside NEON), so WidthBits stays 0 here; spec §4.3 only
// requires width where the architecture defines one.
func armParams(inst armasm.Inst) []disasm.Param {
	var params []disasm.Param
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		switch arg.(type) {
		case armasm.Reg:
			params = append(params, disasm.Param{Kind: disasm.Reg})
		case armasm.Mem:
			params = append(params, disasm.Param{Kind: disasm.Mem})
		case armasm.Imm, armasm.ImmAlt:
			params = append(params, disasm.Param{Kind: disasm.Imm})
		default:
			params = append(params, disasm.Param{Kind: disasm.Other})
		}
	}
	return params
}

func armBranchTarget(inst armasm.Inst, addr uint64) (uint64, bool) {
	if !isBranchMnemonic(inst.Op.String()) {
		return 0, false
	}
	for _, arg := range inst.Args {
		if rel, ok := arg.(armasm.PCRel); ok {
			return addr + uint64(inst.Len) + uint64(int64(rel)), true
		}
	}
	return 0, false
}
