// Package decode drives the architecture-specific instruction decoders
// (spec.md component C) and turns their output into disasm.AsmLine
// values. It is the concrete, Go-idiomatic stand-in for the
// capstone-family disassembler spec.md describes abstractly: the three
// golang.org/x/arch decoder packages already cover the architectures
// spec §4.3 requires, and are a dependency the teacher (loov-lensm)
// already carries.
package decode

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"
	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"

	"github.com/feiyunwill/tracy/internal/cpuarch"
	"github.com/feiyunwill/tracy/internal/disasm"
)

// ErrUnsupportedArch is returned when CPUArch doesn't map to a decoder.
var ErrUnsupportedArch = errors.New("decode: unsupported architecture")

// ErrEmptyCode is returned when Symbol is asked to decode a zero-length
// buffer, per spec §7's "no instructions" edge case.
var ErrEmptyCode = errors.New("decode: empty code buffer")

// Result is the output of decoding one symbol's code: the instructions
// in address order, plus a flag marking a trailing partial instruction
// that ran past the end of the buffer (spec §4.3's "truncated
// function" edge case, DisasmFail in the original).
type Result struct {
	Lines     []disasm.AsmLine
	Truncated bool
}

// Symbol decodes the bytes at base into a sequence of AsmLines. base is
// the address of code[0]; subsequent instructions are at
// base+offset-into-code.
func Symbol(arch cpuarch.Arch, base uint64, code []byte) (Result, error) {
	if len(code) == 0 {
		return Result{}, ErrEmptyCode
	}

	switch arch {
	case cpuarch.X86:
		return decodeX86(base, code, 32)
	case cpuarch.X64:
		return decodeX86(base, code, 64)
	case cpuarch.Arm32:
		return decodeArm32(base, code)
	case cpuarch.Arm64:
		return decodeArm64(base, code)
	default:
		return Result{}, fmt.Errorf("%w: %v", ErrUnsupportedArch, arch)
	}
}

func decodeX86(base uint64, code []byte, mode int) (Result, error) {
	var out Result
	pc := uint64(0)
	for pc < uint64(len(code)) {
		inst, err := x86asm.Decode(code[pc:], mode)
		// x86asm reports bytes it cannot decode, including an instruction
		// cut off by the end of the buffer, as a one-byte Inst with no
		// opcode and a nil error.
		if err != nil || inst.Len == 0 || inst.Op == 0 {
			out.Truncated = true
			break
		}

		addr := base + pc
		line := disasm.AsmLine{
			Addr:      addr,
			Mnemonic_: inst.Op.String(),
			Operands:  x86Operands(inst),
			Size:      uint8(inst.Len),
			Params:    x86Params(inst),
		}
		line.LeaKind = x86LeaKind(inst)
		if target, ok := x86BranchTarget(inst, addr); ok {
			line.JumpAddr = target
		}
		out.Lines = append(out.Lines, line)
		pc += uint64(inst.Len)
	}
	return out, nil
}

func decodeArm32(base uint64, code []byte) (Result, error) {
	var out Result
	pc := uint64(0)
	for pc < uint64(len(code)) {
		inst, err := armasm.Decode(code[pc:], armasm.ModeARM)
		if err != nil || inst.Len == 0 {
			out.Truncated = true
			break
		}

		addr := base + pc
		line := disasm.AsmLine{
			Addr:      addr,
			Mnemonic_: inst.Op.String(),
			Operands:  armOperands(inst),
			Size:      uint8(inst.Len),
			Params:    armParams(inst),
		}
		if target, ok := armBranchTarget(inst, addr); ok {
			line.JumpAddr = target
		}
		out.Lines = append(out.Lines, line)
		pc += uint64(inst.Len)
	}
	return out, nil
}

func decodeArm64(base uint64, code []byte) (Result, error) {
	var out Result
	const instLen = 4
	pc := uint64(0)
	for pc+instLen <= uint64(len(code)) {
		inst, err := arm64asm.Decode(code[pc:])
		if err != nil {
			out.Truncated = true
			break
		}

		addr := base + pc
		line := disasm.AsmLine{
			Addr:      addr,
			Mnemonic_: inst.Op.String(),
			Operands:  arm64Operands(inst),
			Size:      instLen,
			Params:    arm64Params(inst),
		}
		if target, ok := arm64BranchTarget(inst, addr); ok {
			line.JumpAddr = target
		}
		out.Lines = append(out.Lines, line)
		pc += instLen
	}
	if pc < uint64(len(code)) {
		out.Truncated = true
	}
	return out, nil
}

// isBranchMnemonic reports whether op names a control-transfer
// instruction, matched by family prefix since x/arch's decoders (unlike
// capstone) don't expose an instruction-group classification.
func isBranchMnemonic(op string) bool {
	op = strings.ToUpper(op)
	switch {
	case op == "JMP", op == "LJMP", op == "CALL", op == "LCALL",
		op == "RET", op == "LRET", op == "IRET", op == "IRETD", op == "IRETQ",
		op == "LOOP", op == "LOOPE", op == "LOOPNE",
		op == "B", op == "BL", op == "BX", op == "BLX", op == "BXJ",
		op == "RET_B":
		return true
	case strings.HasPrefix(op, "J") && op != "JMP":
		return true
	case strings.HasPrefix(op, "B.") || strings.HasPrefix(op, "CBZ") || strings.HasPrefix(op, "CBNZ") ||
		strings.HasPrefix(op, "TBZ") || strings.HasPrefix(op, "TBNZ"):
		return true
	default:
		return false
	}
}
