package fasm

import (
	"ssagen/amd64"
	"ssagen/core/asm"
	ik "ssagen/core/asm/instrkind"
	. "ssagen/core/strbuilder"

	"strconv"
	"strings"
)

// Generate prints an assigned program as flat assembler source,
// a static ELF64 executable in Intel syntax.
func Generate(program *asm.Program) *amd64.AsmProgram {
	b := &Builder{}
	b.Place("format ELF64 executable 3\n")
	b.Place("\nsegment readable executable\n")
	b.Place("entry $\n")
	for _, line := range program.Entry {
		genLine(b, line)
		b.Place("\n")
	}
	for _, proc := range program.Procs {
		if !proc.Assigned {
			panic("procedure " + proc.Label + " has no registers assigned")
		}
		b.Place(proc.Label)
		b.Place(":\n")
		for _, line := range proc.Code {
			genLine(b, line)
			b.Place("\n")
		}
	}
	return &amd64.AsmProgram{
		Name:     program.Name,
		Contents: b.String(),
	}
}

func genLine(b *Builder, line asm.Line) {
	if line.IsLabel {
		b.Place(line.Label)
		b.Place(":")
		return
	}
	instr := line.Instr
	b.Place("\t")
	b.Place(mnemonic(instr.Kind))
	if len(instr.Operands) == 0 {
		return
	}
	b.Place("\t")
	if instr.Kind == ik.Push && instr.Operands[0].Kind == asm.Const {
		b.Place("qword ")
	}
	// intel order puts the destination first
	for i := len(instr.Operands) - 1; i >= 0; i-- {
		op := instr.Operands[i]
		if op.IsSymbolic() {
			panic("symbolic operand " + op.String() + " in " + instr.String())
		}
		b.Place(operand(op))
		if i > 0 {
			b.Place(", ")
		}
	}
}

func mnemonic(k ik.InstrKind) string {
	switch k {
	case ik.Movabs:
		return "mov" // picks the 64 bit immediate form by itself
	case ik.Cqo:
		return "cqo"
	}
	return strings.TrimSuffix(k.String(), "q")
}

func operand(op asm.Operand) string {
	switch op.Kind {
	case asm.Reg:
		return op.Reg.String()
	case asm.Const:
		return convNum(op.Num)
	case asm.Label:
		return op.Label
	case asm.Frame:
		return genAddr(op.Num)
	}
	panic("invalid operand " + op.String())
}

func genAddr(disp int64) string {
	if disp < 0 {
		return "qword [rbp - " + convNum(-disp) + "]"
	}
	return "qword [rbp + " + convNum(disp) + "]"
}

func convNum(num int64) string {
	sign := ""
	abs := uint64(num)
	if num < 0 {
		sign = "-"
		abs = -abs
	}
	return sign + "0x" + strings.ToUpper(strconv.FormatUint(abs, 16))
}
