package amd64

import (
	"ssagen/core/asm"
	"ssagen/core/strbuilder"
)

type AsmProgram struct {
	Name     string
	Contents string
}

// Generate prints an assigned program as GNU assembler source
// (AT&T syntax). The program must have gone through register
// assignment, symbolic operands are an internal error.
func Generate(P *asm.Program) *AsmProgram {
	b := &strbuilder.Builder{}
	b.Placeln("# ", P.Name)
	b.Placeln("\t.text")
	b.Placeln("\t.globl ", asm.StartLabel)
	b.Placeln(asm.StartLabel, ":")
	for _, line := range P.Entry {
		genLine(b, line)
	}
	for _, proc := range P.Procs {
		if !proc.Assigned {
			panic("procedure " + proc.Label + " has no registers assigned")
		}
		b.Placeln(proc.Label, ":")
		for _, line := range proc.Code {
			genLine(b, line)
		}
	}
	return &AsmProgram{
		Name:     P.Name,
		Contents: b.String(),
	}
}

func genLine(b *strbuilder.Builder, line asm.Line) {
	if line.IsLabel {
		b.Placeln(line.Label, ":")
		return
	}
	instr := line.Instr
	b.Place("\t" + instr.Kind.String())
	for i, op := range instr.Operands {
		if op.IsSymbolic() {
			panic("symbolic operand " + op.String() + " in " + instr.String())
		}
		if i == 0 {
			b.Place(" ")
		} else {
			b.Place(", ")
		}
		b.Place(op.String())
	}
	b.Place("\n")
}
