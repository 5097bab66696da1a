package resalloc

import (
	"ssagen/config"
	"ssagen/core/asm"
	. "ssagen/core/asm/instrkind"
	. "ssagen/core/asm/util"
	"ssagen/core/cc/stack"

	"log/slog"
	"math"
)

// Assign resolves every symbolic operand of the program in place:
// slots become registers or spill addresses, the frame size becomes
// the size of the spill area and jumps leaving a block load the id of
// that block into the provenance register. Instructions the hardware
// cannot encode are rewritten through the scratch register.
func Assign(P *asm.Program, t *config.Target) {
	for _, proc := range P.Procs {
		if proc.Assigned {
			continue
		}
		b := newBinding(proc, t)
		proc.Code = b.rewrite(proc.Code)
		proc.NumOfSpills = b.spills
		proc.Assigned = true
		slog.Debug("assigned registers", "proc", proc.Label,
			"slots", proc.NumOfSlots, "spills", b.spills)
	}
}

type binding struct {
	regs     []asm.Register
	numSaved int
	spills   int
	prov     asm.Register
	scratch  asm.Register
}

func newBinding(proc *asm.Procedure, t *config.Target) *binding {
	regs := t.Registers()
	return &binding{
		regs:     regs,
		numSaved: len(t.CalleeSavedRegs()),
		spills:   max(0, proc.NumOfSlots-len(regs)),
		prov:     t.ProvenanceReg(),
		scratch:  t.ScratchReg(),
	}
}

func (this *binding) operand(op asm.Operand) asm.Operand {
	switch op.Kind {
	case asm.Slot:
		id := int(op.Num)
		if id < len(this.regs) {
			return Reg(this.regs[id])
		}
		return AddrFrame(stack.Spill(this.numSaved, id-len(this.regs)))
	case asm.FrameSize:
		return Imm(int64(stack.Reserve(this.spills)))
	case asm.Provenance:
		return Reg(this.prov)
	}
	return op
}

func (this *binding) rewrite(code []asm.Line) []asm.Line {
	output := make([]asm.Line, 0, len(code))
	provKnown := false
	provValue := 0
	for _, line := range code {
		if line.IsLabel {
			provKnown = false
			output = append(output, line)
			continue
		}
		instr := line.Instr
		if this.spills == 0 && usesFrameSize(instr) {
			continue
		}
		ops := make([]asm.Operand, len(instr.Operands))
		for i, op := range instr.Operands {
			ops[i] = this.operand(op)
		}
		instr.Operands = ops

		if instr.Exit {
			if !provKnown || provValue != instr.From {
				output = append(output, Bin(Mov, Imm(int64(instr.From)), Reg(this.prov)))
				provKnown = true
				provValue = instr.From
			}
			instr.Exit = false
		}
		if this.clobbersProvenance(instr) {
			provKnown = false
		}
		output = append(output, this.legalize(instr)...)
	}
	return output
}

func usesFrameSize(instr asm.Instr) bool {
	for _, op := range instr.Operands {
		if op.Kind == asm.FrameSize {
			return true
		}
	}
	return false
}

func (this *binding) clobbersProvenance(instr asm.Instr) bool {
	switch instr.Kind {
	case Call, Ret:
		return true
	case Pop:
		return isReg(instr.Operands[0], this.prov)
	case Mov, Add, Sub:
		return isReg(instr.Operands[1], this.prov)
	}
	return false
}

func isReg(op asm.Operand, r asm.Register) bool {
	return op.Kind == asm.Reg && op.Reg == r
}

func fits32(n int64) bool {
	return n >= math.MinInt32 && n <= math.MaxInt32
}

func isWideImm(op asm.Operand) bool {
	return op.Kind == asm.Const && !fits32(op.Num)
}

// legalize splits instructions with operand combinations x86 has no
// encoding for.
func (this *binding) legalize(instr asm.Instr) []asm.Line {
	scratch := Reg(this.scratch)
	line := asm.Line{Instr: instr}
	load := func(op asm.Operand) asm.Line {
		if isWideImm(op) {
			return Bin(Movabs, op, scratch)
		}
		return Bin(Mov, op, scratch)
	}
	switch instr.Kind {
	case Mov:
		src, dest := instr.Operands[0], instr.Operands[1]
		if src == dest {
			return nil
		}
		if isWideImm(src) {
			if dest.Kind == asm.Reg {
				return []asm.Line{Bin(Movabs, src, dest)}
			}
			return []asm.Line{load(src), Bin(Mov, scratch, dest)}
		}
		if src.IsMemory() && dest.IsMemory() {
			return []asm.Line{load(src), Bin(Mov, scratch, dest)}
		}
	case Add, Sub:
		src, dest := instr.Operands[0], instr.Operands[1]
		if isWideImm(src) || (src.IsMemory() && dest.IsMemory()) {
			return []asm.Line{load(src), Bin(instr.Kind, scratch, dest)}
		}
	case Cmp:
		src, dest := instr.Operands[0], instr.Operands[1]
		if dest.Kind == asm.Const {
			// cmp needs a register or memory as its second operand
			if isWideImm(src) {
				panic("cmp between two wide immediates")
			}
			return []asm.Line{load(dest), Bin(Cmp, src, scratch)}
		}
		if isWideImm(src) || (src.IsMemory() && dest.IsMemory()) {
			return []asm.Line{load(src), Bin(Cmp, scratch, dest)}
		}
	case IMul, IDiv:
		if instr.Operands[0].Kind == asm.Const {
			return []asm.Line{load(instr.Operands[0]), Unary(instr.Kind, scratch)}
		}
	case Push:
		if isWideImm(instr.Operands[0]) {
			return []asm.Line{load(instr.Operands[0]), Unary(Push, scratch)}
		}
	}
	return []asm.Line{line}
}
