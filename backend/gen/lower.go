package gen

import (
	. "ssagen/core"
	"ssagen/core/asm"
	. "ssagen/core/asm/instrkind"
	. "ssagen/core/asm/util"
	"ssagen/ir"
	IT "ssagen/ir/instrkind"
	PK "ssagen/ir/predicate"
	msg "ssagen/messages"
)

// operand returns the location of op. Literals that cannot be used as
// immediates are moved into a scratch slot, which the caller releases.
func (s *state) operand(op ir.Operand, allowImmediate bool) (asm.Operand, bool, *Error) {
	loc, err := s.alloc.LocationFor(op, allowImmediate)
	if err != nil {
		return loc, false, err
	}
	if op.IsLit() && !allowImmediate {
		s.emit(Bin(Mov, Imm(op.Num), loc))
		return loc, true, nil
	}
	return loc, false, nil
}

func (s *state) dest(instr *ir.Instr) (asm.Operand, *Error) {
	return s.alloc.LocationFor(ir.Val(instr.Dest), false)
}

func arithKind(k IT.InstrKind) InstrKind {
	switch k {
	case IT.Add:
		return Add
	case IT.Sub:
		return Sub
	case IT.Mult:
		return IMul
	case IT.Div:
		return IDiv
	}
	panic("not arithmetic: " + k.String())
}

func (s *state) genAddSub(instr *ir.Instr) *Error {
	left, _, err := s.operand(instr.Operands[0], true)
	if err != nil {
		return err
	}
	right, _, err := s.operand(instr.Operands[1], true)
	if err != nil {
		return err
	}
	dest, err := s.dest(instr)
	if err != nil {
		return err
	}
	s.emit(
		Bin(Mov, left, dest),
		Bin(arithKind(instr.T), right, dest),
	)
	s.alloc.ReleaseIfDead(instr)
	return nil
}

// genMulDiv goes through rax and rdx, whatever they held before is
// pushed and restored around the operation.
func (s *state) genMulDiv(instr *ir.Instr) *Error {
	left, _, err := s.operand(instr.Operands[0], true)
	if err != nil {
		return err
	}
	right, _, err := s.operand(instr.Operands[1], true)
	if err != nil {
		return err
	}
	dest, err := s.dest(instr)
	if err != nil {
		return err
	}
	rax, rdx := Reg(asm.RAX), Reg(asm.RDX)
	s.emit(
		Unary(Push, rax),
		Unary(Push, rdx),
		Bin(Mov, left, rax),
	)
	if instr.T == IT.Div {
		s.emit(Plain(Cqo))
	}
	s.emit(
		Unary(arithKind(instr.T), right),
		Unary(Pop, rdx),
		Bin(Mov, rax, dest),
		Unary(Pop, rax),
	)
	s.alloc.ReleaseIfDead(instr)
	return nil
}

// jumpsFor maps a predicate over (left, right) to the jumps taken
// after "cmp right, left"
func jumpsFor(p PK.Predicate) []InstrKind {
	switch p {
	case PK.Eq:
		return []InstrKind{Je}
	case PK.Ne:
		return []InstrKind{Jne}
	case PK.Slt:
		return []InstrKind{Jl}
	case PK.Sle:
		return []InstrKind{Jl, Je}
	case PK.Sgt:
		return []InstrKind{Jg}
	case PK.Sge:
		return []InstrKind{Jg, Je}
	}
	return nil
}

func (s *state) genCompare(instr *ir.Instr) *Error {
	jumps := jumpsFor(instr.Pred)
	if jumps == nil {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "unknown predicate")
	}
	left, scratch, err := s.operand(instr.Operands[0], false)
	if err != nil {
		return err
	}
	right, _, err := s.operand(instr.Operands[1], true)
	if err != nil {
		return err
	}
	dest, err := s.dest(instr)
	if err != nil {
		return err
	}
	t := s.newLabel()
	f := s.newLabel()
	post := s.newLabel()

	s.emit(Bin(Cmp, right, left))
	for _, j := range jumps {
		s.emit(Unary(j, LabelOp(t)))
	}
	s.emit(
		LabelLine(f),
		Bin(Mov, Imm(0), dest),
		Unary(Jmp, LabelOp(post)),
		LabelLine(t),
		Bin(Mov, Imm(1), dest),
		LabelLine(post),
	)
	if scratch {
		s.alloc.Release(left)
	}
	s.alloc.ReleaseIfDead(instr)
	return nil
}

func (s *state) genBranch(instr *ir.Instr) *Error {
	from := s.ids[s.block]
	if !instr.IsConditional() {
		s.emit(Exit(Jmp, s.blockLabel(instr.Targets[0]), from))
		return nil
	}
	cond, scratch, err := s.operand(instr.Operands[0], false)
	if err != nil {
		return err
	}
	s.emit(
		Bin(Cmp, Imm(1), cond),
		Exit(Je, s.blockLabel(instr.Targets[0]), from),
		Exit(Jmp, s.blockLabel(instr.Targets[1]), from),
	)
	if scratch {
		s.alloc.Release(cond)
	}
	s.alloc.ReleaseIfDead(instr)
	return nil
}

// genPhis lowers the leading phis of a block as one dispatch on the
// id of the block control came from. With more than one phi the copies
// of an arm go through the stack so that phis reading each other see
// the values from before the merge.
func (s *state) genPhis(b *ir.Block, phis []*ir.Instr) *Error {
	dests := make([]asm.Operand, len(phis))
	for i, phi := range phis {
		loc, err := s.dest(phi)
		if err != nil {
			return err
		}
		dests[i] = loc
	}
	preds := phis[0].Incoming
	arms := make([]string, len(preds))
	for k := range preds {
		arms[k] = s.newLabel()
	}
	join := s.newLabel()

	for k, pred := range preds {
		id, ok := s.ids[pred]
		if !ok {
			return msg.ErrorMalformedPhi(s.fn, phis[0], "incoming block "+pred.Label+" is not reachable")
		}
		s.emit(
			Bin(Cmp, Imm(int64(id)), Provenance),
			Unary(Je, LabelOp(arms[k])),
		)
	}
	for k, pred := range preds {
		s.emit(LabelLine(arms[k]))
		srcs := make([]asm.Operand, len(phis))
		for i, phi := range phis {
			op, ok := incomingFor(phi, pred)
			if !ok {
				return msg.ErrorMalformedPhi(s.fn, phi, "no incoming value for "+pred.Label)
			}
			loc, _, err := s.operand(op, true)
			if err != nil {
				return err
			}
			srcs[i] = loc
		}
		if len(phis) == 1 {
			s.emit(Bin(Mov, srcs[0], dests[0]))
		} else {
			for _, src := range srcs {
				s.emit(Unary(Push, src))
			}
			for i := len(dests) - 1; i >= 0; i-- {
				s.emit(Unary(Pop, dests[i]))
			}
		}
		s.emit(Unary(Jmp, LabelOp(join)))
	}
	s.emit(LabelLine(join))
	for _, phi := range phis {
		s.alloc.ReleaseIfDead(phi)
	}
	return nil
}

func incomingFor(phi *ir.Instr, pred *ir.Block) (ir.Operand, bool) {
	for i, from := range phi.Incoming {
		if from == pred {
			return phi.Operands[i], true
		}
	}
	return ir.Operand{}, false
}
