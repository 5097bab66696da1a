package gen

import (
	"ssagen/config"
	. "ssagen/core"
	"ssagen/core/asm"
	. "ssagen/core/asm/instrkind"
	. "ssagen/core/asm/util"
	"ssagen/ir"
)

// for now, only linux syscalls
const sysExit = 60

func genEntry(t *config.Target) []asm.Line {
	return []asm.Line{
		Unary(Call, LabelOp(t.Entry)),
		Bin(Mov, Reg(asm.RAX), Reg(asm.RDI)),
		Bin(Mov, Imm(sysExit), Reg(asm.RAX)),
		Plain(Syscall),
	}
}

func (s *state) genPrologue() {
	s.emit(
		Unary(Push, RBP),
		Bin(Mov, RSP, RBP),
	)
	for _, r := range s.target.CalleeSavedRegs() {
		s.emit(Unary(Push, Reg(r)))
	}
	s.emit(Bin(Sub, FrameSize, RSP))
}

func (s *state) genEpilogue() {
	s.emit(Bin(Add, FrameSize, RSP))
	saved := s.target.CalleeSavedRegs()
	for i := len(saved) - 1; i >= 0; i-- {
		s.emit(Unary(Pop, Reg(saved[i])))
	}
	s.emit(
		Unary(Pop, RBP),
		Plain(Ret),
	)
}

func (s *state) genReturn(instr *ir.Instr) *Error {
	rax := Reg(asm.RAX)
	if len(instr.Operands) == 0 {
		s.emit(Bin(Mov, Imm(0), rax))
	} else {
		loc, _, err := s.operand(instr.Operands[0], true)
		if err != nil {
			return err
		}
		s.emit(Bin(Mov, loc, rax))
	}
	s.genEpilogue()
	s.alloc.ReleaseIfDead(instr)
	return nil
}

// genCall saves every occupied register slot, and the argument
// register while the parameter is still needed, around the call. The
// slot of the result is left out, the pops would overwrite it.
func (s *state) genCall(instr *ir.Instr) *Error {
	var arg asm.Operand
	hasArg := len(instr.Operands) == 1
	if hasArg {
		loc, _, err := s.operand(instr.Operands[0], true)
		if err != nil {
			return err
		}
		arg = loc
		// the argument is read before the call, its slot can be reused
		v := instr.Operands[0].Value
		if v != nil && s.alloc.Dead(v, instr) {
			s.alloc.Release(loc)
		}
	}

	saved := s.callerSaved(instr)
	for _, loc := range saved {
		s.emit(Unary(Push, loc))
	}
	if hasArg {
		s.emit(Bin(Mov, arg, Reg(s.target.ArgumentReg())))
	}
	s.emit(Unary(Call, LabelOp(instr.Callee)))

	dest, err := s.dest(instr)
	if err != nil {
		return err
	}
	s.emit(Bin(Mov, Reg(asm.RAX), dest))
	for i := len(saved) - 1; i >= 0; i-- {
		s.emit(Unary(Pop, saved[i]))
	}
	s.alloc.ReleaseIfDead(instr)
	return nil
}

func (s *state) callerSaved(instr *ir.Instr) []asm.Operand {
	budget := len(s.target.Registers())
	resultLoc, resultBound := s.alloc.Lookup(instr.Dest)
	output := []asm.Operand{}
	for _, loc := range s.alloc.Occupied() {
		if int(loc.Num) >= budget {
			continue // spilled slots live in this frame
		}
		if resultBound && loc == resultLoc {
			continue
		}
		output = append(output, loc)
	}
	for _, p := range s.fn.Params {
		if !s.alloc.Dead(p, instr) {
			output = append(output, Reg(s.target.ArgumentReg()))
			break
		}
	}
	return output
}
