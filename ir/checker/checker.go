package checker

import (
	"ssagen/config"
	. "ssagen/core"
	"ssagen/core/asm"
	"ssagen/ir"
	irc "ssagen/ir/class"
	IT "ssagen/ir/instrkind"
	PK "ssagen/ir/predicate"
	msg "ssagen/messages"

	"strings"
)

// Check verifies the structural contract the code generator relies on.
// It also recomputes the predecessor lists of every function.
func Check(P *ir.Program, t *config.Target) *Error {
	entry := P.Func(t.Entry)
	if entry == nil || entry.IsDeclaration() {
		return msg.ErrorNoEntryPoint(P, t.Entry)
	}
	for _, fn := range P.Funcs {
		if clash := reservedClash(P, fn.Name, t.LabelPrefix); clash != "" {
			return msg.ErrorReservedName(fn, clash)
		}
	}
	for _, fn := range P.Funcs {
		if fn.IsDeclaration() || strings.HasPrefix(fn.Name, t.IntrinsicPrefix) {
			continue
		}
		s := &state{p: P, fn: fn, target: t}
		err := s.checkFunction()
		if err != nil {
			return err
		}
	}
	return nil
}

// reservedClash names the generated symbol a function called name would
// duplicate: the start stub or a block label "<prefix><fn>_<n>".
func reservedClash(P *ir.Program, name, prefix string) string {
	if name == asm.StartLabel {
		return "the start stub"
	}
	rest, ok := strings.CutPrefix(name, prefix)
	if !ok {
		return ""
	}
	i := strings.LastIndexByte(rest, '_')
	if i < 0 {
		return ""
	}
	owner, num := rest[:i], rest[i+1:]
	if num == "" || strings.Trim(num, "0123456789") != "" {
		return ""
	}
	fn := P.Func(owner)
	if fn == nil || fn.IsDeclaration() {
		return ""
	}
	return "a label of " + owner
}

type state struct {
	p       *ir.Program
	fn      *ir.Function
	target  *config.Target
	defined map[*ir.Value]bool
}

func (s *state) checkFunction() *Error {
	fn := s.fn
	if len(fn.Params) > 1 {
		return msg.ErrorUnsupportedOperand(fn, nil, "functions take at most one parameter")
	}
	fn.ComputePreds()
	s.defined = map[*ir.Value]bool{}
	for _, p := range fn.Params {
		s.defined[p] = true
	}
	for _, b := range fn.Blocks {
		for _, instr := range b.Code {
			if instr.Dest != nil {
				s.defined[instr.Dest] = true
			}
		}
	}
	for _, b := range fn.Blocks {
		err := s.checkBlock(b)
		if err != nil {
			return err
		}
	}
	return s.checkReachable()
}

func (s *state) checkReachable() *Error {
	reached := map[*ir.Block]bool{}
	for _, b := range s.fn.VisitOrder() {
		reached[b] = true
	}
	for _, b := range s.fn.Blocks {
		if !reached[b] {
			return msg.ErrorUnreachableBlock(s.fn, b)
		}
	}
	return nil
}

func (s *state) checkBlock(b *ir.Block) *Error {
	if len(b.Code) == 0 {
		return msg.ErrorMalformedTerminator(s.fn, b, "empty block")
	}
	last := len(b.Code) - 1
	seenOther := false
	for i, instr := range b.Code {
		if IT.IsTerminator(instr.T) && i != last {
			return msg.ErrorMalformedTerminator(s.fn, b, "terminator before the end of the block: "+instr.String())
		}
		if instr.T == IT.Phi {
			if seenOther {
				return msg.ErrorMalformedPhi(s.fn, instr, "phi after a non-phi instruction")
			}
		} else {
			seenOther = true
		}
		err := s.checkInstr(instr)
		if err != nil {
			return err
		}
	}
	if !IT.IsTerminator(b.Code[last].T) {
		return msg.ErrorMalformedTerminator(s.fn, b, "block does not end in a branch or return")
	}
	return nil
}

func (s *state) checkInstr(instr *ir.Instr) *Error {
	for _, op := range instr.Operands {
		err := s.checkOperand(instr, op)
		if err != nil {
			return err
		}
	}
	switch instr.T {
	case IT.Add, IT.Sub, IT.Mult, IT.Div:
		return s.checkBinary(instr)
	case IT.Compare:
		if instr.Pred == PK.InvalidPredicate {
			return msg.ErrorUnsupportedOperand(s.fn, instr, "compare without predicate")
		}
		return s.checkBinary(instr)
	case IT.Phi:
		return s.checkPhi(instr)
	case IT.Call:
		return s.checkCall(instr)
	case IT.Branch:
		return s.checkBranch(instr)
	case IT.Return:
		if len(instr.Operands) > 1 {
			return msg.ErrorUnsupportedOperand(s.fn, instr, "functions return at most one value")
		}
		return nil
	}
	return msg.ErrorUnsupportedOperand(s.fn, instr, "unknown instruction kind")
}

func (s *state) checkOperand(instr *ir.Instr, op ir.Operand) *Error {
	if !irc.IsOperable(op.Class) {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "invalid operand class "+op.Class.String())
	}
	if irc.IsValue(op.Class) {
		if op.Value == nil {
			return msg.ErrorUnsupportedOperand(s.fn, instr, "value operand without value")
		}
		if !s.defined[op.Value] {
			return msg.ErrorUndefinedValue(s.fn, instr, op.Value)
		}
	}
	return nil
}

func (s *state) checkBinary(instr *ir.Instr) *Error {
	if len(instr.Operands) != 2 {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "expected two operands")
	}
	if instr.Dest == nil {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "missing destination")
	}
	return nil
}

func (s *state) checkPhi(instr *ir.Instr) *Error {
	b := instr.Block
	if b == s.fn.Entry() {
		return msg.ErrorMalformedPhi(s.fn, instr, "phi in the entry block")
	}
	if instr.Dest == nil {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "missing destination")
	}
	if len(instr.Incoming) != len(instr.Operands) {
		return msg.ErrorMalformedPhi(s.fn, instr, "incoming blocks and values differ in length")
	}
	if len(instr.Incoming) != len(b.Preds) {
		return msg.ErrorMalformedPhi(s.fn, instr, "phi must have one value per predecessor")
	}
	seen := map[*ir.Block]bool{}
	for _, from := range instr.Incoming {
		if seen[from] {
			return msg.ErrorMalformedPhi(s.fn, instr, "duplicated incoming block "+from.Label)
		}
		seen[from] = true
	}
	for _, pred := range b.Preds {
		if !seen[pred] {
			return msg.ErrorMalformedPhi(s.fn, instr, "missing incoming value for "+pred.Label)
		}
	}
	return nil
}

func (s *state) checkCall(instr *ir.Instr) *Error {
	if len(instr.Operands) > 1 {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "calls take at most one argument")
	}
	if instr.Dest == nil {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "missing destination")
	}
	if strings.HasPrefix(instr.Callee, s.target.IntrinsicPrefix) {
		return nil
	}
	callee := s.p.Func(instr.Callee)
	if callee == nil {
		return msg.ErrorUndefinedFunction(s.fn, instr)
	}
	if len(callee.Params) != len(instr.Operands) {
		return msg.ErrorUnsupportedOperand(s.fn, instr, "wrong number of arguments")
	}
	return nil
}

func (s *state) checkBranch(instr *ir.Instr) *Error {
	switch len(instr.Targets) {
	case 1:
		if len(instr.Operands) != 0 {
			return msg.ErrorMalformedTerminator(s.fn, instr.Block, "unconditional branch with a condition")
		}
	case 2:
		if len(instr.Operands) != 1 {
			return msg.ErrorMalformedTerminator(s.fn, instr.Block, "conditional branch needs exactly one condition")
		}
	default:
		return msg.ErrorMalformedTerminator(s.fn, instr.Block, "branch needs one or two targets")
	}
	for _, t := range instr.Targets {
		if t == nil || t.Func != s.fn {
			return msg.ErrorMalformedTerminator(s.fn, instr.Block, "branch target outside of the function")
		}
	}
	return nil
}
