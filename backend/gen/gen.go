package gen

import (
	"ssagen/backend/resalloc"
	"ssagen/config"
	. "ssagen/core"
	"ssagen/core/asm"
	. "ssagen/core/asm/util"
	"ssagen/ir"
	IT "ssagen/ir/instrkind"
	msg "ssagen/messages"

	"log/slog"
	"strconv"
	"strings"
)

// Generate lowers every function of the program and assigns registers
func Generate(P *ir.Program, t *config.Target) (*asm.Program, *Error) {
	output, err := Lower(P, t)
	if err != nil {
		return nil, err
	}
	resalloc.Assign(output, t)
	return output, nil
}

// Lower produces the symbolic instruction stream: operands still refer
// to slots, the frame size and the provenance register.
func Lower(P *ir.Program, t *config.Target) (*asm.Program, *Error) {
	output := &asm.Program{
		Name:  P.Name,
		Entry: genEntry(t),
		Procs: []*asm.Procedure{},
	}
	alloc := resalloc.New(t)
	for _, fn := range P.Funcs {
		if fn.IsDeclaration() || strings.HasPrefix(fn.Name, t.IntrinsicPrefix) {
			continue
		}
		proc, err := genFunction(fn, t, alloc)
		if err != nil {
			return nil, err
		}
		output.Procs = append(output.Procs, proc)
	}
	return output, nil
}

type state struct {
	target *config.Target
	fn     *ir.Function
	alloc  *resalloc.Allocator

	code    []asm.Line
	ids     map[*ir.Block]int
	counter int
	block   *ir.Block
}

func genFunction(fn *ir.Function, t *config.Target, alloc *resalloc.Allocator) (*asm.Procedure, *Error) {
	s := &state{
		target: t,
		fn:     fn,
		alloc:  alloc,
		code:   []asm.Line{},
		ids:    map[*ir.Block]int{},
	}
	proc := &asm.Procedure{Label: fn.Name}

	fn.ComputePreds()
	order := fn.VisitOrder()
	for i, b := range order {
		s.ids[b] = i
		proc.Blocks = append(proc.Blocks, asm.BlockID{
			Name:  b.Label,
			ID:    i,
			Label: s.label(i),
		})
	}
	s.counter = len(order)

	alloc.EnterFunction(fn)
	s.genPrologue()
	for _, b := range order {
		s.block = b
		alloc.EnterBlock(b)
		s.emit(LabelLine(s.blockLabel(b)))
		err := s.genBlock(b)
		if err != nil {
			return nil, err
		}
	}
	proc.Code = s.code
	proc.NumOfSlots = alloc.Peak()
	slog.Debug("lowered function", "name", fn.Name,
		"blocks", len(order), "slots", proc.NumOfSlots)
	return proc, nil
}

func (s *state) emit(lines ...asm.Line) {
	s.code = append(s.code, lines...)
}

func (s *state) label(n int) string {
	return s.target.LabelPrefix + s.fn.Name + "_" + strconv.Itoa(n)
}

func (s *state) blockLabel(b *ir.Block) string {
	id, ok := s.ids[b]
	if !ok {
		panic("block " + b.Label + " of " + s.fn.Name + " was never visited")
	}
	return s.label(id)
}

// newLabel draws from the same counter as the block ids
func (s *state) newLabel() string {
	l := s.label(s.counter)
	s.counter++
	return l
}

func (s *state) genBlock(b *ir.Block) *Error {
	phis := b.Phis()
	if len(phis) > 0 {
		err := s.genPhis(b, phis)
		if err != nil {
			return err
		}
	}
	for _, instr := range b.Code[len(phis):] {
		err := s.genInstr(instr)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) genInstr(instr *ir.Instr) *Error {
	switch instr.T {
	case IT.Add, IT.Sub:
		return s.genAddSub(instr)
	case IT.Mult, IT.Div:
		return s.genMulDiv(instr)
	case IT.Compare:
		return s.genCompare(instr)
	case IT.Call:
		return s.genCall(instr)
	case IT.Branch:
		return s.genBranch(instr)
	case IT.Return:
		return s.genReturn(instr)
	case IT.Phi:
		return msg.ErrorUnsupportedOperand(s.fn, instr, "phi after the start of the block")
	}
	return msg.ErrorUnsupportedOperand(s.fn, instr, "no lowering rule for instruction")
}
