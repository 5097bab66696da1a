// Package interp evaluates IR programs directly, it is the reference the
// generated code is compared against.
package interp

import (
	"ssagen/config"
	. "ssagen/core"
	"ssagen/ir"
	IT "ssagen/ir/instrkind"
	PK "ssagen/ir/predicate"
	msg "ssagen/messages"

	"context"
	"math"
)

const maxDepth = 10_000

type Interpreter struct {
	// Hooks implement functions without a body
	Hooks map[string]func(int64) int64

	p      *ir.Program
	target *config.Target
	steps  int64
}

func New(P *ir.Program, t *config.Target) *Interpreter {
	return &Interpreter{
		Hooks:  map[string]func(int64) int64{},
		p:      P,
		target: t,
	}
}

// Run evaluates the entry function with a zero argument
func (this *Interpreter) Run(ctx context.Context) (int64, *Error) {
	return this.Call(ctx, this.target.Entry, 0)
}

func (this *Interpreter) Call(ctx context.Context, name string, arg int64) (int64, *Error) {
	this.steps = 0
	return this.call(ctx, name, arg, 0)
}

func (this *Interpreter) Steps() int64 {
	return this.steps
}

func (this *Interpreter) call(ctx context.Context, name string, arg int64, depth int) (int64, *Error) {
	fn := this.p.Func(name)
	if fn == nil || fn.IsDeclaration() {
		hook, ok := this.Hooks[name]
		if !ok {
			return 0, msg.ErrorExecutionFault(name, "call to undefined function")
		}
		return hook(arg), nil
	}
	if depth > maxDepth {
		return 0, msg.ErrorExecutionFault(name, "call stack too deep")
	}
	fr := &frame{fn: fn, env: map[*ir.Value]int64{}}
	if len(fn.Params) > 0 {
		fr.env[fn.Params[0]] = arg
	}
	b := fn.Entry()
	var prev *ir.Block
	for {
		phis := b.Phis()
		incoming := make([]int64, len(phis))
		for i, phi := range phis {
			op, ok := incomingFor(phi, prev)
			if !ok {
				return 0, msg.ErrorExecutionFault(name, "no incoming value in "+phi.String())
			}
			v, err := fr.value(op)
			if err != nil {
				return 0, err
			}
			incoming[i] = v
		}
		for i, phi := range phis {
			fr.env[phi.Dest] = incoming[i]
		}

		next, result, err := this.block(ctx, fr, b.Code[len(phis):], depth)
		if err != nil {
			return 0, err
		}
		if next == nil {
			return result, nil
		}
		prev, b = b, next
	}
}

// block runs the instructions of a block and returns the successor, or
// nil and the result when the function returns.
func (this *Interpreter) block(ctx context.Context, fr *frame, code []*ir.Instr, depth int) (*ir.Block, int64, *Error) {
	name := fr.fn.Name
	for _, instr := range code {
		this.steps++
		if this.steps > this.target.MaxSteps {
			return nil, 0, msg.ErrorExecutionFault(name, "step budget exhausted")
		}
		if this.steps%4096 == 0 && ctx.Err() != nil {
			return nil, 0, msg.ErrorExecutionFault(name, ctx.Err().Error())
		}
		ops := make([]int64, len(instr.Operands))
		for i, op := range instr.Operands {
			v, err := fr.value(op)
			if err != nil {
				return nil, 0, err
			}
			ops[i] = v
		}
		switch instr.T {
		case IT.Add:
			fr.env[instr.Dest] = ops[0] + ops[1]
		case IT.Sub:
			fr.env[instr.Dest] = ops[0] - ops[1]
		case IT.Mult:
			fr.env[instr.Dest] = ops[0] * ops[1]
		case IT.Div:
			if ops[1] == 0 {
				return nil, 0, msg.ErrorDivisionByZero(name)
			}
			if ops[0] == math.MinInt64 && ops[1] == -1 {
				return nil, 0, msg.ErrorExecutionFault(name, "division overflow")
			}
			fr.env[instr.Dest] = ops[0] / ops[1]
		case IT.Compare:
			fr.env[instr.Dest] = 0
			if PK.Eval(instr.Pred, ops[0], ops[1]) {
				fr.env[instr.Dest] = 1
			}
		case IT.Call:
			arg := int64(0)
			if len(ops) > 0 {
				arg = ops[0]
			}
			v, err := this.call(ctx, instr.Callee, arg, depth+1)
			if err != nil {
				return nil, 0, err
			}
			fr.env[instr.Dest] = v
		case IT.Branch:
			if !instr.IsConditional() || ops[0] == 1 {
				return instr.Targets[0], 0, nil
			}
			return instr.Targets[1], 0, nil
		case IT.Return:
			if len(ops) == 0 {
				return nil, 0, nil
			}
			return nil, ops[0], nil
		default:
			return nil, 0, msg.ErrorExecutionFault(name, "cannot evaluate "+instr.String())
		}
	}
	return nil, 0, msg.ErrorExecutionFault(name, "block without terminator")
}

type frame struct {
	fn  *ir.Function
	env map[*ir.Value]int64
}

func (this *frame) value(op ir.Operand) (int64, *Error) {
	if op.IsLit() {
		return op.Num, nil
	}
	v, ok := this.env[op.Value]
	if !ok {
		return 0, msg.ErrorExecutionFault(this.fn.Name, "use of "+op.Value.String()+" before its definition")
	}
	return v, nil
}

func incomingFor(phi *ir.Instr, pred *ir.Block) (ir.Operand, bool) {
	for i, from := range phi.Incoming {
		if from == pred {
			return phi.Operands[i], true
		}
	}
	return ir.Operand{}, false
}
