package ir

import (
	IT "ssagen/ir/instrkind"
	PK "ssagen/ir/predicate"

	T "github.com/padeir0/pir/types"

	"strconv"
)

func NewProgram(name string) *Program {
	return &Program{Name: name, Funcs: []*Function{}}
}

// NewFunction appends a function whose parameters are 64 bit integers
func (this *Program) NewFunction(name string, params ...string) *Function {
	f := &Function{Name: name}
	for _, p := range params {
		v := f.newValue(T.T_I64)
		v.Name = p
		f.Params = append(f.Params, v)
	}
	this.Funcs = append(this.Funcs, f)
	return f
}

// NewBlock appends a block, an empty label is replaced by "b<index>"
func (this *Function) NewBlock(label string) *Block {
	index := len(this.Blocks)
	if label == "" {
		label = "b" + strconv.Itoa(index)
	}
	b := &Block{Index: index, Label: label, Func: this}
	this.Blocks = append(this.Blocks, b)
	return b
}

func (this *Function) newValue(t *T.Type) *Value {
	v := &Value{
		ID:   this.nextValue,
		Name: "t" + strconv.Itoa(this.nextValue),
		Type: t,
	}
	this.nextValue++
	return v
}

func (this *Block) place(instr *Instr) *Instr {
	instr.Block = this
	for _, op := range instr.Operands {
		if op.Value != nil {
			op.Value.Uses = append(op.Value.Uses, instr)
		}
	}
	if instr.Dest != nil {
		instr.Dest.Def = instr
	}
	this.Code = append(this.Code, instr)
	return instr
}

func (this *Block) Arith(kind IT.InstrKind, a, b Operand) *Value {
	if !IT.IsArith(kind) {
		panic("not an arithmetic instruction: " + kind.String())
	}
	dest := this.Func.newValue(T.T_I64)
	this.place(&Instr{
		T:        kind,
		Operands: []Operand{a, b},
		Dest:     dest,
	})
	return dest
}

func (this *Block) Add(a, b Operand) *Value { return this.Arith(IT.Add, a, b) }
func (this *Block) Sub(a, b Operand) *Value { return this.Arith(IT.Sub, a, b) }
func (this *Block) Mul(a, b Operand) *Value { return this.Arith(IT.Mult, a, b) }
func (this *Block) Div(a, b Operand) *Value { return this.Arith(IT.Div, a, b) }

func (this *Block) Compare(p PK.Predicate, a, b Operand) *Value {
	dest := this.Func.newValue(T.T_Bool)
	this.place(&Instr{
		T:        IT.Compare,
		Pred:     p,
		Operands: []Operand{a, b},
		Dest:     dest,
	})
	return dest
}

// Phi places an empty merge node, edges are added with AddIncoming
// once the incoming values exist.
func (this *Block) Phi() *Value {
	dest := this.Func.newValue(T.T_I64)
	this.place(&Instr{
		T:        IT.Phi,
		Operands: []Operand{},
		Incoming: []*Block{},
		Dest:     dest,
	})
	return dest
}

func (this *Value) AddIncoming(from *Block, op Operand) {
	if this.Def == nil || this.Def.T != IT.Phi {
		panic("AddIncoming on a value that is not a phi: " + this.String())
	}
	phi := this.Def
	phi.Operands = append(phi.Operands, op)
	phi.Incoming = append(phi.Incoming, from)
	if op.Value != nil {
		op.Value.Uses = append(op.Value.Uses, phi)
	}
}

func (this *Block) Call(callee string, args ...Operand) *Value {
	dest := this.Func.newValue(T.T_I64)
	this.place(&Instr{
		T:        IT.Call,
		Callee:   callee,
		Operands: args,
		Dest:     dest,
	})
	return dest
}

func (this *Block) Jmp(target *Block) {
	this.place(&Instr{
		T:        IT.Branch,
		Operands: []Operand{},
		Targets:  []*Block{target},
	})
}

func (this *Block) Branch(cond Operand, t, f *Block) {
	this.place(&Instr{
		T:        IT.Branch,
		Operands: []Operand{cond},
		Targets:  []*Block{t, f},
	})
}

func (this *Block) Return(ops ...Operand) {
	this.place(&Instr{
		T:        IT.Return,
		Operands: ops,
	})
}
