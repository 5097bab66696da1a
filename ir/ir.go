package ir

import (
	irc "ssagen/ir/class"
	IT "ssagen/ir/instrkind"
	PK "ssagen/ir/predicate"

	T "github.com/padeir0/pir/types"

	"strconv"
	"strings"
)

type Program struct {
	Name  string
	Funcs []*Function
}

func (this *Program) Func(name string) *Function {
	for _, f := range this.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (this *Program) String() string {
	if this == nil {
		return "nil program"
	}
	output := "; program " + this.Name + "\n"
	for _, f := range this.Funcs {
		output += "\n" + f.String()
	}
	return output
}

type Function struct {
	Name   string
	Params []*Value
	Blocks []*Block // Blocks[0] is the entry

	nextValue int
}

func (this *Function) Entry() *Block {
	if len(this.Blocks) == 0 {
		return nil
	}
	return this.Blocks[0]
}

// IsDeclaration is true for functions without a body, they are
// expected to be supplied at link time.
func (this *Function) IsDeclaration() bool {
	return len(this.Blocks) == 0
}

func (this *Function) String() string {
	params := make([]string, len(this.Params))
	for i, p := range this.Params {
		params[i] = p.Type.String() + " " + p.String()
	}
	header := "func " + this.Name + "(" + strings.Join(params, ", ") + ")"
	if this.IsDeclaration() {
		return "declare " + header + "\n"
	}
	output := header + " {\n"
	for _, b := range this.Blocks {
		output += b.String()
	}
	return output + "}\n"
}

type Block struct {
	Index int
	Label string
	Code  []*Instr
	Preds []*Block // filled by Function.ComputePreds
	Func  *Function
}

func (this *Block) String() string {
	output := this.Label + ":"
	if len(this.Preds) > 0 {
		preds := make([]string, len(this.Preds))
		for i, p := range this.Preds {
			preds[i] = p.Label
		}
		output += " ; preds = " + strings.Join(preds, ", ")
	}
	output += "\n"
	for _, instr := range this.Code {
		output += "\t" + instr.String() + "\n"
	}
	return output
}

type Value struct {
	ID   int
	Name string
	Type *T.Type
	Def  *Instr // nil for parameters
	Uses []*Instr
}

func (this *Value) IsParam() bool {
	return this.Def == nil
}

func (this *Value) String() string {
	if this == nil {
		return "nil"
	}
	return "%" + this.Name
}

// UsedByPhi is true if some phi reads this value along an edge
func (this *Value) UsedByPhi() bool {
	for _, use := range this.Uses {
		if use.T == IT.Phi {
			return true
		}
	}
	return false
}

type Operand struct {
	Class irc.Class
	Value *Value
	Num   int64
}

func Val(v *Value) Operand {
	if v.IsParam() {
		return Operand{Class: irc.Arg, Value: v}
	}
	return Operand{Class: irc.Temp, Value: v}
}

func Lit(n int64) Operand {
	return Operand{Class: irc.Lit, Num: n}
}

func (this Operand) IsLit() bool {
	return this.Class == irc.Lit
}

func (this Operand) String() string {
	switch this.Class {
	case irc.Temp, irc.Arg:
		return this.Value.String()
	case irc.Lit:
		return strconv.FormatInt(this.Num, 10)
	}
	return "?"
}

type Instr struct {
	T        IT.InstrKind
	Pred     PK.Predicate // Compare only
	Operands []Operand
	Dest     *Value
	Callee   string   // Call only
	Incoming []*Block // Phi only, parallel to Operands
	Targets  []*Block // Branch only: [target] or [true, false]
	Block    *Block
}

// Index returns the position of the instruction inside its block
func (this *Instr) Index() int {
	for i, instr := range this.Block.Code {
		if instr == this {
			return i
		}
	}
	return -1
}

func (this *Instr) IsConditional() bool {
	return this.T == IT.Branch && len(this.Targets) == 2
}

func (this *Instr) String() string {
	if this == nil {
		return "nil"
	}
	output := ""
	if this.Dest != nil {
		output = this.Dest.String() + " = "
	}
	switch this.T {
	case IT.Compare:
		return output + "icmp " + this.Pred.String() + " " + this.StrOps()
	case IT.Phi:
		edges := make([]string, len(this.Operands))
		for i, op := range this.Operands {
			edges[i] = "[" + op.String() + ", " + this.Incoming[i].Label + "]"
		}
		return output + "phi " + this.Dest.Type.String() + " " + strings.Join(edges, ", ")
	case IT.Call:
		return output + "call " + this.Callee + "(" + this.StrOps() + ")"
	case IT.Branch:
		if this.IsConditional() {
			return "br " + this.Operands[0].String() + ", " +
				this.Targets[0].Label + ", " + this.Targets[1].Label
		}
		return "br " + this.Targets[0].Label
	}
	ops := this.StrOps()
	if ops == "" {
		return output + this.T.String()
	}
	return output + this.T.String() + " " + ops
}

func (this *Instr) StrOps() string {
	ops := make([]string, len(this.Operands))
	for i, op := range this.Operands {
		ops[i] = op.String()
	}
	return strings.Join(ops, ", ")
}
