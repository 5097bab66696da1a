package asm

import (
	ik "ssagen/core/asm/instrkind"
	"strconv"
	"strings"
)

// StartLabel marks the stub that calls the entry function and exits
const StartLabel = "_start"

type Program struct {
	Name  string
	Entry []Line // runs before main, ends the process
	Procs []*Procedure
}

func (this *Program) Proc(label string) *Procedure {
	for _, p := range this.Procs {
		if p.Label == label {
			return p
		}
	}
	return nil
}

func (this *Program) String() string {
	var sb strings.Builder
	sb.WriteString(StartLabel + ":\n")
	for _, l := range this.Entry {
		sb.WriteString(l.String() + "\n")
	}
	for _, p := range this.Procs {
		sb.WriteString(p.String())
	}
	return sb.String()
}

type Procedure struct {
	Label  string
	Code   []Line
	Blocks []BlockID // in visitation order

	NumOfSlots  int // peak of concurrently used symbolic slots
	NumOfSpills int // slots that did not fit the register budget
	Assigned    bool
}

func (this *Procedure) String() string {
	var sb strings.Builder
	sb.WriteString(this.Label + ":\n")
	for _, l := range this.Code {
		sb.WriteString(l.String() + "\n")
	}
	return sb.String()
}

// BlockID records the numeric id given to an IR block and the label
// that marks it in the instruction stream.
type BlockID struct {
	Name  string
	ID    int
	Label string
}

type Line struct {
	Label string
	Instr Instr

	IsLabel bool
}

func (this Line) String() string {
	if this.IsLabel {
		return this.Label + ":"
	}
	return "\t" + this.Instr.String()
}

type Instr struct {
	Kind     ik.InstrKind
	Operands []Operand // source first, destination last

	// Exit marks a jump that leaves block From, the id is what phi
	// dispatch in the successor compares against.
	Exit bool
	From int
}

func (this Instr) String() string {
	if len(this.Operands) == 0 {
		return this.Kind.String()
	}
	ops := make([]string, len(this.Operands))
	for i, op := range this.Operands {
		ops[i] = op.String()
	}
	output := this.Kind.String() + " " + strings.Join(ops, ", ")
	if this.Exit {
		output += " <" + strconv.Itoa(this.From) + ">"
	}
	return output
}

type OperandKind int

const (
	InvalidOperandKind OperandKind = iota
	Reg
	Const
	Label
	Frame // memory at Num(%rbp)

	// symbolic until register assignment
	Slot
	FrameSize
	Provenance
)

type Operand struct {
	Kind  OperandKind
	Reg   Register
	Num   int64
	Label string
}

func (this Operand) String() string {
	switch this.Kind {
	case Reg:
		return "%" + this.Reg.String()
	case Const:
		return "$" + strconv.FormatInt(this.Num, 10)
	case Label:
		return this.Label
	case Frame:
		return strconv.FormatInt(this.Num, 10) + "(%rbp)"
	case Slot:
		return "%_" + strconv.FormatInt(this.Num, 10)
	case FrameSize:
		return "$FRAME"
	case Provenance:
		return "%PROV"
	}
	return "?"
}

func (this Operand) IsMemory() bool {
	return this.Kind == Frame
}

func (this Operand) IsSymbolic() bool {
	return this.Kind == Slot ||
		this.Kind == FrameSize ||
		this.Kind == Provenance
}

// Register numbers follow the hardware encoding
type Register int

const (
	RAX Register = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	NumRegisters
)

var registerNames = [NumRegisters]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

func (this Register) String() string {
	if this < 0 || this >= NumRegisters {
		return "r?"
	}
	return registerNames[this]
}

// RegisterByName accepts names with or without the leading '%'
func RegisterByName(name string) (Register, bool) {
	name = strings.TrimPrefix(strings.ToLower(name), "%")
	for i, n := range registerNames {
		if n == name {
			return Register(i), true
		}
	}
	return 0, false
}
