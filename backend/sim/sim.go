// Package sim executes assigned instruction streams on a model of the
// x86-64 subset the generator emits. It is used to check generated code
// against direct evaluation of the IR.
package sim

import (
	"ssagen/config"
	. "ssagen/core"
	"ssagen/core/asm"
	ik "ssagen/core/asm/instrkind"
	msg "ssagen/messages"

	"context"
	"fmt"
	"io"
	"math"
	"math/bits"
)

const (
	stackBase = int64(1) << 40
	sentinel  = int64(-1) // return address that ends Call
	sysExit   = 60
	poison    = int64(0x5a5a5a5a00000000)
)

// volatile registers an intrinsic is allowed to destroy
var volatile = []asm.Register{asm.RCX, asm.RDX, asm.RSI, asm.RDI, asm.R8, asm.R9, asm.R10, asm.R11}

type Machine struct {
	// Hooks implement functions that are called but not defined in the
	// program, they receive the argument register and return rax.
	Hooks map[string]func(int64) int64
	// Trace, when set, receives every executed instruction
	Trace io.Writer

	target *config.Target
	code   []asm.Line
	owner  []string // procedure of each line
	labels map[string]int

	regs   [asm.NumRegisters]int64
	mem    map[int64]int64
	pc     int
	cmpDst int64
	cmpSrc int64

	steps  int64
	halted bool
	status int64
}

func New(P *asm.Program, t *config.Target) (*Machine, *Error) {
	m := &Machine{
		Hooks:  map[string]func(int64) int64{},
		target: t,
		labels: map[string]int{},
	}
	err := m.load(asm.StartLabel, P.Entry)
	if err != nil {
		return nil, err
	}
	for _, proc := range P.Procs {
		if !proc.Assigned {
			return nil, msg.ErrorExecutionFault(proc.Label, "procedure has no registers assigned")
		}
		err := m.load(proc.Label, proc.Code)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Machine) load(label string, code []asm.Line) *Error {
	lines := append([]asm.Line{{Label: label, IsLabel: true}}, code...)
	for _, line := range lines {
		if line.IsLabel {
			if _, ok := m.labels[line.Label]; ok {
				return msg.ErrorExecutionFault(label, "duplicated label "+line.Label)
			}
			m.labels[line.Label] = len(m.code)
		}
		m.code = append(m.code, line)
		m.owner = append(m.owner, label)
	}
	return nil
}

// reset clears memory and fills the registers with fill + register number
func (m *Machine) reset(fill int64) {
	for i := range m.regs {
		m.regs[i] = fill + int64(i)
	}
	m.regs[asm.RSP] = stackBase
	m.mem = map[int64]int64{}
	m.steps = 0
	m.halted = false
	m.status = 0
}

// Run starts at _start and runs until the program exits
func (m *Machine) Run(ctx context.Context) (int64, *Error) {
	m.reset(0)
	m.regs[asm.RDI] = 0 // main gets a zero argument
	m.pc = m.labels[asm.StartLabel]
	for !m.halted {
		err := m.step(ctx)
		if err != nil {
			return 0, err
		}
	}
	return m.status, nil
}

// Call runs a single function with the given argument and returns its
// result. It fails if the function does not leave the stack pointer,
// the frame pointer and the callee saved registers as it found them.
func (m *Machine) Call(ctx context.Context, name string, arg int64) (int64, *Error) {
	target, ok := m.labels[name]
	if !ok {
		return 0, msg.ErrorExecutionFault(name, "no such function")
	}
	m.reset(poison)
	m.regs[asm.RDI] = arg
	m.regs[m.target.ArgumentReg()] = arg
	m.push(sentinel)
	before := m.regs
	m.pc = target
	for !m.halted {
		err := m.step(ctx)
		if err != nil {
			return 0, err
		}
	}
	preserved := append([]asm.Register{asm.RSP, asm.RBP}, m.target.CalleeSavedRegs()...)
	for _, r := range preserved {
		want := before[r]
		if r == asm.RSP {
			want += 8 // the sentinel was popped
		}
		if m.regs[r] != want {
			return 0, msg.ErrorExecutionFault(name, fmt.Sprintf("%v not preserved: %#x != %#x", r, m.regs[r], want))
		}
	}
	return m.regs[asm.RAX], nil
}

func (m *Machine) Steps() int64 {
	return m.steps
}

func (m *Machine) fault(message string) *Error {
	where := asm.StartLabel
	if m.pc >= 0 && m.pc < len(m.owner) {
		where = m.owner[m.pc]
	}
	return msg.ErrorExecutionFault(where, message)
}

func (m *Machine) step(ctx context.Context) *Error {
	if m.pc < 0 || m.pc >= len(m.code) {
		return m.fault(fmt.Sprintf("jump outside of the program (%d)", m.pc))
	}
	m.steps++
	if m.steps > m.target.MaxSteps {
		return m.fault("step budget exhausted")
	}
	if m.steps%4096 == 0 && ctx.Err() != nil {
		return m.fault(ctx.Err().Error())
	}
	line := m.code[m.pc]
	m.pc++
	if line.IsLabel {
		return nil
	}
	if m.Trace != nil {
		fmt.Fprintf(m.Trace, "%v\t%v\n", m.owner[m.pc-1], line.Instr.String())
	}
	return m.exec(line.Instr)
}

func (m *Machine) exec(instr asm.Instr) *Error {
	ops := instr.Operands
	switch instr.Kind {
	case ik.Mov, ik.Movabs:
		v, err := m.read(ops[0])
		if err != nil {
			return err
		}
		return m.write(ops[1], v)
	case ik.Add, ik.Sub:
		src, err := m.read(ops[0])
		if err != nil {
			return err
		}
		dst, err := m.read(ops[1])
		if err != nil {
			return err
		}
		if instr.Kind == ik.Add {
			return m.write(ops[1], dst+src)
		}
		return m.write(ops[1], dst-src)
	case ik.Cmp:
		src, err := m.read(ops[0])
		if err != nil {
			return err
		}
		dst, err := m.read(ops[1])
		if err != nil {
			return err
		}
		m.cmpSrc, m.cmpDst = src, dst
		return nil
	case ik.Jmp:
		return m.jump(ops[0])
	case ik.Je, ik.Jne, ik.Jl, ik.Jg:
		if m.taken(instr.Kind) {
			return m.jump(ops[0])
		}
		return nil
	case ik.Push:
		v, err := m.read(ops[0])
		if err != nil {
			return err
		}
		m.push(v)
		return nil
	case ik.Pop:
		return m.write(ops[0], m.pop())
	case ik.Call:
		return m.call(ops[0])
	case ik.Ret:
		ret := m.pop()
		if ret == sentinel {
			m.halted = true
			return nil
		}
		m.pc = int(ret)
		return nil
	case ik.IMul:
		src, err := m.read(ops[0])
		if err != nil {
			return err
		}
		a := m.regs[asm.RAX]
		m.regs[asm.RDX] = mulHigh(a, src)
		m.regs[asm.RAX] = a * src
		return nil
	case ik.Cqo:
		if m.regs[asm.RAX] < 0 {
			m.regs[asm.RDX] = -1
		} else {
			m.regs[asm.RDX] = 0
		}
		return nil
	case ik.IDiv:
		return m.idiv(ops[0])
	case ik.Syscall:
		if m.regs[asm.RAX] != sysExit {
			return m.fault(fmt.Sprintf("unsupported syscall %d", m.regs[asm.RAX]))
		}
		m.halted = true
		m.status = m.regs[asm.RDI]
		return nil
	}
	return m.fault("cannot execute " + instr.String())
}

func (m *Machine) taken(k ik.InstrKind) bool {
	switch k {
	case ik.Je:
		return m.cmpDst == m.cmpSrc
	case ik.Jne:
		return m.cmpDst != m.cmpSrc
	case ik.Jl:
		return m.cmpDst < m.cmpSrc
	case ik.Jg:
		return m.cmpDst > m.cmpSrc
	}
	return false
}

func (m *Machine) jump(op asm.Operand) *Error {
	if op.Kind != asm.Label {
		return m.fault("jump to non label " + op.String())
	}
	target, ok := m.labels[op.Label]
	if !ok {
		return m.fault("jump to undefined label " + op.Label)
	}
	m.pc = target
	return nil
}

func (m *Machine) call(op asm.Operand) *Error {
	if op.Kind != asm.Label {
		return m.fault("call to non label " + op.String())
	}
	if target, ok := m.labels[op.Label]; ok {
		m.push(int64(m.pc))
		m.pc = target
		return nil
	}
	hook, ok := m.Hooks[op.Label]
	if !ok {
		return m.fault("call to undefined function " + op.Label)
	}
	result := hook(m.regs[m.target.ArgumentReg()])
	for _, r := range volatile {
		m.regs[r] = poison
	}
	m.regs[asm.RAX] = result
	return nil
}

func (m *Machine) idiv(op asm.Operand) *Error {
	d, err := m.read(op)
	if err != nil {
		return err
	}
	if d == 0 {
		return msg.ErrorDivisionByZero(m.owner[m.pc-1])
	}
	a := m.regs[asm.RAX]
	if m.regs[asm.RDX] != a>>63 {
		return m.fault("idiv with a dividend wider than 64 bits")
	}
	if a == math.MinInt64 && d == -1 {
		return m.fault("division overflow")
	}
	m.regs[asm.RAX] = a / d
	m.regs[asm.RDX] = a % d
	return nil
}

func (m *Machine) push(v int64) {
	m.regs[asm.RSP] -= 8
	m.mem[m.regs[asm.RSP]] = v
}

func (m *Machine) pop() int64 {
	v := m.mem[m.regs[asm.RSP]]
	m.regs[asm.RSP] += 8
	return v
}

func (m *Machine) read(op asm.Operand) (int64, *Error) {
	switch op.Kind {
	case asm.Reg:
		return m.regs[op.Reg], nil
	case asm.Const:
		return op.Num, nil
	case asm.Frame:
		addr := m.regs[asm.RBP] + op.Num
		v, ok := m.mem[addr]
		if !ok {
			return 0, m.fault("read of uninitialized memory at " + op.String())
		}
		return v, nil
	}
	return 0, m.fault("cannot read operand " + op.String())
}

func (m *Machine) write(op asm.Operand, v int64) *Error {
	switch op.Kind {
	case asm.Reg:
		m.regs[op.Reg] = v
		return nil
	case asm.Frame:
		m.mem[m.regs[asm.RBP]+op.Num] = v
		return nil
	}
	return m.fault("cannot write operand " + op.String())
}

// mulHigh is the upper half of the signed 128 bit product
func mulHigh(a, b int64) int64 {
	hi, _ := bits.Mul64(uint64(a), uint64(b))
	h := int64(hi)
	if a < 0 {
		h -= b
	}
	if b < 0 {
		h -= a
	}
	return h
}
