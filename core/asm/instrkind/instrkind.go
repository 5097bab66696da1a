package instrkind

type InstrKind int

const (
	InvalidInstrKind InstrKind = iota
	Mov
	Movabs
	Cmp
	Push
	Pop
	Jmp
	Je
	Jne
	Jl
	Jg
	Call
	Add
	Sub
	IMul
	IDiv
	Cqo
	Ret
	Syscall
)

// String returns the GNU assembler mnemonic, quadword sized where
// the operand size would be ambiguous.
func (k InstrKind) String() string {
	switch k {
	case Mov:
		return "movq"
	case Movabs:
		return "movabsq"
	case Cmp:
		return "cmpq"
	case Push:
		return "pushq"
	case Pop:
		return "popq"
	case Jmp:
		return "jmp"
	case Je:
		return "je"
	case Jne:
		return "jne"
	case Jl:
		return "jl"
	case Jg:
		return "jg"
	case Call:
		return "call"
	case Add:
		return "addq"
	case Sub:
		return "subq"
	case IMul:
		return "imulq"
	case IDiv:
		return "idivq"
	case Cqo:
		return "cqto"
	case Ret:
		return "ret"
	case Syscall:
		return "syscall"
	}
	return "invalid"
}

func StringToKind(s string) InstrKind {
	for k := Mov; k <= Syscall; k++ {
		if k.String() == s {
			return k
		}
	}
	return InvalidInstrKind
}

func IsJump(k InstrKind) bool {
	return k == Jmp || IsCondJump(k)
}

func IsCondJump(k InstrKind) bool {
	return k == Je ||
		k == Jne ||
		k == Jl ||
		k == Jg
}

// IsTwoOperand lists instructions whose operands are (source, destination)
func IsTwoOperand(k InstrKind) bool {
	return k == Mov ||
		k == Movabs ||
		k == Cmp ||
		k == Add ||
		k == Sub
}
