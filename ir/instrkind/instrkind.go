package instrkind

type InstrKind int

func (this InstrKind) String() string {
	switch this {
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Mult:
		return "mul"
	case Div:
		return "sdiv"
	case Compare:
		return "icmp"
	case Phi:
		return "phi"
	case Call:
		return "call"
	case Branch:
		return "br"
	case Return:
		return "ret"
	}
	return "invalid instr"
}

const (
	InvalidInstr InstrKind = iota

	Add
	Sub
	Mult
	Div

	Compare
	Phi
	Call

	Branch
	Return
)

func IsArith(k InstrKind) bool {
	return k == Add ||
		k == Sub ||
		k == Mult ||
		k == Div
}

func IsTerminator(k InstrKind) bool {
	return k == Branch || k == Return
}

// HasResult is true for instructions that define a value
func HasResult(k InstrKind) bool {
	return IsArith(k) ||
		k == Compare ||
		k == Phi ||
		k == Call
}
