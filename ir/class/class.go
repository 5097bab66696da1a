package class

type Class int

func (c Class) String() string {
	switch c {
	case Temp:
		return "temp"
	case Arg:
		return "arg"
	case Lit:
		return "lit"
	}
	return "?"
}

const (
	InvalidClass Class = iota

	Temp
	Arg
	Lit
)

func IsOperable(c Class) bool {
	return c == Temp ||
		c == Arg ||
		c == Lit
}

// IsValue is true for operands that reference an SSA value
func IsValue(c Class) bool {
	return c == Temp ||
		c == Arg
}
