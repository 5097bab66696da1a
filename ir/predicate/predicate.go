package predicate

type Predicate int

func (this Predicate) String() string {
	switch this {
	case Eq:
		return "eq"
	case Ne:
		return "ne"
	case Slt:
		return "slt"
	case Sle:
		return "sle"
	case Sgt:
		return "sgt"
	case Sge:
		return "sge"
	}
	return "invalid predicate"
}

const (
	InvalidPredicate Predicate = iota
	Eq
	Ne
	Slt
	Sle
	Sgt
	Sge
)

func Eval(p Predicate, a, b int64) bool {
	switch p {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Slt:
		return a < b
	case Sle:
		return a <= b
	case Sgt:
		return a > b
	case Sge:
		return a >= b
	}
	panic("invalid predicate")
}
