package severity

type Severity int

func (this Severity) String() string {
	switch this {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case InternalError:
		return "internal error"
	}
	panic("invalid severity")
}

const (
	InvalidSeverity Severity = iota
	Error
	Warning
	InternalError // broken invariant inside the generator
)
