package errorkind

import (
	"fmt"
)

type ErrorKind int

const (
	InvalidErrType ErrorKind = iota
	InternalCompilerError
	FileError
	InvalidConfig

	AllocationExhausted
	UnsupportedOperand
	MalformedTerminator
	MalformedPhi
	UndefinedValue
	UndefinedFunction
	NoEntryPoint
	UnreachableBlock
	ReservedName

	UnsupportedConstruct
	TypeError

	ExecutionFault
	DivisionByZero
)

func (et ErrorKind) String() string {
	v, ok := ErrorCodeMap[et]
	if !ok {
		panic(fmt.Sprintf("%d is not stringified", et))
	}
	return v
}

var ErrorCodeMap = map[ErrorKind]string{
	InvalidErrType:        "E101",
	InternalCompilerError: "E102",
	FileError:             "E103",
	InvalidConfig:         "E104",

	AllocationExhausted: "E201",
	UnsupportedOperand:  "E202",
	MalformedTerminator: "E203",
	MalformedPhi:        "E204",
	UndefinedValue:      "E205",
	UndefinedFunction:   "E206",
	NoEntryPoint:        "E207",
	UnreachableBlock:    "E208",
	ReservedName:        "E209",

	UnsupportedConstruct: "E301",
	TypeError:            "E302",

	ExecutionFault: "E401",
	DivisionByZero: "E402",
}

// FromCode is the inverse of String, used to read expected error codes
// out of test file names.
func FromCode(code string) (ErrorKind, bool) {
	for kind, c := range ErrorCodeMap {
		if c == code {
			return kind, true
		}
	}
	return InvalidErrType, false
}
