package messages

import (
	. "ssagen/core"
	et "ssagen/core/errorkind"
	. "ssagen/core/util"
	"ssagen/ir"

	"strconv"
)

func blockLabel(b *ir.Block) string {
	if b == nil {
		return ""
	}
	return b.Label
}

func ErrorMalformedTerminator(fn *ir.Function, b *ir.Block, message string) *Error {
	return NewError(et.MalformedTerminator, Place(fn.Name, blockLabel(b)), message)
}

func ErrorMalformedPhi(fn *ir.Function, instr *ir.Instr, message string) *Error {
	return NewError(et.MalformedPhi, Place(fn.Name, blockLabel(instr.Block)), message+": "+instr.String())
}

func ErrorUndefinedValue(fn *ir.Function, instr *ir.Instr, v *ir.Value) *Error {
	msg := "value " + v.String() + " is not defined in this function: " + instr.String()
	return NewError(et.UndefinedValue, Place(fn.Name, blockLabel(instr.Block)), msg)
}

func ErrorUndefinedFunction(fn *ir.Function, instr *ir.Instr) *Error {
	return NewError(et.UndefinedFunction, Place(fn.Name, blockLabel(instr.Block)), "call to undefined function "+instr.Callee)
}

func ErrorUnsupportedOperand(fn *ir.Function, instr *ir.Instr, message string) *Error {
	loc := Place(fn.Name, "")
	if instr != nil {
		loc = Place(fn.Name, blockLabel(instr.Block))
		message += ": " + instr.String()
	}
	return NewError(et.UnsupportedOperand, loc, message)
}

func ErrorNoEntryPoint(P *ir.Program, entry string) *Error {
	return NewError(et.NoEntryPoint, nil, "program "+P.Name+" has no function named "+entry)
}

func ErrorUnreachableBlock(fn *ir.Function, b *ir.Block) *Error {
	return NewError(et.UnreachableBlock, Place(fn.Name, b.Label), "block is not reachable from the entry")
}

func ErrorReservedName(fn *ir.Function, clash string) *Error {
	return NewError(et.ReservedName, Place(fn.Name, ""), "function name clashes with "+clash)
}

func ErrorAllocationExhausted(fn *ir.Function, budget int) *Error {
	msg := "all " + strconv.Itoa(budget) + " registers are in use and spilling is disabled"
	return NewError(et.AllocationExhausted, Place(fn.Name, ""), msg)
}

func ErrorInvalidConfig(file, message string) *Error {
	var loc *Location
	if file != "" {
		loc = &Location{File: file}
	}
	return NewError(et.InvalidConfig, loc, message)
}

func ErrorUnsupportedConstruct(loc *Location, what string) *Error {
	return NewError(et.UnsupportedConstruct, loc, "unsupported construct: "+what)
}

func ErrorTypeError(loc *Location, message string) *Error {
	return NewError(et.TypeError, loc, message)
}

func ErrorExecutionFault(where, message string) *Error {
	return NewError(et.ExecutionFault, Place(where, ""), message)
}

func ErrorDivisionByZero(where string) *Error {
	return NewError(et.DivisionByZero, Place(where, ""), "integer division by zero")
}
