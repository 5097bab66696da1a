package util

import (
	. "ssagen/core"
	et "ssagen/core/errorkind"
	sv "ssagen/core/severity"
)

func Place(function, block string) *Location {
	return &Location{
		Function: function,
		Block:    block,
	}
}

func PlaceSource(file string, begin, end Position) *Location {
	return &Location{
		File:  file,
		Range: &Range{Begin: begin, End: end},
	}
}

func NewError(t et.ErrorKind, loc *Location, message string) *Error {
	return &Error{
		Code:     t,
		Severity: sv.Error,
		Location: loc,
		Message:  message,
	}
}
