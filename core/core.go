package core

import (
	"fmt"
	"os"
	et "ssagen/core/errorkind"
	sv "ssagen/core/severity"
	"strconv"
	"strings"
)

type Position struct {
	Line   int
	Column int
}

func (this Position) String() string {
	return strconv.FormatInt(int64(this.Line), 10) + ":" +
		strconv.FormatInt(int64(this.Column), 10)
}

func (this Position) MoreOrEqualsThan(other Position) bool {
	if this.Line == other.Line {
		return this.Column >= other.Column
	}
	return this.Line > other.Line
}

type Range struct {
	Begin Position
	End   Position
}

func (this Range) String() string {
	if this.Begin.MoreOrEqualsThan(this.End) {
		return this.Begin.String()
	}
	return this.Begin.String() + " to " + this.End.String()
}

// Location points either at a source file range or, for errors raised
// after the frontend, at a function (and optionally a block) of the IR.
type Location struct {
	File     string
	Range    *Range
	Function string
	Block    string
}

func (this *Location) String() string {
	if this == nil {
		return ""
	}
	output := this.File
	if this.Range != nil {
		output += ":" + this.Range.String()
	}
	if this.Function != "" {
		if output != "" {
			output += " "
		}
		output += "in " + this.Function
		if this.Block != "" {
			output += "." + this.Block
		}
	}
	return output
}

// Source returns the lines covered by the location, with the range
// highlighted. Lines are 1-based, columns are 1-based.
func (this *Location) Source() string {
	if this == nil || this.Range == nil || this.File == "" {
		return ""
	}
	contents, err := os.ReadFile(this.File)
	if err != nil {
		return ""
	}
	lines := strings.Split(string(contents), "\n")
	var sb strings.Builder
	begin, end := this.Range.Begin, this.Range.End
	if end.Line < begin.Line {
		end = begin
	}
	for i := begin.Line; i <= end.Line && i-1 < len(lines); i++ {
		if i < 1 {
			continue
		}
		line := lines[i-1]
		sb.WriteString("    \u001b[36m")
		if i == begin.Line && begin.Column-1 <= len(line) && begin.Column > 0 {
			sb.WriteString(expandTabs(line[:begin.Column-1]))
			sb.WriteString("\u001b[31m")
			sb.WriteString(expandTabs(line[begin.Column-1:]))
		} else {
			sb.WriteString(expandTabs(line))
		}
		sb.WriteString("\u001b[0m\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

type Error struct {
	Code     et.ErrorKind
	Severity sv.Severity
	Message  string
	Location *Location
}

func (this *Error) String() string {
	message := this.Severity.String() + ": " + this.Message
	if loc := this.Location.String(); loc != "" {
		message = loc + " " + message
	}
	source := this.Location.Source()
	if source != "" {
		return message + "\n" + source
	}
	return message
}

func (this *Error) Error() string {
	return this.ErrCode() + " " + this.String()
}

func (this *Error) ErrCode() string {
	return this.Code.String()
}

func ProcessFileError(e error) *Error {
	return &Error{
		Code:     et.FileError,
		Severity: sv.Error,
		Message:  e.Error(),
	}
}

// Recovered turns a panic value raised by an internal invariant check
// into an internal compiler error.
func Recovered(r any) *Error {
	return &Error{
		Code:     et.InternalCompilerError,
		Severity: sv.InternalError,
		Message:  fmt.Sprint(r),
	}
}
