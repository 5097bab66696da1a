package checker

import (
	"ssagen/config"
	et "ssagen/core/errorkind"
	"ssagen/ir"
	PK "ssagen/ir/predicate"

	"testing"
)

// diamond is a well formed program with a merge
func diamond() *ir.Program {
	P := ir.NewProgram("diamond")
	fn := P.NewFunction("main", "x")
	entry := fn.NewBlock("")
	yes := fn.NewBlock("")
	no := fn.NewBlock("")
	join := fn.NewBlock("")
	c := entry.Compare(PK.Eq, ir.Val(fn.Params[0]), ir.Lit(0))
	entry.Branch(ir.Val(c), yes, no)
	yes.Jmp(join)
	r := no.Call("llvm.abs", ir.Val(fn.Params[0]))
	no.Jmp(join)
	phi := join.Phi()
	phi.AddIncoming(yes, ir.Lit(1))
	phi.AddIncoming(no, ir.Val(r))
	join.Return(ir.Val(phi))
	return P
}

func TestCheck(t *testing.T) {
	tests := []struct {
		Name    string
		Program func() *ir.Program
		Want    et.ErrorKind // InvalidErrType when the program is valid
	}{
		{
			Name:    "valid",
			Program: diamond,
			Want:    et.InvalidErrType,
		},
		{
			Name: "no entry point",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				b := P.NewFunction("helper").NewBlock("")
				b.Return()
				return P
			},
			Want: et.NoEntryPoint,
		},
		{
			Name: "empty block",
			Program: func() *ir.Program {
				P := diamond()
				P.Func("main").NewBlock("")
				return P
			},
			Want: et.MalformedTerminator,
		},
		{
			Name: "missing terminator",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main")
				b := fn.NewBlock("")
				b.Add(ir.Lit(1), ir.Lit(2))
				return P
			},
			Want: et.MalformedTerminator,
		},
		{
			Name: "code after the terminator",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main")
				b := fn.NewBlock("")
				b.Return()
				b.Return()
				return P
			},
			Want: et.MalformedTerminator,
		},
		{
			Name: "phi in the entry block",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main")
				b := fn.NewBlock("")
				phi := b.Phi()
				b.Return(ir.Val(phi))
				return P
			},
			Want: et.MalformedPhi,
		},
		{
			Name: "phi missing a predecessor",
			Program: func() *ir.Program {
				P := diamond()
				join := P.Func("main").Blocks[3]
				phi := join.Code[0]
				phi.Operands = phi.Operands[:1]
				phi.Incoming = phi.Incoming[:1]
				return P
			},
			Want: et.MalformedPhi,
		},
		{
			Name: "phi after other code",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main")
				entry := fn.NewBlock("")
				b := fn.NewBlock("")
				entry.Jmp(b)
				b.Add(ir.Lit(1), ir.Lit(2))
				phi := b.Phi()
				phi.AddIncoming(entry, ir.Lit(1))
				b.Return(ir.Val(phi))
				return P
			},
			Want: et.MalformedPhi,
		},
		{
			Name: "value of another function",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				other := P.NewFunction("other", "y")
				ob := other.NewBlock("")
				ob.Return(ir.Val(other.Params[0]))
				fn := P.NewFunction("main")
				b := fn.NewBlock("")
				b.Return(ir.Val(other.Params[0]))
				return P
			},
			Want: et.UndefinedValue,
		},
		{
			Name: "undefined function",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main")
				b := fn.NewBlock("")
				b.Return(ir.Val(b.Call("nowhere")))
				return P
			},
			Want: et.UndefinedFunction,
		},
		{
			Name: "wrong number of arguments",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				P.NewFunction("ext", "x")
				fn := P.NewFunction("main")
				b := fn.NewBlock("")
				b.Return(ir.Val(b.Call("ext")))
				return P
			},
			Want: et.UnsupportedOperand,
		},
		{
			Name: "two parameters",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main", "a", "b")
				b := fn.NewBlock("")
				b.Return(ir.Val(fn.Params[1]))
				return P
			},
			Want: et.UnsupportedOperand,
		},
		{
			Name: "two return values",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main")
				b := fn.NewBlock("")
				b.Return(ir.Lit(1), ir.Lit(2))
				return P
			},
			Want: et.UnsupportedOperand,
		},
		{
			Name: "unreachable block",
			Program: func() *ir.Program {
				P := ir.NewProgram("p")
				fn := P.NewFunction("main")
				fn.NewBlock("").Return()
				fn.NewBlock("dead").Return()
				return P
			},
			Want: et.UnreachableBlock,
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			err := Check(test.Program(), config.Default())
			if test.Want == et.InvalidErrType {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %v", test.Want)
			}
			if err.Code != test.Want {
				t.Fatalf("got %v (%v), want %v", err.ErrCode(), err.Message, test.Want)
			}
		})
	}
}

func TestCheckComputesPredecessors(t *testing.T) {
	P := diamond()
	err := Check(P, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	blocks := P.Func("main").Blocks
	join := blocks[3]
	if len(join.Preds) != 2 || join.Preds[0] != blocks[1] || join.Preds[1] != blocks[2] {
		t.Fatalf("join predecessors: %v", join.Preds)
	}
	if len(blocks[0].Preds) != 0 {
		t.Fatalf("entry has predecessors: %v", blocks[0].Preds)
	}
}

func TestReservedNames(t *testing.T) {
	tests := []struct {
		Name     string
		Rejected bool
	}{
		{Name: "_start", Rejected: true},
		{Name: "__main_0", Rejected: true},
		{Name: "__main_17", Rejected: true},
		{Name: "__main_", Rejected: false},
		{Name: "__main_x1", Rejected: false},
		{Name: "__absent_0", Rejected: false},
		{Name: "main_0", Rejected: false},
		{Name: "start", Rejected: false},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			P := diamond()
			fn := P.NewFunction(test.Name, "x")
			fn.NewBlock("").Return(ir.Val(fn.Params[0]))
			err := Check(P, config.Default())
			if !test.Rejected {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Code != et.ReservedName {
				t.Fatalf("expected %v, got %v", et.ReservedName, err)
			}
		})
	}

	// a label prefix that cannot start a Go identifier frees those names
	tg := config.Default()
	tg.LabelPrefix = ".L"
	P := diamond()
	fn := P.NewFunction("__main_0")
	fn.NewBlock("").Return(ir.Lit(1))
	if err := Check(P, tg); err != nil {
		t.Fatalf("unexpected error with prefix %q: %v", tg.LabelPrefix, err)
	}
}
