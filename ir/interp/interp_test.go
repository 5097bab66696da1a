package interp

import (
	"ssagen/config"
	et "ssagen/core/errorkind"
	"ssagen/ir"
	PK "ssagen/ir/predicate"

	"context"
	"math"
	"testing"
)

// countdown returns the number of iterations needed to bring x to zero
// by steps of step, dividing by d on the way out
func countdown(step, d int64) *ir.Program {
	P := ir.NewProgram("countdown")
	fn := P.NewFunction("main", "x")
	entry := fn.NewBlock("")
	loop := fn.NewBlock("")
	exit := fn.NewBlock("")
	entry.Jmp(loop)
	x := loop.Phi()
	n := loop.Phi()
	x2 := loop.Sub(ir.Val(x), ir.Lit(step))
	n2 := loop.Add(ir.Val(n), ir.Lit(1))
	c := loop.Compare(PK.Sgt, ir.Val(x2), ir.Lit(0))
	loop.Branch(ir.Val(c), loop, exit)
	exit.Return(ir.Val(exit.Div(ir.Val(n2), ir.Lit(d))))
	x.AddIncoming(entry, ir.Val(fn.Params[0]))
	x.AddIncoming(loop, ir.Val(x2))
	n.AddIncoming(entry, ir.Lit(0))
	n.AddIncoming(loop, ir.Val(n2))
	return P
}

func TestCall(t *testing.T) {
	tests := []struct {
		Name string
		P    *ir.Program
		Arg  int64
		Want int64
	}{
		{Name: "loop", P: countdown(3, 1), Arg: 10, Want: 4},
		{Name: "loop once", P: countdown(3, 1), Arg: -5, Want: 1},
		{Name: "division truncates", P: countdown(1, -4), Arg: 7, Want: -1},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			got, err := New(test.P, config.Default()).Call(context.Background(), "main", test.Arg)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.Want {
				t.Fatalf("got %d, want %d", got, test.Want)
			}
		})
	}
}

func TestRunUsesEntryWithZero(t *testing.T) {
	got, err := New(countdown(1, 1), config.Default()).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("got %d, want 1", got)
	}
}

func TestHooksAndRecursion(t *testing.T) {
	P := ir.NewProgram("rec")
	fact := P.NewFunction("fact", "n")
	entry := fact.NewBlock("")
	base := fact.NewBlock("")
	rec := fact.NewBlock("")
	n := ir.Val(fact.Params[0])
	c := entry.Compare(PK.Sle, n, ir.Lit(1))
	entry.Branch(ir.Val(c), base, rec)
	base.Return(ir.Lit(1))
	sub := rec.Call("fact", ir.Val(rec.Sub(n, ir.Lit(1))))
	rec.Return(ir.Val(rec.Mul(n, ir.Val(sub))))

	P.NewFunction("llvm.twice", "x")
	main := P.NewFunction("main")
	mb := main.NewBlock("")
	f := mb.Call("fact", ir.Lit(5))
	mb.Return(ir.Val(mb.Call("llvm.twice", ir.Val(f))))

	ev := New(P, config.Default())
	ev.Hooks["llvm.twice"] = func(x int64) int64 { return 2 * x }
	got, err := ev.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != 240 {
		t.Fatalf("got %d, want 240", got)
	}
}

func TestFaults(t *testing.T) {
	divide := func(a, b int64) *ir.Program {
		P := ir.NewProgram("div")
		fn := P.NewFunction("main")
		b0 := fn.NewBlock("")
		b0.Return(ir.Val(b0.Div(ir.Lit(a), ir.Lit(b))))
		return P
	}
	forever := func() *ir.Program {
		P := ir.NewProgram("loop")
		fn := P.NewFunction("main")
		entry := fn.NewBlock("")
		loop := fn.NewBlock("")
		entry.Jmp(loop)
		loop.Jmp(loop)
		return P
	}
	missing := func() *ir.Program {
		P := ir.NewProgram("missing")
		P.NewFunction("ext", "x")
		fn := P.NewFunction("main")
		b0 := fn.NewBlock("")
		b0.Return(ir.Val(b0.Call("ext", ir.Lit(1))))
		return P
	}
	tests := []struct {
		Name string
		P    *ir.Program
		Want et.ErrorKind
	}{
		{Name: "division by zero", P: divide(1, 0), Want: et.DivisionByZero},
		{Name: "division overflow", P: divide(math.MinInt64, -1), Want: et.ExecutionFault},
		{Name: "step budget", P: forever(), Want: et.ExecutionFault},
		{Name: "missing hook", P: missing(), Want: et.ExecutionFault},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			tg := config.Default()
			tg.MaxSteps = 10_000
			_, err := New(test.P, tg).Run(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Code != test.Want {
				t.Fatalf("got %v (%v), want %v", err.ErrCode(), err.Message, test.Want)
			}
		})
	}
}
