package pipelines

import (
	"ssagen/config"
	et "ssagen/core/errorkind"

	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

var programs = []struct {
	File string
	Want int64
}{
	{File: "arith.go", Want: 32},
	{File: "branch.go", Want: 2699},
	{File: "loop.go", Want: 5050},
	{File: "fib.go", Want: 610},
	{File: "swap.go", Want: 102334155},
	{File: "logic.go", Want: 20},
	{File: "division.go", Want: -2889},
	{File: "pressure.go", Want: 60},
	{File: "calls.go", Want: 72},
	{File: "wide.go", Want: 12},
}

func testdata(name string) string {
	return filepath.Join("..", "testdata", name)
}

func TestRunMatchesEval(t *testing.T) {
	for _, budget := range []int{0, 2} {
		tg := config.Default()
		tg.Budget = budget
		if err := tg.Validate(); err != nil {
			t.Fatal(err)
		}
		for _, p := range programs {
			t.Run(p.File, func(t *testing.T) {
				ctx := context.Background()
				want, err := Eval(ctx, testdata(p.File), tg)
				if err != nil {
					t.Fatal(err)
				}
				if want != p.Want {
					t.Fatalf("evaluation: got %d, want %d", want, p.Want)
				}
				got, err := Run(ctx, testdata(p.File), tg)
				if err != nil {
					t.Fatal(err)
				}
				if got != want {
					t.Fatalf("budget %d: generated code returned %d, evaluation returned %d", budget, got, want)
				}
			})
		}
	}
}

func TestStages(t *testing.T) {
	tg := config.Default()
	file := testdata("swap.go")

	P, err := Ir(file, tg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(P.String(), "phi") {
		t.Fatalf("expected phis in\n%v", P)
	}

	sym, err := Sym(file, tg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sym.String(), "%PROV") || !strings.Contains(sym.String(), "$FRAME") {
		t.Fatalf("expected symbolic operands in\n%v", sym)
	}

	out, err := Asm(file, tg)
	if err != nil {
		t.Fatal(err)
	}
	if out.Name != "swap" {
		t.Fatalf("name: got %q", out.Name)
	}
	for _, s := range []string{"_start:", "fib:", "main:", "syscall"} {
		if !strings.Contains(out.Contents, s) {
			t.Fatalf("%q missing from\n%v", s, out.Contents)
		}
	}
	for _, s := range []string{"%_", "%PROV", "$FRAME"} {
		if strings.Contains(out.Contents, s) {
			t.Fatalf("symbolic %q left in\n%v", s, out.Contents)
		}
	}

	intel, err := Fasm(file, tg)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"format ELF64", "fib:", "main:", "rbp"} {
		if !strings.Contains(intel.Contents, s) {
			t.Fatalf("%q missing from\n%v", s, intel.Contents)
		}
	}
	if strings.Contains(intel.Contents, "%") {
		t.Fatalf("AT&T operands left in\n%v", intel.Contents)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		File string
		Want et.ErrorKind
	}{
		{File: "errors/divzero.E402.go", Want: et.DivisionByZero},
		{File: "errors/mismatch.E302.go", Want: et.TypeError},
		{File: "errors/params.E301.go", Want: et.UnsupportedConstruct},
		{File: "errors/noentry.E207.go", Want: et.NoEntryPoint},
		{File: "errors/start.E209.go", Want: et.ReservedName},
		{File: "errors/label.E209.go", Want: et.ReservedName},
		{File: "does-not-exist.go", Want: et.FileError},
	}
	for _, test := range tests {
		t.Run(test.File, func(t *testing.T) {
			_, err := Run(context.Background(), testdata(test.File), config.Default())
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Code != test.Want {
				t.Fatalf("got %v (%v), want %v", err.ErrCode(), err.Message, test.Want)
			}
		})
	}

	tg := config.Default()
	tg.Budget = 2
	tg.Spill = false
	_, err := Asm(testdata("pressure.go"), tg)
	if err == nil || err.Code != et.AllocationExhausted {
		t.Fatalf("expected an allocation error, got %v", err)
	}
}

func TestCompile(t *testing.T) {
	if runtime.GOOS != "linux" || runtime.GOARCH != "amd64" {
		t.Skip("generated code targets linux/amd64")
	}
	for _, tool := range []string{"as", "ld"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%v not found", tool)
		}
	}
	out := filepath.Join(t.TempDir(), "arith")
	name, err := Compile(testdata("arith.go"), out, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	runErr := exec.Command(name).Run()
	var exit *exec.ExitError
	if !errors.As(runErr, &exit) {
		t.Fatalf("expected a non zero exit status, got %v", runErr)
	}
	if exit.ExitCode() != 32 {
		t.Fatalf("exit status: got %d, want 32", exit.ExitCode())
	}
}

func TestRunToolKeepsOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found")
	}
	err := runTool("sh", "-c", "echo 'out.s:3: no such instruction' >&2; exit 1")
	if err == nil {
		t.Fatal("expected an error")
	}
	for _, s := range []string{"sh:", "exit status 1", "no such instruction"} {
		if !strings.Contains(err.Error(), s) {
			t.Fatalf("%q missing from %q", s, err.Error())
		}
	}
	if err := runTool("sh", "-c", "exit 0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
