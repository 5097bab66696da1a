package pipelines

import (
	"ssagen/amd64"
	"ssagen/backend/gen"
	"ssagen/backend/sim"
	"ssagen/config"
	. "ssagen/core"
	"ssagen/core/asm"
	"ssagen/fasm"
	"ssagen/frontend/gossa"
	"ssagen/ir"
	"ssagen/ir/checker"
	"ssagen/ir/interp"

	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// reads a Go file, translates it to IR and
// checks it against the target
func Ir(file string, t *config.Target) (P *ir.Program, err *Error) {
	defer recoverInternal(&err)
	src, err := getFile(file)
	if err != nil {
		return nil, err
	}
	P, err = gossa.Build(file, src)
	if err != nil {
		return nil, err
	}
	err = checker.Check(P, t)
	if err != nil {
		return nil, err
	}
	return P, nil
}

// lowers the IR but does not assign registers,
// operands stay symbolic
func Sym(file string, t *config.Target) (output *asm.Program, err *Error) {
	P, err := Ir(file, t)
	if err != nil {
		return nil, err
	}
	defer recoverInternal(&err)
	return gen.Lower(P, t)
}

// generates the assigned instruction stream
func Assembly(file string, t *config.Target) (output *asm.Program, err *Error) {
	P, err := Ir(file, t)
	if err != nil {
		return nil, err
	}
	defer recoverInternal(&err)
	return gen.Generate(P, t)
}

// generates GNU assembler source
func Asm(file string, t *config.Target) (out *amd64.AsmProgram, err *Error) {
	P, err := Assembly(file, t)
	if err != nil {
		return nil, err
	}
	defer recoverInternal(&err)
	out = amd64.Generate(P)
	out.Name = outName(file)
	return out, nil
}

// generates flat assembler source
func Fasm(file string, t *config.Target) (out *amd64.AsmProgram, err *Error) {
	P, err := Assembly(file, t)
	if err != nil {
		return nil, err
	}
	defer recoverInternal(&err)
	out = fasm.Generate(P)
	out.Name = outName(file)
	return out, nil
}

// runs the generated code on the simulator and
// returns the exit status of the entry function
func Run(ctx context.Context, file string, t *config.Target) (status int64, err *Error) {
	P, err := Assembly(file, t)
	if err != nil {
		return 0, err
	}
	defer recoverInternal(&err)
	m, err := sim.New(P, t)
	if err != nil {
		return 0, err
	}
	status, err = m.Run(ctx)
	slog.Debug("simulated", "file", file, "steps", m.Steps())
	return status, err
}

// evaluates the IR directly
func Eval(ctx context.Context, file string, t *config.Target) (result int64, err *Error) {
	P, err := Ir(file, t)
	if err != nil {
		return 0, err
	}
	defer recoverInternal(&err)
	in := interp.New(P, t)
	result, err = in.Run(ctx)
	slog.Debug("evaluated", "file", file, "steps", in.Steps())
	return result, err
}

// assembles and links the program with the GNU
// toolchain, returns the name of the executable
func Compile(file string, outname string, t *config.Target) (string, *Error) {
	out, err := Asm(file, t)
	if err != nil {
		return "", err
	}
	if outname != "" {
		out.Name = outname
	}
	ioerr := genBinary(out)
	if ioerr != nil {
		return "", ProcessFileError(ioerr)
	}
	return out.Name, nil
}

func genBinary(out *amd64.AsmProgram) error {
	dir, oserr := os.MkdirTemp("", "ssagen_*")
	if oserr != nil {
		return oserr
	}
	defer os.RemoveAll(dir)
	source := filepath.Join(dir, "out.s")
	object := filepath.Join(dir, "out.o")
	oserr = os.WriteFile(source, []byte(out.Contents), 0o644)
	if oserr != nil {
		return oserr
	}
	oserr = runTool("as", "-o", object, source)
	if oserr != nil {
		return oserr
	}
	return runTool("ld", "-o", out.Name, object)
}

// runTool runs an external tool and keeps what it printed in the error
func runTool(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		text := strings.TrimSpace(string(output))
		if text == "" {
			return fmt.Errorf("%v: %w", name, err)
		}
		return fmt.Errorf("%v: %w\n%v", name, err, text)
	}
	return nil
}

func outName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

func getFile(file string) ([]byte, *Error) {
	text, e := os.ReadFile(file)
	if e != nil {
		return nil, ProcessFileError(e)
	}
	return text, nil
}

func recoverInternal(err **Error) {
	if r := recover(); r != nil {
		*err = Recovered(r)
	}
}
