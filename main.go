package main

import (
	"ssagen/config"
	. "ssagen/core"
	"ssagen/pipelines"
	"ssagen/testing"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"

	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

var ir = flag.Bool("ir", false, "runs the frontend, prints the IR")
var sym = flag.Bool("sym", false, "lowers the IR, prints the symbolic instructions")
var asm = flag.Bool("asm", false, "runs the full generator, prints assembly")
var intel = flag.Bool("fasm", false, "runs the full generator, prints flat assembler (intel syntax)")
var run = flag.Bool("run", false, "runs the generated code on the simulator, prints the exit status")
var eval = flag.Bool("eval", false, "evaluates the IR, prints the result")

var test = flag.Bool("test", false, "runs tests for all files in a folder")
var testTimeout = flag.Duration("testtimeout", 5*time.Second, "sets timeout limit for a test")
var jobs = flag.Int("j", 0, "number of files tested at the same time")

var configFile = flag.String("config", "", "target description (.yaml or .toml)")
var budget = flag.Int("budget", 0, "number of allocatable registers, 0 uses the target's")
var nospill = flag.Bool("nospill", false, "fails instead of spilling to the stack")

var verbose = flag.Bool("v", false, "verbose output")
var outname = flag.String("o", "", "output name of file")

var colored = term.IsTerminal(int(os.Stderr.Fd()))

func main() {
	flag.Parse()
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	args := flag.Args()
	if len(args) != 1 {
		Fatal("invalid number of arguments\n")
	}
	checkValid()
	t := target()
	if *test {
		runTests(args[0], t)
		return
	}
	normalMode(args[0], t)
}

func target() *config.Target {
	t := config.Default()
	if *configFile != "" {
		var err *Error
		t, err = config.Load(*configFile)
		OkOrBurst(err)
	}
	if *budget != 0 {
		t.Budget = *budget
	}
	if *nospill {
		t.Spill = false
	}
	OkOrBurst(t.Validate())
	slog.Debug("target", "registers", len(t.Registers()), "spill", t.Spill)
	return t
}

func normalMode(filename string, t *config.Target) {
	ctx := context.Background()
	switch true {
	case *ir:
		P, err := pipelines.Ir(filename, t)
		OkOrBurst(err)
		fmt.Println(P)
	case *sym:
		P, err := pipelines.Sym(filename, t)
		OkOrBurst(err)
		fmt.Println(P)
	case *asm:
		out, err := pipelines.Asm(filename, t)
		OkOrBurst(err)
		fmt.Print(out.Contents)
	case *intel:
		out, err := pipelines.Fasm(filename, t)
		OkOrBurst(err)
		fmt.Print(out.Contents)
	case *run:
		status, err := pipelines.Run(ctx, filename, t)
		OkOrBurst(err)
		fmt.Println(status)
	case *eval:
		result, err := pipelines.Eval(ctx, filename, t)
		OkOrBurst(err)
		fmt.Println(result)
	default:
		name, err := pipelines.Compile(filename, *outname, t)
		OkOrBurst(err)
		slog.Debug("compiled", "output", name)
	}
}

func checkValid() {
	var selected = []bool{*ir, *sym, *asm, *intel, *run, *eval, *test}
	var count = 0
	for _, b := range selected {
		if b {
			count++
		}
	}
	if count > 1 {
		Fatal("only one of ir, sym, asm, fasm, run, eval or test flags may be used at a time\n")
	}
}

func runTests(folder string, t *config.Target) {
	results, err := testing.TestFolder(context.Background(), folder, testing.Options{
		Target:   t,
		Timeout:  *testTimeout,
		Jobs:     *jobs,
		Progress: colored,
	})
	if err != nil {
		Fatal(err.Error() + "\n")
	}
	printResults(results)
}

func printResults(results []*testing.TestResult) {
	failed := 0
	Stdout("\n")
	for _, res := range results {
		if *verbose {
			Stdout("testing: " + res.File + "\t" + res.String() + "\n")
		}
		if !res.Ok && res.Message != "" {
			Stdout(res.File + "\t" + res.Message + "\n")
		}
		if !res.Ok {
			failed += 1
		}
	}
	Stdout("\n")
	Stdout("failed: " + strconv.Itoa(failed) + "\n")
	Stdout("total: " + strconv.Itoa(len(results)) + "\n")
	if failed > 0 {
		os.Exit(1)
	}
}

func OkOrBurst(e *Error) {
	if e != nil {
		Fatal(e.ErrCode() + " " + e.String() + "\n")
	}
}

func Stdout(s string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		s = ansi.Strip(s)
	}
	os.Stdout.Write([]byte(s))
}

func Fatal(s string) {
	if !colored {
		s = ansi.Strip(s)
	}
	os.Stderr.Write([]byte(s))
	os.Exit(1)
}
