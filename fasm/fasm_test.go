package fasm

import (
	"ssagen/core/asm"
	. "ssagen/core/asm/instrkind"
	. "ssagen/core/asm/util"

	"github.com/google/go-cmp/cmp"

	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	P := &asm.Program{
		Name: "answer",
		Entry: []asm.Line{
			Unary(Call, LabelOp("main")),
			Bin(Mov, Reg(asm.RAX), Reg(asm.RDI)),
			Bin(Mov, Imm(60), Reg(asm.RAX)),
			Plain(Syscall),
		},
		Procs: []*asm.Procedure{
			{
				Label: "main",
				Code: []asm.Line{
					Unary(Push, RBP),
					Bin(Mov, RSP, RBP),
					LabelLine("__main_0"),
					Bin(Movabs, Imm(-1<<40), Reg(asm.RCX)),
					Bin(Mov, Reg(asm.RCX), AddrFrame(-48)),
					Bin(Cmp, Imm(3), AddrFrame(-48)),
					Unary(Push, Imm(7)),
					Unary(Pop, Reg(asm.R11)),
					Plain(Cqo),
					Unary(IDiv, Reg(asm.R11)),
					Unary(Jl, LabelOp("__main_0")),
					Bin(Mov, Imm(42), Reg(asm.RAX)),
					Unary(Pop, RBP),
					Plain(Ret),
				},
				Assigned: true,
			},
		},
	}
	want := strings.Join([]string{
		"format ELF64 executable 3",
		"",
		"segment readable executable",
		"entry $",
		"\tcall\tmain",
		"\tmov\trdi, rax",
		"\tmov\trax, 0x3C",
		"\tsyscall",
		"main:",
		"\tpush\trbp",
		"\tmov\trbp, rsp",
		"__main_0:",
		"\tmov\trcx, -0x10000000000",
		"\tmov\tqword [rbp - 0x30], rcx",
		"\tcmp\tqword [rbp - 0x30], 0x3",
		"\tpush\tqword 0x7",
		"\tpop\tr11",
		"\tcqo",
		"\tidiv\tr11",
		"\tjl\t__main_0",
		"\tmov\trax, 0x2A",
		"\tpop\trbp",
		"\tret",
		"",
	}, "\n")
	got := Generate(P)
	if diff := cmp.Diff(want, got.Contents); diff != "" {
		t.Fatalf("assembly (-want, +got):\n%s", diff)
	}
}

func TestConvNum(t *testing.T) {
	tests := []struct {
		Num  int64
		Want string
	}{
		{Num: 0, Want: "0x0"},
		{Num: 255, Want: "0xFF"},
		{Num: -16, Want: "-0x10"},
		{Num: -1 << 63, Want: "-0x8000000000000000"},
	}
	for _, test := range tests {
		if got := convNum(test.Num); got != test.Want {
			t.Errorf("convNum(%d) = %q, want %q", test.Num, got, test.Want)
		}
	}
}

func TestGenerateRejectsSymbolicCode(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	Generate(&asm.Program{
		Name: "bad",
		Procs: []*asm.Procedure{{
			Label:    "f",
			Code:     []asm.Line{Bin(Mov, Provenance, Reg(asm.RAX))},
			Assigned: true,
		}},
	})
}
