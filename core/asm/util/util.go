package util

import (
	"ssagen/core/asm"
	. "ssagen/core/asm/instrkind"
)

var RSP = Reg(asm.RSP)
var RBP = Reg(asm.RBP)

var FrameSize = asm.Operand{Kind: asm.FrameSize}
var Provenance = asm.Operand{Kind: asm.Provenance}

func Reg(r asm.Register) asm.Operand {
	return asm.Operand{
		Kind: asm.Reg,
		Reg:  r,
	}
}

func Imm(num int64) asm.Operand {
	return asm.Operand{
		Kind: asm.Const,
		Num:  num,
	}
}

func Slot(id int) asm.Operand {
	return asm.Operand{
		Kind: asm.Slot,
		Num:  int64(id),
	}
}

func AddrFrame(disp int) asm.Operand {
	return asm.Operand{
		Kind: asm.Frame,
		Num:  int64(disp),
	}
}

func LabelOp(lbl string) asm.Operand {
	return asm.Operand{
		Kind:  asm.Label,
		Label: lbl,
	}
}

func LabelLine(lbl string) asm.Line {
	return asm.Line{
		Label:   lbl,
		IsLabel: true,
	}
}

func Unary(kind InstrKind, op asm.Operand) asm.Line {
	return asm.Line{
		Instr: asm.Instr{
			Kind:     kind,
			Operands: []asm.Operand{op},
		},
	}
}

// Bin builds a two operand instruction in source, destination order
func Bin(kind InstrKind, src, dest asm.Operand) asm.Line {
	return asm.Line{
		Instr: asm.Instr{
			Kind:     kind,
			Operands: []asm.Operand{src, dest},
		},
	}
}

func Plain(kind InstrKind) asm.Line {
	return asm.Line{
		Instr: asm.Instr{
			Kind:     kind,
			Operands: []asm.Operand{},
		},
	}
}

// Exit builds a jump that leaves the block with the given id
func Exit(kind InstrKind, lbl string, from int) asm.Line {
	return asm.Line{
		Instr: asm.Instr{
			Kind:     kind,
			Operands: []asm.Operand{LabelOp(lbl)},
			Exit:     true,
			From:     from,
		},
	}
}
