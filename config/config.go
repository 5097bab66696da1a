package config

import (
	. "ssagen/core"
	"ssagen/core/asm"
	msg "ssagen/messages"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Target describes how the generator may use the register file.
// The accumulator (rax), remainder (rdx), frame (rbp) and stack (rsp)
// registers are fixed by the instruction set and cannot be configured.
type Target struct {
	// allocation order of symbolic slots: slot i lives in Allocatable[i]
	Allocatable []string `yaml:"allocatable" toml:"allocatable"`
	// number of allocatable registers to use, 0 means all of them
	Budget int `yaml:"budget" toml:"budget"`
	// when false, running out of registers is an error
	Spill bool `yaml:"spill" toml:"spill"`

	Provenance  string   `yaml:"provenance" toml:"provenance"`
	Argument    string   `yaml:"argument" toml:"argument"`
	Scratch     string   `yaml:"scratch" toml:"scratch"`
	CalleeSaved []string `yaml:"callee_saved" toml:"callee_saved"`

	LabelPrefix     string `yaml:"label_prefix" toml:"label_prefix"`
	IntrinsicPrefix string `yaml:"intrinsic_prefix" toml:"intrinsic_prefix"`
	Entry           string `yaml:"entry" toml:"entry"`

	// instruction budget of the interpreters
	MaxSteps int64 `yaml:"max_steps" toml:"max_steps"`

	allocatable []asm.Register
	calleeSaved []asm.Register
	provenance  asm.Register
	argument    asm.Register
	scratch     asm.Register
}

func Default() *Target {
	t := &Target{
		Allocatable:     []string{"rcx", "rsi", "r8", "r9", "r10", "r12", "r13", "r14", "r15"},
		Spill:           true,
		Provenance:      "rbx",
		Argument:        "rdi",
		Scratch:         "r11",
		CalleeSaved:     []string{"rbx", "r12", "r13", "r14", "r15"},
		LabelPrefix:     "__",
		IntrinsicPrefix: "llvm.",
		Entry:           "main",
		MaxSteps:        10_000_000,
	}
	err := t.Validate()
	if err != nil {
		panic(err.String())
	}
	return t
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) file on top of the
// defaults and validates the result.
func Load(path string) (*Target, *Error) {
	t := Default()
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, ProcessFileError(err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(contents, t)
	case ".toml":
		_, err = toml.Decode(string(contents), t)
	default:
		return nil, msg.ErrorInvalidConfig(path, "unknown configuration format, expected .yaml, .yml or .toml")
	}
	if err != nil {
		return nil, msg.ErrorInvalidConfig(path, err.Error())
	}
	return t, t.validateFile(path)
}

func (this *Target) Validate() *Error {
	return this.validateFile("")
}

func (this *Target) validateFile(file string) *Error {
	fixed := map[asm.Register]string{
		asm.RAX: "accumulator",
		asm.RDX: "remainder",
		asm.RSP: "stack pointer",
		asm.RBP: "frame pointer",
	}
	role := func(name, what string) (asm.Register, *Error) {
		r, ok := asm.RegisterByName(name)
		if !ok {
			return 0, msg.ErrorInvalidConfig(file, "unknown register "+strconv.Quote(name)+" for "+what)
		}
		if other, taken := fixed[r]; taken {
			return 0, msg.ErrorInvalidConfig(file, r.String()+" cannot be the "+what+", it is already the "+other)
		}
		fixed[r] = what
		return r, nil
	}
	var err *Error
	if this.provenance, err = role(this.Provenance, "provenance register"); err != nil {
		return err
	}
	if this.argument, err = role(this.Argument, "argument register"); err != nil {
		return err
	}
	if this.scratch, err = role(this.Scratch, "scratch register"); err != nil {
		return err
	}

	this.allocatable = []asm.Register{}
	for _, name := range this.Allocatable {
		r, err := role(name, "allocatable register")
		if err != nil {
			return err
		}
		this.allocatable = append(this.allocatable, r)
	}
	if len(this.allocatable) == 0 {
		return msg.ErrorInvalidConfig(file, "no allocatable registers")
	}
	if this.Budget < 0 || this.Budget > len(this.allocatable) {
		return msg.ErrorInvalidConfig(file, "budget must be between 0 and "+strconv.Itoa(len(this.allocatable)))
	}

	this.calleeSaved = []asm.Register{}
	seen := map[asm.Register]bool{}
	for _, name := range this.CalleeSaved {
		r, ok := asm.RegisterByName(name)
		if !ok {
			return msg.ErrorInvalidConfig(file, "unknown callee saved register "+strconv.Quote(name))
		}
		if r == asm.RAX || r == asm.RSP || r == asm.RBP || seen[r] {
			return msg.ErrorInvalidConfig(file, r.String()+" cannot be listed as callee saved")
		}
		seen[r] = true
		this.calleeSaved = append(this.calleeSaved, r)
	}
	if !seen[this.provenance] {
		return msg.ErrorInvalidConfig(file, "the provenance register must be callee saved")
	}

	if this.LabelPrefix == "" {
		return msg.ErrorInvalidConfig(file, "empty label prefix")
	}
	if this.Entry == "" {
		return msg.ErrorInvalidConfig(file, "empty entry point name")
	}
	if this.MaxSteps <= 0 {
		return msg.ErrorInvalidConfig(file, "max_steps must be positive")
	}
	return nil
}

// Registers returns the registers symbolic slots bind to, in order
func (this *Target) Registers() []asm.Register {
	if this.Budget == 0 {
		return this.allocatable
	}
	return this.allocatable[:this.Budget]
}

func (this *Target) CalleeSavedRegs() []asm.Register { return this.calleeSaved }
func (this *Target) ProvenanceReg() asm.Register    { return this.provenance }
func (this *Target) ArgumentReg() asm.Register      { return this.argument }
func (this *Target) ScratchReg() asm.Register       { return this.scratch }
