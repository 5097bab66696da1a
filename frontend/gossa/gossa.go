// Package gossa reads a single Go source file, builds it to SSA with
// golang.org/x/tools/go/ssa and translates the result into the IR the
// backend lowers. Only integer and boolean code is accepted: functions
// of at most one parameter, arithmetic, comparisons, branches, phis and
// direct calls to functions of the same file.
package gossa

import (
	. "ssagen/core"
	"ssagen/core/util"
	"ssagen/ir"
	PK "ssagen/ir/predicate"
	msg "ssagen/messages"

	T "github.com/padeir0/pir/types"
	"golang.org/x/tools/go/ssa"

	"errors"
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"sort"
)

// Build parses, type checks and translates src. The returned program
// has one function per top level function of the file, in source order.
func Build(filename string, src []byte) (*ir.Program, *Error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, syntaxError(fset, filename, err)
	}

	conf := &types.Config{Importer: noImports{}}
	info := &types.Info{
		Types:      make(map[ast.Expr]types.TypeAndValue),
		Defs:       make(map[*ast.Ident]types.Object),
		Uses:       make(map[*ast.Ident]types.Object),
		Implicits:  make(map[ast.Node]types.Object),
		Selections: make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:     make(map[ast.Node]*types.Scope),
		Instances:  make(map[*ast.Ident]types.Instance),
	}
	pkg, err := conf.Check(file.Name.Name, fset, []*ast.File{file}, info)
	if err != nil {
		var terr types.Error
		if errors.As(err, &terr) {
			return nil, msg.ErrorTypeError(place(fset, filename, terr.Pos), terr.Msg)
		}
		return nil, msg.ErrorTypeError(&Location{File: filename}, err.Error())
	}

	prog := ssa.NewProgram(fset, ssa.BuilderMode(0))
	ssaPkg := prog.CreatePackage(pkg, []*ast.File{file}, info, false)
	ssaPkg.Build()

	t := &translator{
		fset:  fset,
		file:  filename,
		pkg:   ssaPkg,
		P:     ir.NewProgram(file.Name.Name),
		funcs: map[*ssa.Function]*ir.Function{},
	}
	return t.translate()
}

type noImports struct{}

func (noImports) Import(path string) (*types.Package, error) {
	return nil, fmt.Errorf("import of %q: imports are not supported", path)
}

func syntaxError(fset *token.FileSet, filename string, err error) *Error {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		first := list[0]
		begin := Position{Line: first.Pos.Line, Column: first.Pos.Column}
		return msg.ErrorTypeError(util.PlaceSource(filename, begin, begin), first.Msg)
	}
	return msg.ErrorTypeError(&Location{File: filename}, err.Error())
}

func place(fset *token.FileSet, filename string, pos token.Pos) *Location {
	p := fset.Position(pos)
	if !p.IsValid() {
		return &Location{File: filename}
	}
	begin := Position{Line: p.Line, Column: p.Column}
	return util.PlaceSource(p.Filename, begin, begin)
}

type translator struct {
	fset  *token.FileSet
	file  string
	pkg   *ssa.Package
	P     *ir.Program
	funcs map[*ssa.Function]*ir.Function

	// per function
	blocks map[*ssa.BasicBlock]*ir.Block
	values map[ssa.Value]ir.Operand
	phis   []*ssa.Phi
}

func (this *translator) translate() (*ir.Program, *Error) {
	fns := []*ssa.Function{}
	for _, mem := range this.pkg.Members {
		fn, ok := mem.(*ssa.Function)
		if !ok || fn.Synthetic != "" {
			continue
		}
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool {
		return fns[i].Pos() < fns[j].Pos()
	})

	for _, fn := range fns {
		err := this.declare(fn)
		if err != nil {
			return nil, err
		}
	}
	for _, fn := range fns {
		if len(fn.Blocks) == 0 {
			continue
		}
		err := this.function(fn)
		if err != nil {
			return nil, err
		}
	}
	return this.P, nil
}

func (this *translator) declare(fn *ssa.Function) *Error {
	sig := fn.Signature
	if sig.Recv() != nil || sig.TypeParams().Len() > 0 {
		return this.unsupported(fn.Pos(), "methods and generic functions")
	}
	if len(fn.Params) > 1 {
		return this.unsupported(fn.Pos(), "functions with more than one parameter")
	}
	names := []string{}
	for _, p := range fn.Params {
		if !isScalar(p.Type()) {
			return this.unsupported(p.Pos(), "parameter of type "+p.Type().String())
		}
		names = append(names, p.Name())
	}
	results := sig.Results()
	if results.Len() > 1 {
		return this.unsupported(fn.Pos(), "multiple results")
	}
	if results.Len() == 1 && !isScalar(results.At(0).Type()) {
		return this.unsupported(fn.Pos(), "result of type "+results.At(0).Type().String())
	}
	this.funcs[fn] = this.P.NewFunction(fn.Name(), names...)
	return nil
}

func (this *translator) function(fn *ssa.Function) *Error {
	out := this.funcs[fn]
	if fn.Recover != nil {
		return this.unsupported(fn.Pos(), "recover blocks")
	}
	this.blocks = map[*ssa.BasicBlock]*ir.Block{}
	this.values = map[ssa.Value]ir.Operand{}
	this.phis = nil
	for i, p := range fn.Params {
		this.values[p] = ir.Val(out.Params[i])
	}
	for _, b := range fn.Blocks {
		this.blocks[b] = out.NewBlock("")
	}
	// dominators come first, so every operand but a phi edge is
	// translated before its use
	for _, b := range fn.DomPreorder() {
		for _, instr := range b.Instrs {
			err := this.instr(this.blocks[b], instr)
			if err != nil {
				return err
			}
		}
	}
	for _, phi := range this.phis {
		dest := this.values[phi].Value
		for i, edge := range phi.Edges {
			op, err := this.operand(edge)
			if err != nil {
				return err
			}
			dest.AddIncoming(this.blocks[phi.Block().Preds[i]], op)
		}
	}
	return nil
}

func (this *translator) instr(b *ir.Block, instr ssa.Instruction) *Error {
	switch instr := instr.(type) {
	case *ssa.DebugRef:
		return nil
	case *ssa.Phi:
		if !isScalar(instr.Type()) {
			return this.unsupported(instr.Pos(), "phi of type "+instr.Type().String())
		}
		v := b.Phi()
		v.Name = instr.Name()
		if isBool(instr.Type()) {
			v.Type = T.T_Bool
		}
		this.values[instr] = ir.Val(v)
		this.phis = append(this.phis, instr)
		return nil
	case *ssa.BinOp:
		return this.binop(b, instr)
	case *ssa.UnOp:
		return this.unop(b, instr)
	case *ssa.Convert:
		if !isScalar(instr.Type()) || !isScalar(instr.X.Type()) {
			return this.unsupported(instr.Pos(), "conversion to "+instr.Type().String())
		}
		op, err := this.operand(instr.X)
		if err != nil {
			return err
		}
		this.values[instr] = op
		return nil
	case *ssa.Call:
		return this.call(b, instr)
	case *ssa.If:
		cond, err := this.operand(instr.Cond)
		if err != nil {
			return err
		}
		succs := instr.Block().Succs
		b.Branch(cond, this.blocks[succs[0]], this.blocks[succs[1]])
		return nil
	case *ssa.Jump:
		b.Jmp(this.blocks[instr.Block().Succs[0]])
		return nil
	case *ssa.Return:
		ops := []ir.Operand{}
		for _, res := range instr.Results {
			op, err := this.operand(res)
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
		b.Return(ops...)
		return nil
	}
	return this.unsupported(instr.Pos(), fmt.Sprintf("%T (%v)", instr, instr))
}

func (this *translator) binop(b *ir.Block, instr *ssa.BinOp) *Error {
	if !isScalar(instr.X.Type()) {
		return this.unsupported(instr.Pos(), "operands of type "+instr.X.Type().String())
	}
	x, err := this.operand(instr.X)
	if err != nil {
		return err
	}
	y, err := this.operand(instr.Y)
	if err != nil {
		return err
	}
	var v *ir.Value
	switch instr.Op {
	case token.ADD:
		v = b.Add(x, y)
	case token.SUB:
		v = b.Sub(x, y)
	case token.MUL:
		v = b.Mul(x, y)
	case token.QUO:
		v = b.Div(x, y)
	case token.EQL:
		v = b.Compare(PK.Eq, x, y)
	case token.NEQ:
		v = b.Compare(PK.Ne, x, y)
	case token.LSS:
		v = b.Compare(PK.Slt, x, y)
	case token.LEQ:
		v = b.Compare(PK.Sle, x, y)
	case token.GTR:
		v = b.Compare(PK.Sgt, x, y)
	case token.GEQ:
		v = b.Compare(PK.Sge, x, y)
	default:
		return this.unsupported(instr.Pos(), "operator "+instr.Op.String())
	}
	v.Name = instr.Name()
	this.values[instr] = ir.Val(v)
	return nil
}

func (this *translator) unop(b *ir.Block, instr *ssa.UnOp) *Error {
	if !isScalar(instr.X.Type()) {
		return this.unsupported(instr.Pos(), "unary "+instr.Op.String()+" on "+instr.X.Type().String())
	}
	x, err := this.operand(instr.X)
	if err != nil {
		return err
	}
	var v *ir.Value
	switch instr.Op {
	case token.SUB:
		v = b.Sub(ir.Lit(0), x)
	case token.NOT:
		v = b.Compare(PK.Eq, x, ir.Lit(0))
	default:
		return this.unsupported(instr.Pos(), "unary operator "+instr.Op.String())
	}
	v.Name = instr.Name()
	this.values[instr] = ir.Val(v)
	return nil
}

func (this *translator) call(b *ir.Block, instr *ssa.Call) *Error {
	common := instr.Common()
	if common.IsInvoke() {
		return this.unsupported(instr.Pos(), "interface method calls")
	}
	callee := common.StaticCallee()
	if callee == nil {
		return this.unsupported(instr.Pos(), "indirect call to "+common.Value.String())
	}
	target, ok := this.funcs[callee]
	if !ok {
		return this.unsupported(instr.Pos(), "call to "+callee.String())
	}
	args := []ir.Operand{}
	for _, arg := range common.Args {
		op, err := this.operand(arg)
		if err != nil {
			return err
		}
		args = append(args, op)
	}
	v := b.Call(target.Name, args...)
	v.Name = instr.Name()
	this.values[instr] = ir.Val(v)
	return nil
}

func (this *translator) operand(v ssa.Value) (ir.Operand, *Error) {
	if c, ok := v.(*ssa.Const); ok {
		return this.constant(c)
	}
	op, ok := this.values[v]
	if !ok {
		return ir.Operand{}, this.unsupported(v.Pos(), fmt.Sprintf("value %v of kind %T", v.Name(), v))
	}
	return op, nil
}

func (this *translator) constant(c *ssa.Const) (ir.Operand, *Error) {
	if c.Value == nil {
		return ir.Lit(0), nil
	}
	switch c.Value.Kind() {
	case constant.Int:
		n, exact := constant.Int64Val(c.Value)
		if !exact {
			return ir.Operand{}, this.unsupported(c.Pos(), "constant "+c.Value.String()+" overflows int64")
		}
		return ir.Lit(n), nil
	case constant.Bool:
		if constant.BoolVal(c.Value) {
			return ir.Lit(1), nil
		}
		return ir.Lit(0), nil
	}
	return ir.Operand{}, this.unsupported(c.Pos(), "constant "+c.Value.String())
}

func (this *translator) unsupported(pos token.Pos, what string) *Error {
	return msg.ErrorUnsupportedConstruct(place(this.fset, this.file, pos), what)
}

// isScalar accepts 64 bit signed integers and booleans, narrower
// integers would need truncation after every operation
func isScalar(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return false
	}
	switch basic.Kind() {
	case types.Int, types.Int64, types.UntypedInt, types.Bool, types.UntypedBool:
		return true
	}
	return false
}

func isBool(t types.Type) bool {
	basic, ok := t.Underlying().(*types.Basic)
	return ok && basic.Info()&types.IsBoolean != 0
}
