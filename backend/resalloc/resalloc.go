package resalloc

import (
	"ssagen/config"
	. "ssagen/core"
	"ssagen/core/asm"
	. "ssagen/core/asm/util"
	"ssagen/ir"
	IT "ssagen/ir/instrkind"
	msg "ssagen/messages"

	"github.com/samber/lo"

	"fmt"
	"sort"
)

// Allocator maps the SSA values of one function onto symbolic slots.
// Slots are dense integers: slot i becomes the i-th register of the
// target's budget, or a stack spill once i runs past the budget.
type Allocator struct {
	target *config.Target
	fn     *ir.Function
	block  *ir.Block

	table map[*ir.Value]asm.Operand
	owner map[int]*ir.Value // occupied slots, nil owner for scratch slots
	freed *slotSet
	next  int // first slot never handed out
}

func New(t *config.Target) *Allocator {
	return &Allocator{target: t}
}

func (this *Allocator) EnterFunction(fn *ir.Function) {
	this.fn = fn
	this.block = nil
	this.table = map[*ir.Value]asm.Operand{}
	this.owner = map[int]*ir.Value{}
	this.freed = &slotSet{}
	this.next = 0
	for _, p := range fn.Params {
		this.Bind(p, Reg(this.target.ArgumentReg()))
	}
}

func (this *Allocator) EnterBlock(b *ir.Block) {
	this.block = b
}

// LocationFor returns where op currently lives, binding a fresh slot
// to values seen for the first time. Literals become immediates when
// allowImmediate is set, otherwise they get a scratch slot the caller
// must fill and release.
func (this *Allocator) LocationFor(op ir.Operand, allowImmediate bool) (asm.Operand, *Error) {
	if op.IsLit() {
		if allowImmediate {
			return Imm(op.Num), nil
		}
		return this.Scratch()
	}
	v := op.Value
	if v == nil {
		panic("operand without value")
	}
	if loc, ok := this.table[v]; ok {
		return loc, nil
	}
	loc, err := this.allocate(v)
	if err != nil {
		return asm.Operand{}, err
	}
	this.table[v] = loc
	return loc, nil
}

// Scratch hands out a slot that is not bound to any value
func (this *Allocator) Scratch() (asm.Operand, *Error) {
	return this.allocate(nil)
}

func (this *Allocator) allocate(v *ir.Value) (asm.Operand, *Error) {
	id, ok := this.freed.popMin()
	if !ok {
		budget := len(this.target.Registers())
		if this.next >= budget && !this.target.Spill {
			return asm.Operand{}, msg.ErrorAllocationExhausted(this.fn, budget)
		}
		id = this.next
		this.next++
	}
	this.owner[id] = v
	return Slot(id), nil
}

// Bind forces v into loc, dropping whatever slot v held before
func (this *Allocator) Bind(v *ir.Value, loc asm.Operand) {
	if old, ok := this.table[v]; ok && old != loc && old.Kind == asm.Slot {
		this.Release(old)
	}
	this.table[v] = loc
	if loc.Kind == asm.Slot {
		this.owner[int(loc.Num)] = v
	}
}

// Release returns a slot to the pool, registers and immediates are
// not managed by the allocator and are ignored.
func (this *Allocator) Release(loc asm.Operand) {
	if loc.Kind != asm.Slot {
		return
	}
	id := int(loc.Num)
	v, occupied := this.owner[id]
	if !occupied {
		panic(fmt.Sprintf("releasing free slot %v in %v", loc, this.fn.Name))
	}
	delete(this.owner, id)
	if v != nil && this.table[v] == loc {
		delete(this.table, v)
	}
	this.freed.add(id)
}

// ReleaseIfDead releases the location of every value operand of instr
// that has no use after it. Call it once the instruction is lowered.
func (this *Allocator) ReleaseIfDead(instr *ir.Instr) {
	if instr.Block != this.block {
		panic("instruction of block " + instr.Block.Label + " lowered inside another block")
	}
	values := []*ir.Value{}
	for _, op := range instr.Operands {
		if op.Value != nil {
			values = append(values, op.Value)
		}
	}
	if instr.Dest != nil {
		values = append(values, instr.Dest)
	}
	for _, v := range lo.Uniq(values) {
		loc, bound := this.table[v]
		if bound && this.Dead(v, instr) {
			this.Release(loc)
		}
	}
}

// Dead reports whether v has no use after the instruction at.
//
// Only values whose every use sits in the block being lowered are ever
// considered dead, values crossing blocks or feeding a phi stay bound
// for the whole function. Parameters live in a register that calls
// overwrite, so they count as dead only inside an entry block that
// cannot be re-entered.
func (this *Allocator) Dead(v *ir.Value, at *ir.Instr) bool {
	if len(v.Uses) == 0 {
		return true
	}
	home := at.Block
	if v.IsParam() {
		entry := this.fn.Entry()
		if home != entry || len(entry.Preds) > 0 {
			return false
		}
	} else if v.Def.Block != home {
		return false
	}
	pos := at.Index()
	for _, use := range v.Uses {
		if use.T == IT.Phi || use.Block != home || use.Index() > pos {
			return false
		}
	}
	return true
}

// Occupied lists the occupied slots in slot order
func (this *Allocator) Occupied() []asm.Operand {
	ids := lo.Keys(this.owner)
	sort.Ints(ids)
	return lo.Map(ids, func(id int, _ int) asm.Operand {
		return Slot(id)
	})
}

// Lookup returns the current binding of v without allocating
func (this *Allocator) Lookup(v *ir.Value) (asm.Operand, bool) {
	loc, ok := this.table[v]
	return loc, ok
}

// Peak is the number of distinct slots the function needed
func (this *Allocator) Peak() int {
	return this.next
}

// slotSet keeps freed slot ids sorted so the lowest is reused first
type slotSet struct {
	ids []int
}

func (this *slotSet) add(id int) {
	i := sort.SearchInts(this.ids, id)
	if i < len(this.ids) && this.ids[i] == id {
		panic(fmt.Sprintf("slot %d freed twice", id))
	}
	this.ids = append(this.ids, 0)
	copy(this.ids[i+1:], this.ids[i:])
	this.ids[i] = id
}

func (this *slotSet) popMin() (int, bool) {
	if len(this.ids) == 0 {
		return 0, false
	}
	id := this.ids[0]
	this.ids = this.ids[1:]
	return id, true
}
