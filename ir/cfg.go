package ir

import (
	IT "ssagen/ir/instrkind"

	"github.com/samber/lo"
)

// Terminator returns the last instruction if it ends the block, nil otherwise
func (this *Block) Terminator() *Instr {
	if len(this.Code) == 0 {
		return nil
	}
	last := this.Code[len(this.Code)-1]
	if IT.IsTerminator(last.T) {
		return last
	}
	return nil
}

// Succs lists the distinct successors in terminator order (true first)
func (this *Block) Succs() []*Block {
	term := this.Terminator()
	if term == nil || term.T != IT.Branch {
		return nil
	}
	return lo.Uniq(term.Targets)
}

// Phis returns the run of phi instructions at the start of the block
func (this *Block) Phis() []*Instr {
	for i, instr := range this.Code {
		if instr.T != IT.Phi {
			return this.Code[:i]
		}
	}
	return this.Code
}

// ComputePreds recomputes Block.Preds for every block. Predecessors
// are listed in layout order, each at most once.
func (this *Function) ComputePreds() {
	for _, b := range this.Blocks {
		b.Preds = []*Block{}
	}
	for _, b := range this.Blocks {
		for _, s := range b.Succs() {
			if !lo.Contains(s.Preds, b) {
				s.Preds = append(s.Preds, b)
			}
		}
	}
}

// VisitOrder returns the blocks reachable from the entry in reverse
// postorder of a depth-first walk, successors taken in terminator order.
// Every block precedes its successors except along back-edges.
func (this *Function) VisitOrder() []*Block {
	entry := this.Entry()
	if entry == nil {
		return nil
	}
	visited := map[*Block]bool{}
	post := []*Block{}
	var walk func(b *Block)
	walk = func(b *Block) {
		visited[b] = true
		for _, s := range b.Succs() {
			if !visited[s] {
				walk(s)
			}
		}
		post = append(post, b)
	}
	walk(entry)
	return lo.Reverse(post)
}
