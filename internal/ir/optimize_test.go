package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// foldsConstantsAndDCERemovesUnused mirrors spec.md §8 scenario 1: x=1, y=2,
// z=x+y is used by the return, w=x*y is computed but never used. After
// optimization z must fold to the literal 3 and w must be gone entirely.
func TestOptimizeFoldsConstantsAndRemovesDeadCode(t *testing.T) {
	fn := &Function{
		Name:  "main",
		Entry: 0,
	}
	x, y, z, w := ValueId(0), ValueId(1), ValueId(2), ValueId(3)
	entry := &BasicBlock{
		ID: 0,
		Instructions: []*Instruction{
			{Dest: &x, Kind: BindStrand{Name: "x", Value: ConstU32(1)}},
			{Dest: &y, Kind: BindStrand{Name: "y", Value: ConstU32(2)}},
			{Dest: &z, Kind: Binary{Op: OpAdd, Left: x, Right: y}},
			{Dest: &w, Kind: Binary{Op: OpMul, Left: x, Right: y}},
		},
		Term: Return{Value: &z},
	}
	fn.Blocks = []*BasicBlock{entry}
	fn.SkipValues(3)

	m := NewModule()
	m.AddFunction(fn)

	Optimize(m)

	got := m.Functions["main"]
	require.Len(t, got.Blocks, 1)
	b := got.Blocks[0]

	for _, inst := range b.Instructions {
		if inst.Dest != nil && *inst.Dest == w {
			t.Fatalf("dead value w (id %d) survived DCE", w)
		}
	}

	ret, ok := b.Term.(Return)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
	var zInst *Instruction
	for _, inst := range b.Instructions {
		if inst.Dest != nil && *inst.Dest == *ret.Value {
			zInst = inst
		}
	}
	require.NotNil(t, zInst, "return value must still be defined by some instruction")
	bs, ok := zInst.Kind.(BindStrand)
	require.True(t, ok, "folded z must become a BindStrand constant")
	cu, ok := bs.Value.(ConstU32)
	require.True(t, ok)
	assert.EqualValues(t, 3, cu)
}

func TestOptimizeFoldsConstantCondBr(t *testing.T) {
	cond, v := ValueId(0), ValueId(1)
	entry := &BasicBlock{
		ID: 0,
		Instructions: []*Instruction{
			{Dest: &cond, Kind: BindStrand{Name: "cond", Value: ConstBool(true)}},
		},
		Term: CondBr{Cond: cond, Then: 1, Else: 2},
	}
	thenBB := &BasicBlock{ID: 1, Instructions: []*Instruction{
		{Dest: &v, Kind: BindStrand{Name: "v", Value: ConstU32(10)}},
	}, Term: Return{Value: &v}}
	elseBB := &BasicBlock{ID: 2, Term: Return{}}

	fn := &Function{Name: "f", Entry: 0, Blocks: []*BasicBlock{entry, thenBB, elseBB}}
	fn.SkipValues(1)

	m := NewModule()
	m.AddFunction(fn)
	Optimize(m)

	got := m.Functions["f"]
	require.Len(t, got.Blocks, 2, "the unreachable else block must be removed")
	for _, b := range got.Blocks {
		if b.ID == 0 {
			_, isBr := b.Term.(Br)
			assert.True(t, isBr, "constant-true CondBr must simplify to an unconditional Br")
		}
	}
}

func TestOptimizeCollapsesSingleIncomingPhi(t *testing.T) {
	v, phiDest := ValueId(0), ValueId(1)
	entry := &BasicBlock{
		ID: 0,
		Instructions: []*Instruction{
			{Dest: &v, Kind: BindStrand{Name: "v", Value: ConstU32(7)}},
		},
		Term: Br{Target: 1},
	}
	join := &BasicBlock{
		ID: 1,
		Instructions: []*Instruction{
			{Dest: &phiDest, Kind: Phi{Incomings: []PhiIncoming{{Pred: 0, Value: v}}}},
		},
		Term: Return{Value: &phiDest},
	}
	fn := &Function{Name: "f", Entry: 0, Blocks: []*BasicBlock{entry, join}}
	fn.SkipValues(1)

	m := NewModule()
	m.AddFunction(fn)
	Optimize(m)

	got := m.Functions["f"]
	for _, b := range got.Blocks {
		if b.ID != 1 {
			continue
		}
		for _, inst := range b.Instructions {
			if inst.Dest != nil && *inst.Dest == phiDest {
				_, stillPhi := inst.Kind.(Phi)
				assert.False(t, stillPhi, "a single-incoming phi must collapse to a BindStrand")
			}
		}
	}
}

func TestOptimizeNeverDropsRangeCheck(t *testing.T) {
	v := ValueId(0)
	entry := &BasicBlock{
		ID: 0,
		Instructions: []*Instruction{
			{Dest: &v, Kind: BindStrand{Name: "v", Value: ConstU32(5)}},
			{Kind: RangeCheckU32{Value: v, Lo: 0, Hi: 3}},
		},
		Term: Return{},
	}
	fn := &Function{Name: "f", Entry: 0, Blocks: []*BasicBlock{entry}}
	fn.SkipValues(0)

	m := NewModule()
	m.AddFunction(fn)
	Optimize(m)

	got := m.Functions["f"]
	found := false
	for _, inst := range got.Blocks[0].Instructions {
		if _, ok := inst.Kind.(RangeCheckU32); ok {
			found = true
		}
	}
	assert.True(t, found, "an in-bounds-unprovable range check is side-effecting and must survive DCE")
}
