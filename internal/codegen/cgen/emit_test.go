package cgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	airir "github.com/aura-lang/aurac/internal/ir"
)

func straightLineModule() *airir.Module {
	m := airir.NewModule()
	fn := &airir.Function{Name: "main", Return: airir.U32, Entry: 0}
	x, y, z := airir.ValueId(0), airir.ValueId(1), airir.ValueId(2)
	entry := &airir.BasicBlock{
		ID: 0,
		Instructions: []*airir.Instruction{
			{Dest: &x, Kind: airir.BindStrand{Name: "x", Value: airir.ConstU32(1)}},
			{Dest: &y, Kind: airir.BindStrand{Name: "y", Value: airir.ConstU32(2)}},
			{Dest: &z, Kind: airir.Binary{Op: airir.OpAdd, Left: x, Right: y}},
		},
		Term: airir.Return{Value: &z},
	}
	fn.Blocks = []*airir.BasicBlock{entry}
	fn.SkipValues(2)
	m.AddFunction(fn)
	return m
}

func TestEmitProducesRuntimeHeaderAndModule(t *testing.T) {
	artifacts, err := Emit(straightLineModule())
	require.NoError(t, err)
	assert.Contains(t, artifacts.RuntimeH, "aura_range_check_u32")
	assert.Contains(t, artifacts.ModuleC, "aura_main")
	assert.Contains(t, artifacts.ModuleC, "int main(void)")
}

func TestEmitRangeCheckBeforeDivision(t *testing.T) {
	m := airir.NewModule()
	fn := &airir.Function{Name: "main", Return: airir.U32, Entry: 0}
	x, y, z := airir.ValueId(0), airir.ValueId(1), airir.ValueId(2)
	entry := &airir.BasicBlock{
		ID: 0,
		Instructions: []*airir.Instruction{
			{Dest: &x, Kind: airir.BindStrand{Name: "x", Value: airir.ConstU32(10)}},
			{Dest: &y, Kind: airir.BindStrand{Name: "y", Value: airir.ConstU32(2)}},
			{Dest: &z, Kind: airir.Binary{Op: airir.OpDiv, Left: x, Right: y}},
		},
		Term: airir.Return{Value: &z},
	}
	fn.Blocks = []*airir.BasicBlock{entry}
	fn.SkipValues(2)
	m.AddFunction(fn)

	artifacts, err := Emit(m)
	require.NoError(t, err)
	assert.Contains(t, artifacts.ModuleC, "aura_range_check_u32")
}

func TestEmitPhiInjectionOnBranch(t *testing.T) {
	m := airir.NewModule()
	fn := &airir.Function{Name: "main", Return: airir.U32, Entry: 0}
	cond := airir.ValueId(0)
	thenVal := airir.ValueId(1)
	elseVal := airir.ValueId(2)
	merged := airir.ValueId(3)

	entry := &airir.BasicBlock{
		ID:           0,
		Instructions: []*airir.Instruction{{Dest: &cond, Kind: airir.BindStrand{Name: "c", Value: airir.ConstBool(true)}}},
		Term:         airir.CondBr{Cond: cond, Then: 1, Else: 2},
	}
	thenBlk := &airir.BasicBlock{
		ID:           1,
		Instructions: []*airir.Instruction{{Dest: &thenVal, Kind: airir.BindStrand{Name: "t", Value: airir.ConstU32(1)}}},
		Term:         airir.Br{Target: 3},
	}
	elseBlk := &airir.BasicBlock{
		ID:           2,
		Instructions: []*airir.Instruction{{Dest: &elseVal, Kind: airir.BindStrand{Name: "e", Value: airir.ConstU32(2)}}},
		Term:         airir.Br{Target: 3},
	}
	joinBlk := &airir.BasicBlock{
		ID: 3,
		Instructions: []*airir.Instruction{
			{Dest: &merged, Kind: airir.Phi{Incomings: []airir.PhiIncoming{
				{Pred: 1, Value: thenVal},
				{Pred: 2, Value: elseVal},
			}}},
		},
		Term: airir.Return{Value: &merged},
	}
	fn.Blocks = []*airir.BasicBlock{entry, thenBlk, elseBlk, joinBlk}
	fn.SkipValues(3)
	m.AddFunction(fn)

	artifacts, err := Emit(m)
	require.NoError(t, err)
	assert.Contains(t, artifacts.ModuleC, "goto")
}
