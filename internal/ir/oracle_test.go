package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOracleEntryDivisionByZeroGuard(t *testing.T) {
	divisor, quotient := ValueId(0), ValueId(1)
	entry := &BasicBlock{
		ID: 0,
		Instructions: []*Instruction{
			{Dest: &divisor, Kind: BindStrand{Name: "d", Value: ConstU32(0)}},
			{Kind: RangeCheckU32{Value: divisor, Lo: 1, Hi: 4294967295}},
			{Dest: &quotient, Kind: Binary{Op: OpDiv, Left: divisor, Right: divisor}},
		},
		Term: Return{Value: &quotient},
	}
	fn := &Function{Name: "main", Entry: 0, Blocks: []*BasicBlock{entry}}
	fn.SkipValues(1)

	m := NewModule()
	m.AddFunction(fn)

	out, err := RunOracleEntry(m, "main", nil, DefaultOracleConfig())
	require.NoError(t, err)
	assert.False(t, out.OK, "division guard must halt via the failed range check, not panic")
	assert.Contains(t, out.Stderr, "range check failed")
}

func TestRunOracleEntryWhileLoopCountsToBound(t *testing.T) {
	// i = phi(pre=0, back=i+1); cond: i < 3; body: i = i+1; exit returns i.
	iPre := ValueId(0)
	iPhi := ValueId(1)
	cond := ValueId(2)
	three := ValueId(3)
	iNext := ValueId(4)
	one := ValueId(5)

	preheader := &BasicBlock{
		ID:           0,
		Instructions: []*Instruction{{Dest: &iPre, Kind: BindStrand{Name: "i0", Value: ConstU32(0)}}},
		Term:         Br{Target: 1},
	}
	condBlock := &BasicBlock{
		ID: 1,
		Instructions: []*Instruction{
			{Dest: &iPhi, Kind: Phi{Incomings: []PhiIncoming{{Pred: 0, Value: iPre}, {Pred: 2, Value: iNext}}}},
			{Dest: &three, Kind: BindStrand{Name: "three", Value: ConstU32(3)}},
			{Dest: &cond, Kind: Binary{Op: OpLt, Left: iPhi, Right: three}},
		},
		Term: CondBr{Cond: cond, Then: 2, Else: 3},
	}
	body := &BasicBlock{
		ID: 2,
		Instructions: []*Instruction{
			{Dest: &one, Kind: BindStrand{Name: "one", Value: ConstU32(1)}},
			{Dest: &iNext, Kind: Binary{Op: OpAdd, Left: iPhi, Right: one}},
		},
		Term: Br{Target: 1},
	}
	exit := &BasicBlock{ID: 3, Term: Return{Value: &iPhi}}

	fn := &Function{Name: "main", Entry: 0, Blocks: []*BasicBlock{preheader, condBlock, body, exit}}
	fn.SkipValues(5)

	m := NewModule()
	m.AddFunction(fn)

	out, err := RunOracleEntry(m, "main", nil, DefaultOracleConfig())
	require.NoError(t, err)
	require.True(t, out.OK)
	require.NotNil(t, out.ReturnValue)
	assert.Equal(t, OracleU32Kind, out.ReturnValue.Kind)
	assert.EqualValues(t, 3, out.ReturnValue.U32)
}

func TestRunOracleEntryPrintlnExtern(t *testing.T) {
	msg := ValueId(0)
	entry := &BasicBlock{
		ID: 0,
		Instructions: []*Instruction{
			{Dest: &msg, Kind: BindStrand{Name: "msg", Value: ConstString("hello")}},
			{Kind: Call{Callee: "aura_io_println", Args: []ValueId{msg}}},
		},
		Term: Return{},
	}
	fn := &Function{Name: "main", Entry: 0, Blocks: []*BasicBlock{entry}}
	fn.SkipValues(0)

	m := NewModule()
	m.AddFunction(fn)
	m.AddExtern(&ExternSig{Name: "aura_io_println", Params: []Type{String}, Return: Unit})

	out, err := RunOracleEntry(m, "main", nil, DefaultOracleConfig())
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "hello\n", out.Stdout)
}

func TestRunOracleEntryExceedsStepBound(t *testing.T) {
	entry := &BasicBlock{ID: 0, Term: Br{Target: 0}}
	fn := &Function{Name: "main", Entry: 0, Blocks: []*BasicBlock{entry}}

	m := NewModule()
	m.AddFunction(fn)

	_, err := RunOracleEntry(m, "main", nil, OracleConfig{MaxSteps: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_steps")
}
