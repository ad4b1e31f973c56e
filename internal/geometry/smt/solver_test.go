package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveSatisfiableBox(t *testing.T) {
	p := NewProblem()
	p.Var("x", 0, 100)
	p.Var("w", 0, 100)
	// x + w <= 100
	p.Assert([]Term{{Var: "x", Coef: 1}, {Var: "w", Coef: 1}}, 100, "screen-bound")

	res := p.Solve()
	require.True(t, res.Sat)
	assert.LessOrEqual(t, res.Model["x"]+res.Model["w"], int64(100))
}

func TestSolveUnsatisfiableEquality(t *testing.T) {
	p := NewProblem()
	p.Eq("w", 3000) // fixed outside the declared domain below
	p.Var("w", 0, 1920)

	res := p.Solve()
	require.False(t, res.Sat)
	assert.Equal(t, "w", res.ConflictVar)
}

func TestContainmentConflict(t *testing.T) {
	p := NewProblem()
	p.Eq("parent_w", 100)
	p.Eq("child_w", 50)
	p.Eq("child_x", 80)
	p.Eq("parent_x", 0)
	// child.x + child.w <= parent.x + parent.w  =>  child_x + child_w - parent_x - parent_w <= 0
	p.Assert([]Term{
		{Var: "child_x", Coef: 1}, {Var: "child_w", Coef: 1},
		{Var: "parent_x", Coef: -1}, {Var: "parent_w", Coef: -1},
	}, 0, "child-within-parent-right:child")

	res := p.Solve()
	require.False(t, res.Sat)
	assert.Equal(t, "child-within-parent-right:child", res.ConflictWhy)
}

func TestEqMergesTighterBound(t *testing.T) {
	p := NewProblem()
	p.Var("x", 0, 50)
	p.Eq("x", 10)

	res := p.Solve()
	require.True(t, res.Sat)
	assert.Equal(t, int64(10), res.Model["x"])
}

func TestDomainEmpty(t *testing.T) {
	d := Domain{Lo: 5, Hi: 4}
	assert.True(t, d.Empty())
	assert.False(t, Domain{Lo: 1, Hi: 1}.Empty())
}
