package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/ir"
)

func intLit(n uint64) ast.Expr { return ast.Expr{Kind: ast.ExprLitInt, IntValue: n} }
func ident(name string) ast.Expr { return ast.Expr{Kind: ast.ExprIdent, Name: name} }

// program: cell main() -> u32 { val x = 1 val y = 2 return x + y }
func TestProgramLowersStraightLineArithmetic(t *testing.T) {
	xPlusY := ast.Expr{
		Kind:  ast.ExprBinary,
		BinOp: ast.BinAdd,
		Left:  identPtr("x"),
		Right: identPtr("y"),
	}
	p := &ast.Program{
		Cells: []ast.CellDef{{
			Name:    "main",
			Returns: ast.TypeRef{Name: ast.TyU32},
			Body: ast.Block{Stmts: []ast.Stmt{
				{Kind: ast.StmtVal, Target: "x", Value: litPtr(intLit(1))},
				{Kind: ast.StmtVal, Target: "y", Value: litPtr(intLit(2))},
				{Kind: ast.StmtReturn, Expr: &xPlusY},
			}},
		}},
	}

	m, err := Program(p)
	require.NoError(t, err)

	out, err := ir.RunOracleEntry(m, "main", nil, ir.DefaultOracleConfig())
	require.NoError(t, err)
	require.True(t, out.OK)
	require.NotNil(t, out.ReturnValue)
	assert.EqualValues(t, 3, out.ReturnValue.U32)
}

// program: cell main() -> bool { if true { val r = true } else { val r = false } return r }
func TestProgramLowersIfElseWithPhi(t *testing.T) {
	cond := ast.Expr{Kind: ast.ExprLitBool, BoolValue: true}
	p := &ast.Program{
		Cells: []ast.CellDef{{
			Name:    "main",
			Returns: ast.TypeRef{Name: ast.TyBool},
			Body: ast.Block{Stmts: []ast.Stmt{
				{
					Kind: ast.StmtIf,
					Cond: &cond,
					Then: &ast.Block{Stmts: []ast.Stmt{
						{Kind: ast.StmtVal, Target: "r", Value: &ast.Expr{Kind: ast.ExprLitBool, BoolValue: true}},
					}},
					Else: &ast.Block{Stmts: []ast.Stmt{
						{Kind: ast.StmtVal, Target: "r", Value: &ast.Expr{Kind: ast.ExprLitBool, BoolValue: false}},
					}},
				},
				{Kind: ast.StmtReturn, Expr: identPtr("r")},
			}},
		}},
	}

	m, err := Program(p)
	require.NoError(t, err)

	out, err := ir.RunOracleEntry(m, "main", nil, ir.DefaultOracleConfig())
	require.NoError(t, err)
	require.True(t, out.OK)
	require.NotNil(t, out.ReturnValue)
	assert.Equal(t, ir.OracleBoolKind, out.ReturnValue.Kind)
	assert.True(t, out.ReturnValue.Bool)
}

// program: cell main() -> bool { return false && undefined_side_effect() } lowered
// through the CFG short-circuit path; since the left operand is false the
// right-hand call must never execute.
func TestProgramShortCircuitsAndWithoutEvaluatingRight(t *testing.T) {
	left := ast.Expr{Kind: ast.ExprLitBool, BoolValue: false}
	right := ast.Expr{Kind: ast.ExprCall, Callee: identPtr("boom")}
	body := ast.Expr{Kind: ast.ExprBinary, BinOp: ast.BinAnd, Left: &left, Right: &right}

	p := &ast.Program{
		Cells: []ast.CellDef{{
			Name:    "main",
			Returns: ast.TypeRef{Name: ast.TyBool},
			Body:    ast.Block{Stmts: []ast.Stmt{{Kind: ast.StmtReturn, Expr: &body}}},
		}},
	}

	m, err := Program(p)
	require.NoError(t, err)

	out, err := ir.RunOracleEntry(m, "main", nil, ir.DefaultOracleConfig())
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.False(t, out.ReturnValue.Bool)
}

// program: cell main() -> u32 { val n = 1 while n < 3 { n = n + 1 } return n }
func TestProgramLowersWhileLoopWithLoopCarriedPhi(t *testing.T) {
	three := ast.Expr{Kind: ast.ExprLitInt, IntValue: 3}
	cond := ast.Expr{Kind: ast.ExprBinary, BinOp: ast.BinLt, Left: identPtr("n"), Right: &three}
	one := ast.Expr{Kind: ast.ExprLitInt, IntValue: 1}
	nPlus1 := ast.Expr{Kind: ast.ExprBinary, BinOp: ast.BinAdd, Left: identPtr("n"), Right: &one}

	p := &ast.Program{
		Cells: []ast.CellDef{{
			Name:    "main",
			Returns: ast.TypeRef{Name: ast.TyU32},
			Body: ast.Block{Stmts: []ast.Stmt{
				{Kind: ast.StmtVal, Target: "n", Value: litPtr(intLit(1))},
				{
					Kind: ast.StmtWhile,
					Cond: &cond,
					Body: &ast.Block{Stmts: []ast.Stmt{
						{Kind: ast.StmtAssign, Target: "n", Value: &nPlus1},
					}},
				},
				{Kind: ast.StmtReturn, Expr: identPtr("n")},
			}},
		}},
	}

	m, err := Program(p)
	require.NoError(t, err)

	out, err := ir.RunOracleEntry(m, "main", nil, ir.DefaultOracleConfig())
	require.NoError(t, err)
	require.True(t, out.OK)
	assert.EqualValues(t, 3, out.ReturnValue.U32)
}

// Signal enum { Go, Stop } with match dispatch via the ctor tensor encoding.
func TestProgramLowersEnumConstructorAndMatch(t *testing.T) {
	p := &ast.Program{
		Types: []ast.TypeDef{{
			Name: "Signal",
			Kind: ast.TypeKindEnum,
			Variant: []ast.Variant{
				{Name: "Go", Tag: 0},
				{Name: "Stop", Tag: 1},
			},
		}},
		Cells: []ast.CellDef{{
			Name:    "main",
			Returns: ast.TypeRef{Name: ast.TyU32},
			Body: ast.Block{Stmts: []ast.Stmt{
				{Kind: ast.StmtVal, Target: "sig", Value: &ast.Expr{Kind: ast.ExprCtorCall, CtorType: "Signal", CtorVariant: "Stop"}},
				{
					Kind:      ast.StmtMatch,
					Scrutinee: identPtr("sig"),
					Arms: []ast.MatchArm{
						{
							Pattern: ast.Pattern{Kind: ast.PatternCtor, EnumType: "Signal", EnumVariant: "Go"},
							Body:    ast.Block{Stmts: []ast.Stmt{{Kind: ast.StmtReturn, Expr: litPtr(intLit(1))}}},
						},
						{
							Pattern: ast.Pattern{Kind: ast.PatternCtor, EnumType: "Signal", EnumVariant: "Stop"},
							Body:    ast.Block{Stmts: []ast.Stmt{{Kind: ast.StmtReturn, Expr: litPtr(intLit(2))}}},
						},
						{
							Pattern: ast.Pattern{Kind: ast.PatternWildcard},
							Body:    ast.Block{Stmts: []ast.Stmt{{Kind: ast.StmtReturn, Expr: litPtr(intLit(99))}}},
						},
					},
				},
			}},
		}},
	}

	m, err := Program(p)
	require.NoError(t, err)
	require.NoError(t, ir.Validate(m))

	// The oracle is not run here: tensor.new/set/get are runtime builtins
	// the oracle does not model, so we only assert the module lowers and
	// validates; execution of tensor ops is the runtime's job.
	_, hasMain := m.Functions["main"]
	assert.True(t, hasMain)
}

func identPtr(name string) *ast.Expr {
	e := ident(name)
	return &e
}

func litPtr(e ast.Expr) *ast.Expr {
	return &e
}
