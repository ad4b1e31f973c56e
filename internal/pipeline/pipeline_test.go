package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/ir"
)

func intLit(n uint64) *ast.Expr {
	e := ast.Expr{Kind: ast.ExprLitInt, IntValue: n}
	return &e
}

func identPtr(name string) *ast.Expr {
	e := ast.Expr{Kind: ast.ExprIdent, Name: name}
	return &e
}

// straightLineProgram builds `cell main() -> u32 { val x = 1 val y = 2 return x + y }`.
func straightLineProgram() *ast.Program {
	xPlusY := ast.Expr{Kind: ast.ExprBinary, BinOp: ast.BinAdd, Left: identPtr("x"), Right: identPtr("y")}
	return &ast.Program{
		Name: "straight_line",
		Cells: []ast.CellDef{{
			Name:    "main",
			Returns: ast.TypeRef{Name: ast.TyU32},
			Body: ast.Block{Stmts: []ast.Stmt{
				{Kind: ast.StmtVal, Target: "x", Value: intLit(1)},
				{Kind: ast.StmtVal, Target: "y", Value: intLit(2)},
				{Kind: ast.StmtReturn, Expr: &xPlusY},
			}},
		}},
	}
}

func TestRunLowersValidatesAndOptimizes(t *testing.T) {
	res, err := Run(straightLineProgram(), Options{Backend: BackendNone, OptimizerLevel: 1})
	require.NoError(t, err)
	require.False(t, res.Reporter.HasErrors())
	require.NotNil(t, res.Module)
	assert.Contains(t, res.Module.Functions, "main")
}

func TestRunEmitsLLVM(t *testing.T) {
	res, err := Run(straightLineProgram(), Options{Backend: BackendLLVM, OptimizerLevel: 1})
	require.NoError(t, err)
	require.False(t, res.Reporter.HasErrors())
	assert.Contains(t, res.LLVM, "define")
}

func TestRunEmitsC(t *testing.T) {
	res, err := Run(straightLineProgram(), Options{Backend: BackendC, OptimizerLevel: 1})
	require.NoError(t, err)
	require.False(t, res.Reporter.HasErrors())
	assert.NotEmpty(t, res.C.RuntimeH)
	assert.Contains(t, res.C.ModuleC, "main")
}

func TestRunSkipsOptimizerWhenLevelZero(t *testing.T) {
	res, err := Run(straightLineProgram(), Options{Backend: BackendNone, OptimizerLevel: 0})
	require.NoError(t, err)
	require.NotNil(t, res.Module)
}

func TestRunWithOracle(t *testing.T) {
	res, err := Run(straightLineProgram(), Options{
		Backend:      BackendNone,
		RunOracle:    true,
		OracleEntry:  "main",
		OracleConfig: ir.DefaultOracleConfig(),
	})
	require.NoError(t, err)
	require.NotNil(t, res.OracleOut)
	require.True(t, res.OracleOut.OK)
	require.NotNil(t, res.OracleOut.ReturnValue)
	assert.EqualValues(t, 3, res.OracleOut.ReturnValue.U32)
}
