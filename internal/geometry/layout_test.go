package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/diagnostics"
)

func prop(v string) ast.PropValue { return ast.PropValue{Literal: v} }

func TestRequestsLumina(t *testing.T) {
	assert.True(t, RequestsLumina(&ast.Program{Imports: []string{"aura_lumina"}}))
	assert.False(t, RequestsLumina(&ast.Program{Imports: []string{"aura_io"}}))
}

func TestQuickRejectOversizedLiteral(t *testing.T) {
	node := &ast.UICallExpr{
		Kind:  "Box",
		Props: map[string]ast.PropValue{"width": prop("5000")},
	}
	d, overflowed := quickReject(node)
	require.True(t, overflowed)
	assert.Equal(t, diagnostics.CategoryGeometry, d.Category)
}

func TestQuickRejectAcceptsInBounds(t *testing.T) {
	node := &ast.UICallExpr{
		Kind:  "Box",
		Props: map[string]ast.PropValue{"width": prop("200")},
	}
	_, overflowed := quickReject(node)
	assert.False(t, overflowed)
}

func TestVerifyDetectsStackOverflow(t *testing.T) {
	root := &ast.UICallExpr{
		Kind: "VStack",
		Props: map[string]ast.PropValue{
			"spacing": prop("10"),
		},
		Children: []ast.UICallExpr{
			{Kind: "Box", Props: map[string]ast.PropValue{"height": prop("600"), "y": prop("0")}},
			{Kind: "Box", Props: map[string]ast.PropValue{"height": prop("600"), "y": prop("610")}},
		},
	}
	prog := &ast.Program{
		Name:    "p",
		Imports: []string{"aura_lumina"},
		Cells: []ast.CellDef{
			{Body: ast.Block{Stmts: []ast.Stmt{{Kind: ast.StmtLayout, UI: root}}}},
		},
	}

	reporter := diagnostics.NewReporter()
	Verify(prog, reporter)
	assert.True(t, reporter.HasErrors())
}

func TestVerifySatisfiableTreeReportsNothing(t *testing.T) {
	root := &ast.UICallExpr{
		Kind: "VStack",
		Children: []ast.UICallExpr{
			{Kind: "Box", Props: map[string]ast.PropValue{"height": prop("100")}},
			{Kind: "Box", Props: map[string]ast.PropValue{"height": prop("100")}},
		},
	}
	prog := &ast.Program{
		Name:    "p",
		Imports: []string{"aura_lumina"},
		Cells: []ast.CellDef{
			{Body: ast.Block{Stmts: []ast.Stmt{{Kind: ast.StmtLayout, UI: root}}}},
		},
	}

	reporter := diagnostics.NewReporter()
	Verify(prog, reporter)
	assert.False(t, reporter.HasErrors())
}

func TestCollectRootsSkipsWithoutLumina(t *testing.T) {
	prog := &ast.Program{
		Name: "p",
		Cells: []ast.CellDef{
			{Body: ast.Block{Stmts: []ast.Stmt{{Kind: ast.StmtLayout, UI: &ast.UICallExpr{Kind: "Box"}}}}},
		},
	}
	reporter := diagnostics.NewReporter()
	Verify(prog, reporter)
	assert.Equal(t, 0, reporter.Len())
}
