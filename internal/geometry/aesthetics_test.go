package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/diagnostics"
)

func TestCheckAestheticsRadiusOutOfRange(t *testing.T) {
	node := &ast.UICallExpr{Kind: "Box", Props: map[string]ast.PropValue{"radius": prop("100")}}
	reporter := diagnostics.NewReporter()
	checkAesthetics(node, reporter)
	assert.True(t, reporter.HasErrors())
}

func TestCheckAestheticsPaddingInRange(t *testing.T) {
	node := &ast.UICallExpr{Kind: "Box", Props: map[string]ast.PropValue{"padding": prop("16")}}
	reporter := diagnostics.NewReporter()
	checkAesthetics(node, reporter)
	assert.False(t, reporter.HasErrors())
}

func TestCheckAestheticsLowContrastFails(t *testing.T) {
	node := &ast.UICallExpr{Kind: "Text", Props: map[string]ast.PropValue{
		"fg": prop("gold"),
		"bg": prop("gold"),
	}}
	reporter := diagnostics.NewReporter()
	checkAesthetics(node, reporter)
	assert.True(t, reporter.HasErrors())
}

func TestCheckAestheticsHighContrastPasses(t *testing.T) {
	node := &ast.UICallExpr{Kind: "Text", Props: map[string]ast.PropValue{
		"fg": prop("black"),
		"bg": prop("white"),
	}}
	reporter := diagnostics.NewReporter()
	checkAesthetics(node, reporter)
	assert.False(t, reporter.HasErrors())
}

func TestCheckAestheticsRecursesIntoChildren(t *testing.T) {
	node := &ast.UICallExpr{
		Kind: "VStack",
		Children: []ast.UICallExpr{
			{Kind: "Box", Props: map[string]ast.PropValue{"radius": prop("999")}},
		},
	}
	reporter := diagnostics.NewReporter()
	checkAesthetics(node, reporter)
	assert.True(t, reporter.HasErrors())
}
