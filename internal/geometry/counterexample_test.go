package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/geometry/smt"
)

func TestHumanizeConflictKnownPrefixes(t *testing.T) {
	assert.Contains(t, humanizeConflict("screen-bound-x:n1"), "screen")
	assert.Contains(t, humanizeConflict("child-within-parent-right:n2"), "overflows its parent")
	assert.Contains(t, humanizeConflict("vstack-spacing:n1->n2"), "VStack")
	assert.Contains(t, humanizeConflict("hstack-spacing:n1->n2"), "HStack")
	assert.Contains(t, humanizeConflict("mystery"), "infeasible")
}

func TestNodePrefixStripsSuffix(t *testing.T) {
	assert.Equal(t, "n1", nodePrefix("n1_x"))
	assert.Equal(t, "n1", nodePrefix("n1_w"))
	assert.Equal(t, "bare", nodePrefix("bare"))
}

func TestMapConflictToDiagnosticFindsNode(t *testing.T) {
	root := &ast.UICallExpr{Kind: "VStack"}
	problem := smt.NewProblem()
	enc := &encoder{problem: problem}
	prefix := enc.fresh(root)

	result := smt.Result{Sat: false, ConflictVar: prefix + "_w", ConflictWhy: "screen-bound-x:" + prefix}
	d := mapConflictToDiagnostic(root, enc, result)
	assert.Equal(t, "VStack", root.Kind)
	assert.Contains(t, d.Message, "VStack")
	assert.Contains(t, d.Suggested, "width/height")
}

func TestSuggestedFixForStacking(t *testing.T) {
	node := &ast.UICallExpr{Kind: "HStack"}
	fix := suggestedFix(node, "hstack-spacing:n1->n2")
	assert.Contains(t, fix, "spacing")
}
