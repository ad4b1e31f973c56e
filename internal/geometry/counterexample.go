package geometry

import (
	"fmt"
	"strings"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/diagnostics"
	"github.com/aura-lang/aurac/internal/geometry/smt"
)

// mapConflictToDiagnostic translates a solver UNSAT result back into a
// source-span-anchored diagnostic, the way
// original_source/aura-verify/src/counterexample_mapper.rs turns a bare
// "unsat" into a pointer at the source: the diagnostic is anchored at the
// span of the node whose variable collapsed (the root when no node
// matches), not at the span of an individual property literal.
func mapConflictToDiagnostic(root *ast.UICallExpr, enc *encoder, result smt.Result) diagnostics.Diagnostic {
	prefix := nodePrefix(result.ConflictVar)
	node := findNode(enc, prefix)
	if node == nil {
		node = root
	}

	reason := humanizeConflict(result.ConflictWhy)
	return diagnostics.Diagnostic{
		Location:  toLocation(node.Span),
		Category:  diagnostics.CategoryGeometry,
		Severity:  diagnostics.SeverityError,
		Message:   fmt.Sprintf("%s layout is unsatisfiable: %s", node.Kind, reason),
		Details:   fmt.Sprintf("solver conflict on %s (%s)", result.ConflictVar, result.ConflictWhy),
		Suggested: suggestedFix(node, result.ConflictWhy),
	}
}

func nodePrefix(varName string) string {
	if i := strings.LastIndexByte(varName, '_'); i >= 0 {
		return varName[:i]
	}
	return varName
}

func findNode(enc *encoder, prefix string) *ast.UICallExpr {
	for _, n := range enc.nodes {
		if n.prefix == prefix {
			return n.node
		}
	}
	return nil
}

func humanizeConflict(label string) string {
	kind := label
	if i := strings.IndexByte(label, ':'); i >= 0 {
		kind = label[:i]
	}
	switch {
	case strings.HasPrefix(kind, "screen-bound"):
		return "node does not fit on the 1920x1080 screen"
	case strings.HasPrefix(kind, "child-within-parent"):
		return "child overflows its parent's bounds"
	case strings.HasPrefix(kind, "vstack-spacing"):
		return "VStack children overflow with the requested spacing"
	case strings.HasPrefix(kind, "hstack-spacing"):
		return "HStack children overflow with the requested spacing"
	default:
		return "layout constraints are infeasible"
	}
}

func suggestedFix(node *ast.UICallExpr, why string) string {
	switch {
	case strings.HasPrefix(why, "vstack-spacing"), strings.HasPrefix(why, "hstack-spacing"):
		return fmt.Sprintf("reduce %s's spacing or its children's width/height", node.Kind)
	case strings.HasPrefix(why, "child-within-parent"):
		return fmt.Sprintf("reduce %s's width/height or reposition it within its parent", node.Kind)
	default:
		return fmt.Sprintf("reduce %s's width/height to fit the screen", node.Kind)
	}
}
