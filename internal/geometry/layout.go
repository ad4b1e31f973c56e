// Package geometry verifies that a program's UI layout trees can be laid
// out on a fixed 1920x1080 screen without overflow, and that their style
// literals stay within the aesthetic bounds §6.4 fixes. It is triggered
// only for programs that import aura_lumina; everything else never builds
// a UiNode tree at all.
package geometry

import (
	"fmt"
	"strconv"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/diagnostics"
	"github.com/aura-lang/aurac/internal/geometry/smt"
)

const (
	ScreenWidth  int64 = 1920
	ScreenHeight int64 = 1080
)

// RequestsLumina reports whether prog imports aura_lumina, the gate that
// decides whether the geometry verifier runs at all (§4.5).
func RequestsLumina(prog *ast.Program) bool {
	for _, imp := range prog.Imports {
		if imp == "aura_lumina" || imp == "aura.lumina" {
			return true
		}
	}
	return false
}

// CollectRoots walks every cell body in prog and returns the UI trees
// rooted at each StmtLayout/StmtRender statement or ui_call expression
// statement, in source order.
func CollectRoots(prog *ast.Program) []*ast.UICallExpr {
	var roots []*ast.UICallExpr
	for _, cell := range prog.Cells {
		collectBlock(&cell.Body, &roots)
	}
	return roots
}

func collectBlock(b *ast.Block, out *[]*ast.UICallExpr) {
	for i := range b.Stmts {
		s := &b.Stmts[i]
		switch s.Kind {
		case ast.StmtLayout, ast.StmtRender:
			if s.UI != nil {
				*out = append(*out, s.UI)
			}
		case ast.StmtExpr:
			if s.Expr != nil && s.Expr.Kind == ast.ExprUICallKnd && s.Expr.UICall != nil {
				*out = append(*out, s.Expr.UICall)
			}
		case ast.StmtIf:
			if s.Then != nil {
				collectBlock(s.Then, out)
			}
			if s.Else != nil {
				collectBlock(s.Else, out)
			}
		case ast.StmtWhile:
			if s.Body != nil {
				collectBlock(s.Body, out)
			}
		}
	}
}

// Verify runs the quick-reject literal check, the SMT containment/stacking
// encoding, and the aesthetics checks over every UI root in prog. Every root
// is checked. Within one tree, a quick-reject overflow of the root's own
// width/height is reported alone and ends that tree's checks; otherwise the
// solver contributes at most one diagnostic (the first constraint found
// infeasible) and the aesthetics pass one per violation.
func Verify(prog *ast.Program, reporter *diagnostics.Reporter) {
	if !RequestsLumina(prog) {
		return
	}
	for _, root := range CollectRoots(prog) {
		verifyTree(root, reporter)
	}
}

func verifyTree(root *ast.UICallExpr, reporter *diagnostics.Reporter) {
	if d, overflowed := quickReject(root); overflowed {
		reporter.Report(d)
		return
	}

	problem := smt.NewProblem()
	enc := &encoder{problem: problem, seq: 0}
	enc.encode(root, "", true)

	result := problem.Solve()
	if !result.Sat {
		reporter.Report(mapConflictToDiagnostic(root, enc, result))
	}

	checkAesthetics(root, reporter)
}

// quickReject rejects a root outright when its own literal width/height
// exceeds the screen, without invoking the solver at all — the cheap path
// §4.5 calls out before falling back to the SMT encoding.
func quickReject(node *ast.UICallExpr) (diagnostics.Diagnostic, bool) {
	w, wok := propInt(node, "width")
	h, hok := propInt(node, "height")
	if wok && w > ScreenWidth {
		return overflowDiagnostic(node, "width", w, ScreenWidth), true
	}
	if hok && h > ScreenHeight {
		return overflowDiagnostic(node, "height", h, ScreenHeight), true
	}
	return diagnostics.Diagnostic{}, false
}

func overflowDiagnostic(node *ast.UICallExpr, dim string, v, limit int64) diagnostics.Diagnostic {
	return diagnostics.Diagnostic{
		Location: toLocation(node.Span),
		Category: diagnostics.CategoryGeometry,
		Severity: diagnostics.SeverityError,
		Message:  fmt.Sprintf("%s literal %s=%d exceeds screen bound %d", node.Kind, dim, v, limit),
	}
}

func propInt(node *ast.UICallExpr, name string) (int64, bool) {
	pv, ok := node.Props[name]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(pv.Literal, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func toLocation(s ast.Span) diagnostics.Location {
	return diagnostics.Location{File: s.File, Line: uint32(s.StartLine), Col: uint32(s.StartCol)}
}

// encoder assigns each visited node a unique variable-name prefix and
// records enough bookkeeping (node by prefix, parent axis) for
// counterexample mapping after Solve.
type encoder struct {
	problem *smt.Problem
	seq     int
	nodes   []encodedNode
}

type encodedNode struct {
	prefix string
	node   *ast.UICallExpr
}

func (e *encoder) fresh(node *ast.UICallExpr) string {
	e.seq++
	prefix := fmt.Sprintf("n%d", e.seq)
	e.nodes = append(e.nodes, encodedNode{prefix: prefix, node: node})
	return prefix
}

func vx(p string) string { return p + "_x" }
func vy(p string) string { return p + "_y" }
func vw(p string) string { return p + "_w" }
func vh(p string) string { return p + "_h" }

// encode builds this node's box variables and constraints, recursing into
// children with containment (and, for VStack/HStack, consecutive-sibling
// stacking spacing along their axis); Grid and Box recurse without adding
// extra stacking constraints of their own (§4.5).
func (e *encoder) encode(node *ast.UICallExpr, parentPrefix string, isRoot bool) string {
	prefix := e.fresh(node)

	lo := func(name string, def int64) int64 {
		if v, ok := propInt(node, name); ok {
			return v
		}
		return def
	}

	e.problem.Var(vx(prefix), 0, ScreenWidth)
	e.problem.Var(vy(prefix), 0, ScreenHeight)
	e.problem.Var(vw(prefix), 0, ScreenWidth)
	e.problem.Var(vh(prefix), 0, ScreenHeight)

	if isRoot {
		e.problem.Eq(vx(prefix), 0)
		e.problem.Eq(vy(prefix), 0)
		e.problem.Eq(vw(prefix), ScreenWidth)
		e.problem.Eq(vh(prefix), ScreenHeight)
	} else {
		if v, ok := propInt(node, "x"); ok {
			e.problem.Eq(vx(prefix), v)
		}
		if v, ok := propInt(node, "y"); ok {
			e.problem.Eq(vy(prefix), v)
		}
		if v, ok := propInt(node, "width"); ok {
			e.problem.Eq(vw(prefix), v)
		}
		if v, ok := propInt(node, "height"); ok {
			e.problem.Eq(vh(prefix), v)
		}
	}

	// x + w <= screen width, y + h <= screen height.
	e.problem.Assert([]smt.Term{{Var: vx(prefix), Coef: 1}, {Var: vw(prefix), Coef: 1}}, ScreenWidth,
		fmt.Sprintf("screen-bound-x:%s", prefix))
	e.problem.Assert([]smt.Term{{Var: vy(prefix), Coef: 1}, {Var: vh(prefix), Coef: 1}}, ScreenHeight,
		fmt.Sprintf("screen-bound-y:%s", prefix))

	if !isRoot && parentPrefix != "" {
		// child.x >= parent.x  <=>  parent.x - child.x <= 0
		e.problem.Assert([]smt.Term{{Var: vx(parentPrefix), Coef: 1}, {Var: vx(prefix), Coef: -1}}, 0,
			fmt.Sprintf("child-within-parent-x:%s", prefix))
		e.problem.Assert([]smt.Term{{Var: vy(parentPrefix), Coef: 1}, {Var: vy(prefix), Coef: -1}}, 0,
			fmt.Sprintf("child-within-parent-y:%s", prefix))
		// child.x + child.w <= parent.x + parent.w
		e.problem.Assert([]smt.Term{
			{Var: vx(prefix), Coef: 1}, {Var: vw(prefix), Coef: 1},
			{Var: vx(parentPrefix), Coef: -1}, {Var: vw(parentPrefix), Coef: -1},
		}, 0, fmt.Sprintf("child-within-parent-right:%s", prefix))
		e.problem.Assert([]smt.Term{
			{Var: vy(prefix), Coef: 1}, {Var: vh(prefix), Coef: 1},
			{Var: vy(parentPrefix), Coef: -1}, {Var: vh(parentPrefix), Coef: -1},
		}, 0, fmt.Sprintf("child-within-parent-bottom:%s", prefix))
	}

	spacing := lo("spacing", 0)
	childPrefixes := make([]string, 0, len(node.Children))
	for i := range node.Children {
		childPrefixes = append(childPrefixes, e.encode(&node.Children[i], prefix, false))
	}

	switch node.Kind {
	case "VStack":
		for i := 0; i+1 < len(childPrefixes); i++ {
			a, b := childPrefixes[i], childPrefixes[i+1]
			// b.y >= a.y + a.h + spacing  <=>  a.y + a.h - b.y <= -spacing
			e.problem.Assert([]smt.Term{
				{Var: vy(a), Coef: 1}, {Var: vh(a), Coef: 1}, {Var: vy(b), Coef: -1},
			}, -spacing, fmt.Sprintf("vstack-spacing:%s->%s", a, b))
		}
	case "HStack":
		for i := 0; i+1 < len(childPrefixes); i++ {
			a, b := childPrefixes[i], childPrefixes[i+1]
			e.problem.Assert([]smt.Term{
				{Var: vx(a), Coef: 1}, {Var: vw(a), Coef: 1}, {Var: vx(b), Coef: -1},
			}, -spacing, fmt.Sprintf("hstack-spacing:%s->%s", a, b))
		}
	}

	return prefix
}
