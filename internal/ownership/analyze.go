package ownership

import (
	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/diagnostics"
)

// AnalyzeCell walks a cell body and returns the ownership diagnostics found
// by the walk and by the cell-exit linear-resource check. The asymmetry
// violations MergeBranches records on the Context at if/match/while joins
// are not part of the result. It works on the AST alone and never mutates
// it; the pipeline runs it before lowering, while race detection runs later
// over the lowered IR.
func AnalyzeCell(file string, cell *ast.CellDef) []diagnostics.Diagnostic {
	ctx := NewContext()
	for _, p := range cell.Params {
		ctx.SetLocation(uint32(p.Span.StartLine), uint32(p.Span.StartCol))
		ctx.Define(p.Name, p.Type.Name, Linear(p.Type.Name))
	}

	a := &analyzer{ctx: ctx, file: file}
	a.walkBlock(&cell.Body)
	a.violations = append(a.violations, ctx.CheckLinearResourcesConsumed()...)

	out := make([]diagnostics.Diagnostic, 0, len(a.violations))
	for _, v := range a.violations {
		out = append(out, ToDiagnostic(file, v))
	}
	return out
}

type analyzer struct {
	ctx        *Context
	file       string
	violations []Violation
}

func (a *analyzer) walkBlock(b *ast.Block) {
	for i := range b.Stmts {
		a.walkStmt(&b.Stmts[i])
	}
}

func (a *analyzer) walkStmt(s *ast.Stmt) {
	a.ctx.SetLocation(uint32(s.Span.StartLine), uint32(s.Span.StartCol))

	switch s.Kind {
	case ast.StmtVal:
		typeName, isLinear := a.useRValue(s.Value)
		a.ctx.Define(s.Target, typeName, isLinear)

	case ast.StmtAssign:
		if existing := a.ctx.find(s.Target); existing != nil && existing.IsLinear && existing.State == Owned {
			a.violations = append(a.violations, Violation{
				BindingName: s.Target,
				Kind:        UseNotMoved,
				AtLine:      uint32(s.Span.StartLine),
				AtCol:       uint32(s.Span.StartCol),
				Message:     "linear binding '" + s.Target + "' overwritten while still owned; consume it first",
			})
		}
		typeName, isLinear := a.useRValue(s.Value)
		a.ctx.Define(s.Target, typeName, isLinear)

	case ast.StmtIf:
		a.useExpr(s.Cond)
		pre := a.ctx.Snapshot()

		a.ctx.PushScope()
		if s.Then != nil {
			a.walkBlock(s.Then)
		}
		thenSnap := a.ctx.Snapshot()
		a.recordScopeExit()

		a.ctx.Restore(pre)
		elseSnap := pre
		if s.Else != nil {
			a.ctx.PushScope()
			a.walkBlock(s.Else)
			elseSnap = a.ctx.Snapshot()
			a.recordScopeExit()
			a.ctx.Restore(pre)
		}

		merged := MergeBranches(a.ctx, uint32(s.Span.StartLine), uint32(s.Span.StartCol), thenSnap, elseSnap)
		a.ctx.Restore(merged)

	case ast.StmtMatch:
		a.useExpr(s.Scrutinee)
		pre := a.ctx.Snapshot()
		snaps := make([]map[string]State, 0, len(s.Arms))
		for _, arm := range s.Arms {
			a.ctx.Restore(pre)
			a.ctx.PushScope()
			body := arm.Body
			a.walkBlock(&body)
			snaps = append(snaps, a.ctx.Snapshot())
			a.recordScopeExit()
		}
		a.ctx.Restore(pre)
		if len(snaps) > 0 {
			merged := MergeBranches(a.ctx, uint32(s.Span.StartLine), uint32(s.Span.StartCol), snaps...)
			a.ctx.Restore(merged)
		}

	case ast.StmtWhile:
		a.useExpr(s.Cond)
		pre := a.ctx.Snapshot()
		preLinear := linearNamesIn(a.ctx, pre)

		a.ctx.PushScope()
		if s.Body != nil {
			a.walkBlock(s.Body)
		}
		post := a.ctx.Snapshot()
		a.recordScopeExit()

		a.violations = append(a.violations, CheckLoopCarried(pre, post, preLinear)...)

		merged := MergeBranches(a.ctx, uint32(s.Span.StartLine), uint32(s.Span.StartCol), pre, post)
		a.ctx.Restore(merged)

	case ast.StmtReturn, ast.StmtYield:
		if s.Expr != nil {
			if s.Expr.Kind == ast.ExprIdent {
				if v := a.ctx.RecordReturn(s.Expr.Name); v != nil {
					a.violations = append(a.violations, *v)
				}
			} else {
				a.useExpr(s.Expr)
			}
		}

	case ast.StmtExpr:
		a.useExpr(s.Expr)

	case ast.StmtLayout, ast.StmtRender:
		// UI subtrees are opaque to ownership; the geometry verifier owns them.
	}
}

func (a *analyzer) recordScopeExit() {
	a.violations = append(a.violations, a.ctx.PopScope()...)
}

// useRValue evaluates a `val`/assignment right-hand side, returning a best
// guess at the bound type name and its linearity so Define can classify it.
func (a *analyzer) useRValue(e *ast.Expr) (typeName string, isLinear bool) {
	if e == nil {
		return "", false
	}
	switch e.Kind {
	case ast.ExprCtorCall:
		return e.CtorType, Linear(e.CtorType)
	case ast.ExprIdent:
		if b := a.ctx.find(e.Name); b != nil {
			if v := a.ctx.RecordMove(e.Name); v != nil {
				a.violations = append(a.violations, *v)
			}
			return b.TypeName, b.IsLinear
		}
		if v := a.ctx.RecordUse(e.Name); v != nil {
			a.violations = append(a.violations, *v)
		}
		return "", false
	case ast.ExprCall:
		name := calleeName(e.Callee)
		a.useCallArgs(e)
		switch {
		case name == "tensor.new" || name == "ai.infer" || name == "compute_gradient":
			return "Tensor", true
		case name == "ai.load_model":
			return "Model", true
		default:
			return "", false
		}
	case ast.ExprFlow:
		return a.useRValue(e.Right)
	default:
		a.useExpr(e)
		return "", false
	}
}

// useExpr records reads of every identifier reachable from e without
// consuming them; it's the non-defining counterpart of useRValue, used for
// conditions, statement-expressions, and non-identifier return values.
func (a *analyzer) useExpr(e *ast.Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprIdent:
		if v := a.ctx.RecordUse(e.Name); v != nil {
			a.violations = append(a.violations, *v)
		}
	case ast.ExprUnary:
		a.useExpr(e.Operand)
	case ast.ExprBinary:
		a.useExpr(e.Left)
		a.useExpr(e.Right)
	case ast.ExprMember:
		a.useMemberObject(e)
	case ast.ExprCall:
		a.useCallArgs(e)
	case ast.ExprCtorCall:
		for i := range e.Args {
			a.useExpr(&e.Args[i])
		}
	case ast.ExprFlow:
		a.useExpr(e.Left)
		a.useExpr(e.Right)
	case ast.ExprStyleLit:
		for _, f := range e.StyleFields {
			a.useExpr(&f.Value)
		}
	}
}

// useMemberObject handles `obj.field` / `obj.method(...)`: a trailing-call
// member is a borrow (mutable for the one mutating tensor method, immutable
// otherwise), a plain field read is a copyable-value read with no ownership
// effect.
func (a *analyzer) useMemberObject(e *ast.Expr) {
	if e.Object == nil || e.Object.Kind != ast.ExprIdent {
		a.useExpr(e.Object)
		return
	}
	name := e.Object.Name
	if !a.ctx.BindingExists(name) {
		a.useExpr(e.Object)
		return
	}
	var v *Violation
	if e.Field == "set" {
		v = a.ctx.RecordBorrowMut(name)
	} else {
		v = a.ctx.RecordBorrowImmut(name)
	}
	if v != nil {
		a.violations = append(a.violations, *v)
	}
}

// useCallArgs treats a bare-identifier argument whose binding is linear as a
// move into the callee (ownership transfer on call), and anything else as an
// ordinary recursive use.
func (a *analyzer) useCallArgs(e *ast.Expr) {
	if e.Callee != nil && e.Callee.Kind == ast.ExprMember {
		a.useMemberObject(e.Callee)
	}
	for i := range e.Args {
		arg := &e.Args[i]
		if arg.Kind == ast.ExprIdent {
			if b := a.ctx.find(arg.Name); b != nil && b.IsLinear {
				if v := a.ctx.RecordMove(arg.Name); v != nil {
					a.violations = append(a.violations, *v)
				}
				continue
			}
		}
		a.useExpr(arg)
	}
}

func calleeName(e *ast.Expr) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ast.ExprIdent:
		return e.Name
	case ast.ExprMember:
		return calleeName(e.Object) + "." + e.Field
	default:
		return ""
	}
}

func linearNamesIn(ctx *Context, snap map[string]State) map[string]bool {
	out := map[string]bool{}
	for name := range snap {
		if b := ctx.find(name); b != nil {
			out[name] = b.IsLinear
		}
	}
	return out
}
