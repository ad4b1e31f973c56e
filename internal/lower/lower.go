// Package lower turns a parsed Aura program into SSA IR (spec.md §4.2): one
// ir.Function per cell, phi placement done structurally as
// each construct is lowered rather than via a general dominance computation
// afterward.
package lower

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/ir"
)

// Error is a lowering failure tied to a source span.
type Error struct {
	Message string
	Span    ast.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Span.File, e.Span.StartLine, e.Span.StartCol, e.Message)
}

func errAt(span ast.Span, format string, args ...interface{}) error {
	return &Error{Message: fmt.Sprintf(format, args...), Span: span}
}

// enumVariant records a constructor's dispatch tag and field arity.
type enumVariant struct {
	tag   uint64
	arity int
}

// Program lowers an entire parsed program into an ir.Module.
func Program(p *ast.Program) (*ir.Module, error) {
	variants := make(map[string]map[string]enumVariant)
	for _, td := range p.Types {
		if td.Kind != ast.TypeKindEnum {
			continue
		}
		vs := make(map[string]enumVariant, len(td.Variant))
		for _, v := range td.Variant {
			vs[v.Name] = enumVariant{tag: v.Tag, arity: len(v.Args)}
		}
		variants[td.Name] = vs
	}

	m := ir.NewModule()

	for _, ext := range p.Externs {
		sig := &ir.ExternSig{
			Name:       ext.Name,
			Return:     typeRefToIR(ext.Returns),
			Convention: convToIR(ext.Convention),
			Span:       spanToIR(ext.Span),
		}
		for _, prm := range ext.Params {
			sig.Params = append(sig.Params, typeRefToIR(prm.Type))
		}
		m.AddExtern(sig)
	}

	for _, cell := range p.Cells {
		l := &lowerer{variants: variants}
		fn, err := l.lowerCell(&cell)
		if err != nil {
			return nil, errors.Wrapf(err, "lowering cell %q", cell.Name)
		}
		m.AddFunction(fn)
	}

	return m, nil
}

type lowerer struct {
	variants map[string]map[string]enumVariant

	valueCounter ir.ValueId
	blockCounter ir.BlockId

	locals  map[string]ir.ValueId
	blocks  []*ir.BasicBlock
	current int
}

func (l *lowerer) freshValue() ir.ValueId {
	v := l.valueCounter
	l.valueCounter++
	return v
}

func (l *lowerer) freshBlock() ir.BlockId {
	b := l.blockCounter
	l.blockCounter++
	return b
}

func (l *lowerer) lowerCell(cell *ast.CellDef) (*ir.Function, error) {
	l.locals = make(map[string]ir.ValueId)
	l.blocks = nil
	l.valueCounter = 0
	l.blockCounter = 0

	entry := l.freshBlock()
	l.pushBlock(entry, cell.Span)

	var params []ir.Param
	for _, p := range cell.Params {
		v := l.freshValue()
		params = append(params, ir.Param{Name: p.Name, Type: typeRefToIR(p.Type), Span: spanToIR(p.Span), ID: v})
		l.locals[p.Name] = v
	}

	if err := l.lowerBlock(&cell.Body); err != nil {
		return nil, err
	}

	fn := &ir.Function{
		Name:   cell.Name,
		Span:   spanToIR(cell.Span),
		Params: params,
		Return: typeRefToIR(cell.Returns),
		Blocks: l.blocks,
		Entry:  entry,
	}
	fn.SkipValues(l.valueCounter - 1)
	return fn, nil
}

func (l *lowerer) lowerBlock(b *ast.Block) error {
	for i := range b.Stmts {
		if err := l.lowerStmt(&b.Stmts[i]); err != nil {
			return err
		}
	}
	if !l.hasTerminator() {
		l.setTerminator(ir.Return{})
	}
	return nil
}

func (l *lowerer) lowerStmt(s *ast.Stmt) error {
	switch s.Kind {
	case ast.StmtVal:
		v, err := l.lowerRValue(s.Value)
		if err != nil {
			return err
		}
		dest := l.freshValue()
		l.pushInst(s.Span, &dest, ir.BindStrand{Name: s.Target, Value: v})
		l.locals[s.Target] = dest
		return nil

	case ast.StmtAssign:
		if _, ok := l.locals[s.Target]; !ok {
			return errAt(s.Span, "assignment to unknown local %q", s.Target)
		}
		v, err := l.lowerExpr(s.Value)
		if err != nil {
			return err
		}
		l.locals[s.Target] = v
		return nil

	case ast.StmtIf:
		return l.lowerIf(s)

	case ast.StmtMatch:
		return l.lowerMatch(s)

	case ast.StmtWhile:
		return l.lowerWhile(s)

	case ast.StmtReturn, ast.StmtYield:
		var rv *ir.ValueId
		if s.Expr != nil {
			v, err := l.lowerExpr(s.Expr)
			if err != nil {
				return err
			}
			rv = &v
		}
		l.setTerminator(ir.Return{Value: rv})
		return nil

	case ast.StmtExpr:
		_, err := l.lowerExpr(s.Expr)
		return err

	case ast.StmtLayout, ast.StmtRender:
		// UI subtrees carry only literal-valued properties (ast.PropValue);
		// they have no runtime effect and are consumed solely by the
		// geometry verifier walking the AST directly.
		return nil

	default:
		return errAt(s.Span, "lowering: unsupported statement kind %q", s.Kind)
	}
}

func (l *lowerer) lowerIf(s *ast.Stmt) error {
	condV, err := l.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	thenBB := l.freshBlock()
	elseBB := l.freshBlock()
	joinBB := l.freshBlock()

	l.setTerminator(ir.CondBr{Cond: condV, Then: thenBB, Else: elseBB})

	savedLocals := cloneLocals(l.locals)

	l.pushBlock(thenBB, s.Then.Span)
	if err := l.lowerBlock(s.Then); err != nil {
		return err
	}
	if !l.hasTerminator() {
		l.setTerminator(ir.Br{Target: joinBB})
	}
	thenLocals := cloneLocals(l.locals)

	l.locals = cloneLocals(savedLocals)
	elseSpan := s.Span
	if s.Else != nil {
		elseSpan = s.Else.Span
	}
	l.pushBlock(elseBB, elseSpan)
	if s.Else != nil {
		if err := l.lowerBlock(s.Else); err != nil {
			return err
		}
	}
	if !l.hasTerminator() {
		l.setTerminator(ir.Br{Target: joinBB})
	}
	elseLocals := cloneLocals(l.locals)

	l.locals = savedLocals
	l.pushBlock(joinBB, s.Span)
	l.mergeLocalsWithPhi(thenLocals, thenBB, elseLocals, elseBB, s.Span)
	return nil
}

func (l *lowerer) lowerMatch(s *ast.Stmt) error {
	scrutV, err := l.lowerExpr(s.Scrutinee)
	if err != nil {
		return err
	}

	joinBB := l.freshBlock()
	bodyBBs := make([]ir.BlockId, len(s.Arms))
	for i := range s.Arms {
		bodyBBs[i] = l.freshBlock()
	}

	var wildcardBB *ir.BlockId
	type intArm struct {
		v  uint64
		bb ir.BlockId
	}
	type strArm struct {
		v  string
		bb ir.BlockId
	}
	var intArms []intArm
	var strArms []strArm
	var ctorArms []intArm

	for i, arm := range s.Arms {
		bb := bodyBBs[i]
		switch arm.Pattern.Kind {
		case ast.PatternWildcard:
			b := bb
			wildcardBB = &b
		case ast.PatternInt:
			intArms = append(intArms, intArm{arm.Pattern.IntValue, bb})
		case ast.PatternString:
			strArms = append(strArms, strArm{arm.Pattern.StringValue, bb})
		case ast.PatternCtor:
			vi, ok := l.variants[arm.Pattern.EnumType]
			if !ok {
				return errAt(arm.Span, "unknown enum type %q in match pattern", arm.Pattern.EnumType)
			}
			info, ok := vi[arm.Pattern.EnumVariant]
			if !ok {
				return errAt(arm.Span, "unknown enum variant %q::%q in match pattern", arm.Pattern.EnumType, arm.Pattern.EnumVariant)
			}
			ctorArms = append(ctorArms, intArm{info.tag, bb})
		}
	}

	if wildcardBB == nil {
		return errAt(s.Span, "match without trailing wildcard")
	}
	defaultBB := *wildcardBB

	switch {
	case len(intArms) > 0 && len(strArms) == 0 && len(ctorArms) == 0:
		items := make([]pair, len(intArms))
		for i, a := range intArms {
			items[i] = pair{key: a.v, bb: a.bb}
		}
		l.lowerMatchIntSwitchOrTree(scrutV, sortPairs(items), defaultBB, s.Span)

	case len(strArms) > 0 && len(intArms) == 0 && len(ctorArms) == 0:
		for i, arm := range s.Arms {
			bb := bodyBBs[i]
			switch arm.Pattern.Kind {
			case ast.PatternWildcard:
				l.setTerminator(ir.Br{Target: bb})
			case ast.PatternString:
				litV := l.lowerConstString(arm.Pattern.StringValue, arm.Span)
				condV := l.freshValue()
				l.pushInst(arm.Span, &condV, ir.Binary{Op: ir.OpEq, Left: scrutV, Right: litV})
				elseBB := l.freshBlock()
				l.setTerminator(ir.CondBr{Cond: condV, Then: bb, Else: elseBB})
				l.pushBlock(elseBB, arm.Span)
			default:
				return errAt(arm.Span, "mixed literal patterns are not supported in IR")
			}
		}

	case len(ctorArms) > 0 && len(intArms) == 0 && len(strArms) == 0:
		tagV := l.lowerTensorGet(scrutV, 0, s.Span)
		items := make([]pair, len(ctorArms))
		for i, a := range ctorArms {
			items[i] = pair{key: a.v, bb: a.bb}
		}
		l.lowerMatchIntSwitchOrTree(tagV, sortPairs(items), defaultBB, s.Span)

	default:
		if len(intArms) == 0 && len(strArms) == 0 && len(ctorArms) == 0 {
			l.setTerminator(ir.Br{Target: defaultBB})
		} else {
			return errAt(s.Span, "mixed literal patterns are not supported in IR")
		}
	}

	savedLocals := cloneLocals(l.locals)
	type armResult struct {
		bb     ir.BlockId
		locals map[string]ir.ValueId
	}
	var armResults []armResult

	for i, arm := range s.Arms {
		bb := bodyBBs[i]
		l.locals = cloneLocals(savedLocals)
		l.pushBlock(bb, arm.Body.Span)

		if arm.Pattern.Kind == ast.PatternCtor {
			vi := l.variants[arm.Pattern.EnumType]
			info := vi[arm.Pattern.EnumVariant]
			if len(arm.Pattern.Binders) != info.arity {
				return errAt(arm.Span, "wrong number of binders for pattern %q::%q: expected %d, got %d",
					arm.Pattern.EnumType, arm.Pattern.EnumVariant, info.arity, len(arm.Pattern.Binders))
			}
			for i, binder := range arm.Pattern.Binders {
				fieldV := l.lowerTensorGet(scrutV, uint64(1+i), arm.Span)
				l.locals[binder] = fieldV
			}
		}

		if err := l.lowerBlock(&arm.Body); err != nil {
			return err
		}
		if !l.hasTerminator() {
			l.setTerminator(ir.Br{Target: joinBB})
		}
		armResults = append(armResults, armResult{bb, cloneLocals(l.locals)})
	}

	l.locals = savedLocals
	l.pushBlock(joinBB, s.Span)
	preds := make([]predLocals, len(armResults))
	for i, r := range armResults {
		preds[i] = predLocals{bb: r.bb, locals: r.locals}
	}
	l.mergeLocalsWithPhiMulti(preds, s.Span)
	return nil
}

type predLocals struct {
	bb     ir.BlockId
	locals map[string]ir.ValueId
}

// lowerMatchIntSwitchOrTree chooses between an IR Switch and a balanced
// binary decision tree based on key density (spec.md §4.2: a Switch is
// emitted only when the dispatch keys are dense enough to make a jump table
// worthwhile).
func (l *lowerer) lowerMatchIntSwitchOrTree(scrutV ir.ValueId, items []pair, defaultBB ir.BlockId, span ast.Span) {
	if len(items) >= 4 {
		min, max := items[0].key, items[0].key
		for _, it := range items {
			if it.key < min {
				min = it.key
			}
			if it.key > max {
				max = it.key
			}
		}
		rng := max - min + 1
		if rng <= uint64(len(items))*2 {
			cases := make([]ir.SwitchCase, len(items))
			for i, it := range items {
				cases[i] = ir.SwitchCase{Key: it.key, Target: it.bb}
			}
			l.setTerminator(ir.Switch{Scrutinee: scrutV, Default: defaultBB, Cases: cases})
			return
		}
	}
	l.lowerMatchIntTree(scrutV, items, defaultBB, span)
}

type pair struct {
	key uint64
	bb  ir.BlockId
}

func sortPairs(items []pair) []pair {
	out := append([]pair(nil), items...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].key > out[j].key; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func (l *lowerer) lowerMatchIntTree(scrutV ir.ValueId, items []pair, defaultBB ir.BlockId, span ast.Span) {
	switch len(items) {
	case 0:
		l.setTerminator(ir.Br{Target: defaultBB})
	case 1:
		litV := l.lowerConstU32(uint32(items[0].key), span)
		condV := l.freshValue()
		l.pushInst(span, &condV, ir.Binary{Op: ir.OpEq, Left: scrutV, Right: litV})
		l.setTerminator(ir.CondBr{Cond: condV, Then: items[0].bb, Else: defaultBB})
	default:
		mid := (len(items) - 1) / 2
		pivot := items[mid].key
		pivotV := l.lowerConstU32(uint32(pivot), span)
		condV := l.freshValue()
		l.pushInst(span, &condV, ir.Binary{Op: ir.OpLe, Left: scrutV, Right: pivotV})

		leftBB := l.freshBlock()
		rightBB := l.freshBlock()
		l.setTerminator(ir.CondBr{Cond: condV, Then: leftBB, Else: rightBB})

		l.pushBlock(leftBB, span)
		l.lowerMatchIntTree(scrutV, items[:mid+1], defaultBB, span)

		l.pushBlock(rightBB, span)
		l.lowerMatchIntTree(scrutV, items[mid+1:], defaultBB, span)
	}
}

func (l *lowerer) lowerTensorGet(tensorV ir.ValueId, index uint64, span ast.Span) ir.ValueId {
	idxV := l.lowerConstU32(uint32(index), span)
	out := l.freshValue()
	l.pushInst(span, &out, ir.Call{Callee: "tensor.get", Args: []ir.ValueId{tensorV, idxV}})
	return out
}

func (l *lowerer) lowerConstU32(n uint32, span ast.Span) ir.ValueId {
	v := l.freshValue()
	l.pushInst(span, &v, ir.BindStrand{Name: fmt.Sprintf("$lit%d", v), Value: ir.ConstU32(n)})
	return v
}

func (l *lowerer) lowerConstString(s string, span ast.Span) ir.ValueId {
	v := l.freshValue()
	l.pushInst(span, &v, ir.BindStrand{Name: fmt.Sprintf("$str%d", v), Value: ir.ConstString(s)})
	return v
}

// mergeLocalsWithPhi joins two predecessor environments into the current
// block with a 2-incoming phi per changed local (spec.md §4.2's structural
// phi placement, as opposed to a dominance-frontier computation).
func (l *lowerer) mergeLocalsWithPhi(a map[string]ir.ValueId, aBB ir.BlockId, b map[string]ir.ValueId, bBB ir.BlockId, span ast.Span) {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		aV := a[name]
		bV, ok := b[name]
		if !ok {
			l.locals[name] = aV
			continue
		}
		if aV == bV {
			l.locals[name] = aV
			continue
		}
		out := l.freshValue()
		l.pushInst(span, &out, ir.Phi{Incomings: []ir.PhiIncoming{{Pred: aBB, Value: aV}, {Pred: bBB, Value: bV}}})
		l.locals[name] = out
	}

	bNames := make([]string, 0, len(b))
	for name := range b {
		bNames = append(bNames, name)
	}
	sort.Strings(bNames)
	for _, name := range bNames {
		if _, ok := l.locals[name]; !ok {
			l.locals[name] = b[name]
		}
	}
}

func (l *lowerer) mergeLocalsWithPhiMulti(preds []predLocals, span ast.Span) {
	names := make([]string, 0, len(l.locals))
	for name := range l.locals {
		names = append(names, name)
	}
	sort.Strings(names)

	entry := cloneLocals(l.locals)

	for _, name := range names {
		var first *ir.ValueId
		allSame := true
		var incomings []ir.PhiIncoming

		entryV, hasEntry := entry[name]

		for _, p := range preds {
			v, ok := p.locals[name]
			if !ok {
				if !hasEntry {
					continue
				}
				v = entryV
			}
			if first == nil {
				fv := v
				first = &fv
			} else if v != *first {
				allSame = false
			}
			incomings = append(incomings, ir.PhiIncoming{Pred: p.bb, Value: v})
		}

		if first == nil {
			continue
		}
		if allSame {
			l.locals[name] = *first
			continue
		}

		out := l.freshValue()
		l.pushInst(span, &out, ir.Phi{Incomings: incomings})
		l.locals[name] = out
	}
}

func (l *lowerer) lowerWhile(s *ast.Stmt) error {
	condBB := l.freshBlock()
	bodyBB := l.freshBlock()
	exitBB := l.freshBlock()

	preheaderBB, ok := l.currentBlockID()
	if !ok {
		return errAt(s.Span, "while without an active block")
	}

	l.setTerminator(ir.Br{Target: condBB})

	savedLocals := cloneLocals(l.locals)
	mutated := make(map[string]bool)
	collectAssignedNames(s.Body, mutated)

	l.pushBlock(condBB, s.Cond.Span)

	condBlockIdx := l.current
	type phiFixup struct {
		instIdx int
		name    string
		preV    ir.ValueId
	}
	var fixups []phiFixup
	for name, preV := range savedLocals {
		if !mutated[name] {
			continue
		}
		out := l.freshValue()
		instIdx := len(l.blocks[condBlockIdx].Instructions)
		l.pushInst(s.Span, &out, ir.Phi{Incomings: []ir.PhiIncoming{{Pred: preheaderBB, Value: preV}, {Pred: bodyBB, Value: preV}}})
		l.locals[name] = out
		fixups = append(fixups, phiFixup{instIdx, name, preV})
	}

	condV, err := l.lowerExpr(s.Cond)
	if err != nil {
		return err
	}
	condLocals := cloneLocals(l.locals)
	l.setTerminator(ir.CondBr{Cond: condV, Then: bodyBB, Else: exitBB})

	l.pushBlock(bodyBB, s.Body.Span)
	l.locals = cloneLocals(condLocals)
	if err := l.lowerBlock(s.Body); err != nil {
		return err
	}
	if !l.hasTerminator() {
		l.setTerminator(ir.Br{Target: condBB})
	}
	backedgeBB, ok := l.currentBlockID()
	if !ok {
		backedgeBB = bodyBB
	}
	bodyLocals := cloneLocals(l.locals)

	for _, fx := range fixups {
		bodyV, ok := bodyLocals[fx.name]
		if !ok {
			bodyV = fx.preV
		}
		inst := l.blocks[condBlockIdx].Instructions[fx.instIdx]
		if phi, ok := inst.Kind.(ir.Phi); ok && len(phi.Incomings) >= 2 {
			phi.Incomings[1].Pred = backedgeBB
			phi.Incomings[1].Value = bodyV
			inst.Kind = phi
		}
	}

	l.locals = condLocals
	l.pushBlock(exitBB, s.Span)
	return nil
}

func collectAssignedNames(b *ast.Block, out map[string]bool) {
	for _, s := range b.Stmts {
		switch s.Kind {
		case ast.StmtAssign:
			out[s.Target] = true
		case ast.StmtIf:
			if s.Then != nil {
				collectAssignedNames(s.Then, out)
			}
			if s.Else != nil {
				collectAssignedNames(s.Else, out)
			}
		case ast.StmtMatch:
			for _, arm := range s.Arms {
				collectAssignedNames(&arm.Body, out)
			}
		case ast.StmtWhile:
			if s.Body != nil {
				collectAssignedNames(s.Body, out)
			}
		}
	}
}

// lowerRValue lowers an expression when it appears directly as a strand's
// value, producing a constant RValue when cheaply possible instead of an
// extra BindStrand-of-a-local indirection.
func (l *lowerer) lowerRValue(e *ast.Expr) (ir.RValue, error) {
	switch e.Kind {
	case ast.ExprLitInt:
		return ir.ConstU32(uint32(e.IntValue)), nil
	case ast.ExprLitString:
		return ir.ConstString(e.StringValue), nil
	case ast.ExprStyleLit:
		return ir.ConstString(formatStyleLit(e.StyleFields)), nil
	case ast.ExprLitBool:
		return ir.ConstBool(e.BoolValue), nil
	default:
		v, err := l.lowerExpr(e)
		if err != nil {
			return nil, err
		}
		return ir.Local(v), nil
	}
}

func (l *lowerer) lowerExpr(e *ast.Expr) (ir.ValueId, error) {
	switch e.Kind {
	case ast.ExprIdent:
		v, ok := l.locals[e.Name]
		if !ok {
			return 0, errAt(e.Span, "unknown identifier %q", e.Name)
		}
		return v, nil

	case ast.ExprLitInt:
		v := l.freshValue()
		l.pushInst(e.Span, &v, ir.BindStrand{Name: fmt.Sprintf("$lit%d", v), Value: ir.ConstU32(uint32(e.IntValue))})
		return v, nil

	case ast.ExprLitBool:
		v := l.freshValue()
		l.pushInst(e.Span, &v, ir.BindStrand{Name: fmt.Sprintf("$bool%d", v), Value: ir.ConstBool(e.BoolValue)})
		return v, nil

	case ast.ExprLitString:
		v := l.freshValue()
		l.pushInst(e.Span, &v, ir.BindStrand{Name: fmt.Sprintf("$str%d", v), Value: ir.ConstString(e.StringValue)})
		return v, nil

	case ast.ExprStyleLit:
		v := l.freshValue()
		l.pushInst(e.Span, &v, ir.BindStrand{Name: fmt.Sprintf("$style%d", v), Value: ir.ConstString(formatStyleLit(e.StyleFields))})
		return v, nil

	case ast.ExprUnary:
		operand, err := l.lowerExpr(e.Operand)
		if err != nil {
			return 0, err
		}
		v := l.freshValue()
		op := ir.OpNeg
		if e.UnaryOp == ast.UnaryNot {
			op = ir.OpNot
		}
		l.pushInst(e.Span, &v, ir.Unary{Op: op, Operand: operand})
		return v, nil

	case ast.ExprBinary:
		if e.BinOp == ast.BinAnd || e.BinOp == ast.BinOr {
			return l.lowerShortCircuitBool(e.Span, e.Left, e.BinOp, e.Right)
		}
		lv, err := l.lowerExpr(e.Left)
		if err != nil {
			return 0, err
		}
		rv, err := l.lowerExpr(e.Right)
		if err != nil {
			return 0, err
		}
		v := l.freshValue()
		l.pushInst(e.Span, &v, ir.Binary{Op: mapBinOp(e.BinOp), Left: lv, Right: rv})
		return v, nil

	case ast.ExprMember:
		if _, err := l.lowerExpr(e.Object); err != nil {
			return 0, err
		}
		v := l.freshValue()
		l.pushInst(e.Span, &v, ir.BindStrand{Name: "<member>." + e.Field, Value: ir.ConstString(e.Field)})
		return v, nil

	case ast.ExprCtorCall:
		return l.lowerCtorCall(e)

	case ast.ExprCall:
		return l.lowerCall(e)

	case ast.ExprFlow:
		return l.lowerFlow(e)

	default:
		return 0, errAt(e.Span, "lowering: unsupported expression kind %q", e.Kind)
	}
}

// lowerCtorCall encodes an enum constructor as a tensor handle: slot 0 is
// the dispatch tag, slots 1.. are field payloads (spec.md §4.2).
func (l *lowerer) lowerCtorCall(e *ast.Expr) (ir.ValueId, error) {
	vi, ok := l.variants[e.CtorType]
	if !ok {
		return 0, errAt(e.Span, "unknown enum type %q", e.CtorType)
	}
	info, ok := vi[e.CtorVariant]
	if !ok {
		return 0, errAt(e.Span, "unknown enum variant %q::%q", e.CtorType, e.CtorVariant)
	}
	if len(e.Args) != info.arity {
		return 0, errAt(e.Span, "wrong number of constructor args for %q::%q: expected %d, got %d",
			e.CtorType, e.CtorVariant, info.arity, len(e.Args))
	}

	lenV := l.lowerConstU32(uint32(1+info.arity), e.Span)
	enumV := l.freshValue()
	l.pushInst(e.Span, &enumV, ir.Call{Callee: "tensor.new", Args: []ir.ValueId{lenV}})

	idx0 := l.lowerConstU32(0, e.Span)
	tagV := l.lowerConstU32(uint32(info.tag), e.Span)
	l.pushInst(e.Span, nil, ir.Call{Callee: "tensor.set", Args: []ir.ValueId{enumV, idx0, tagV}})

	for i := range e.Args {
		fieldV, err := l.lowerExpr(&e.Args[i])
		if err != nil {
			return 0, err
		}
		idxV := l.lowerConstU32(uint32(1+i), e.Span)
		l.pushInst(e.Span, nil, ir.Call{Callee: "tensor.set", Args: []ir.ValueId{enumV, idxV, fieldV}})
	}

	return enumV, nil
}

func (l *lowerer) lowerCall(e *ast.Expr) (ir.ValueId, error) {
	calleeName, args, err := l.lowerCalleeAndArgs(e.Callee, e.Args, nil)
	if err != nil {
		return 0, err
	}
	v := l.freshValue()
	dest := &v
	if isVoidCallee(calleeName) {
		dest = nil
	}
	l.pushInst(e.Span, dest, ir.Call{Callee: calleeName, Args: args})
	return v, nil
}

func (l *lowerer) lowerFlow(e *ast.Expr) (ir.ValueId, error) {
	leftV, err := l.lowerExpr(e.Left)
	if err != nil {
		return 0, err
	}

	right := e.Right
	if right.Kind != ast.ExprCall {
		return l.lowerExpr(right)
	}

	calleeName, args, err := l.lowerCalleeAndArgs(right.Callee, right.Args, []ir.ValueId{leftV})
	if err != nil {
		return 0, err
	}

	v := l.freshValue()
	dest := &v
	if isVoidCallee(calleeName) {
		dest = nil
	}
	var kind ir.InstKind
	if e.FlowOp == ast.FlowAsync {
		kind = ir.ComputeKernel{Callee: calleeName, Args: args}
	} else {
		kind = ir.Call{Callee: calleeName, Args: args}
	}
	l.pushInst(e.Span, dest, kind)
	return v, nil
}

// lowerCalleeAndArgs resolves the callee symbol name, recognizing the
// prototype tensor/ai method shorthand (`t.len()` -> `tensor.len(t)`) and
// the stdlib vector-to-tensor aliasing, then lowers the argument list with
// an optional prefix (the flow operator's left-hand value).
func (l *lowerer) lowerCalleeAndArgs(callee *ast.Expr, args []ast.Expr, prefix []ir.ValueId) (string, []ir.ValueId, error) {
	if callee.Kind == ast.ExprMember {
		field := callee.Field
		isTensorMethod := (field == "len" || field == "get" || field == "set") &&
			!(callee.Object.Kind == ast.ExprIdent && callee.Object.Name == "tensor")
		isInferMethod := field == "infer" &&
			!(callee.Object.Kind == ast.ExprIdent && callee.Object.Name == "ai")

		if isTensorMethod || isInferMethod {
			recv, err := l.lowerExpr(callee.Object)
			if err != nil {
				return "", nil, err
			}
			out := append([]ir.ValueId(nil), prefix...)
			out = append(out, recv)
			for i := range args {
				av, err := l.lowerExpr(&args[i])
				if err != nil {
					return "", nil, err
				}
				out = append(out, av)
			}
			if isTensorMethod {
				return "tensor." + field, out, nil
			}
			return "ai.infer", out, nil
		}
	}

	name := exprToCalleeName(callee)
	out := append([]ir.ValueId(nil), prefix...)
	for i := range args {
		av, err := l.lowerExpr(&args[i])
		if err != nil {
			return "", nil, err
		}
		out = append(out, av)
	}
	return aliasStdlibCallee(name), out, nil
}

func aliasStdlibCallee(name string) string {
	switch name {
	case "collections.vector_new":
		return "tensor.new"
	case "collections.vector_len":
		return "tensor.len"
	case "collections.vector_get":
		return "tensor.get"
	case "collections.vector_set":
		return "tensor.set"
	default:
		return name
	}
}

// isVoidCallee reports whether callee is one of the fixed ABI symbols
// that never produce a value. The lowerer needs this
// because the parser does not carry resolved function signatures.
func isVoidCallee(name string) bool {
	switch name {
	case "tensor.set", "io.println", "aura_io_println", "io_display":
		return true
	default:
		return false
	}
}

func (l *lowerer) lowerShortCircuitBool(span ast.Span, left *ast.Expr, op ast.BinOp, right *ast.Expr) (ir.ValueId, error) {
	leftV, err := l.lowerExpr(left)
	if err != nil {
		return 0, err
	}
	rhsBB := l.freshBlock()
	joinBB := l.freshBlock()

	var thenBB, elseBB ir.BlockId
	if op == ast.BinAnd {
		thenBB, elseBB = rhsBB, joinBB
	} else {
		thenBB, elseBB = joinBB, rhsBB
	}
	l.setTerminator(ir.CondBr{Cond: leftV, Then: thenBB, Else: elseBB})

	leftBlock, _ := l.currentBlockID()

	l.pushBlock(rhsBB, right.Span)
	rightV, err := l.lowerExpr(right)
	if err != nil {
		return 0, err
	}
	l.setTerminator(ir.Br{Target: joinBB})
	rhsEnd, _ := l.currentBlockID()

	l.pushBlock(joinBB, span)

	constVal := op == ast.BinOr
	constV := l.freshValue()
	l.pushInst(span, &constV, ir.BindStrand{Name: fmt.Sprintf("$bool%d", constV), Value: ir.ConstBool(constVal)})

	outV := l.freshValue()
	l.pushInst(span, &outV, ir.Phi{Incomings: []ir.PhiIncoming{{Pred: leftBlock, Value: constV}, {Pred: rhsEnd, Value: rightV}}})
	return outV, nil
}

func (l *lowerer) pushBlock(id ir.BlockId, span ast.Span) {
	l.blocks = append(l.blocks, &ir.BasicBlock{ID: id, Span: spanToIR(span)})
	l.current = len(l.blocks) - 1
}

func (l *lowerer) currentBlockID() (ir.BlockId, bool) {
	if l.current < 0 || l.current >= len(l.blocks) {
		return 0, false
	}
	return l.blocks[l.current].ID, true
}

func (l *lowerer) pushInst(span ast.Span, dest *ir.ValueId, kind ir.InstKind) {
	l.blocks[l.current].Instructions = append(l.blocks[l.current].Instructions, &ir.Instruction{Span: spanToIR(span), Dest: dest, Kind: kind})
}

func (l *lowerer) setTerminator(t ir.Terminator) {
	l.blocks[l.current].Term = t
}

// hasTerminator reports whether the current block has been given a
// terminator other than the implicit no-value Return that lowerBlock
// installs by default. A block ending in an explicit `return` with no value
// is indistinguishable from this default and is treated the same way: a
// surrounding construct (if/match/while) is free to overwrite it with a
// join-block branch.
func (l *lowerer) hasTerminator() bool {
	t := l.blocks[l.current].Term
	if t == nil {
		return false
	}
	ret, isReturn := t.(ir.Return)
	return !isReturn || ret.Value != nil
}

func cloneLocals(m map[string]ir.ValueId) map[string]ir.ValueId {
	out := make(map[string]ir.ValueId, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mapBinOp(op ast.BinOp) ir.BinOp {
	switch op {
	case ast.BinAdd:
		return ir.OpAdd
	case ast.BinSub:
		return ir.OpSub
	case ast.BinMul:
		return ir.OpMul
	case ast.BinDiv:
		return ir.OpDiv
	case ast.BinEq:
		return ir.OpEq
	case ast.BinNe:
		return ir.OpNe
	case ast.BinLt:
		return ir.OpLt
	case ast.BinGt:
		return ir.OpGt
	case ast.BinLe:
		return ir.OpLe
	case ast.BinGe:
		return ir.OpGe
	case ast.BinAnd:
		return ir.OpAnd
	default:
		return ir.OpOr
	}
}

func typeRefToIR(tr ast.TypeRef) ir.Type {
	switch tr.Name {
	case ast.TyBool:
		return ir.Bool
	case ast.TyU32:
		return ir.U32
	case ast.TyTensor:
		return ir.Tensor
	case ast.TyString:
		return ir.String
	case ast.TyUnit, "":
		return ir.Unit
	default:
		return ir.Opaque(tr.Name)
	}
}

func convToIR(c ast.CallConvention) ir.CallConvention {
	switch c {
	case ast.ConventionStdcall:
		return ir.ConventionStdcall
	case ast.ConventionCdecl:
		return ir.ConventionCdecl
	default:
		return ir.ConventionDefault
	}
}

func spanToIR(s ast.Span) ir.Span {
	return ir.Span{File: s.File, StartLine: s.StartLine, StartCol: s.StartCol}
}

func exprToCalleeName(e *ast.Expr) string {
	switch e.Kind {
	case ast.ExprIdent:
		return e.Name
	case ast.ExprMember:
		return exprToCalleeName(e.Object) + "." + e.Field
	default:
		return "<unknown>"
	}
}

func formatStyleLit(fields []ast.StyleField) string {
	out := "Style{"
	for i, f := range fields {
		if i > 0 {
			out += ","
		}
		out += f.Key + ":" + styleValueToString(&f.Value)
	}
	out += "}"
	return out
}

func styleValueToString(e *ast.Expr) string {
	switch e.Kind {
	case ast.ExprLitInt:
		return fmt.Sprintf("%d", e.IntValue)
	case ast.ExprLitString:
		return e.StringValue
	case ast.ExprIdent:
		return e.Name
	case ast.ExprStyleLit:
		return formatStyleLit(e.StyleFields)
	default:
		return "<expr>"
	}
}
