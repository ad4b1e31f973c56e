package ir

// Optimize runs the fixed point of constant-folding/CFG-simplification, DCE,
// and unreachable-block elimination described in spec.md §4.1, for at most
// 4 iterations per function, stopping early on quiescence. It mutates m in
// place (the module is the pipeline driver's exclusive-reference resource
// while optimization runs, per §5).
func Optimize(m *Module) {
	for _, name := range m.FuncOrder {
		optimizeFunction(m.Functions[name])
	}
}

func optimizeFunction(f *Function) {
	for i := 0; i < 4; i++ {
		changed := false
		changed = constFoldAndSimplifyCFG(f) || changed
		changed = deadCodeEliminate(f) || changed
		changed = removeUnreachableBlocks(f) || changed
		if !changed {
			break
		}
	}
}

// constVal is the compile-time-known value of a local, tracked only within
// a single function (no cross-function constant propagation).
type constVal struct {
	kind  constKind
	u32   uint32
	b     bool
	s     string
}

type constKind int

const (
	constNone constKind = iota
	constU32Kind
	constBoolKind
	constStringKind
)

func constFoldAndSimplifyCFG(f *Function) bool {
	changed := false

	consts := make(map[ValueId]constVal)
	for _, b := range f.Blocks {
		for _, inst := range b.Instructions {
			if inst.Dest == nil {
				continue
			}
			if bs, ok := inst.Kind.(BindStrand); ok {
				if c, ok := constFromRValue(bs.Value, consts); ok {
					consts[*inst.Dest] = c
				}
			}
		}
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Instructions {
			switch k := inst.Kind.(type) {
			case Unary:
				if c, ok := consts[k.Operand]; ok {
					if out, ok := foldUnary(k.Op, c); ok {
						inst.Kind = BindStrand{Name: "$fold", Value: rvalueFromConst(out)}
						if inst.Dest != nil {
							consts[*inst.Dest] = out
						}
						changed = true
					}
				}
			case Binary:
				cl, okl := consts[k.Left]
				cr, okr := consts[k.Right]
				if okl && okr {
					if out, ok := foldBinary(k.Op, cl, cr); ok {
						inst.Kind = BindStrand{Name: "$fold", Value: rvalueFromConst(out)}
						if inst.Dest != nil {
							consts[*inst.Dest] = out
						}
						changed = true
					}
				}
			case RangeCheckU32:
				if c, ok := consts[k.Value]; ok && c.kind == constU32Kind {
					if c.u32 >= k.Lo && c.u32 <= k.Hi {
						inst.Kind = BindStrand{Name: "$rc_elided", Value: ConstBool(true)}
						inst.Dest = nil
						changed = true
					}
				}
			}
		}

		switch t := b.Term.(type) {
		case CondBr:
			if c, ok := consts[t.Cond]; ok && c.kind == constBoolKind {
				target := t.Else
				if c.b {
					target = t.Then
				}
				b.Term = Br{Target: target}
				changed = true
			}
		case Switch:
			if c, ok := consts[t.Scrutinee]; ok && c.kind == constU32Kind {
				target := t.Default
				for _, cs := range t.Cases {
					if cs.Key == uint64(c.u32) {
						target = cs.Target
						break
					}
				}
				b.Term = Br{Target: target}
				changed = true
			}
		}
	}

	return changed
}

func constFromRValue(rv RValue, consts map[ValueId]constVal) (constVal, bool) {
	switch v := rv.(type) {
	case ConstU32:
		return constVal{kind: constU32Kind, u32: uint32(v)}, true
	case ConstBool:
		return constVal{kind: constBoolKind, b: bool(v)}, true
	case ConstString:
		return constVal{kind: constStringKind, s: string(v)}, true
	case Local:
		c, ok := consts[ValueId(v)]
		return c, ok
	default:
		return constVal{}, false
	}
}

func rvalueFromConst(c constVal) RValue {
	switch c.kind {
	case constU32Kind:
		return ConstU32(c.u32)
	case constBoolKind:
		return ConstBool(c.b)
	case constStringKind:
		return ConstString(c.s)
	default:
		return ConstBool(false)
	}
}

func foldUnary(op UnaryOp, v constVal) (constVal, bool) {
	switch {
	case op == OpNeg && v.kind == constU32Kind:
		return constVal{kind: constU32Kind, u32: -v.u32}, true
	case op == OpNot && v.kind == constBoolKind:
		return constVal{kind: constBoolKind, b: !v.b}, true
	default:
		return constVal{}, false
	}
}

func foldBinary(op BinOp, l, r constVal) (constVal, bool) {
	switch op {
	case OpAdd:
		if l.kind == constU32Kind && r.kind == constU32Kind {
			return constVal{kind: constU32Kind, u32: l.u32 + r.u32}, true
		}
	case OpSub:
		if l.kind == constU32Kind && r.kind == constU32Kind {
			return constVal{kind: constU32Kind, u32: l.u32 - r.u32}, true
		}
	case OpMul:
		if l.kind == constU32Kind && r.kind == constU32Kind {
			return constVal{kind: constU32Kind, u32: l.u32 * r.u32}, true
		}
	case OpDiv:
		if l.kind == constU32Kind && r.kind == constU32Kind && r.u32 != 0 {
			return constVal{kind: constU32Kind, u32: l.u32 / r.u32}, true
		}
	case OpEq:
		if ok, eq := constsEqual(l, r); ok {
			return constVal{kind: constBoolKind, b: eq}, true
		}
	case OpNe:
		if ok, eq := constsEqual(l, r); ok {
			return constVal{kind: constBoolKind, b: !eq}, true
		}
	case OpLt:
		if l.kind == constU32Kind && r.kind == constU32Kind {
			return constVal{kind: constBoolKind, b: l.u32 < r.u32}, true
		}
	case OpGt:
		if l.kind == constU32Kind && r.kind == constU32Kind {
			return constVal{kind: constBoolKind, b: l.u32 > r.u32}, true
		}
	case OpLe:
		if l.kind == constU32Kind && r.kind == constU32Kind {
			return constVal{kind: constBoolKind, b: l.u32 <= r.u32}, true
		}
	case OpGe:
		if l.kind == constU32Kind && r.kind == constU32Kind {
			return constVal{kind: constBoolKind, b: l.u32 >= r.u32}, true
		}
	case OpAnd:
		if l.kind == constBoolKind && r.kind == constBoolKind {
			return constVal{kind: constBoolKind, b: l.b && r.b}, true
		}
	case OpOr:
		if l.kind == constBoolKind && r.kind == constBoolKind {
			return constVal{kind: constBoolKind, b: l.b || r.b}, true
		}
	}
	return constVal{}, false
}

// constsEqual implements byte-content string equality and plain equality for
// other kinds, returning ok=false when the two operands have incomparable
// kinds (the lowerer never emits such a comparison, but the optimizer stays
// conservative rather than guessing).
func constsEqual(l, r constVal) (ok bool, eq bool) {
	if l.kind != r.kind {
		return false, false
	}
	switch l.kind {
	case constU32Kind:
		return true, l.u32 == r.u32
	case constBoolKind:
		return true, l.b == r.b
	case constStringKind:
		return true, l.s == r.s
	default:
		return false, false
	}
}

// isSideEffecting reports whether DCE must always preserve an instruction
// regardless of whether its result value is live.
func isSideEffecting(k InstKind) bool {
	switch k.(type) {
	case Call, ComputeKernel, RangeCheckU32:
		return true
	default:
		return false
	}
}

func deadCodeEliminate(f *Function) bool {
	changed := false

	defs := make(map[ValueId]*Instruction)
	for _, b := range f.Blocks {
		for _, inst := range b.Instructions {
			if inst.Dest != nil {
				defs[*inst.Dest] = inst
			}
		}
	}

	needed := make(map[ValueId]bool)
	var work []ValueId
	use := func(v ValueId) {
		if !needed[v] {
			needed[v] = true
			work = append(work, v)
		}
	}

	for _, b := range f.Blocks {
		for _, v := range terminatorUses(b.Term) {
			use(v)
		}
		for _, inst := range b.Instructions {
			if isSideEffecting(inst.Kind) {
				for _, v := range instUsesIncludingPhi(inst.Kind) {
					use(v)
				}
			}
		}
	}

	for len(work) > 0 {
		v := work[len(work)-1]
		work = work[:len(work)-1]
		inst, ok := defs[v]
		if !ok {
			continue
		}
		for _, u := range instUsesIncludingPhi(inst.Kind) {
			use(u)
		}
	}

	for _, b := range f.Blocks {
		kept := b.Instructions[:0:0]
		for _, inst := range b.Instructions {
			if inst.Dest == nil {
				kept = append(kept, inst)
				continue
			}
			if needed[*inst.Dest] || isSideEffecting(inst.Kind) {
				kept = append(kept, inst)
				continue
			}
			changed = true
		}
		b.Instructions = kept
	}

	return changed
}

func instUsesIncludingPhi(k InstKind) []ValueId {
	if phi, ok := k.(Phi); ok {
		out := make([]ValueId, len(phi.Incomings))
		for i, in := range phi.Incomings {
			out[i] = in.Value
		}
		return out
	}
	return instUses(&Instruction{Kind: k})
}

func removeUnreachableBlocks(f *Function) bool {
	reachable := map[BlockId]bool{f.Entry: true}
	work := []BlockId{f.Entry}
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		b := f.BlockByID(id)
		if b == nil {
			continue
		}
		for _, succ := range Successors(b.Term) {
			if !reachable[succ] {
				reachable[succ] = true
				work = append(work, succ)
			}
		}
	}

	changed := len(reachable) != len(f.Blocks)
	if changed {
		kept := f.Blocks[:0:0]
		for _, b := range f.Blocks {
			if reachable[b.ID] {
				kept = append(kept, b)
			}
		}
		f.Blocks = kept
	}

	for _, b := range f.Blocks {
		for _, inst := range b.Instructions {
			phi, ok := inst.Kind.(Phi)
			if !ok {
				continue
			}
			live := phi.Incomings[:0:0]
			for _, in := range phi.Incomings {
				if reachable[in.Pred] {
					live = append(live, in)
				}
			}
			if len(live) == 1 {
				inst.Kind = BindStrand{Name: "$phi", Value: Local(live[0].Value)}
				changed = true
			} else if len(live) != len(phi.Incomings) {
				inst.Kind = Phi{Incomings: live}
				changed = true
			}
		}
	}

	return changed
}
