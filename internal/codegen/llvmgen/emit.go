// Package llvmgen lowers a validated, optimized ir.Module to a real
// github.com/llir/llvm ir.Module, rendered to textual LLVM IR through its
// String method rather than hand-formatted text. It is grounded on the
// Rust reference emitter's structural rules (type mapping, block ordering,
// string interning, name mangling, and the fixed extern ABI table) but
// builds an actual llir/llvm value graph the way the teacher's own
// internal/codegen package does.
package llvmgen

import (
	"fmt"
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/aura-lang/aurac/internal/codegen"
	airir "github.com/aura-lang/aurac/internal/ir"
)

// abiSignature is a declared-on-demand extern: a reserved runtime ABI
// symbol (spec.md §6.1) that a function body may call without the module
// having emitted an explicit ir.ExternSig for it.
type abiSignature struct {
	params []codegen.Type
	ret    codegen.Type
}

// knownABI mirrors the symbol table internal/stdlib.registerABIFunctions
// registers at the oracle layer, so a call to e.g. aura_tensor_new resolves
// to the same signature whether it runs under the oracle or this backend.
// aura_alloc_capability is listed here but has no stdlib implementation.
var knownABI = map[string]abiSignature{
	"aura_io_println":      {params: []codegen.Type{codegen.TypeStringPtr}, ret: codegen.TypeVoid},
	"aura_range_check_u32":  {params: []codegen.Type{codegen.TypeU32, codegen.TypeU32, codegen.TypeU32}, ret: codegen.TypeVoid},
	"aura_tensor_new":       {params: []codegen.Type{codegen.TypeU32}, ret: codegen.TypeHandle},
	"aura_tensor_len":       {params: []codegen.Type{codegen.TypeHandle}, ret: codegen.TypeU32},
	"aura_tensor_get":       {params: []codegen.Type{codegen.TypeHandle, codegen.TypeU32}, ret: codegen.TypeU32},
	"aura_tensor_set":       {params: []codegen.Type{codegen.TypeHandle, codegen.TypeU32, codegen.TypeU32}, ret: codegen.TypeVoid},
	"aura_ai_load_model":    {params: []codegen.Type{codegen.TypeStringPtr}, ret: codegen.TypeHandle},
	"aura_ai_infer":         {params: []codegen.Type{codegen.TypeHandle, codegen.TypeHandle}, ret: codegen.TypeHandle},
	"io_load_tensor":        {params: []codegen.Type{codegen.TypeStringPtr}, ret: codegen.TypeHandle},
	"io_display":            {params: []codegen.Type{codegen.TypeHandle}, ret: codegen.TypeVoid},
	"compute_gradient":      {params: []codegen.Type{codegen.TypeU32, codegen.TypeU32}, ret: codegen.TypeU32},
	"aura_alloc_capability": {params: []codegen.Type{codegen.TypeStringPtr}, ret: codegen.TypeHandle},
}

// Emitter holds the state accumulated while translating one ir.Module.
type Emitter struct {
	mod     *ir.Module
	shapes  map[string]codegen.ReturnShape
	funcs   map[string]*ir.Func
	externs map[string]*ir.Func
	strings map[string]*ir.Global
}

// New returns an emitter ready to process a single ir.Module. An emitter is
// not reused across modules.
func New() *Emitter {
	return &Emitter{
		mod:     ir.NewModule(),
		funcs:   make(map[string]*ir.Func),
		externs: make(map[string]*ir.Func),
		strings: make(map[string]*ir.Global),
	}
}

// Emit translates m into a standalone llir/llvm module. Call .String() on
// the result (or on Emit's own return value) to get textual LLVM IR.
func Emit(m *airir.Module) (*ir.Module, error) {
	e := New()
	return e.emitModule(m)
}

func (e *Emitter) emitModule(m *airir.Module) (*ir.Module, error) {
	e.shapes = codegen.InferModuleReturnShapes(m)

	for _, name := range m.ExternOrder {
		sig := m.Externs[name]
		e.declareExtern(sig.Name, paramTypes(sig.Params), sig.Return, sig.Convention)
	}

	for _, name := range m.FuncOrder {
		fn := m.Functions[name]
		llvmName := name
		if name == "main" {
			llvmName = "aura_main"
		}
		llvmFn := e.mod.NewFunc(llvmName, llvmType(codegen.ClassifyType(fn.Return)))
		for _, p := range fn.Params {
			llvmFn.Params = append(llvmFn.Params, ir.NewParam(p.Name, llvmType(codegen.ClassifyType(p.Type))))
		}
		e.funcs[name] = llvmFn
	}

	for _, name := range m.FuncOrder {
		if err := e.emitFunction(m.Functions[name], e.funcs[name]); err != nil {
			return nil, fmt.Errorf("llvmgen: function %s: %w", name, err)
		}
	}

	if main, ok := e.funcs["main"]; ok {
		e.emitEntryPoint(main)
	}

	return e.mod, nil
}

func paramTypes(ps []airir.Type) []codegen.Type {
	out := make([]codegen.Type, len(ps))
	for i, p := range ps {
		out[i] = codegen.ClassifyType(p)
	}
	return out
}

func llvmType(t codegen.Type) types.Type {
	switch t {
	case codegen.TypeVoid:
		return types.Void
	case codegen.TypeBool:
		return types.I1
	case codegen.TypeU32:
		return types.I32
	case codegen.TypeStringPtr:
		return types.NewPointer(types.I8)
	case codegen.TypeHandle:
		return types.I32
	default:
		return types.I32
	}
}

func (e *Emitter) declareExtern(name string, params []codegen.Type, ret airir.Type, conv airir.CallConvention) *ir.Func {
	if fn, ok := e.externs[name]; ok {
		return fn
	}
	fn := e.mod.NewFunc(name, llvmType(codegen.ClassifyType(ret)))
	for i, p := range params {
		fn.Params = append(fn.Params, ir.NewParam(fmt.Sprintf("a%d", i), llvmType(p)))
	}
	fn.Linkage = enum.LinkageExternal
	if conv == airir.ConventionStdcall {
		fn.CallingConv = enum.CallingConvX86STDCall
	}
	e.externs[name] = fn
	return fn
}

// resolveCallee returns the llvm.Func for an in-module function, a
// module-declared extern, or a reserved runtime ABI symbol, declaring the
// extern lazily the first time it is referenced from a call site.
func (e *Emitter) resolveCallee(name string) (*ir.Func, error) {
	if fn, ok := e.funcs[name]; ok {
		return fn, nil
	}
	if fn, ok := e.externs[name]; ok {
		return fn, nil
	}
	if sig, ok := knownABI[name]; ok {
		fn := e.mod.NewFunc(name, llvmType(sig.ret))
		for i, p := range sig.params {
			fn.Params = append(fn.Params, ir.NewParam(fmt.Sprintf("a%d", i), llvmType(p)))
		}
		fn.Linkage = enum.LinkageExternal
		e.externs[name] = fn
		return fn, nil
	}
	return nil, fmt.Errorf("call to undeclared function %q", name)
}

// internString returns an i8* pointer to a deduplicated, immutable global
// holding s plus a trailing NUL, the same string-interning discipline the
// reference emitter uses for every ConstString literal.
func (e *Emitter) internString(s string) value.Value {
	g, ok := e.strings[s]
	if !ok {
		data := constant.NewCharArrayFromString(s + "\x00")
		g = e.mod.NewGlobalDef("", data)
		g.Immutable = true
		e.strings[s] = g
	}
	arrType := g.ContentType
	zero := constant.NewInt(types.I64, 0)
	return constant.NewGetElementPtr(arrType, g, zero, zero)
}

type blockState struct {
	block *ir.Block
	ir    *airir.BasicBlock
}

func (e *Emitter) emitFunction(fn *airir.Function, llvmFn *ir.Func) error {
	vals := make(map[airir.ValueId]value.Value, len(fn.Params))
	for i, p := range fn.Params {
		vals[p.ID] = llvmFn.Params[i]
	}

	calleeRet := make(map[string]codegen.Type, len(e.shapes))
	for name, shape := range e.shapes {
		calleeRet[name] = shape.Type
	}
	valTypes := e.inferValueTypes(fn, calleeRet)

	blocks := make(map[airir.BlockId]*ir.Block, len(fn.Blocks))
	states := make([]blockState, len(fn.Blocks))
	for i, b := range fn.Blocks {
		lb := llvmFn.NewBlock(fmt.Sprintf("bb%d", b.ID))
		blocks[b.ID] = lb
		states[i] = blockState{block: lb, ir: b}
	}

	type pendingPhi struct {
		phi   *ir.InstPhi
		src   airir.Phi
		block airir.BlockId
	}
	var phis []pendingPhi

	for _, st := range states {
		for _, inst := range st.ir.Phis() {
			phi := inst.Kind.(airir.Phi)
			llPhi := ir.NewPhi()
			llPhi.Typ = types.I32
			if inst.Dest != nil {
				if t, ok := valTypes[*inst.Dest]; ok {
					llPhi.Typ = llvmType(t)
				}
			}
			st.block.Insts = append(st.block.Insts, llPhi)
			if inst.Dest != nil {
				vals[*inst.Dest] = llPhi
			}
			phis = append(phis, pendingPhi{phi: llPhi, src: phi, block: st.ir.ID})
		}
	}

	for _, st := range states {
		cur := st.block
		for _, inst := range st.ir.NonPhis() {
			if err := e.emitInstruction(cur, inst, vals); err != nil {
				return err
			}
		}
		if err := e.emitTerminator(cur, st.ir.Term, blocks, vals); err != nil {
			return err
		}
	}

	for _, pp := range phis {
		for _, in := range pp.src.Incomings {
			v, ok := vals[in.Value]
			if !ok {
				return fmt.Errorf("phi in block %d references undefined value %d", pp.block, in.Value)
			}
			pp.phi.Incs = append(pp.phi.Incs, ir.NewIncoming(v, blocks[in.Pred]))
		}
	}

	return nil
}

func (e *Emitter) emitInstruction(block *ir.Block, inst *airir.Instruction, vals map[airir.ValueId]value.Value) error {
	switch k := inst.Kind.(type) {
	case airir.BindStrand:
		v, err := e.emitRValue(block, k.Value, vals)
		if err != nil {
			return err
		}
		if inst.Dest != nil {
			vals[*inst.Dest] = v
		}
		return nil

	case airir.Unary:
		operand, ok := vals[k.Operand]
		if !ok {
			return fmt.Errorf("unary operand %d undefined", k.Operand)
		}
		var res value.Value
		if k.Op == airir.OpNeg {
			res = block.NewSub(constant.NewInt(types.I32, 0), operand)
		} else {
			res = block.NewXor(operand, constant.NewInt(types.I1, 1))
		}
		if inst.Dest != nil {
			vals[*inst.Dest] = res
		}
		return nil

	case airir.Binary:
		left, lok := vals[k.Left]
		right, rok := vals[k.Right]
		if !lok || !rok {
			return fmt.Errorf("binary operand undefined")
		}
		res, err := e.emitBinary(block, k.Op, left, right)
		if err != nil {
			return err
		}
		if inst.Dest != nil {
			vals[*inst.Dest] = res
		}
		return nil

	case airir.Call:
		res, err := e.emitCallLike(block, k.Callee, k.Args, vals)
		if err != nil {
			return err
		}
		if inst.Dest != nil && res != nil {
			vals[*inst.Dest] = res
		}
		return nil

	case airir.ComputeKernel:
		// The textual LLVM backend treats a ComputeKernel identically to a
		// synchronous Call; no spawn/join wrapping is emitted (the C
		// backend emits it as a plain call as well).
		res, err := e.emitCallLike(block, k.Callee, k.Args, vals)
		if err != nil {
			return err
		}
		if inst.Dest != nil && res != nil {
			vals[*inst.Dest] = res
		}
		return nil

	case airir.RangeCheckU32:
		return e.emitRangeCheck(block, k, vals)

	case airir.AllocCapability:
		fn, err := e.resolveCallee("aura_alloc_capability")
		if err != nil {
			return err
		}
		kind := e.internString(k.Kind)
		res := block.NewCall(fn, kind)
		if inst.Dest != nil {
			vals[*inst.Dest] = res
		}
		return nil

	default:
		return fmt.Errorf("unhandled instruction kind %T", k)
	}
}

func (e *Emitter) emitRValue(block *ir.Block, rv airir.RValue, vals map[airir.ValueId]value.Value) (value.Value, error) {
	switch v := rv.(type) {
	case airir.ConstU32:
		return constant.NewInt(types.I32, int64(uint32(v))), nil
	case airir.ConstBool:
		if bool(v) {
			return constant.NewInt(types.I1, 1), nil
		}
		return constant.NewInt(types.I1, 0), nil
	case airir.ConstString:
		return e.internString(string(v)), nil
	case airir.Local:
		val, ok := vals[airir.ValueId(v)]
		if !ok {
			return nil, fmt.Errorf("local %d undefined", v)
		}
		return val, nil
	default:
		return nil, fmt.Errorf("unhandled rvalue %T", v)
	}
}

func (e *Emitter) emitBinary(block *ir.Block, op airir.BinOp, l, r value.Value) (value.Value, error) {
	switch op {
	case airir.OpAdd:
		return block.NewAdd(l, r), nil
	case airir.OpSub:
		return block.NewSub(l, r), nil
	case airir.OpMul:
		return block.NewMul(l, r), nil
	case airir.OpDiv:
		// aura_range_check_u32 guards against a zero divisor so the emitted
		// udiv can never trap: the check runs before the division, never
		// after, matching the reference backend's ordering.
		fn, err := e.resolveCallee("aura_range_check_u32")
		if err != nil {
			return nil, err
		}
		block.NewCall(fn, r, constant.NewInt(types.I32, 1), constant.NewInt(types.I32, int64(^uint32(0))))
		return block.NewUDiv(l, r), nil
	case airir.OpEq:
		return block.NewICmp(enum.IPredEQ, l, r), nil
	case airir.OpNe:
		return block.NewICmp(enum.IPredNE, l, r), nil
	case airir.OpLt:
		return block.NewICmp(enum.IPredULT, l, r), nil
	case airir.OpGt:
		return block.NewICmp(enum.IPredUGT, l, r), nil
	case airir.OpLe:
		return block.NewICmp(enum.IPredULE, l, r), nil
	case airir.OpGe:
		return block.NewICmp(enum.IPredUGE, l, r), nil
	case airir.OpAnd:
		return block.NewAnd(l, r), nil
	case airir.OpOr:
		return block.NewOr(l, r), nil
	default:
		return nil, fmt.Errorf("unhandled binary operator %v", op)
	}
}

func (e *Emitter) emitCallLike(block *ir.Block, callee string, args []airir.ValueId, vals map[airir.ValueId]value.Value) (value.Value, error) {
	fn, err := e.resolveCallee(callee)
	if err != nil {
		return nil, err
	}
	llArgs := make([]value.Value, len(args))
	for i, a := range args {
		v, ok := vals[a]
		if !ok {
			return nil, fmt.Errorf("call to %s: argument %d (value %d) undefined", callee, i, a)
		}
		llArgs[i] = v
	}
	call := block.NewCall(fn, llArgs...)
	if _, isVoid := fn.Sig.RetType.(*types.VoidType); isVoid {
		return nil, nil
	}
	return call, nil
}

func (e *Emitter) emitRangeCheck(block *ir.Block, rc airir.RangeCheckU32, vals map[airir.ValueId]value.Value) error {
	v, ok := vals[rc.Value]
	if !ok {
		return fmt.Errorf("range check value %d undefined", rc.Value)
	}
	fn, err := e.resolveCallee("aura_range_check_u32")
	if err != nil {
		return err
	}
	block.NewCall(fn, v, constant.NewInt(types.I32, int64(rc.Lo)), constant.NewInt(types.I32, int64(rc.Hi)))
	return nil
}

func (e *Emitter) emitTerminator(block *ir.Block, term airir.Terminator, blocks map[airir.BlockId]*ir.Block, vals map[airir.ValueId]value.Value) error {
	switch t := term.(type) {
	case airir.Return:
		if t.Value == nil {
			block.NewRet(nil)
			return nil
		}
		v, ok := vals[*t.Value]
		if !ok {
			return fmt.Errorf("return value %d undefined", *t.Value)
		}
		block.NewRet(v)
		return nil

	case airir.Br:
		block.NewBr(blocks[t.Target])
		return nil

	case airir.CondBr:
		cond, ok := vals[t.Cond]
		if !ok {
			return fmt.Errorf("branch condition %d undefined", t.Cond)
		}
		block.NewCondBr(cond, blocks[t.Then], blocks[t.Else])
		return nil

	case airir.Switch:
		scrutinee, ok := vals[t.Scrutinee]
		if !ok {
			return fmt.Errorf("switch scrutinee %d undefined", t.Scrutinee)
		}
		cases := make([]*ir.Case, 0, len(t.Cases))
		sorted := append([]airir.SwitchCase(nil), t.Cases...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		for _, c := range sorted {
			cases = append(cases, ir.NewCase(constant.NewInt(types.I32, int64(c.Key)), blocks[c.Target]))
		}
		block.NewSwitch(scrutinee, blocks[t.Default], cases...)
		return nil

	default:
		return fmt.Errorf("unhandled terminator %T", t)
	}
}

// inferValueTypes runs the same fixed-point type-propagation the reference
// emitter's infer_value_types performs: Aura's SSA instructions do not carry
// an explicit result type (only block/operator shape), so a phi's LLVM type
// has to be derived from whichever of its incoming values resolves first,
// iterating until no new value gets a type. Needed only to size phi nodes
// correctly up front; every other instruction's LLVM type follows directly
// from the llvm.Value its own emission produces.
func (e *Emitter) inferValueTypes(fn *airir.Function, calleeRet map[string]codegen.Type) map[airir.ValueId]codegen.Type {
	known := make(map[airir.ValueId]codegen.Type)
	for _, p := range fn.Params {
		known[p.ID] = codegen.ClassifyType(p.Type)
	}

	for changed := true; changed; {
		changed = false
		for _, b := range fn.Blocks {
			for _, inst := range b.Instructions {
				if inst.Dest == nil {
					continue
				}
				t, ok := inferOne(inst, known, calleeRet)
				if !ok {
					continue
				}
				if cur, has := known[*inst.Dest]; !has || cur != t {
					known[*inst.Dest] = t
					changed = true
				}
			}
		}
	}
	return known
}

func inferOne(inst *airir.Instruction, known map[airir.ValueId]codegen.Type, calleeRet map[string]codegen.Type) (codegen.Type, bool) {
	switch k := inst.Kind.(type) {
	case airir.Phi:
		for _, in := range k.Incomings {
			if t, ok := known[in.Value]; ok {
				return t, true
			}
		}
		return 0, false

	case airir.BindStrand:
		switch rv := k.Value.(type) {
		case airir.ConstU32:
			return codegen.TypeU32, true
		case airir.ConstBool:
			return codegen.TypeBool, true
		case airir.ConstString:
			return codegen.TypeStringPtr, true
		case airir.Local:
			t, ok := known[airir.ValueId(rv)]
			return t, ok
		}
		return 0, false

	case airir.Unary:
		if k.Op == airir.OpNeg {
			return codegen.TypeU32, true
		}
		return codegen.TypeBool, true

	case airir.Binary:
		switch k.Op {
		case airir.OpAdd, airir.OpSub, airir.OpMul, airir.OpDiv:
			return codegen.TypeU32, true
		default:
			return codegen.TypeBool, true
		}

	case airir.Call:
		if t, ok := calleeRet[k.Callee]; ok {
			return t, true
		}
		if sig, ok := knownABI[k.Callee]; ok {
			return sig.ret, true
		}
		return 0, false

	case airir.ComputeKernel:
		if t, ok := calleeRet[k.Callee]; ok {
			return t, true
		}
		return codegen.TypeHandle, true

	case airir.AllocCapability:
		return codegen.TypeHandle, true

	default:
		return 0, false
	}
}

// emitEntryPoint synthesizes the C-ABI `i32 @main()` the platform linker
// requires, delegating to the renamed Aura entry function. The Aura
// program's own return value (if any) is discarded: its exit status is
// always 0 unless a range check or similar ABI call aborts the process.
func (e *Emitter) emitEntryPoint(aurafn *ir.Func) {
	main := e.mod.NewFunc("main", types.I32)
	entry := main.NewBlock("entry")
	entry.NewCall(aurafn)
	entry.NewRet(constant.NewInt(types.I32, 0))
}
