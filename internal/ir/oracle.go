package ir

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/aura-lang/aurac/internal/runtime"
	"github.com/aura-lang/aurac/internal/stdlib"
)

// abiRegistry backs the oracle's dispatch of any extern beyond
// io.println/aura_io_println: the tensor/AI/compute_gradient symbols from
// spec.md §6.1, implemented in internal/stdlib against internal/runtime's
// tensor GC manager rather than modeled inline here.
var abiRegistry = stdlib.NewRegistry()

// OracleValue is a runtime value produced by the small-step interpreter.
// Capabilities are erased: AllocCapability always yields OracleUnit.
type OracleValue struct {
	Kind   OracleKind
	U32    uint32
	Bool   bool
	String string
	Opaque string
}

type OracleKind int

const (
	OracleUnit OracleKind = iota
	OracleBoolKind
	OracleU32Kind
	OracleStringKind
	OracleTensorKind
	OracleOpaqueKind
)

func oracleU32(v uint32) OracleValue    { return OracleValue{Kind: OracleU32Kind, U32: v} }
func oracleBool(v bool) OracleValue     { return OracleValue{Kind: OracleBoolKind, Bool: v} }
func oracleString(v string) OracleValue { return OracleValue{Kind: OracleStringKind, String: v} }

// TypeOf returns the IR type a value would have if reified.
func (v OracleValue) TypeOf() Type {
	switch v.Kind {
	case OracleUnit:
		return Unit
	case OracleBoolKind:
		return Bool
	case OracleU32Kind:
		return U32
	case OracleStringKind:
		return String
	case OracleTensorKind:
		return Tensor
	default:
		return Opaque(v.Opaque)
	}
}

// OracleOutput is the result of running an entry function to completion or
// to a controlled halt (a failed RangeCheckU32).
type OracleOutput struct {
	OK          bool
	Stdout      string
	Stderr      string
	ReturnValue *OracleValue
}

// OracleConfig bounds oracle execution.
type OracleConfig struct {
	MaxSteps int
}

// DefaultOracleConfig matches spec.md §4.2's default step bound.
func DefaultOracleConfig() OracleConfig {
	return OracleConfig{MaxSteps: 100_000}
}

// OracleError is a fatal interpretation error: malformed IR, an unmodeled
// extern, or exceeding the step bound. A failed RangeCheckU32 is not an
// OracleError; it is reported through OracleOutput.OK=false instead.
type OracleError struct {
	Message string
}

func (e *OracleError) Error() string { return e.Message }

func oracleErrf(format string, args ...interface{}) error {
	return &OracleError{Message: fmt.Sprintf("oracle: "+format, args...)}
}

// RunOracleEntry interprets entry with the given arguments, per spec.md §4.2.
// It validates the module's structural shape first, then runs a bounded
// small-step loop.
func RunOracleEntry(m *Module, entry string, args []OracleValue, cfg OracleConfig) (*OracleOutput, error) {
	if err := oracleValidateModule(m); err != nil {
		return nil, err
	}

	fn, ok := m.Functions[entry]
	if !ok {
		return nil, oracleErrf("entry function %q not found", entry)
	}

	var stdout, stderr strings.Builder
	rv, ok2, err := runFunction(m, fn, args, &stdout, &stderr, cfg)
	if err != nil {
		return nil, err
	}

	return &OracleOutput{
		OK:          ok2,
		Stdout:      stdout.String(),
		Stderr:      stderr.String(),
		ReturnValue: rv,
	}, nil
}

// oracleValidateModule is a lightweight structural check distinct from
// Validate: the oracle only needs block/terminator reachability shape, not
// full dominance, since it runs rather than proves.
func oracleValidateModule(m *Module) error {
	for name, fn := range m.Functions {
		if err := oracleValidateFunction(name, fn); err != nil {
			return err
		}
	}
	return nil
}

func oracleValidateFunction(name string, f *Function) error {
	if f.Name != name {
		return oracleErrf("function key %q mismatches Function.Name %q", name, f.Name)
	}
	if len(f.Blocks) == 0 {
		return oracleErrf("function %q has no blocks", f.Name)
	}

	byID := make(map[BlockId]bool, len(f.Blocks))
	for _, b := range f.Blocks {
		if byID[b.ID] {
			return oracleErrf("function %q has duplicate block id %d", f.Name, b.ID)
		}
		byID[b.ID] = true
	}
	if !byID[f.Entry] {
		return oracleErrf("function %q entry block %d missing", f.Name, f.Entry)
	}

	for _, b := range f.Blocks {
		for _, succ := range Successors(b.Term) {
			if !byID[succ] {
				return oracleErrf("function %q terminator branches to missing block %d", f.Name, succ)
			}
		}
	}
	return nil
}

func runFunction(m *Module, fn *Function, args []OracleValue, stdout, stderr *strings.Builder, cfg OracleConfig) (*OracleValue, bool, error) {
	if len(args) != len(fn.Params) {
		return nil, false, oracleErrf("function %q expected %d args, got %d", fn.Name, len(fn.Params), len(args))
	}

	env := make(map[ValueId]OracleValue)
	for i, p := range fn.Params {
		env[p.ID] = args[i]
	}

	blocksByID := make(map[BlockId]*BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blocksByID[b.ID] = b
	}

	current := fn.Entry
	var prev *BlockId
	steps := 0

	for {
		steps++
		if steps > cfg.MaxSteps {
			return nil, false, oracleErrf("exceeded max_steps=%d (possible infinite loop)", cfg.MaxSteps)
		}

		b, ok := blocksByID[current]
		if !ok {
			return nil, false, oracleErrf("missing block %d", current)
		}

		for _, inst := range b.Instructions {
			switch k := inst.Kind.(type) {
			case AllocCapability:
				if inst.Dest != nil {
					env[*inst.Dest] = OracleValue{Kind: OracleUnit}
				}

			case BindStrand:
				v, err := evalRValue(k.Value, env)
				if err != nil {
					return nil, false, err
				}
				if inst.Dest != nil {
					env[*inst.Dest] = v
				}

			case RangeCheckU32:
				v, ok := env[k.Value]
				if !ok {
					return nil, false, oracleErrf("missing value %d for range check", k.Value)
				}
				if v.Kind != OracleU32Kind {
					return nil, false, oracleErrf("RangeCheckU32 expects U32")
				}
				if v.U32 < k.Lo || v.U32 > k.Hi {
					stderr.Reset()
					fmt.Fprintf(stderr, "Aura range check failed: %d not in [%d..%d]\n", v.U32, k.Lo, k.Hi)
					return nil, false, nil
				}

			case Unary:
				v, ok := env[k.Operand]
				if !ok {
					return nil, false, oracleErrf("missing operand %d", k.Operand)
				}
				out, err := evalUnary(k.Op, v)
				if err != nil {
					return nil, false, err
				}
				if inst.Dest != nil {
					env[*inst.Dest] = out
				}

			case Binary:
				l, ok := env[k.Left]
				if !ok {
					return nil, false, oracleErrf("missing left operand %d", k.Left)
				}
				r, ok := env[k.Right]
				if !ok {
					return nil, false, oracleErrf("missing right operand %d", k.Right)
				}
				out, err := evalBinary(k.Op, l, r)
				if err != nil {
					return nil, false, err
				}
				if inst.Dest != nil {
					env[*inst.Dest] = out
				}

			case Phi:
				if prev == nil {
					return nil, false, oracleErrf("phi executed with no predecessor")
				}
				var chosen *ValueId
				for _, in := range k.Incomings {
					if in.Pred == *prev {
						v := in.Value
						chosen = &v
						break
					}
				}
				if chosen == nil {
					return nil, false, oracleErrf("phi has no incoming for predecessor %d", *prev)
				}
				v, ok := env[*chosen]
				if !ok {
					return nil, false, oracleErrf("phi incoming value %d missing", *chosen)
				}
				if inst.Dest != nil {
					env[*inst.Dest] = v
				}

			case Call:
				rv, okRun, err := runCallee(m, k.Callee, k.Args, env, stdout, stderr, cfg)
				if err != nil {
					return nil, false, err
				}
				if !okRun {
					return nil, false, nil
				}
				if inst.Dest != nil {
					if rv != nil {
						env[*inst.Dest] = *rv
					} else {
						env[*inst.Dest] = OracleValue{Kind: OracleUnit}
					}
				}

			case ComputeKernel:
				rv, okRun, err := runCallee(m, k.Callee, k.Args, env, stdout, stderr, cfg)
				if err != nil {
					return nil, false, err
				}
				if !okRun {
					return nil, false, nil
				}
				if inst.Dest != nil {
					if rv != nil {
						env[*inst.Dest] = *rv
					} else {
						env[*inst.Dest] = OracleValue{Kind: OracleUnit}
					}
				}

			default:
				return nil, false, oracleErrf("unhandled instruction kind %T", k)
			}
		}

		switch t := b.Term.(type) {
		case Return:
			if t.Value == nil {
				return nil, true, nil
			}
			v, ok := env[*t.Value]
			if !ok {
				return nil, false, oracleErrf("missing return value %d", *t.Value)
			}
			return &v, true, nil

		case Br:
			p := current
			prev = &p
			current = t.Target

		case CondBr:
			v, ok := env[t.Cond]
			if !ok {
				return nil, false, oracleErrf("missing cond %d", t.Cond)
			}
			if v.Kind != OracleBoolKind {
				return nil, false, oracleErrf("CondBr expects Bool")
			}
			p := current
			prev = &p
			if v.Bool {
				current = t.Then
			} else {
				current = t.Else
			}

		case Switch:
			v, ok := env[t.Scrutinee]
			if !ok {
				return nil, false, oracleErrf("missing switch scrutinee %d", t.Scrutinee)
			}
			var key uint64
			switch v.Kind {
			case OracleU32Kind:
				key = uint64(v.U32)
			case OracleBoolKind:
				if v.Bool {
					key = 1
				}
			case OracleTensorKind:
				key = uint64(v.U32)
			default:
				return nil, false, oracleErrf("Switch expects U32/Bool/Tensor")
			}

			target := t.Default
			for _, c := range t.Cases {
				if c.Key == key {
					target = c.Target
					break
				}
			}
			p := current
			prev = &p
			current = target
		}
	}
}

func runCallee(m *Module, callee string, args []ValueId, env map[ValueId]OracleValue, stdout, stderr *strings.Builder, cfg OracleConfig) (*OracleValue, bool, error) {
	callArgs := make([]OracleValue, len(args))
	for i, id := range args {
		v, ok := env[id]
		if !ok {
			return nil, false, oracleErrf("missing call arg %d", id)
		}
		callArgs[i] = v
	}

	if f, ok := m.Functions[callee]; ok {
		rv, okRun, err := runFunction(m, f, callArgs, stdout, stderr, cfg)
		if err != nil {
			return nil, false, errors.Wrapf(err, "calling %q", callee)
		}
		return rv, okRun, nil
	}
	if _, ok := m.Externs[callee]; ok {
		rv, err := runExtern(callee, callArgs, stdout)
		return rv, true, err
	}
	return nil, false, oracleErrf("unknown callee %q", callee)
}

func evalRValue(rv RValue, env map[ValueId]OracleValue) (OracleValue, error) {
	switch v := rv.(type) {
	case ConstU32:
		return oracleU32(uint32(v)), nil
	case ConstBool:
		return oracleBool(bool(v)), nil
	case ConstString:
		return oracleString(string(v)), nil
	case Local:
		val, ok := env[ValueId(v)]
		if !ok {
			return OracleValue{}, oracleErrf("missing local %d", v)
		}
		return val, nil
	default:
		return OracleValue{}, oracleErrf("unsupported rvalue %T", rv)
	}
}

func evalUnary(op UnaryOp, v OracleValue) (OracleValue, error) {
	switch {
	case op == OpNeg && v.Kind == OracleU32Kind:
		return oracleU32(-v.U32), nil
	case op == OpNot && v.Kind == OracleBoolKind:
		return oracleBool(!v.Bool), nil
	default:
		return OracleValue{}, oracleErrf("unsupported unary op %s for value kind %d", op, v.Kind)
	}
}

func evalBinary(op BinOp, l, r OracleValue) (OracleValue, error) {
	switch op {
	case OpAdd:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleU32(l.U32 + r.U32), nil
		}
	case OpSub:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleU32(l.U32 - r.U32), nil
		}
	case OpMul:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleU32(l.U32 * r.U32), nil
		}
	case OpDiv:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			if r.U32 == 0 {
				return OracleValue{}, oracleErrf("division by zero")
			}
			return oracleU32(l.U32 / r.U32), nil
		}
	case OpEq:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleBool(l.U32 == r.U32), nil
		}
		if l.Kind == OracleBoolKind && r.Kind == OracleBoolKind {
			return oracleBool(l.Bool == r.Bool), nil
		}
		if l.Kind == OracleStringKind && r.Kind == OracleStringKind {
			return oracleBool(l.String == r.String), nil
		}
	case OpNe:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleBool(l.U32 != r.U32), nil
		}
		if l.Kind == OracleBoolKind && r.Kind == OracleBoolKind {
			return oracleBool(l.Bool != r.Bool), nil
		}
		if l.Kind == OracleStringKind && r.Kind == OracleStringKind {
			return oracleBool(l.String != r.String), nil
		}
	case OpLt:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleBool(l.U32 < r.U32), nil
		}
	case OpGt:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleBool(l.U32 > r.U32), nil
		}
	case OpLe:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleBool(l.U32 <= r.U32), nil
		}
	case OpGe:
		if l.Kind == OracleU32Kind && r.Kind == OracleU32Kind {
			return oracleBool(l.U32 >= r.U32), nil
		}
	case OpAnd:
		if l.Kind == OracleBoolKind && r.Kind == OracleBoolKind {
			return oracleBool(l.Bool && r.Bool), nil
		}
	case OpOr:
		if l.Kind == OracleBoolKind && r.Kind == OracleBoolKind {
			return oracleBool(l.Bool || r.Bool), nil
		}
	}
	return OracleValue{}, oracleErrf("unsupported binary op %s for value kinds %d and %d", op, l.Kind, r.Kind)
}

// runExtern models the fixed set of runtime ABI symbols the oracle can
// execute without a native runtime. Anything else is unmodeled: the oracle
// is a translation-validation aid, not a full interpreter (spec.md §4.2).
func runExtern(callee string, args []OracleValue, stdout *strings.Builder) (*OracleValue, error) {
	switch callee {
	case "io.println", "aura_io_println":
		if len(args) != 1 || args[0].Kind != OracleStringKind {
			return nil, oracleErrf("%s expects a single String arg", callee)
		}
		stdout.WriteString(args[0].String)
		if !strings.HasSuffix(stdout.String(), "\n") {
			stdout.WriteByte('\n')
		}
		return nil, nil
	case "aura_range_check_u32", "aura_tensor_new", "aura_tensor_len", "aura_tensor_get",
		"aura_tensor_set", "aura_ai_load_model", "aura_ai_infer", "io_load_tensor",
		"io_display", "compute_gradient":
		return runABIExtern(callee, args)
	default:
		return nil, oracleErrf("extern %q not modeled", callee)
	}
}

// runABIExtern dispatches an oracle extern call to the stdlib registry that
// backends assume is linked against at runtime, converting between the
// oracle's erased value representation and internal/runtime's GC-backed one.
func runABIExtern(callee string, args []OracleValue) (*OracleValue, error) {
	rtArgs := make([]runtime.Value, len(args))
	for i, a := range args {
		rtArgs[i] = toRuntimeValue(a)
	}

	result, err := abiRegistry.Call(callee, rtArgs)
	if err != nil {
		return nil, oracleErrf("%s: %v", callee, err)
	}
	if result.Type == runtime.ValueTypeVoid {
		return nil, nil
	}
	out := fromRuntimeValue(result)
	return &out, nil
}

func toRuntimeValue(v OracleValue) runtime.Value {
	switch v.Kind {
	case OracleBoolKind:
		return runtime.NewBool(v.Bool)
	case OracleU32Kind, OracleTensorKind:
		return runtime.NewInt(int64(v.U32))
	case OracleStringKind:
		return runtime.NewString(v.String)
	default:
		return runtime.NewVoid()
	}
}

func fromRuntimeValue(v runtime.Value) OracleValue {
	switch v.Type {
	case runtime.ValueTypeBool:
		b, _ := v.AsBool()
		return oracleBool(b)
	case runtime.ValueTypeInt:
		i, _ := v.AsInt()
		return oracleU32(uint32(i))
	case runtime.ValueTypeString:
		s, _ := v.AsString()
		return oracleString(s)
	case runtime.ValueTypeTensor:
		h, _ := v.AsTensorHandle()
		return OracleValue{Kind: OracleTensorKind, U32: uint32(h)}
	default:
		return OracleValue{Kind: OracleUnit}
	}
}
