package ir

import (
	"fmt"
	"sort"
	"strings"
)

// Dump renders m as a textual SSA listing, the form `aurac lower`/`optimize`
// print to show a human a module's shape without reaching for a debugger.
// It is not a serialization format; Validate and the backends never read it
// back.
func Dump(m *Module) string {
	var b strings.Builder
	for _, name := range m.ExternOrder {
		sig := m.Externs[name]
		fmt.Fprintf(&b, "extern %s(%s) -> %s\n", sig.Name, typeList(sig.Params), sig.Return)
	}
	if len(m.ExternOrder) > 0 {
		b.WriteString("\n")
	}
	for i, name := range m.FuncOrder {
		if i > 0 {
			b.WriteString("\n")
		}
		dumpFunction(&b, m.Functions[name])
	}
	return b.String()
}

func typeList(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func dumpFunction(b *strings.Builder, fn *Function) {
	fmt.Fprintf(b, "fn %s(%s) -> %s {\n", fn.Name, typeList(fn.Params), fn.Return)
	for _, blk := range fn.Blocks {
		fmt.Fprintf(b, "  bb%d:\n", blk.ID)
		for _, inst := range blk.Instructions {
			b.WriteString("    ")
			dumpInstruction(b, inst)
			b.WriteString("\n")
		}
		b.WriteString("    ")
		dumpTerminator(b, blk.Term)
		b.WriteString("\n")
	}
	b.WriteString("}\n")
}

func dumpInstruction(b *strings.Builder, inst *Instruction) {
	if inst.Dest != nil {
		fmt.Fprintf(b, "%%%d = ", *inst.Dest)
	}
	switch k := inst.Kind.(type) {
	case Phi:
		incs := make([]string, len(k.Incomings))
		for i, in := range k.Incomings {
			incs[i] = fmt.Sprintf("[bb%d: %%%d]", in.Pred, in.Value)
		}
		fmt.Fprintf(b, "phi %s", strings.Join(incs, ", "))
	case BindStrand:
		fmt.Fprintf(b, "strand %q = %s", k.Name, dumpRValue(k.Value))
	case Unary:
		fmt.Fprintf(b, "%s %%%d", k.Op, k.Operand)
	case Binary:
		fmt.Fprintf(b, "%%%d %s %%%d", k.Left, k.Op, k.Right)
	case Call:
		fmt.Fprintf(b, "call %s(%s)", k.Callee, valueList(k.Args))
	case ComputeKernel:
		fmt.Fprintf(b, "compute %s(%s)", k.Callee, valueList(k.Args))
	case RangeCheckU32:
		fmt.Fprintf(b, "range_check %%%d in [%d, %d]", k.Value, k.Lo, k.Hi)
	case AllocCapability:
		fmt.Fprintf(b, "alloc_capability %q", k.Kind)
	default:
		fmt.Fprintf(b, "<unknown instruction>")
	}
}

func dumpRValue(v RValue) string {
	switch rv := v.(type) {
	case ConstU32:
		return fmt.Sprintf("%d", uint32(rv))
	case ConstBool:
		return fmt.Sprintf("%t", bool(rv))
	case ConstString:
		return fmt.Sprintf("%q", string(rv))
	case Local:
		return fmt.Sprintf("%%%d", ValueId(rv))
	default:
		return "<unknown rvalue>"
	}
}

func valueList(ids []ValueId) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%%%d", id)
	}
	return strings.Join(parts, ", ")
}

func dumpTerminator(b *strings.Builder, t Terminator) {
	switch term := t.(type) {
	case Return:
		if term.Value != nil {
			fmt.Fprintf(b, "ret %%%d", *term.Value)
		} else {
			b.WriteString("ret")
		}
	case Br:
		fmt.Fprintf(b, "br bb%d", term.Target)
	case CondBr:
		fmt.Fprintf(b, "condbr %%%d, bb%d, bb%d", term.Cond, term.Then, term.Else)
	case Switch:
		cases := make([]SwitchCase, len(term.Cases))
		copy(cases, term.Cases)
		sort.Slice(cases, func(i, j int) bool { return cases[i].Key < cases[j].Key })
		parts := make([]string, len(cases))
		for i, c := range cases {
			parts[i] = fmt.Sprintf("%d: bb%d", c.Key, c.Target)
		}
		fmt.Fprintf(b, "switch %%%d [%s] default bb%d", term.Scrutinee, strings.Join(parts, ", "), term.Default)
	default:
		b.WriteString("<unknown terminator>")
	}
}
