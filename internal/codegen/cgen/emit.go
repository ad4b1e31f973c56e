// Package cgen emits a validated, optimized ir.Module as freestanding C99:
// a small aura_runtime.h prototype runtime plus a module.c translation
// unit. It is grounded directly on the reference C backend's hand-built
// string emission (there is no idiomatic Go "C AST" library in the example
// corpus the way llir/llvm exists for LLVM IR, so — unlike llvmgen — this
// backend follows the reference emitter's approach of building the output
// with a strings.Builder rather than an intermediate object graph).
package cgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aura-lang/aurac/internal/codegen"
	airir "github.com/aura-lang/aurac/internal/ir"
)

// Artifacts is the pair of files a C build needs: a header declaring the
// prototype runtime, and the translated module itself.
type Artifacts struct {
	RuntimeH string
	ModuleC  string
}

// Emit translates m into C99 source. The caller is expected to have already
// run the optimizer and validator over m; Emit does not repeat either pass.
func Emit(m *airir.Module) (Artifacts, error) {
	shapes := codegen.InferModuleReturnShapes(m)
	moduleC, err := emitModuleC(m, shapes)
	if err != nil {
		return Artifacts{}, err
	}
	return Artifacts{RuntimeH: runtimeHeader, ModuleC: moduleC}, nil
}

// runtimeHeader is the prototype runtime linked against emitted C: a
// minimal Tensor handle type, the range-check abort helper, and an
// aura_async_u32_2 spawn/join wrapper for compute_gradient-style
// ComputeKernel calls, falling back to a direct call when C11 threads.h is
// unavailable. The emitted module code does not call the wrapper itself:
// emitInstructionC emits every ComputeKernel as a plain call.
const runtimeHeader = `#pragma once
#include <stdint.h>
#include <stdbool.h>
#include <stdio.h>
#include <stdlib.h>

/* Linked from the same ABI internal/stdlib implements for the oracle. */
void aura_io_println(const char* s);
void aura_range_check_u32(uint32_t v, uint32_t lo, uint32_t hi);
uint32_t aura_tensor_new(uint32_t len);
uint32_t aura_tensor_len(uint32_t t);
uint32_t aura_tensor_get(uint32_t t, uint32_t idx);
void aura_tensor_set(uint32_t t, uint32_t idx, uint32_t val);
uint32_t aura_ai_load_model(const char* path);
uint32_t aura_ai_infer(uint32_t model, uint32_t input);
uint32_t io_load_tensor(const char* path);
void io_display(uint32_t t);
uint32_t compute_gradient(uint32_t x0, uint32_t x1);
uint32_t aura_alloc_capability(const char* kind);

/* ~> async execution: spawn-then-join wrapper around a two-argument u32
 * ComputeKernel, the only async shape the runtime ABI supports. */
#if defined(__STDC_NO_THREADS__)
#define aura_async_u32_2(fn, a0, a1) (fn((a0), (a1)))
#else
#include <threads.h>
typedef struct aura_task_u32_2 {
	uint32_t (*fn)(uint32_t, uint32_t);
	uint32_t a0;
	uint32_t a1;
	uint32_t out;
} aura_task_u32_2;
static int aura_task_u32_2_entry(void* p) {
	aura_task_u32_2* t = (aura_task_u32_2*)p;
	t->out = t->fn(t->a0, t->a1);
	return 0;
}
static inline uint32_t aura_async_u32_2(uint32_t (*fn)(uint32_t, uint32_t), uint32_t a0, uint32_t a1) {
	aura_task_u32_2 task;
	task.fn = fn;
	task.a0 = a0;
	task.a1 = a1;
	thrd_t thr;
	thrd_create(&thr, aura_task_u32_2_entry, &task);
	thrd_join(thr, 0);
	return task.out;
}
#endif
`

func cType(t codegen.Type) string {
	switch t {
	case codegen.TypeVoid:
		return "void"
	case codegen.TypeBool:
		return "bool"
	case codegen.TypeU32:
		return "uint32_t"
	case codegen.TypeStringPtr:
		return "const char*"
	case codegen.TypeHandle:
		return "uint32_t"
	default:
		return "uint32_t"
	}
}

// cIdent mangles an Aura identifier into a C identifier: every
// non-identifier character becomes '_', and a leading digit gets a '_'
// prefix.
func cIdent(name string) string {
	mangled := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, name)
	if mangled != "" && mangled[0] >= '0' && mangled[0] <= '9' {
		mangled = "_" + mangled
	}
	return mangled
}

func cValue(id airir.ValueId) string {
	return fmt.Sprintf("v%d", id)
}

func cBlockLabel(id airir.BlockId) string {
	return fmt.Sprintf("bb%d", id)
}

func escapeCString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func emitModuleC(m *airir.Module, shapes map[string]codegen.ReturnShape) (string, error) {
	var out strings.Builder
	out.WriteString("#include \"aura_runtime.h\"\n\n")

	for _, name := range m.FuncOrder {
		if name == "main" {
			continue
		}
		if err := emitFunction(&out, m.Functions[name], name, shapes); err != nil {
			return "", fmt.Errorf("cgen: function %s: %w", name, err)
		}
		out.WriteString("\n")
	}

	if mainFn, ok := m.Functions["main"]; ok {
		if err := emitFunction(&out, mainFn, "aura_main", shapes); err != nil {
			return "", fmt.Errorf("cgen: function main: %w", err)
		}
		out.WriteString("\nint main(void) {\n\taura_main();\n\treturn 0;\n}\n")
	}

	return out.String(), nil
}

func emitFunction(out *strings.Builder, fn *airir.Function, emittedName string, shapes map[string]codegen.ReturnShape) error {
	retType := codegen.ClassifyType(fn.Return)
	fmt.Fprintf(out, "%s %s(", cType(retType), cIdent(emittedName))
	for i, p := range fn.Params {
		if i > 0 {
			out.WriteString(", ")
		}
		fmt.Fprintf(out, "%s %s", cType(codegen.ClassifyType(p.Type)), cValue(p.ID))
	}
	out.WriteString(") {\n")

	// Phi injections: for each (pred, target) edge, the assignments a C
	// goto must perform just before jumping, since C has no phi of its own.
	injections := make(map[[2]airir.BlockId][]phiAssign)
	for _, b := range fn.Blocks {
		for _, inst := range b.Phis() {
			if inst.Dest == nil {
				continue
			}
			phi := inst.Kind.(airir.Phi)
			for _, in := range phi.Incomings {
				key := [2]airir.BlockId{in.Pred, b.ID}
				injections[key] = append(injections[key], phiAssign{dest: *inst.Dest, value: in.Value})
			}
		}
	}

	calleeRet := make(map[string]codegen.Type, len(shapes))
	for name, s := range shapes {
		calleeRet[name] = s.Type
	}
	valTypes := inferValueTypesC(fn, calleeRet)
	for _, p := range fn.Params {
		valTypes[p.ID] = codegen.ClassifyType(p.Type)
	}

	// Declare every produced value up front; C89/C99 block scoping makes a
	// single flat declaration block simplest for a goto-heavy function body.
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if inst.Dest == nil {
				continue
			}
			t, ok := valTypes[*inst.Dest]
			if !ok {
				t = codegen.TypeU32
			}
			fmt.Fprintf(out, "\t%s %s;\n", cType(t), cValue(*inst.Dest))
		}
	}

	for _, b := range fn.Blocks {
		fmt.Fprintf(out, "%s:;\n", cBlockLabel(b.ID))
		for _, inst := range b.NonPhis() {
			emitInstructionC(out, inst)
		}
		emitTerminatorC(out, b.Term, injections, b.ID)
	}

	out.WriteString("}\n")
	return nil
}

func emitInstructionC(out *strings.Builder, inst *airir.Instruction) {
	switch k := inst.Kind.(type) {
	case airir.BindStrand:
		rhs := rvalueC(k.Value)
		if inst.Dest != nil {
			fmt.Fprintf(out, "\t%s = %s;\n", cValue(*inst.Dest), rhs)
		}

	case airir.Unary:
		op := "-"
		if k.Op == airir.OpNot {
			op = "!"
		}
		if inst.Dest != nil {
			fmt.Fprintf(out, "\t%s = %s%s;\n", cValue(*inst.Dest), op, cValue(k.Operand))
		}

	case airir.Binary:
		if inst.Dest != nil {
			if k.Op == airir.OpDiv {
				fmt.Fprintf(out, "\taura_range_check_u32(%s, 1, UINT32_MAX);\n", cValue(k.Right))
			}
			fmt.Fprintf(out, "\t%s = %s %s %s;\n", cValue(*inst.Dest), cValue(k.Left), binOpC(k.Op), cValue(k.Right))
		}

	case airir.Call, airir.ComputeKernel:
		var callee string
		var args []airir.ValueId
		if c, ok := inst.Kind.(airir.Call); ok {
			callee, args = c.Callee, c.Args
		} else {
			c := inst.Kind.(airir.ComputeKernel)
			callee, args = c.Callee, c.Args
		}
		argStrs := make([]string, len(args))
		for i, a := range args {
			argStrs[i] = cValue(a)
		}
		call := fmt.Sprintf("%s(%s)", cIdent(callee), strings.Join(argStrs, ", "))
		if inst.Dest != nil {
			fmt.Fprintf(out, "\t%s = %s;\n", cValue(*inst.Dest), call)
		} else {
			fmt.Fprintf(out, "\t%s;\n", call)
		}

	case airir.RangeCheckU32:
		fmt.Fprintf(out, "\taura_range_check_u32(%s, %du, %du);\n", cValue(k.Value), k.Lo, k.Hi)

	case airir.AllocCapability:
		if inst.Dest != nil {
			fmt.Fprintf(out, "\t%s = aura_alloc_capability(\"%s\");\n", cValue(*inst.Dest), escapeCString(k.Kind))
		}
	}
}

func rvalueC(rv airir.RValue) string {
	switch v := rv.(type) {
	case airir.ConstU32:
		return fmt.Sprintf("%du", uint32(v))
	case airir.ConstBool:
		if bool(v) {
			return "true"
		}
		return "false"
	case airir.ConstString:
		return fmt.Sprintf("\"%s\"", escapeCString(string(v)))
	case airir.Local:
		return cValue(airir.ValueId(v))
	default:
		return "0"
	}
}

func binOpC(op airir.BinOp) string {
	switch op {
	case airir.OpAdd:
		return "+"
	case airir.OpSub:
		return "-"
	case airir.OpMul:
		return "*"
	case airir.OpDiv:
		return "/"
	case airir.OpEq:
		return "=="
	case airir.OpNe:
		return "!="
	case airir.OpLt:
		return "<"
	case airir.OpGt:
		return ">"
	case airir.OpLe:
		return "<="
	case airir.OpGe:
		return ">="
	case airir.OpAnd:
		return "&&"
	case airir.OpOr:
		return "||"
	default:
		return "+"
	}
}

type phiAssign struct {
	dest  airir.ValueId
	value airir.ValueId
}

func emitTerminatorC(out *strings.Builder, term airir.Terminator, injections map[[2]airir.BlockId][]phiAssign, from airir.BlockId) {
	emitEdge := func(to airir.BlockId) {
		for _, a := range injections[[2]airir.BlockId{from, to}] {
			fmt.Fprintf(out, "\t%s = %s;\n", cValue(a.dest), cValue(a.value))
		}
		fmt.Fprintf(out, "\tgoto %s;\n", cBlockLabel(to))
	}

	switch t := term.(type) {
	case airir.Return:
		if t.Value == nil {
			out.WriteString("\treturn;\n")
			return
		}
		fmt.Fprintf(out, "\treturn %s;\n", cValue(*t.Value))

	case airir.Br:
		emitEdge(t.Target)

	case airir.CondBr:
		fmt.Fprintf(out, "\tif (%s) {\n", cValue(t.Cond))
		emitEdge(t.Then)
		out.WriteString("\t} else {\n")
		emitEdge(t.Else)
		out.WriteString("\t}\n")

	case airir.Switch:
		fmt.Fprintf(out, "\tswitch (%s) {\n", cValue(t.Scrutinee))
		sorted := append([]airir.SwitchCase(nil), t.Cases...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
		for _, c := range sorted {
			fmt.Fprintf(out, "\tcase %d: {\n", c.Key)
			emitEdge(c.Target)
			out.WriteString("\t}\n")
		}
		out.WriteString("\tdefault: {\n")
		emitEdge(t.Default)
		out.WriteString("\t}\n\t}\n")
	}
}

// inferValueTypesC mirrors llvmgen's inferValueTypes: C needs every
// produced SSA value's declared type up front, not only its phis, since
// declarations are hoisted to the top of the function body.
func inferValueTypesC(fn *airir.Function, calleeRet map[string]codegen.Type) map[airir.ValueId]codegen.Type {
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
				t, ok := inferOneC(inst, known, calleeRet)
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

func inferOneC(inst *airir.Instruction, known map[airir.ValueId]codegen.Type, calleeRet map[string]codegen.Type) (codegen.Type, bool) {
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
		return codegen.TypeU32, true
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
