// Package codegen holds logic shared by both backends (internal/codegen/
// llvmgen and internal/codegen/cgen) so that a type mapping or an ABI
// decision is made once rather than drifting between the two emitters.
package codegen

import "github.com/aura-lang/aurac/internal/ir"

// ReturnShape is what a backend needs to know about a function's return
// value and its async surface. Both backends read Type to pick a return
// type. Neither backend reads IsComputeKernel: cgen and llvmgen both emit a
// ComputeKernel as a plain call, and no call is routed through the C
// runtime header's spawn/join wrapper.
type ReturnShape struct {
	Type Type

	// IsComputeKernel is true when fn's body contains at least one
	// ir.ComputeKernel instruction, whatever its argument and result
	// types.
	IsComputeKernel bool
}

// Type is the backend-neutral classification of an ir.Type used by both
// emitters to pick a concrete target representation: llvmgen maps it to an
// LLVM types.Type, cgen maps it to a C type spelling.
type Type int

const (
	TypeVoid Type = iota
	TypeBool
	TypeU32
	TypeStringPtr
	TypeHandle // Tensor or Opaque: an id-based cross-object reference, u32-sized
)

// ClassifyType maps an IR type to its backend-neutral shape. Aura's IR has
// no floating-point or struct types (§3.1): every non-void, non-bool,
// non-string value is either a raw u32 or a handle into the runtime's GC
// manager. Any Kind not listed here falls through to TypeU32.
func ClassifyType(t ir.Type) Type {
	switch t.Kind {
	case ir.KindUnit:
		return TypeVoid
	case ir.KindBool:
		return TypeBool
	case ir.KindU32:
		return TypeU32
	case ir.KindString:
		return TypeStringPtr
	case ir.KindTensor, ir.KindOpaque:
		return TypeHandle
	default:
		return TypeU32
	}
}

// InferReturnShape computes fn's ReturnShape once so llvmgen and cgen agree
// on both its declared return type and whether any call site inside it must
// be treated as an async compute kernel.
func InferReturnShape(fn *ir.Function) ReturnShape {
	shape := ReturnShape{Type: ClassifyType(fn.Return)}
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if _, ok := inst.Kind.(ir.ComputeKernel); ok {
				shape.IsComputeKernel = true
			}
		}
	}
	return shape
}

// InferModuleReturnShapes runs InferReturnShape over every function in m,
// keyed by function name, for a backend to consult while it walks call
// sites without recomputing the async scan per call.
func InferModuleReturnShapes(m *ir.Module) map[string]ReturnShape {
	shapes := make(map[string]ReturnShape, len(m.Functions))
	for name, fn := range m.Functions {
		shapes[name] = InferReturnShape(fn)
	}
	return shapes
}
