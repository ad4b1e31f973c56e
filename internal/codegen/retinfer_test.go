package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aura-lang/aurac/internal/ir"
)

func TestClassifyType(t *testing.T) {
	assert.Equal(t, TypeVoid, ClassifyType(ir.Unit))
	assert.Equal(t, TypeBool, ClassifyType(ir.Bool))
	assert.Equal(t, TypeU32, ClassifyType(ir.U32))
	assert.Equal(t, TypeStringPtr, ClassifyType(ir.String))
	assert.Equal(t, TypeHandle, ClassifyType(ir.Tensor))
	assert.Equal(t, TypeHandle, ClassifyType(ir.Opaque("Socket")))
}

func TestInferReturnShapeDetectsComputeKernel(t *testing.T) {
	dest := ir.ValueId(0)
	fn := &ir.Function{
		Name:   "main",
		Return: ir.Tensor,
		Blocks: []*ir.BasicBlock{
			{
				ID: 0,
				Instructions: []*ir.Instruction{
					{Dest: &dest, Kind: ir.ComputeKernel{Callee: "compute_gradient", Args: []ir.ValueId{}}},
				},
				Term: ir.Return{Value: &dest},
			},
		},
	}

	shape := InferReturnShape(fn)
	assert.Equal(t, TypeHandle, shape.Type)
	assert.True(t, shape.IsComputeKernel)
}

func TestInferReturnShapeNoComputeKernel(t *testing.T) {
	fn := &ir.Function{
		Name:   "main",
		Return: ir.U32,
		Blocks: []*ir.BasicBlock{
			{ID: 0, Term: ir.Return{Value: nil}},
		},
	}

	shape := InferReturnShape(fn)
	assert.Equal(t, TypeU32, shape.Type)
	assert.False(t, shape.IsComputeKernel)
}

func TestInferModuleReturnShapes(t *testing.T) {
	m := ir.NewModule()
	m.AddFunction(&ir.Function{Name: "f", Return: ir.Bool, Blocks: []*ir.BasicBlock{{ID: 0, Term: ir.Return{}}}})
	m.AddFunction(&ir.Function{Name: "g", Return: ir.Tensor, Blocks: []*ir.BasicBlock{{ID: 0, Term: ir.Return{}}}})

	shapes := InferModuleReturnShapes(m)
	assert.Len(t, shapes, 2)
	assert.Equal(t, TypeBool, shapes["f"].Type)
	assert.Equal(t, TypeHandle, shapes["g"].Type)
}
