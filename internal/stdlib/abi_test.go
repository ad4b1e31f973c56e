package stdlib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-lang/aurac/internal/runtime"
)

// These exercise the registry the same way internal/ir/oracle.go's
// runExtern/runABIExtern dispatch does: by name, through Call, never by
// calling the abi* functions directly.

func TestRegistryHasReservedABISymbols(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{
		"aura_io_println",
		"aura_range_check_u32",
		"aura_tensor_new",
		"aura_tensor_len",
		"aura_tensor_get",
		"aura_tensor_set",
		"aura_ai_load_model",
		"aura_ai_infer",
		"io_load_tensor",
		"io_display",
		"compute_gradient",
	} {
		assert.True(t, r.HasFunction(name), "missing reserved ABI symbol %s", name)
	}
}

func TestCallUnknownFunctionErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("not_a_real_symbol", nil)
	assert.Error(t, err)
}

func TestRangeCheckU32InBounds(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("aura_range_check_u32", []runtime.Value{
		runtime.NewInt(5), runtime.NewInt(0), runtime.NewInt(10),
	})
	assert.NoError(t, err)
}

func TestRangeCheckU32OutOfBounds(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("aura_range_check_u32", []runtime.Value{
		runtime.NewInt(11), runtime.NewInt(0), runtime.NewInt(10),
	})
	assert.Error(t, err)
}

func TestTensorNewLenGetSetRoundTrip(t *testing.T) {
	r := NewRegistry()

	handle, err := r.Call("aura_tensor_new", []runtime.Value{runtime.NewInt(3)})
	require.NoError(t, err)

	length, err := r.Call("aura_tensor_len", []runtime.Value{handle})
	require.NoError(t, err)
	lengthInt, err := length.AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 3, lengthInt)

	_, err = r.Call("aura_tensor_set", []runtime.Value{handle, runtime.NewInt(1), runtime.NewInt(42)})
	require.NoError(t, err)

	got, err := r.Call("aura_tensor_get", []runtime.Value{handle, runtime.NewInt(1)})
	require.NoError(t, err)
	gotInt, err := got.AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 42, gotInt)
}

func TestTensorGetOutOfBounds(t *testing.T) {
	r := NewRegistry()
	handle, err := r.Call("aura_tensor_new", []runtime.Value{runtime.NewInt(1)})
	require.NoError(t, err)

	_, err = r.Call("aura_tensor_get", []runtime.Value{handle, runtime.NewInt(5)})
	assert.Error(t, err)
}

func TestComputeGradientSymmetricDifference(t *testing.T) {
	r := NewRegistry()
	result, err := r.Call("compute_gradient", []runtime.Value{runtime.NewInt(2), runtime.NewInt(9)})
	require.NoError(t, err)
	v, err := result.AsInt()
	require.NoError(t, err)
	assert.EqualValues(t, 7, v)
}

func TestAILoadModelAndInferReturnHandles(t *testing.T) {
	r := NewRegistry()
	model, err := r.Call("aura_ai_load_model", []runtime.Value{runtime.NewString("weights.bin")})
	require.NoError(t, err)

	out, err := r.Call("aura_ai_infer", []runtime.Value{model, runtime.NewInt(1)})
	require.NoError(t, err)
	assert.NotEqual(t, model, out)
}
