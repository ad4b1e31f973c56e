package stdlib

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/aura-lang/aurac/internal/runtime"
)

// readTensorFile reads whitespace-separated u32 values from path.
func readTensorFile(path string) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data []uint32
	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		v, err := strconv.ParseUint(scanner.Text(), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid u32 token %q: %v", scanner.Text(), err)
		}
		data = append(data, uint32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// registerABIFunctions registers the reserved runtime ABI symbols from
// spec.md §6.1 under their emitted names, so the same registry that backs
// the oracle's extern dispatch is what a golden test can assert against
// symbol-for-symbol.
func (r *Registry) registerABIFunctions() {
	r.Register("aura_io_println", abiIOPrintln)
	r.Register("aura_range_check_u32", abiRangeCheckU32)
	r.Register("aura_tensor_new", abiTensorNew)
	r.Register("aura_tensor_len", abiTensorLen)
	r.Register("aura_tensor_get", abiTensorGet)
	r.Register("aura_tensor_set", abiTensorSet)
	r.Register("aura_ai_load_model", abiAILoadModel)
	r.Register("aura_ai_infer", abiAIInfer)
	r.Register("io_load_tensor", abiIOLoadTensor)
	r.Register("io_display", abiIODisplay)
	r.Register("compute_gradient", abiComputeGradient)
}

func abiU32(args []runtime.Value, i int, name string) (uint32, error) {
	v, err := args[i].AsInt()
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d must be u32: %v", name, i, err)
	}
	if v < 0 || v > math.MaxUint32 {
		return 0, fmt.Errorf("%s: argument %d out of u32 range", name, i)
	}
	return uint32(v), nil
}

// abiIOPrintln implements aura_io_println(ptr) -> void: prints the string
// followed by a newline, the same contract oracle.runExtern models inline
// for the io.println/aura_io_println pair.
func abiIOPrintln(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return runtime.NewVoid(), fmt.Errorf("aura_io_println expects 1 argument, got %d", len(args))
	}
	s, err := args[0].AsString()
	if err != nil {
		return runtime.NewVoid(), fmt.Errorf("aura_io_println: %v", err)
	}
	fmt.Println(s)
	return runtime.NewVoid(), nil
}

// abiRangeCheckU32 implements aura_range_check_u32(u32,u32,u32) -> void: the
// extern form of the IR's inline RangeCheckU32 instruction, used by backends
// that lower a range check to a call rather than inline guard code.
func abiRangeCheckU32(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 3 {
		return runtime.NewVoid(), fmt.Errorf("aura_range_check_u32 expects 3 arguments, got %d", len(args))
	}
	v, err := abiU32(args, 0, "aura_range_check_u32")
	if err != nil {
		return runtime.NewVoid(), err
	}
	lo, err := abiU32(args, 1, "aura_range_check_u32")
	if err != nil {
		return runtime.NewVoid(), err
	}
	hi, err := abiU32(args, 2, "aura_range_check_u32")
	if err != nil {
		return runtime.NewVoid(), err
	}
	if v < lo || v > hi {
		return runtime.NewVoid(), fmt.Errorf("aura range check failed: %d not in [%d..%d]", v, lo, hi)
	}
	return runtime.NewVoid(), nil
}

// abiTensorNew implements aura_tensor_new(u32) -> u32: allocates a
// zero-filled tensor of the given length through the GC manager and returns
// its handle.
func abiTensorNew(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return runtime.NewVoid(), fmt.Errorf("aura_tensor_new expects 1 argument, got %d", len(args))
	}
	n, err := abiU32(args, 0, "aura_tensor_new")
	if err != nil {
		return runtime.NewVoid(), err
	}
	tensor := runtime.NewTensor(make([]uint32, n))
	handle, err := tensor.AsTensorHandle()
	if err != nil {
		return runtime.NewVoid(), err
	}
	return runtime.NewInt(int64(handle)), nil
}

func lookupTensor(args []runtime.Value, i int, name string) ([]uint32, runtime.ObjectID, error) {
	handle, err := abiU32(args, i, name)
	if err != nil {
		return nil, 0, err
	}
	id := runtime.ObjectID(handle)
	data, ok := runtime.LookupTensor(id)
	if !ok {
		return nil, 0, fmt.Errorf("%s: no tensor with handle %d", name, handle)
	}
	return data, id, nil
}

// abiTensorLen implements aura_tensor_len(u32) -> u32.
func abiTensorLen(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return runtime.NewVoid(), fmt.Errorf("aura_tensor_len expects 1 argument, got %d", len(args))
	}
	data, _, err := lookupTensor(args, 0, "aura_tensor_len")
	if err != nil {
		return runtime.NewVoid(), err
	}
	return runtime.NewInt(int64(len(data))), nil
}

// abiTensorGet implements aura_tensor_get(u32,u32) -> u32.
func abiTensorGet(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 2 {
		return runtime.NewVoid(), fmt.Errorf("aura_tensor_get expects 2 arguments, got %d", len(args))
	}
	data, _, err := lookupTensor(args, 0, "aura_tensor_get")
	if err != nil {
		return runtime.NewVoid(), err
	}
	idx, err := abiU32(args, 1, "aura_tensor_get")
	if err != nil {
		return runtime.NewVoid(), err
	}
	if int(idx) >= len(data) {
		return runtime.NewVoid(), fmt.Errorf("aura_tensor_get: index %d out of bounds (len %d)", idx, len(data))
	}
	return runtime.NewInt(int64(data[idx])), nil
}

// abiTensorSet implements aura_tensor_set(u32,u32,u32) -> void.
func abiTensorSet(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 3 {
		return runtime.NewVoid(), fmt.Errorf("aura_tensor_set expects 3 arguments, got %d", len(args))
	}
	data, _, err := lookupTensor(args, 0, "aura_tensor_set")
	if err != nil {
		return runtime.NewVoid(), err
	}
	idx, err := abiU32(args, 1, "aura_tensor_set")
	if err != nil {
		return runtime.NewVoid(), err
	}
	val, err := abiU32(args, 2, "aura_tensor_set")
	if err != nil {
		return runtime.NewVoid(), err
	}
	if int(idx) >= len(data) {
		return runtime.NewVoid(), fmt.Errorf("aura_tensor_set: index %d out of bounds (len %d)", idx, len(data))
	}
	data[idx] = val
	return runtime.NewVoid(), nil
}

// abiAILoadModel implements aura_ai_load_model(ptr) -> u32: the opaque ML
// binding returns a handle backed by the same GC manager tensors use, since
// both are id-based cross-object references rather than pointers.
func abiAILoadModel(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return runtime.NewVoid(), fmt.Errorf("aura_ai_load_model expects 1 argument, got %d", len(args))
	}
	path, err := args[0].AsString()
	if err != nil {
		return runtime.NewVoid(), fmt.Errorf("aura_ai_load_model: %v", err)
	}
	seed := make([]uint32, 1)
	for _, c := range path {
		seed[0] = seed[0]*31 + uint32(c)
	}
	handle := runtime.NewTensor(seed)
	id, err := handle.AsTensorHandle()
	if err != nil {
		return runtime.NewVoid(), err
	}
	return runtime.NewInt(int64(id)), nil
}

// abiAIInfer implements aura_ai_infer(u32,u32) -> u32: a deterministic
// placeholder inference step (no real model backend exists in this repo's
// scope) that combines a model handle and an input into an output handle.
func abiAIInfer(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 2 {
		return runtime.NewVoid(), fmt.Errorf("aura_ai_infer expects 2 arguments, got %d", len(args))
	}
	model, err := abiU32(args, 0, "aura_ai_infer")
	if err != nil {
		return runtime.NewVoid(), err
	}
	input, err := abiU32(args, 1, "aura_ai_infer")
	if err != nil {
		return runtime.NewVoid(), err
	}
	result := runtime.NewTensor([]uint32{model ^ input})
	id, err := result.AsTensorHandle()
	if err != nil {
		return runtime.NewVoid(), err
	}
	return runtime.NewInt(int64(id)), nil
}

// abiIOLoadTensor implements io_load_tensor(ptr) -> i32: reads a
// whitespace-separated list of u32 values from a file path into a new
// tensor and returns its handle.
func abiIOLoadTensor(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return runtime.NewVoid(), fmt.Errorf("io_load_tensor expects 1 argument, got %d", len(args))
	}
	path, err := args[0].AsString()
	if err != nil {
		return runtime.NewVoid(), fmt.Errorf("io_load_tensor: %v", err)
	}
	data, err := readTensorFile(path)
	if err != nil {
		return runtime.NewVoid(), fmt.Errorf("io_load_tensor: %v", err)
	}
	tensor := runtime.NewTensor(data)
	id, err := tensor.AsTensorHandle()
	if err != nil {
		return runtime.NewVoid(), err
	}
	return runtime.NewInt(int64(id)), nil
}

// abiIODisplay implements io_display(i32) -> void: prints a tensor handle's
// contents, or falls back to printing a scalar value directly.
func abiIODisplay(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return runtime.NewVoid(), fmt.Errorf("io_display expects 1 argument, got %d", len(args))
	}
	handle, err := abiU32(args, 0, "io_display")
	if err == nil {
		if data, ok := runtime.LookupTensor(runtime.ObjectID(handle)); ok {
			fmt.Println(data)
			return runtime.NewVoid(), nil
		}
	}
	fmt.Println(args[0].String())
	return runtime.NewVoid(), nil
}

// abiComputeGradient implements compute_gradient(i32,i32) -> i32. It runs
// through the async manager's spawn/join path (internal/runtime.
// RunComputeKernel) and returns the absolute difference |x1 - x0| of the
// two sample points.
func abiComputeGradient(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 2 {
		return runtime.NewVoid(), fmt.Errorf("compute_gradient expects 2 arguments, got %d", len(args))
	}
	x0, err := args[0].AsInt()
	if err != nil {
		return runtime.NewVoid(), fmt.Errorf("compute_gradient: %v", err)
	}
	x1, err := args[1].AsInt()
	if err != nil {
		return runtime.NewVoid(), fmt.Errorf("compute_gradient: %v", err)
	}

	result, err := runtime.RunComputeKernel(func(ctx context.Context) (runtime.Value, error) {
		diff := math.Abs(float64(x1 - x0))
		return runtime.NewInt(int64(math.Round(diff))), nil
	})
	if err != nil {
		return runtime.NewVoid(), fmt.Errorf("compute_gradient: %v", err)
	}
	return result, nil
}
