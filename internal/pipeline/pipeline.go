// Package pipeline drives one program through every phase the compiler
// runs end to end: ownership analysis and the geometry verifier over the
// AST, AST-to-IR lowering, race detection over the lowered module, IR
// validation and optimization, a selected backend, and optionally the
// oracle. Ownership and geometry accumulate diagnostics into one reporter
// and stop the run before lowering if either reported an error; race
// detection stops it the same way before validation. Every other failure is
// fatal on first occurrence.
package pipeline

import (
	"github.com/pkg/errors"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/codegen/cgen"
	"github.com/aura-lang/aurac/internal/codegen/llvmgen"
	"github.com/aura-lang/aurac/internal/diagnostics"
	"github.com/aura-lang/aurac/internal/geometry"
	"github.com/aura-lang/aurac/internal/ir"
	"github.com/aura-lang/aurac/internal/lower"
	"github.com/aura-lang/aurac/internal/ownership"
	"github.com/aura-lang/aurac/internal/race"
)

// Backend selects which codegen target Run's final phase invokes.
type Backend string

const (
	BackendNone Backend = ""
	BackendLLVM Backend = "llvm"
	BackendC    Backend = "c"
)

// Options controls which optional phases Run performs.
type Options struct {
	Backend        Backend
	OptimizerLevel int // 0 disables the optimizer phase entirely
	GeometryPolicy geometry.SolverPolicy
	RunOracle      bool
	OracleEntry    string
	OracleArgs     []ir.OracleValue
	OracleConfig   ir.OracleConfig
}

// Result collects every artifact a Run can produce. Only the fields
// relevant to the requested Options are populated.
type Result struct {
	Reporter    *diagnostics.Reporter
	Module      *ir.Module
	LLVM        string
	C           cgen.Artifacts
	OracleOut   *ir.OracleOutput
}

// Run executes every phase over prog in order, stopping at the analyzer
// gate if any phase reported an error and otherwise continuing through
// lowering, validation, optimization, and the requested backend.
func Run(prog *ast.Program, opts Options) (*Result, error) {
	reporter := diagnostics.NewReporter()
	res := &Result{Reporter: reporter}

	runOwnership(prog, reporter)

	rp, err := geometry.Resolve(opts.GeometryPolicy)
	if err != nil {
		return res, errors.Wrap(err, "pipeline: resolve geometry policy")
	}
	geometry.VerifyWithPolicy(func() { geometry.Verify(prog, reporter) }, rp)
	if reporter.HasErrors() {
		return res, nil
	}

	module, err := lower.Program(prog)
	if err != nil {
		return res, errors.Wrap(err, "pipeline: lowering")
	}
	res.Module = module

	runRaceDetection(prog, module, reporter)
	if reporter.HasErrors() {
		return res, nil
	}

	if err := ir.Validate(module); err != nil {
		return res, errors.Wrap(err, "pipeline: validate (pre-optimize)")
	}

	if opts.OptimizerLevel != 0 {
		ir.Optimize(module)

		if err := ir.Validate(module); err != nil {
			return res, errors.Wrap(err, "pipeline: validate (post-optimize)")
		}
	}

	if err := runBackend(module, opts, res); err != nil {
		return res, err
	}

	if opts.RunOracle {
		out, err := ir.RunOracleEntry(module, opts.OracleEntry, opts.OracleArgs, opts.OracleConfig)
		if err != nil {
			return res, errors.Wrap(err, "pipeline: oracle run")
		}
		res.OracleOut = out
	}

	return res, nil
}

// runOwnership performs per-cell ownership and linear-capability checking,
// the first and cheapest analyzer pass: it never needs a lowered module.
func runOwnership(prog *ast.Program, reporter *diagnostics.Reporter) {
	for i := range prog.Cells {
		cell := &prog.Cells[i]
		for _, d := range ownership.AnalyzeCell(prog.Name, cell) {
			reporter.Report(d)
		}
	}
}

// runRaceDetection walks module's ComputeKernel/BindStrand instructions to
// feed the teacher's thread/lock-shaped race.Detector, then reports every
// violation found. It needs the lowered module rather than the bare AST
// because `~>`'s concurrency hint is only explicit once lowering has
// produced an ir.ComputeKernel instruction.
func runRaceDetection(prog *ast.Program, module *ir.Module, reporter *diagnostics.Reporter) {
	detector := race.NewDetector()
	for _, a := range collectRaceAccesses(module) {
		detector.RecordAccess(a)
	}
	detector.DetectAll()
	for _, v := range detector.Violations() {
		reporter.Report(race.ToDiagnostic(prog.Name, v))
	}
}

func runBackend(module *ir.Module, opts Options, res *Result) error {
	switch opts.Backend {
	case BackendLLVM:
		mod, err := llvmgen.Emit(module)
		if err != nil {
			return errors.Wrap(err, "pipeline: llvm backend")
		}
		res.LLVM = mod.String()
	case BackendC:
		artifacts, err := cgen.Emit(module)
		if err != nil {
			return errors.Wrap(err, "pipeline: c backend")
		}
		res.C = artifacts
	case BackendNone:
	default:
		return errors.Errorf("pipeline: unknown backend %q", opts.Backend)
	}
	return nil
}
