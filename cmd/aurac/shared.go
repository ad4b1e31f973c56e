package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aura-lang/aurac/internal/ast"
	"github.com/aura-lang/aurac/internal/config"
	"github.com/aura-lang/aurac/internal/diagnostics"
	"github.com/aura-lang/aurac/internal/geometry"
)

// readProgram loads a JSON-encoded ast.Program from path, the format every
// subcommand takes as input: parsing surface Aura source into this tree is
// out of this module's scope, the same boundary internal/ast's own doc
// comment draws.
func readProgram(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var prog ast.Program
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, fmt.Errorf("parse AST JSON %s: %w", path, err)
	}
	return &prog, nil
}

// loadConfig loads path if non-empty, otherwise returns the built-in
// defaults; an empty path is not an error.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// geometryPolicy turns a config's solver timeout into the SolverPolicy the
// pipeline's geometry phase consumes.
func geometryPolicy(c config.Config) geometry.SolverPolicy {
	return geometry.SolverPolicy{Timeout: c.Geometry.SolverTimeout}
}

// printDiagnostics renders every diagnostic in reporter to stderr, returning
// whether any of them was an error (the gate the check and verify-ui
// subcommands use to decide their exit status).
func printDiagnostics(reporter *diagnostics.Reporter) bool {
	for _, d := range reporter.All() {
		fmt.Fprintln(os.Stderr, d.Render())
	}
	return reporter.HasErrors()
}
