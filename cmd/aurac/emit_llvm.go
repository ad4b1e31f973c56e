package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/codegen/llvmgen"
	"github.com/aura-lang/aurac/internal/ir"
	"github.com/aura-lang/aurac/internal/lower"
)

func newEmitLLVMCmd() *cobra.Command {
	var in, out, configPath string
	cmd := &cobra.Command{
		Use:   "emit-llvm",
		Short: "Lower, validate, optimize, validate, and emit textual LLVM IR",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := prepareModule(in, configPath)
			if err != nil {
				return err
			}
			mod, err := llvmgen.Emit(module)
			if err != nil {
				return fmt.Errorf("emit-llvm: %w", err)
			}
			return writeOutput(out, mod.String())
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input AST-JSON file")
	cmd.Flags().StringVar(&out, "out", "", "output .ll file (stdout if empty)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to aurac.yaml")
	cmd.MarkFlagRequired("in")
	return cmd
}

// prepareModule runs the lower/validate/optimize/validate phases shared by
// both backend subcommands.
func prepareModule(in, configPath string) (*ir.Module, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	prog, err := readProgram(in)
	if err != nil {
		return nil, err
	}
	module, err := lower.Program(prog)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}
	if err := ir.Validate(module); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if cfg.Optimizer.Level != 0 {
		ir.Optimize(module)
		if err := ir.Validate(module); err != nil {
			return nil, fmt.Errorf("validate (post-optimize): %w", err)
		}
	}
	return module, nil
}

func writeOutput(path, content string) error {
	if path == "" {
		fmt.Print(content)
		return nil
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
