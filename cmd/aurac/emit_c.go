package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/codegen/cgen"
)

func newEmitCCmd() *cobra.Command {
	var in, outHeader, outSource, configPath string
	cmd := &cobra.Command{
		Use:   "emit-c",
		Short: "Lower, validate, optimize, validate, and emit C99 source plus its runtime header",
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := prepareModule(in, configPath)
			if err != nil {
				return err
			}
			artifacts, err := cgen.Emit(module)
			if err != nil {
				return fmt.Errorf("emit-c: %w", err)
			}
			if outHeader == "" && outSource == "" {
				fmt.Print(artifacts.RuntimeH)
				fmt.Print(strings.Repeat("\n", 1))
				fmt.Print(artifacts.ModuleC)
				return nil
			}
			if err := writeOutput(outHeader, artifacts.RuntimeH); err != nil {
				return err
			}
			return writeOutput(outSource, artifacts.ModuleC)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input AST-JSON file")
	cmd.Flags().StringVar(&outHeader, "out-header", "", "output runtime header (aura_runtime.h)")
	cmd.Flags().StringVar(&outSource, "out-source", "", "output translation unit (module.c)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to aurac.yaml")
	cmd.MarkFlagRequired("in")
	return cmd
}
