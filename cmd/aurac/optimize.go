package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/ir"
	"github.com/aura-lang/aurac/internal/lower"
)

func newOptimizeCmd() *cobra.Command {
	var in, configPath string
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Lower, validate, optimize, and re-validate, printing the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			prog, err := readProgram(in)
			if err != nil {
				return err
			}
			module, err := lower.Program(prog)
			if err != nil {
				return fmt.Errorf("lower: %w", err)
			}
			if err := ir.Validate(module); err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			if cfg.Optimizer.Level != 0 {
				ir.Optimize(module)
				if err := ir.Validate(module); err != nil {
					return fmt.Errorf("validate (post-optimize): %w", err)
				}
			}
			fmt.Print(ir.Dump(module))
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input AST-JSON file")
	cmd.Flags().StringVar(&configPath, "config", "", "path to aurac.yaml")
	cmd.MarkFlagRequired("in")
	return cmd
}
