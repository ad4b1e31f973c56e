package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/ir"
	"github.com/aura-lang/aurac/internal/lower"
)

func newValidateCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Lower and structurally validate an AST-JSON program",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input AST-JSON file")
	cmd.MarkFlagRequired("in")
	return cmd
}
