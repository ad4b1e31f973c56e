package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/ir"
	"github.com/aura-lang/aurac/internal/lower"
)

func newLowerCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "lower",
		Short: "Lower an AST-JSON program to IR and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := readProgram(in)
			if err != nil {
				return err
			}
			module, err := lower.Program(prog)
			if err != nil {
				return fmt.Errorf("lower: %w", err)
			}
			fmt.Print(ir.Dump(module))
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input AST-JSON file")
	cmd.MarkFlagRequired("in")
	return cmd
}
