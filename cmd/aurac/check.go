package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/pipeline"
)

// newCheckCmd runs every non-fatal analyzer pass (ownership/capability,
// race detection, geometry) without emitting to a backend, the
// "does this program pass analysis" entry point a CI script would call.
func newCheckCmd() *cobra.Command {
	var in, configPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run ownership, race, and geometry analysis and report diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			prog, err := readProgram(in)
			if err != nil {
				return err
			}
			res, err := pipeline.Run(prog, pipeline.Options{
				Backend:        pipeline.BackendNone,
				OptimizerLevel: cfg.Optimizer.Level,
				GeometryPolicy: geometryPolicy(cfg),
			})
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			if printDiagnostics(res.Reporter) {
				return fmt.Errorf("check: %d diagnostic(s) reported", res.Reporter.Len())
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input AST-JSON file")
	cmd.Flags().StringVar(&configPath, "config", "", "path to aurac.yaml")
	cmd.MarkFlagRequired("in")
	return cmd
}
