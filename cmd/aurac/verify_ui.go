package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/diagnostics"
	"github.com/aura-lang/aurac/internal/geometry"
)

func newVerifyUICmd() *cobra.Command {
	var in, configPath string
	cmd := &cobra.Command{
		Use:   "verify-ui",
		Short: "Run only the UI geometry/aesthetics verifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			prog, err := readProgram(in)
			if err != nil {
				return err
			}
			if !geometry.RequestsLumina(prog) {
				fmt.Println("program does not import aura_lumina; nothing to verify")
				return nil
			}
			rp, err := geometry.Resolve(geometryPolicy(cfg))
			if err != nil {
				return err
			}
			reporter := diagnostics.NewReporter()
			timedOut := geometry.VerifyWithPolicy(func() { geometry.Verify(prog, reporter) }, rp)
			if timedOut {
				return fmt.Errorf("verify-ui: solver timed out after %s", rp.Timeout)
			}
			if printDiagnostics(reporter) {
				return fmt.Errorf("verify-ui: %d diagnostic(s) reported", reporter.Len())
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
