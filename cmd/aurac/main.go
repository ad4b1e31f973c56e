// Command aurac is the compiler's command-line surface: one subcommand per
// pipeline phase, so lowering, validation, optimization, oracle execution,
// and either backend can each be driven independently or scripted together.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aurac",
		Short: "Aura compiler: lowering, analysis, optimization, oracle, and codegen",
	}
	root.AddCommand(
		newLowerCmd(),
		newValidateCmd(),
		newOptimizeCmd(),
		newOracleCmd(),
		newEmitLLVMCmd(),
		newEmitCCmd(),
		newCheckCmd(),
		newVerifyUICmd(),
	)
	return root
}
