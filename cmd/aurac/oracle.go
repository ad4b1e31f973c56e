package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aura-lang/aurac/internal/ir"
	"github.com/aura-lang/aurac/internal/lower"
)

func newOracleCmd() *cobra.Command {
	var in, configPath, entry string
	var rawArgs []string
	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Run an entry function through the oracle interpreter",
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

			oracleArgs, err := parseOracleArgs(rawArgs)
			if err != nil {
				return err
			}
			out, err := ir.RunOracleEntry(module, entry, oracleArgs, ir.OracleConfig{MaxSteps: int(cfg.Oracle.MaxSteps)})
			if err != nil {
				return fmt.Errorf("oracle: %w", err)
			}
			fmt.Print(out.Stdout)
			if out.Stderr != "" {
				fmt.Print(out.Stderr)
			}
			if !out.OK {
				return fmt.Errorf("oracle: entry %q halted on a failed range check", entry)
			}
			if out.ReturnValue != nil {
				fmt.Printf("=> %s\n", formatOracleValue(*out.ReturnValue))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input AST-JSON file")
	cmd.Flags().StringVar(&configPath, "config", "", "path to aurac.yaml")
	cmd.Flags().StringVar(&entry, "entry", "main", "entry function name")
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, `argument as kind:value, e.g. u32:5, bool:true, string:hi`)
	cmd.MarkFlagRequired("in")
	return cmd
}

func parseOracleArgs(raw []string) ([]ir.OracleValue, error) {
	out := make([]ir.OracleValue, 0, len(raw))
	for _, r := range raw {
		kind, val, ok := strings.Cut(r, ":")
		if !ok {
			return nil, fmt.Errorf("malformed --arg %q: expected kind:value", r)
		}
		switch kind {
		case "u32":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("--arg %q: %w", r, err)
			}
			out = append(out, ir.OracleValue{Kind: ir.OracleU32Kind, U32: uint32(n)})
		case "bool":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, fmt.Errorf("--arg %q: %w", r, err)
			}
			out = append(out, ir.OracleValue{Kind: ir.OracleBoolKind, Bool: b})
		case "string":
			out = append(out, ir.OracleValue{Kind: ir.OracleStringKind, String: val})
		default:
			return nil, fmt.Errorf("--arg %q: unknown kind %q", r, kind)
		}
	}
	return out, nil
}

func formatOracleValue(v ir.OracleValue) string {
	switch v.Kind {
	case ir.OracleU32Kind:
		return fmt.Sprintf("%d", v.U32)
	case ir.OracleBoolKind:
		return fmt.Sprintf("%t", v.Bool)
	case ir.OracleStringKind:
		return v.String
	case ir.OracleTensorKind:
		return fmt.Sprintf("<tensor %s>", v.Opaque)
	default:
		return fmt.Sprintf("<%s>", v.TypeOf())
	}
}
