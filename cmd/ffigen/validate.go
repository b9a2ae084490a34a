package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ffigen/internal/attrs"
	"ffigen/internal/gen"
	"ffigen/internal/irfile"
)

var (
	valIR       []string
	valBackend  string
	valFeatures []string
)

func init() {
	validateCmd.Flags().StringSliceVar(&valIR, "ir", nil, "IR document (YAML) or snapshot (.mpk); repeatable")
	validateCmd.Flags().StringVar(&valBackend, "backend", "", "target backend identity (go|c)")
	validateCmd.Flags().StringSliceVar(&valFeatures, "features", nil, "active feature names")
}

var validateCmd = &cobra.Command{
	Use:          "validate",
	Short:        "Check IR documents against a target without writing output",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(valIR) == 0 {
			return fmt.Errorf("at least one --ir document is required")
		}

		backendName := pickStr(valBackend, fileCfg.Generate.Backend, "go")

		features := valFeatures
		if len(features) == 0 {
			features = fileCfg.Generate.Features
		}

		be, err := selectBackend(backendName, fileCfg.Generate)
		if err != nil {
			return err
		}

		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		reg, err := irfile.BuildRegistry(valIR...)
		if err != nil {
			return err
		}

		res := gen.Run(reg, gen.Config{
			Target:  attrs.Target{Backend: backendName, Features: attrs.NewFeatureSet(features...)},
			Backend: be,
			Logger:  logger,
		})

		renderDiagnostics(cmd.ErrOrStderr(), &res.Diags, flagVerbose)

		if res.Diags.HasErrors() {
			return fmt.Errorf("validation failed with %d error(s)", len(res.Diags.Errors))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d type(s) valid for backend %s\n", len(res.Manifest.Types), backendName)

		return nil
	},
}
