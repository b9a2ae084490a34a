package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ffigen/internal/attrs"
	"ffigen/internal/gen"
	"ffigen/internal/irfile"
)

var (
	genIR       []string
	genBackend  string
	genFeatures []string
	genOut      string
	genJobs     int
	genDryRun   bool
)

func init() {
	generateCmd.Flags().StringSliceVar(&genIR, "ir", nil, "IR document (YAML) or snapshot (.mpk); repeatable")
	generateCmd.Flags().StringVar(&genBackend, "backend", "", "target backend identity (go|c)")
	generateCmd.Flags().StringSliceVar(&genFeatures, "features", nil, "active feature names")
	generateCmd.Flags().StringVar(&genOut, "out", "", "output directory")
	generateCmd.Flags().IntVar(&genJobs, "jobs", 0, "per-type parallelism (0 = GOMAXPROCS)")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "run the full pipeline but write nothing")
}

var generateCmd = &cobra.Command{
	Use:          "generate",
	Short:        "Generate bindings and native glue from IR documents",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := loadConfig()
		if err != nil {
			return err
		}

		if len(genIR) == 0 {
			return fmt.Errorf("at least one --ir document is required")
		}

		backendName := pickStr(genBackend, fileCfg.Generate.Backend, "go")
		outDir := pickStr(genOut, fileCfg.Generate.Output, "bindings")

		features := genFeatures
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

		reg, err := irfile.BuildRegistry(genIR...)
		if err != nil {
			return err
		}

		res := gen.Run(reg, gen.Config{
			Target:  attrs.Target{Backend: backendName, Features: attrs.NewFeatureSet(features...)},
			Backend: be,
			Jobs:    pickInt(genJobs, fileCfg.Generate.Jobs),
			Logger:  logger,
		})

		renderDiagnostics(cmd.ErrOrStderr(), &res.Diags, flagVerbose)

		if !genDryRun {
			if err := gen.WriteFiles(res.Files, outDir); err != nil {
				return err
			}

			logger.Debug("artifacts written", zap.String("dir", outDir), zap.Int("files", len(res.Files)))
		}

		if res.Diags.HasErrors() {
			return fmt.Errorf("generation failed with %d error(s)", len(res.Diags.Errors))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "generated %d type(s) into %s\n", len(res.Manifest.Types), outDir)

		return nil
	},
}
