package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ffigen/internal/irfile"
)

var (
	dumpIR     []string
	dumpFormat string
)

func init() {
	dumpCmd.Flags().StringSliceVar(&dumpIR, "ir", nil, "IR document (YAML) or snapshot (.mpk); repeatable")
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "yaml", "output format (yaml|spew)")
}

var dumpCmd = &cobra.Command{
	Use:          "dump",
	Short:        "Print the resolved type definitions an IR set lowers to",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(dumpIR) == 0 {
			return fmt.Errorf("at least one --ir document is required")
		}

		defs, err := irfile.Load(dumpIR...)
		if err != nil {
			return err
		}

		switch dumpFormat {
		case "yaml":
			data, err := yaml.Marshal(defs)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		case "spew":
			spew.Fdump(cmd.OutOrStdout(), defs)
			return nil
		default:
			return fmt.Errorf("unsupported format %q (must be yaml or spew)", dumpFormat)
		}
	},
}
