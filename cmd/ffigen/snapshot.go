package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ffigen/internal/irfile"
	"ffigen/internal/registry"
)

var (
	snapIR  []string
	snapOut string
)

func init() {
	snapshotCmd.Flags().StringSliceVar(&snapIR, "ir", nil, "IR document (YAML); repeatable")
	snapshotCmd.Flags().StringVar(&snapOut, "out", "ir.mpk", "snapshot path")
}

var snapshotCmd = &cobra.Command{
	Use:          "snapshot",
	Short:        "Freeze IR documents into a msgpack snapshot",
	Long:         `Lowers authored YAML documents once and writes the result as a msgpack snapshot that generate and validate accept in place of the YAML`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(snapIR) == 0 {
			return fmt.Errorf("at least one --ir document is required")
		}

		defs, err := irfile.Load(snapIR...)
		if err != nil {
			return err
		}

		// A snapshot that would not build a registry is not worth handing
		// to another tool.
		if _, err := registry.Build(defs); err != nil {
			return err
		}

		if err := irfile.SaveSnapshot(snapOut, defs); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "snapshot of %d type(s) written to %s\n", len(defs), snapOut)

		return nil
	},
}
