package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ffigen/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "ffigen",
	Short: "IR-driven FFI binding generator",
	Long:  `ffigen turns a typed IR of a native library's public surface into host-language bindings plus matching native glue`,
}

var (
	flagVerbose bool
	flagColor   string
)

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output (auto|on|off)")

	cobra.OnInitialize(applyColorMode)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// applyColorMode resolves the --color flag; "auto" leaves detection to the
// color package itself.
func applyColorMode() {
	switch flagColor {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
}

// newLogger builds the run logger: a development logger under --verbose,
// otherwise a nop. Library packages never log on their own.
func newLogger() (*zap.Logger, error) {
	if !flagVerbose {
		return zap.NewNop(), nil
	}

	return zap.NewDevelopment()
}
