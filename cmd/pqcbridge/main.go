package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/latticegate/pqcbridge"
	"github.com/latticegate/pqcbridge/cli"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pqcbridge",
	Short: "MCP bridge for the pqc-scanner engine",
	Long:  "pqcbridge exposes post-quantum cryptography scanning, analysis, remediation, and validation as MCP tools.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = pqcbridge.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("pqcbridge version %s\n", pqcbridge.Version))

	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewScanCmd())
	rootCmd.AddCommand(cli.NewToolsCmd())
	rootCmd.AddCommand(cli.NewVersionCmd())
}
