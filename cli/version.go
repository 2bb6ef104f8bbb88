package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/latticegate/pqcbridge"
)

// NewVersionCmd creates the "version" subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pqcbridge version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "pqcbridge version %s\n", pqcbridge.Version)
			return nil
		},
	}
}
