package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/latticegate/pqcbridge"
)

// NewToolsCmd creates the "tools" subcommand.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the bridge tool descriptors",
		RunE:  runTools,
	}

	cmd.Flags().String("config", "", "Path to pqcbridge.yaml")
	cmd.Flags().String("descriptor-dir", "", "Directory of tool descriptor overrides")
	cmd.Flags().Bool("json", false, "Print descriptors as JSON")

	return cmd
}

func runTools(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	descriptors, err := pqcbridge.LoadDescriptors(cfg.DescriptorDir)
	if err != nil {
		return exitError(exitConfig, "loading descriptors: %v", err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		data, err := json.MarshalIndent(descriptors, "", "  ")
		if err != nil {
			return exitError(exitRuntime, "encoding descriptors: %v", err)
		}
		_, _ = cmd.OutOrStdout().Write(append(data, '\n'))
		return nil
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tLATENCY\tCOST\tCATEGORIES")
	for _, desc := range descriptors {
		latency := desc.Metadata.LatencyBand
		if latency == "" {
			latency = "-"
		}
		cost := desc.Metadata.CostEstimate
		if cost == "" {
			cost = "-"
		}
		categories := strings.Join(desc.Metadata.Categories, ",")
		if categories == "" {
			categories = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n", desc.ToolID, desc.Name, latency, cost, categories)
	}
	return writer.Flush()
}
