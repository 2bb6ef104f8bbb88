package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/latticegate/pqcbridge"
	"github.com/latticegate/pqcbridge/engine"
	"github.com/latticegate/pqcbridge/history"
)

// NewScanCmd creates the "scan" subcommand. It runs a single scan without
// starting a server.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a file or directory for quantum-vulnerable cryptography",
		RunE:  runScan,
	}

	cmd.Flags().String("config", "", "Path to pqcbridge.yaml")
	cmd.Flags().String("engine", "", "Path to the pqc-scanner binary")
	cmd.Flags().Duration("engine-timeout", 0, "Per-invocation engine deadline")
	cmd.Flags().String("scratch-dir", "", "Directory for engine report artifacts")
	cmd.Flags().String("history-dsn", "", "SQLite DSN for dispatch history")
	cmd.Flags().String("descriptor-dir", "", "Directory of tool descriptor overrides")
	cmd.Flags().String("path", "", "File or directory to scan")
	cmd.Flags().String("format", "", "Report format (sc13 or oscal)")
	cmd.Flags().Bool("json", false, "Print the scan result as JSON")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return exitError(exitConfig, "%v", err)
	}

	scratch, err := engine.NewScratch(cfg.Engine.ScratchDir)
	if err != nil {
		return exitError(exitConfig, "preparing scratch dir: %v", err)
	}
	runner := engine.NewRunner(cfg.Engine.Path, time.Duration(cfg.Engine.Timeout), scratch)

	descriptors, err := pqcbridge.LoadDescriptors(cfg.DescriptorDir)
	if err != nil {
		return exitError(exitConfig, "loading descriptors: %v", err)
	}
	registry, err := pqcbridge.NewRegistry(descriptors)
	if err != nil {
		return exitError(exitConfig, "building registry: %v", err)
	}

	observer := pqcbridge.NoopObserver()
	if cfg.History.DSN != "" {
		store, err := history.NewSQLiteStore(cfg.History.DSN)
		if err != nil {
			return exitError(exitConfig, "opening history store: %v", err)
		}
		defer func() { _ = store.Close() }()
		observer = history.NewRecorder(store, nil)
	}

	toolset := pqcbridge.NewToolset(runner, scratch)
	dispatcher, err := pqcbridge.NewDispatcher(registry, toolset.Handlers(), observer)
	if err != nil {
		return exitError(exitConfig, "building dispatcher: %v", err)
	}

	path, _ := cmd.Flags().GetString("path")
	format, _ := cmd.Flags().GetString("format")

	args := map[string]any{"path": path}
	if format != "" {
		args["format"] = format
	}

	ctx := pqcbridge.WithSource(cmd.Context(), pqcbridge.SourceCLI)
	ctx = pqcbridge.WithTraceID(ctx, uuid.NewString())

	result, err := dispatcher.Dispatch(ctx, pqcbridge.ToolScan, args)
	if err != nil {
		return scanError(err)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return exitError(exitRuntime, "encoding scan result: %v", err)
		}
		_, _ = cmd.OutOrStdout().Write(append(data, '\n'))
		return nil
	}

	scan, ok := result.(pqcbridge.ScanResult)
	if !ok {
		return exitError(exitRuntime, "unexpected scan result type %T", result)
	}
	return printScanResult(cmd.OutOrStdout(), scan)
}

func scanError(err error) error {
	switch pqcbridge.ErrorCode(err) {
	case pqcbridge.ErrorCodeEngineTimeout:
		return exitError(exitTimeout, "%v", err)
	case pqcbridge.ErrorCodeInvalidArgument:
		return exitError(exitInputParse, "%v", err)
	case pqcbridge.ErrorCodeConfiguration:
		return exitError(exitConfig, "%v", err)
	default:
		return exitError(exitRuntime, "%v", err)
	}
}

func printScanResult(out io.Writer, scan pqcbridge.ScanResult) error {
	fmt.Fprintf(out, "Report: %s (%s)\n", scan.Report.Title, scan.Report.ReportID)
	fmt.Fprintf(out, "Control: %s status=%s\n", scan.Report.ControlID, scan.Report.ControlStatus)
	fmt.Fprintf(out, "Files scanned: %d (%d lines)\n", scan.Summary.FilesScanned, scan.Summary.LinesScanned)
	fmt.Fprintf(out, "Vulnerabilities: %d (compliance %.1f, risk %.1f)\n",
		scan.Summary.VulnerabilitiesFound, scan.Summary.ComplianceScore, scan.Summary.RiskScore)

	if len(scan.Vulnerabilities) == 0 {
		fmt.Fprintln(out, "No vulnerable cryptography found.")
		return nil
	}

	fmt.Fprintln(out)
	writer := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "TYPE\tSEVERITY\tRECOMMENDATION")
	for _, vuln := range scan.Vulnerabilities {
		recommendation := strings.TrimSpace(vuln.Recommendation)
		if recommendation == "" {
			recommendation = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", vuln.CryptoType, vuln.Severity, recommendation)
	}
	return writer.Flush()
}
