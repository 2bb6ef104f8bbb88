package pqcbridge

import (
	"context"

	"github.com/latticegate/pqcbridge/engine"
)

// ScanResult is the scan tool's output document.
type ScanResult struct {
	Report          ScanReportInfo      `json:"report"`
	Summary         ScanSummary         `json:"summary"`
	Vulnerabilities []ScanVulnerability `json:"vulnerabilities"`
}

// ScanReportInfo surfaces the report identity and control judgment.
type ScanReportInfo struct {
	ReportID      string `json:"report_id"`
	Title         string `json:"title"`
	Version       string `json:"version"`
	OscalVersion  string `json:"oscal_version"`
	ControlID     string `json:"control_id"`
	ControlStatus string `json:"control_status"`
	Generated     string `json:"generated"`
}

// ScanSummary carries scan totals. Fields absent from the raw report stay at
// their zero values.
type ScanSummary struct {
	FilesScanned                int      `json:"files_scanned"`
	LinesScanned                int      `json:"lines_scanned"`
	VulnerabilitiesFound        int      `json:"vulnerabilities_found"`
	QuantumVulnerableAlgorithms []string `json:"quantum_vulnerable_algorithms"`
	DeprecatedAlgorithms        []string `json:"deprecated_algorithms"`
	WeakKeySizes                []string `json:"weak_key_sizes"`
	ComplianceScore             float64  `json:"compliance_score"`
	RiskScore                   float64  `json:"risk_score"`
}

// ScanVulnerability is one finding reduced to its client-facing core.
type ScanVulnerability struct {
	CryptoType     string `json:"crypto_type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// Scan runs the engine against a path and reshapes its assessment report.
func (t *Toolset) Scan(ctx context.Context, args map[string]any) (any, error) {
	result, err := t.runner.Run(ctx, engine.Request{
		Path:   stringArg(args, "path", ""),
		Format: stringArg(args, "format", engine.FormatSC13),
	})
	if err != nil {
		return nil, stageFailure("Scan failed", err)
	}
	return normalizeScanResult(result.Report), nil
}

func normalizeScanResult(report engine.Report) ScanResult {
	vulnerabilities := make([]ScanVulnerability, 0, len(report.Findings))
	for _, finding := range report.Findings {
		vulnerabilities = append(vulnerabilities, ScanVulnerability{
			CryptoType:     finding.Algorithm(),
			Severity:       finding.SeverityLevel(),
			Message:        finding.Description,
			Recommendation: finding.Recommendation(),
		})
	}

	return ScanResult{
		Report: ScanReportInfo{
			ReportID:      report.Metadata.ReportID,
			Title:         report.Metadata.Title,
			Version:       report.Metadata.Version,
			OscalVersion:  report.Metadata.OscalVersion,
			ControlID:     report.ControlAssessment.ControlID,
			ControlStatus: report.ControlAssessment.AssessmentStatus,
			Generated:     report.Metadata.Published,
		},
		Summary: ScanSummary{
			FilesScanned:                report.Summary.FilesScanned,
			LinesScanned:                report.Summary.LinesScanned,
			VulnerabilitiesFound:        report.Summary.TotalVulnerabilities,
			QuantumVulnerableAlgorithms: report.Summary.QuantumVulnerableAlgorithms,
			DeprecatedAlgorithms:        report.Summary.DeprecatedAlgorithms,
			WeakKeySizes:                report.Summary.WeakKeySizes,
			ComplianceScore:             report.Summary.ComplianceScore,
			RiskScore:                   report.Summary.RiskScore,
		},
		Vulnerabilities: vulnerabilities,
	}
}
