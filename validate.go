package pqcbridge

import (
	"context"
	"slices"
	"time"

	"github.com/latticegate/pqcbridge/engine"
)

// ValidateResult is the validate tool's output document.
type ValidateResult struct {
	Compliant           bool                `json:"compliant"`
	ComplianceScore     float64             `json:"compliance_score"`
	TargetScore         float64             `json:"target_score"`
	ControlStatus       string              `json:"control_status"`
	BlockingIssues      []ScanVulnerability `json:"blocking_issues"`
	Recommendations     []string            `json:"recommendations"`
	ValidationTimestamp string              `json:"validation_timestamp"`
}

// Validate scans a path and judges it against a target compliance score.
// Strict mode additionally fails the check when any finding belongs to a
// quantum-vulnerable algorithm family, regardless of score.
func (t *Toolset) Validate(ctx context.Context, args map[string]any) (any, error) {
	targetScore := floatArg(args, "target_score", 80)
	strictMode := boolArg(args, "strict_mode", false)

	result, err := t.runner.Run(ctx, engine.Request{
		Path:   stringArg(args, "path", ""),
		Format: engine.FormatSC13,
	})
	if err != nil {
		return nil, stageFailure("Validation failed", err)
	}

	return normalizeValidateResult(result.Report, targetScore, strictMode, time.Now().UTC()), nil
}

func normalizeValidateResult(report engine.Report, targetScore float64, strictMode bool, now time.Time) ValidateResult {
	scan := normalizeScanResult(report)

	compliant := scan.Summary.ComplianceScore >= targetScore
	quantumFamilies := engine.QuantumVulnerableAlgorithms()

	blocking := make([]ScanVulnerability, 0)
	for _, vuln := range scan.Vulnerabilities {
		quantum := slices.Contains(quantumFamilies, vuln.CryptoType)
		if strictMode && quantum {
			compliant = false
		}
		if vuln.Severity == engine.SeverityCritical || (strictMode && quantum) {
			blocking = append(blocking, vuln)
		}
	}

	controlStatus := scan.Report.ControlStatus
	if controlStatus == "" {
		controlStatus = "unknown"
	}

	recommendations := report.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return ValidateResult{
		Compliant:           compliant,
		ComplianceScore:     scan.Summary.ComplianceScore,
		TargetScore:         targetScore,
		ControlStatus:       controlStatus,
		BlockingIssues:      blocking,
		Recommendations:     recommendations,
		ValidationTimestamp: now.Format(time.RFC3339),
	}
}
