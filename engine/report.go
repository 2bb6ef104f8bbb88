package engine

import (
	"encoding/json"
	"os"
	"strings"
)

// Severity values the engine emits on findings.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Assessment status values the engine emits.
const (
	AssessmentSatisfied    = "satisfied"
	AssessmentNotSatisfied = "notsatisfied"
	AssessmentOther        = "other"
)

// Algorithm identifiers the engine reports. Serialized findings carry these
// in crypto-related fields and embed the display forms in prose.
const (
	AlgorithmRSA           = "RSA"
	AlgorithmECDSA         = "ECDSA"
	AlgorithmECDH          = "ECDH"
	AlgorithmDSA           = "DSA"
	AlgorithmDiffieHellman = "DIFFIE_HELLMAN"
	AlgorithmSHA1          = "SHA1"
	AlgorithmMD5           = "MD5"
	AlgorithmDES           = "DES"
	AlgorithmTripleDES     = "TRIPLE_DES"
	AlgorithmRC4           = "RC4"
)

// algorithmTokens maps every token form an engine report may carry, display
// form or identifier, back to the canonical identifier. Longer and more
// specific forms sort first so ECDSA never resolves as DSA.
var algorithmTokens = []struct {
	token string
	id    string
}{
	{"DIFFIE_HELLMAN", AlgorithmDiffieHellman},
	{"Diffie-Hellman", AlgorithmDiffieHellman},
	{"TRIPLE_DES", AlgorithmTripleDES},
	{"3DES", AlgorithmTripleDES},
	{"ECDSA", AlgorithmECDSA},
	{"ECDH", AlgorithmECDH},
	{"SHA-1", AlgorithmSHA1},
	{"SHA1", AlgorithmSHA1},
	{"RSA", AlgorithmRSA},
	{"DSA", AlgorithmDSA},
	{"MD5", AlgorithmMD5},
	{"DES", AlgorithmDES},
	{"RC4", AlgorithmRC4},
}

// QuantumVulnerableAlgorithms lists the asymmetric-key families broken by
// quantum attacks, as the engine classifies them. The remaining identifiers
// are deprecated-but-classical weaknesses.
func QuantumVulnerableAlgorithms() []string {
	return []string{
		AlgorithmRSA,
		AlgorithmECDSA,
		AlgorithmECDH,
		AlgorithmDSA,
		AlgorithmDiffieHellman,
	}
}

// KnownAlgorithms lists every algorithm identifier the engine can report.
func KnownAlgorithms() []string {
	return []string{
		AlgorithmRSA,
		AlgorithmECDSA,
		AlgorithmECDH,
		AlgorithmDSA,
		AlgorithmDiffieHellman,
		AlgorithmSHA1,
		AlgorithmMD5,
		AlgorithmDES,
		AlgorithmTripleDES,
		AlgorithmRC4,
	}
}

// Report is the engine's assessment document as written to the artifact.
type Report struct {
	Metadata          ReportMetadata    `json:"metadata"`
	ControlAssessment ControlAssessment `json:"control_assessment"`
	Summary           AssessmentSummary `json:"summary"`
	Findings          []Finding         `json:"findings"`
	Recommendations   []string          `json:"recommendations"`
}

// ReportMetadata identifies one assessment run.
type ReportMetadata struct {
	ReportID     string `json:"report_id"`
	Title        string `json:"title"`
	Published    string `json:"published"`
	LastModified string `json:"last_modified"`
	Version      string `json:"version"`
	OscalVersion string `json:"oscal_version"`
}

// ControlAssessment carries the engine's judgment of the assessed control.
type ControlAssessment struct {
	ControlID            string   `json:"control_id"`
	ControlName          string   `json:"control_name"`
	ControlFamily        string   `json:"control_family"`
	ControlDescription   string   `json:"control_description"`
	ImplementationStatus string   `json:"implementation_status"`
	AssessmentStatus     string   `json:"assessment_status"`
	AssessmentMethod     []string `json:"assessment_method"`
}

// AssessmentSummary aggregates scan totals.
type AssessmentSummary struct {
	FilesScanned                int      `json:"files_scanned"`
	LinesScanned                int      `json:"lines_scanned"`
	TotalVulnerabilities        int      `json:"total_vulnerabilities"`
	QuantumVulnerableAlgorithms []string `json:"quantum_vulnerable_algorithms"`
	DeprecatedAlgorithms        []string `json:"deprecated_algorithms"`
	WeakKeySizes                []string `json:"weak_key_sizes"`
	ComplianceScore             float64  `json:"compliance_score"`
	RiskScore                   float64  `json:"risk_score"`
}

// Finding is one control finding in a report. CryptoType, Severity, and
// RemediationSteps are structured fields newer engine builds emit; older
// reports carry the same information only in prose and in risk_level, so
// consumers go through Algorithm, SeverityLevel, and Recommendation instead
// of reading the raw fields.
type Finding struct {
	FindingID              string     `json:"finding_id"`
	ControlID              string     `json:"control_id"`
	ImplementationStatus   string     `json:"implementation_status"`
	AssessmentStatus       string     `json:"assessment_status"`
	Description            string     `json:"description"`
	RelatedVulnerabilities []string   `json:"related_vulnerabilities"`
	Evidence               []Evidence `json:"evidence"`
	Remediation            string     `json:"remediation"`
	RemediationSteps       []string   `json:"remediation_steps,omitempty"`
	RiskLevel              string     `json:"risk_level"`
	CryptoType             string     `json:"crypto_type,omitempty"`
	Severity               string     `json:"severity,omitempty"`
}

// Evidence backs a finding with a concrete detection.
type Evidence struct {
	EvidenceID     string          `json:"evidence_id"`
	EvidenceType   string          `json:"evidence_type"`
	Description    string          `json:"description"`
	SourceLocation *SourceLocation `json:"source_location,omitempty"`
	CollectedAt    string          `json:"collected_at"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// SourceLocation points at the detected code.
type SourceLocation struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Snippet  string `json:"snippet"`
}

// Algorithm resolves the finding's algorithm identifier. The explicit
// crypto_type field wins when present. Otherwise the description is scanned
// for a known algorithm token; as a last resort the third whitespace token
// of the description is taken verbatim, matching how older report consumers
// read the prose format.
func (f Finding) Algorithm() string {
	if f.CryptoType != "" {
		return f.CryptoType
	}
	fields := strings.Fields(f.Description)
	for _, field := range fields {
		token := strings.Trim(field, ".,:;()")
		for _, known := range algorithmTokens {
			if token == known.token {
				return known.id
			}
		}
	}
	if len(fields) >= 3 {
		return strings.Trim(fields[2], ".,:;()")
	}
	return ""
}

// SeverityLevel resolves the finding's severity, lower-cased. The explicit
// severity field wins; risk_level is the fallback.
func (f Finding) SeverityLevel() string {
	if f.Severity != "" {
		return strings.ToLower(f.Severity)
	}
	return strings.ToLower(f.RiskLevel)
}

// Recommendation resolves the finding's remediation advice: the first
// remediation step when steps are present, otherwise the remediation text.
func (f Finding) Recommendation() string {
	if len(f.RemediationSteps) > 0 {
		return f.RemediationSteps[0]
	}
	return f.Remediation
}

// ParseReport decodes an engine report document.
func ParseReport(data []byte) (Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, err
	}
	return report, nil
}

// ParseReportFile reads and decodes the report artifact at path. Failures
// surface as ArtifactError so callers can distinguish a broken artifact from
// a failed engine run.
func ParseReportFile(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, &ArtifactError{Path: path, Cause: err}
	}
	report, err := ParseReport(data)
	if err != nil {
		return Report{}, &ArtifactError{Path: path, Cause: err}
	}
	return report, nil
}
