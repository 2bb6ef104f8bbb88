package pqcbridge

import (
	"context"
	"slices"
	"strings"

	"github.com/latticegate/pqcbridge/engine"
)

// Language identifies a source language the analyzer recognizes.
type Language string

// Languages with dedicated scratch-file extensions. Anything else is
// analyzed as plain text.
const (
	LanguageRust       Language = "rust"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageJava       Language = "java"
	LanguageGo         Language = "go"
	LanguageCPP        Language = "cpp"
	LanguageCSharp     Language = "csharp"
)

var languageExtensions = map[Language]string{
	LanguageRust:       ".rs",
	LanguageJavaScript: ".js",
	LanguageTypeScript: ".ts",
	LanguagePython:     ".py",
	LanguageJava:       ".java",
	LanguageGo:         ".go",
	LanguageCPP:        ".cpp",
	LanguageCSharp:     ".cs",
}

var languageAliases = map[string]Language{
	"rs":     LanguageRust,
	"js":     LanguageJavaScript,
	"ts":     LanguageTypeScript,
	"py":     LanguagePython,
	"golang": LanguageGo,
	"c++":    LanguageCPP,
	"cxx":    LanguageCPP,
	"cs":     LanguageCSharp,
	"c#":     LanguageCSharp,
}

const genericExtension = ".txt"

// NormalizeLanguage resolves a language name or alias to its canonical
// form. Unrecognized names pass through lower-cased so results echo what
// the caller asked for.
func NormalizeLanguage(name string) Language {
	lowered := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := languageAliases[lowered]; ok {
		return alias
	}
	return Language(lowered)
}

// Extension returns the scratch-file extension for the language, or the
// generic extension when the language has no dedicated one.
func (l Language) Extension() string {
	if ext, ok := languageExtensions[l]; ok {
		return ext
	}
	return genericExtension
}

// AnalyzeResult is the analyze tool's output document.
type AnalyzeResult struct {
	Language        string              `json:"language"`
	Filename        string              `json:"filename,omitempty"`
	Vulnerabilities []ScanVulnerability `json:"vulnerabilities"`
	Stats           AnalyzeStats        `json:"stats"`
	RiskScore       float64             `json:"risk_score"`
	Recommendations []string            `json:"recommendations"`
	QuantumSafe     bool                `json:"quantum_safe"`
}

// AnalyzeStats counts findings by severity.
type AnalyzeStats struct {
	TotalVulnerabilities int `json:"total_vulnerabilities"`
	CriticalCount        int `json:"critical_count"`
	HighCount            int `json:"high_count"`
	MediumCount          int `json:"medium_count"`
	LowCount             int `json:"low_count"`
	LinesScanned         int `json:"lines_scanned"`
}

// Analyze writes a source snippet to a scratch file named for its language,
// scans it, and reshapes the outcome. The scratch file is removed on every
// path out.
func (t *Toolset) Analyze(ctx context.Context, args map[string]any) (any, error) {
	language := NormalizeLanguage(stringArg(args, "language", ""))
	source := stringArg(args, "source_code", "")

	path, release, err := t.scratch.WriteFile([]byte(source), "snippet", language.Extension())
	if err != nil {
		return nil, stageFailure("Analysis failed", err)
	}
	defer release()

	result, err := t.runner.Run(ctx, engine.Request{Path: path, Format: engine.FormatSC13})
	if err != nil {
		return nil, stageFailure("Analysis failed", err)
	}

	return normalizeAnalyzeResult(result.Report, string(language), stringArg(args, "filename", "")), nil
}

func normalizeAnalyzeResult(report engine.Report, language, filename string) AnalyzeResult {
	scan := normalizeScanResult(report)

	stats := AnalyzeStats{
		TotalVulnerabilities: scan.Summary.VulnerabilitiesFound,
		LinesScanned:         scan.Summary.LinesScanned,
	}
	quantumSafe := true
	quantumFamilies := engine.QuantumVulnerableAlgorithms()
	for _, vuln := range scan.Vulnerabilities {
		switch vuln.Severity {
		case engine.SeverityCritical:
			stats.CriticalCount++
		case engine.SeverityHigh:
			stats.HighCount++
		case engine.SeverityMedium:
			stats.MediumCount++
		case engine.SeverityLow:
			stats.LowCount++
		}
		if slices.Contains(quantumFamilies, vuln.CryptoType) {
			quantumSafe = false
		}
	}

	recommendations := report.Recommendations
	if recommendations == nil {
		recommendations = []string{}
	}

	return AnalyzeResult{
		Language:        language,
		Filename:        filename,
		Vulnerabilities: scan.Vulnerabilities,
		Stats:           stats,
		RiskScore:       scan.Summary.RiskScore,
		Recommendations: recommendations,
		QuantumSafe:     quantumSafe,
	}
}
