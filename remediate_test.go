package pqcbridge

import (
	"context"
	"strings"
	"testing"

	"github.com/latticegate/pqcbridge/engine"
)

func remediateArgs(t *testing.T, args map[string]any) RemediationResult {
	t.Helper()

	descriptors, err := LoadDescriptors("")
	if err != nil {
		t.Fatalf("LoadDescriptors() error = %v", err)
	}
	var desc ToolDescriptor
	for _, d := range descriptors {
		if d.ToolID == ToolRemediate {
			desc = d
		}
	}
	validated, err := ValidateArguments(desc, args)
	if err != nil {
		t.Fatalf("ValidateArguments() error = %v", err)
	}

	toolset := NewToolset(nil, nil)
	result, err := toolset.Remediate(context.Background(), validated)
	if err != nil {
		t.Fatalf("Remediate() error = %v", err)
	}
	remediation, ok := result.(RemediationResult)
	if !ok {
		t.Fatalf("result type = %T, want RemediationResult", result)
	}
	return remediation
}

func TestRemediate_RSA(t *testing.T) {
	got := remediateArgs(t, map[string]any{"vulnerability_type": "RSA"})

	if got.VulnerabilityType != engine.AlgorithmRSA {
		t.Errorf("VulnerabilityType = %q", got.VulnerabilityType)
	}
	if !got.QuantumVulnerable {
		t.Error("RSA must be quantum vulnerable")
	}
	if !strings.Contains(got.PQCAlternative.Algorithm, "ML-KEM") {
		t.Errorf("alternative = %q, want ML-KEM", got.PQCAlternative.Algorithm)
	}
	if got.PQCAlternative.Standard != "FIPS 203" {
		t.Errorf("standard = %q", got.PQCAlternative.Standard)
	}
	if len(got.MigrationSteps) == 0 {
		t.Error("missing migration steps")
	}
	if got.CodeExample == nil || got.CodeExample.Language != string(LanguagePython) {
		t.Errorf("code example = %+v, want python default", got.CodeExample)
	}
}

func TestRemediate_CaseAndAliasTolerant(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"rsa", engine.AlgorithmRSA},
		{"Diffie-Hellman", engine.AlgorithmDiffieHellman},
		{"dh", engine.AlgorithmDiffieHellman},
		{"3DES", engine.AlgorithmTripleDES},
		{"sha-1", engine.AlgorithmSHA1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := remediateArgs(t, map[string]any{"vulnerability_type": tt.input})
			if got.VulnerabilityType != tt.want {
				t.Fatalf("VulnerabilityType = %q, want %q", got.VulnerabilityType, tt.want)
			}
		})
	}
}

func TestRemediate_LanguageSelectsExample(t *testing.T) {
	got := remediateArgs(t, map[string]any{"vulnerability_type": "ECDSA", "language": "java"})
	if got.CodeExample == nil {
		t.Fatal("missing code example")
	}
	if got.CodeExample.Language != string(LanguageJava) {
		t.Fatalf("example language = %q, want java", got.CodeExample.Language)
	}

	got = remediateArgs(t, map[string]any{"vulnerability_type": "ECDSA", "language": "cobol"})
	if got.CodeExample == nil || got.CodeExample.Language != string(LanguagePython) {
		t.Fatalf("unmatched language should fall back to python, got %+v", got.CodeExample)
	}
}

func TestRemediate_UnknownTypeFallsBack(t *testing.T) {
	got := remediateArgs(t, map[string]any{"vulnerability_type": "ROT13"})

	if got.VulnerabilityType != "ROT13" {
		t.Errorf("VulnerabilityType = %q, want echo of input", got.VulnerabilityType)
	}
	if got.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", got.Confidence)
	}
	if got.AutoApplicable {
		t.Error("fallback must not be auto applicable")
	}
	if len(got.MigrationSteps) == 0 || len(got.References) == 0 {
		t.Errorf("fallback should still advise: %+v", got)
	}
}

func TestRemediate_ClassicalWeaknessesNotQuantumVulnerable(t *testing.T) {
	for _, vulnType := range []string{"MD5", "SHA1", "DES", "RC4"} {
		got := remediateArgs(t, map[string]any{"vulnerability_type": vulnType})
		if got.QuantumVulnerable {
			t.Errorf("%s marked quantum vulnerable", vulnType)
		}
		if got.Severity != engine.SeverityCritical {
			t.Errorf("%s severity = %q, want critical", vulnType, got.Severity)
		}
	}
}

func TestRemediate_EveryQuantumFamilyHasEntry(t *testing.T) {
	for _, family := range engine.QuantumVulnerableAlgorithms() {
		got := remediateArgs(t, map[string]any{"vulnerability_type": family})
		if !got.QuantumVulnerable {
			t.Errorf("family %s missing from remediation table", family)
		}
	}
}
