package pqcbridge

import (
	"strings"
	"testing"
)

func validDescriptor() ToolDescriptor {
	return ToolDescriptor{
		ToolID:      "scan",
		Name:        "Cryptographic Scan",
		Description: "Scan a path for weak cryptography.",
		InputSchema: Schema{
			Type: "object",
			Properties: map[string]Schema{
				"path": {Type: "string"},
			},
			Required: []string{"path"},
		},
		OutputSchema: Schema{Type: "object"},
	}
}

func TestValidateDescriptor_Valid(t *testing.T) {
	diags := ValidateDescriptor(validDescriptor())
	if hasErrorDiagnostics(diags) {
		t.Fatalf("unexpected error diagnostics: %v", diags)
	}
}

func TestValidateDescriptor_MissingFields(t *testing.T) {
	desc := validDescriptor()
	desc.ToolID = "  "
	desc.Description = ""
	desc.InputSchema = Schema{}

	diags := ValidateDescriptor(desc)
	if !hasErrorDiagnostics(diags) {
		t.Fatal("expected error diagnostics")
	}

	wantCodes := []string{"missing_identifier", "missing_description", "missing_input_schema"}
	for _, code := range wantCodes {
		if !hasDiagnosticCode(diags, code) {
			t.Errorf("missing diagnostic %q in %v", code, diags)
		}
	}
}

func TestValidateDescriptor_WarningsDoNotBlock(t *testing.T) {
	desc := validDescriptor()
	desc.Name = ""
	desc.OutputSchema = Schema{}

	diags := ValidateDescriptor(desc)
	if hasErrorDiagnostics(diags) {
		t.Fatalf("warnings should not be errors: %v", diags)
	}
	if !hasDiagnosticCode(diags, "missing_name") {
		t.Errorf("missing missing_name warning in %v", diags)
	}
	if !hasDiagnosticCode(diags, "missing_output_schema") {
		t.Errorf("missing missing_output_schema warning in %v", diags)
	}
}

func TestValidateDescriptor_RequiredNotDeclared(t *testing.T) {
	desc := validDescriptor()
	desc.InputSchema.Required = []string{"path", "missing"}

	diags := ValidateDescriptor(desc)
	if !hasDiagnosticCode(diags, "required_not_declared") {
		t.Fatalf("missing required_not_declared diagnostic in %v", diags)
	}
}

func TestValidateDescriptor_UnknownSchemaType(t *testing.T) {
	desc := validDescriptor()
	desc.InputSchema.Properties["depth"] = Schema{Type: "decimal"}

	diags := ValidateDescriptor(desc)
	if !hasDiagnosticCode(diags, "unknown_type") {
		t.Fatalf("missing unknown_type diagnostic in %v", diags)
	}
}

func TestValidateDescriptor_WalksNestedSchemas(t *testing.T) {
	desc := validDescriptor()
	desc.InputSchema.Properties["targets"] = Schema{
		Type:  "array",
		Items: &Schema{Type: "tuple"},
	}

	diags := ValidateDescriptor(desc)
	found := false
	for _, diag := range diags {
		if diag.Code == "unknown_type" && strings.Contains(diag.Field, "targets[]") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing nested unknown_type diagnostic in %v", diags)
	}
}

func TestFormatDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{Field: "tool_id", Code: "missing_identifier", Severity: SeverityError, Message: "descriptor is missing its tool identifier"},
		{Field: "name", Severity: SeverityWarning, Message: "descriptor has no display name"},
	}
	got := formatDiagnostics(diags)
	if !strings.Contains(got, "tool_id [missing_identifier]") {
		t.Errorf("formatted output missing coded field: %q", got)
	}
	if !strings.Contains(got, "\n") {
		t.Errorf("expected one diagnostic per line: %q", got)
	}
}

func hasDiagnosticCode(diags []Diagnostic, code string) bool {
	for _, diag := range diags {
		if diag.Code == code {
			return true
		}
	}
	return false
}
