package pqcbridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDescriptors_Bundled(t *testing.T) {
	descriptors, err := LoadDescriptors("")
	if err != nil {
		t.Fatalf("LoadDescriptors() error = %v", err)
	}

	if len(descriptors) != len(ToolIDs()) {
		t.Fatalf("got %d descriptors, want %d", len(descriptors), len(ToolIDs()))
	}
	for i, id := range ToolIDs() {
		if descriptors[i].ToolID != id {
			t.Fatalf("descriptor[%d].ToolID = %q, want %q", i, descriptors[i].ToolID, id)
		}
		if diags := ValidateDescriptor(descriptors[i]); hasErrorDiagnostics(diags) {
			t.Fatalf("bundled descriptor %q invalid: %v", id, diags)
		}
	}
}

func TestLoadDescriptors_OverrideReplacesBundled(t *testing.T) {
	dir := t.TempDir()
	override := `{
  "tool_id": "scan",
  "name": "Custom Scan",
  "description": "Overridden scan descriptor.",
  "input_schema": {
    "type": "object",
    "properties": {"path": {"type": "string"}},
    "required": ["path"]
  }
}`
	if err := os.WriteFile(filepath.Join(dir, "scan.json"), []byte(override), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	descriptors, err := LoadDescriptors(dir)
	if err != nil {
		t.Fatalf("LoadDescriptors() error = %v", err)
	}

	if descriptors[0].Name != "Custom Scan" {
		t.Fatalf("scan name = %q, want Custom Scan", descriptors[0].Name)
	}
	if descriptors[1].ToolID != ToolAnalyze {
		t.Fatalf("analyze descriptor displaced: %q", descriptors[1].ToolID)
	}
}

func TestLoadDescriptors_OverrideUnknownToolRejected(t *testing.T) {
	dir := t.TempDir()
	override := `{
  "tool_id": "exfiltrate",
  "description": "not a bridge tool",
  "input_schema": {"type": "object"}
}`
	if err := os.WriteFile(filepath.Join(dir, "extra.json"), []byte(override), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := LoadDescriptors(dir)
	if err == nil {
		t.Fatal("expected error for unknown tool override")
	}
	if code := ErrorCode(err); code != ErrorCodeConfiguration {
		t.Fatalf("code = %q, want %q", code, ErrorCodeConfiguration)
	}
	if !strings.Contains(err.Error(), "exfiltrate") {
		t.Fatalf("error should name the tool: %v", err)
	}
}

func TestLoadDescriptors_DuplicateOverrideRejected(t *testing.T) {
	dir := t.TempDir()
	override := `{
  "tool_id": "scan",
  "description": "duplicate",
  "input_schema": {"type": "object", "properties": {"path": {"type": "string"}}}
}`
	for _, name := range []string{"a.json", "b.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(override), 0o600); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}

	_, err := LoadDescriptors(dir)
	if err == nil {
		t.Fatal("expected error for duplicate override")
	}
	if !strings.Contains(err.Error(), "duplicates") {
		t.Fatalf("error = %v, want duplicate message", err)
	}
}

func TestLoadDescriptors_InvalidOverrideRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scan.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := LoadDescriptors(dir)
	if err == nil {
		t.Fatal("expected error for malformed override")
	}
	if code := ErrorCode(err); code != ErrorCodeConfiguration {
		t.Fatalf("code = %q, want %q", code, ErrorCodeConfiguration)
	}
}

func TestLoadDescriptors_MissingOverrideDirRejected(t *testing.T) {
	_, err := LoadDescriptors(filepath.Join(t.TempDir(), "absent"))
	if err == nil {
		t.Fatal("expected error for missing override directory")
	}
	if code := ErrorCode(err); code != ErrorCodeConfiguration {
		t.Fatalf("code = %q, want %q", code, ErrorCodeConfiguration)
	}
}

func TestLoadDescriptors_NonJSONFilesIgnored(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# notes"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	descriptors, err := LoadDescriptors(dir)
	if err != nil {
		t.Fatalf("LoadDescriptors() error = %v", err)
	}
	if len(descriptors) != len(ToolIDs()) {
		t.Fatalf("got %d descriptors, want %d", len(descriptors), len(ToolIDs()))
	}
}
