package pqcbridge

import (
	"fmt"
	"strings"
)

// Severity classifies a descriptor diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a structured finding from descriptor validation. Error
// severity blocks startup; warnings are logged and tolerated.
type Diagnostic struct {
	Field    string   `json:"field,omitempty"`
	Code     string   `json:"code,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Schema is the subset of JSON Schema the bridge validates arguments against:
// primitive types, object properties with required lists, array items, and
// enum membership. Anything richer in a descriptor document is carried
// through to clients untouched but not enforced server-side.
type Schema struct {
	Type        string            `json:"type,omitempty"`
	Description string            `json:"description,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Required    []string          `json:"required,omitempty"`
	Items       *Schema           `json:"items,omitempty"`
	Enum        []any             `json:"enum,omitempty"`
	Default     any               `json:"default,omitempty"`
}

// Metadata carries advisory descriptor metadata: a rough cost estimate, the
// latency band callers should expect, and category tags for discovery.
type Metadata struct {
	CostEstimate string   `json:"cost_estimate,omitempty"`
	LatencyBand  string   `json:"latency_band,omitempty"`
	Categories   []string `json:"categories,omitempty"`
}

// ToolDescriptor is the static declaration of one callable capability.
// Descriptors are loaded once at startup and never mutated.
type ToolDescriptor struct {
	ToolID       string   `json:"tool_id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	InputSchema  Schema   `json:"input_schema"`
	OutputSchema Schema   `json:"output_schema,omitempty"`
	Metadata     Metadata `json:"metadata,omitempty"`
}

// ValidateDescriptor checks one descriptor document against the shape
// contract. Identifier, description, and input schema are required; the
// output schema and metadata are advisory. All problems in the document are
// reported together.
func ValidateDescriptor(desc ToolDescriptor) []Diagnostic {
	var diags []Diagnostic

	if strings.TrimSpace(desc.ToolID) == "" {
		diags = append(diags, Diagnostic{
			Field:    "tool_id",
			Code:     "missing_identifier",
			Severity: SeverityError,
			Message:  "descriptor is missing its tool identifier",
		})
	}
	if strings.TrimSpace(desc.Description) == "" {
		diags = append(diags, Diagnostic{
			Field:    "description",
			Code:     "missing_description",
			Severity: SeverityError,
			Message:  "descriptor is missing its description",
		})
	}
	if desc.InputSchema.Type == "" && len(desc.InputSchema.Properties) == 0 {
		diags = append(diags, Diagnostic{
			Field:    "input_schema",
			Code:     "missing_input_schema",
			Severity: SeverityError,
			Message:  "descriptor is missing its input schema",
		})
	} else {
		diags = append(diags, validateSchemaShape("input_schema", desc.InputSchema)...)
	}

	if strings.TrimSpace(desc.Name) == "" {
		diags = append(diags, Diagnostic{
			Field:    "name",
			Code:     "missing_name",
			Severity: SeverityWarning,
			Message:  "descriptor has no display name; the identifier will be shown instead",
		})
	}
	if desc.OutputSchema.Type == "" && len(desc.OutputSchema.Properties) == 0 {
		diags = append(diags, Diagnostic{
			Field:    "output_schema",
			Code:     "missing_output_schema",
			Severity: SeverityWarning,
			Message:  "descriptor has no output schema; responses are undocumented",
		})
	}

	return diags
}

// validateSchemaShape walks a schema document checking internal consistency:
// required names must exist under properties, and declared types must be
// ones the argument validator understands.
func validateSchemaShape(path string, schema Schema) []Diagnostic {
	var diags []Diagnostic

	if schema.Type != "" && !knownSchemaType(schema.Type) {
		diags = append(diags, Diagnostic{
			Field:    path,
			Code:     "unknown_type",
			Severity: SeverityError,
			Message:  fmt.Sprintf("schema type %q is not supported", schema.Type),
		})
	}
	for _, name := range schema.Required {
		if _, ok := schema.Properties[name]; !ok {
			diags = append(diags, Diagnostic{
				Field:    joinFieldPath(path, name),
				Code:     "required_not_declared",
				Severity: SeverityError,
				Message:  fmt.Sprintf("required field %q is not declared under properties", name),
			})
		}
	}
	for name, prop := range schema.Properties {
		diags = append(diags, validateSchemaShape(joinFieldPath(path, name), prop)...)
	}
	if schema.Items != nil {
		diags = append(diags, validateSchemaShape(path+"[]", *schema.Items)...)
	}

	return diags
}

func knownSchemaType(name string) bool {
	switch name {
	case "string", "number", "integer", "boolean", "object", "array", "null":
		return true
	default:
		return false
	}
}

func joinFieldPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// hasErrorDiagnostics reports whether any diagnostic is error severity.
func hasErrorDiagnostics(diags []Diagnostic) bool {
	for _, diag := range diags {
		if diag.Severity == SeverityError {
			return true
		}
	}
	return false
}

// formatDiagnostics renders diagnostics one per line for error messages.
func formatDiagnostics(diags []Diagnostic) string {
	builder := strings.Builder{}
	for _, diag := range diags {
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(" - ")
		builder.WriteString(diag.Field)
		if diag.Code != "" {
			builder.WriteString(" [")
			builder.WriteString(diag.Code)
			builder.WriteString("]")
		}
		builder.WriteString(" ")
		builder.WriteString(diag.Message)
	}
	return builder.String()
}
