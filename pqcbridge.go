// Package pqcbridge exposes a post-quantum cryptography scanning engine to
// MCP-speaking clients. It loads declarative tool descriptors, validates and
// dispatches tool calls, runs the pqc-scanner binary as a per-call child
// process, and normalizes the engine's file-based JSON reports into the
// stable response shapes each tool documents.
//
// The package holds the core: descriptors, registry, dispatcher, and the four
// tool handlers (scan, analyze, remediate, validate). Subpackages supply the
// collaborators:
//
//	import "github.com/latticegate/pqcbridge/engine"   // subprocess bridge
//	import "github.com/latticegate/pqcbridge/mcp"      // protocol server
//	import "github.com/latticegate/pqcbridge/history"  // invocation audit trail
package pqcbridge

// Version is the bridge release version. Overridden via ldflags at build time.
var Version = "dev"

// Protocol identifiers for the four bridge tools. Descriptors are loaded for
// exactly this set, in this order.
const (
	ToolScan      = "scan"
	ToolAnalyze   = "analyze"
	ToolRemediate = "remediate"
	ToolValidate  = "validate"
)

// ToolIDs returns the fixed tool identifier list in load order.
func ToolIDs() []string {
	return []string{ToolScan, ToolAnalyze, ToolRemediate, ToolValidate}
}
