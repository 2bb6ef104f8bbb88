// Package engine invokes the external pqc-scanner binary and consumes its
// file-based JSON reports.
//
// The package is intentionally split by concern:
//   - runner: subprocess construction, exit-code policy, deadline handling
//   - report: the engine's assessment report document model and parsing
//   - scratch: uniquely named scratch files with guaranteed cleanup
//   - probe: binary availability and version checks
//
// The engine is treated as a black box: it is handed an input path and an
// artifact path on its argument vector, and everything the bridge learns
// about a scan comes from the artifact it writes and its exit code.
package engine
