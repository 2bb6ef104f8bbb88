package pqcbridge

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	//go:embed descriptors/*.json
	descriptorFiles embed.FS
)

// LoadDescriptors returns the tool descriptors in registration order. The
// bundled descriptors are always loaded; when overrideDir is non-empty, any
// *.json file in it replaces the bundled descriptor with the same tool_id.
// Override files naming a tool the bridge has no handler for are rejected.
func LoadDescriptors(overrideDir string) ([]ToolDescriptor, error) {
	byID := make(map[string]ToolDescriptor, len(ToolIDs()))
	for _, id := range ToolIDs() {
		desc, err := loadEmbeddedDescriptor(id)
		if err != nil {
			return nil, err
		}
		byID[id] = desc
	}

	if overrideDir != "" {
		if err := applyDescriptorOverrides(byID, overrideDir); err != nil {
			return nil, err
		}
	}

	out := make([]ToolDescriptor, 0, len(byID))
	for _, id := range ToolIDs() {
		out = append(out, byID[id])
	}
	return out, nil
}

func loadEmbeddedDescriptor(id string) (ToolDescriptor, error) {
	data, err := descriptorFiles.ReadFile("descriptors/" + id + ".json")
	if err != nil {
		return ToolDescriptor{}, newBridgeError(ErrorCodeInternal,
			fmt.Sprintf("reading bundled descriptor %q: %v", id, err), err)
	}
	desc, err := parseDescriptor(data, "bundled descriptor "+id)
	if err != nil {
		return ToolDescriptor{}, err
	}
	if desc.ToolID != id {
		return ToolDescriptor{}, newBridgeError(ErrorCodeInternal,
			fmt.Sprintf("bundled descriptor %q declares tool_id %q", id, desc.ToolID), nil)
	}
	return desc, nil
}

func applyDescriptorOverrides(byID map[string]ToolDescriptor, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return newBridgeError(ErrorCodeConfiguration,
			fmt.Sprintf("reading descriptor directory %q: %v", dir, err), err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	seen := make(map[string]string, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return newBridgeError(ErrorCodeConfiguration,
				fmt.Sprintf("reading descriptor override %q: %v", path, err), err)
		}
		desc, err := parseDescriptor(data, "descriptor override "+path)
		if err != nil {
			return err
		}
		if _, ok := byID[desc.ToolID]; !ok {
			return withErrorDetails(newBridgeError(ErrorCodeConfiguration,
				fmt.Sprintf("descriptor override %q names unknown tool %q", path, desc.ToolID), nil),
				map[string]any{"tool_id": desc.ToolID, "known_tools": ToolIDs()})
		}
		if prior, dup := seen[desc.ToolID]; dup {
			return newBridgeError(ErrorCodeConfiguration,
				fmt.Sprintf("descriptor override %q duplicates tool %q already defined by %q", path, desc.ToolID, prior), nil)
		}
		seen[desc.ToolID] = path
		byID[desc.ToolID] = desc
	}
	return nil
}

func parseDescriptor(data []byte, origin string) (ToolDescriptor, error) {
	var desc ToolDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return ToolDescriptor{}, newBridgeError(ErrorCodeConfiguration,
			fmt.Sprintf("parsing %s: %v", origin, err), err)
	}
	diags := ValidateDescriptor(desc)
	if hasErrorDiagnostics(diags) {
		return ToolDescriptor{}, withErrorDetails(newBridgeError(ErrorCodeConfiguration,
			fmt.Sprintf("invalid %s:\n%s", origin, formatDiagnostics(diags)), nil),
			map[string]any{"diagnostics": diags})
	}
	return desc, nil
}
