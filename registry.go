package pqcbridge

import "fmt"

// Registry holds the loaded tool descriptors for one bridge instance.
// Instances are immutable after construction and safe for concurrent use.
type Registry struct {
	order []string
	byID  map[string]ToolDescriptor
}

// NewRegistry builds a registry from descriptors, preserving their order for
// listing. Duplicate tool IDs are rejected.
func NewRegistry(descriptors []ToolDescriptor) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(descriptors)),
		byID:  make(map[string]ToolDescriptor, len(descriptors)),
	}
	for _, desc := range descriptors {
		if _, ok := r.byID[desc.ToolID]; ok {
			return nil, newBridgeError(ErrorCodeConfiguration,
				fmt.Sprintf("duplicate descriptor for tool %q", desc.ToolID), nil)
		}
		r.order = append(r.order, desc.ToolID)
		r.byID[desc.ToolID] = desc
	}
	return r, nil
}

// List returns the descriptors in registration order.
func (r *Registry) List() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Resolve returns the descriptor for toolID.
func (r *Registry) Resolve(toolID string) (ToolDescriptor, bool) {
	desc, ok := r.byID[toolID]
	return desc, ok
}
