// Package memory provides in-memory storage implementations: the tool
// registry, a vector knowledge store, a conversation store, and a TTL
// cache. They back tests and single-process deployments.
package memory

import (
	"sort"
	"sync"

	"github.com/balizero/zantara-agentic/domain/tool"
)

// ToolRegistry is the in-memory tool.Registry. It is built once at
// startup and read concurrently by every query.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]tool.Tool
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]tool.Tool)}
}

// Register adds a tool. Registering the same name twice is an error.
func (r *ToolRegistry) Register(t tool.Tool) error {
	if t == nil || t.Name() == "" {
		return tool.ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return tool.ErrToolExists
	}
	r.tools[t.Name()] = t
	return nil
}

// Get retrieves a tool by name.
func (r *ToolRegistry) Get(name string) (tool.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tools in name order.
func (r *ToolRegistry) List() []tool.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.Tool, 0, len(r.tools))
	for _, name := range r.sortedNames() {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns all registered tool names in sorted order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *ToolRegistry) sortedNames() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
