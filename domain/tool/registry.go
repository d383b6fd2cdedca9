package tool

// Registry defines the name-keyed tool lookup table built at startup.
// Implementations live in infrastructure and must be safe for concurrent
// use: the registry is a shared, read-mostly singleton.
type Registry interface {
	// Register adds a tool to the registry.
	Register(tool Tool) error

	// Get retrieves a tool by name.
	Get(name string) (Tool, bool)

	// List returns all registered tools.
	List() []Tool

	// Names returns all registered tool names.
	Names() []string
}
