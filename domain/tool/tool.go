// Package tool defines the capability contract the reasoning loop invokes.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is a named, schema-described capability the loop can dispatch by
// name. Implementations are opaque to the engine beyond this contract.
type Tool interface {
	// Name returns the stable string identifier for the tool.
	Name() string

	// Description returns a human-readable description of what the tool does.
	Description() string

	// InputSchema returns the JSON Schema describing the tool's arguments.
	InputSchema() Schema

	// Execute runs the tool with the given arguments. Execution errors are
	// fatal to the query that issued them; only citation parsing downstream
	// is lenient.
	Execute(ctx context.Context, input json.RawMessage) (Result, error)
}

// Handler is the function signature for tool execution.
type Handler func(ctx context.Context, input json.RawMessage) (Result, error)

// Definition is a concrete implementation of Tool.
type Definition struct {
	name        string
	description string
	inputSchema Schema
	handler     Handler
}

// Name returns the tool name.
func (d *Definition) Name() string { return d.name }

// Description returns the tool description.
func (d *Definition) Description() string { return d.description }

// InputSchema returns the input schema.
func (d *Definition) InputSchema() Schema { return d.inputSchema }

// Execute runs the tool handler.
func (d *Definition) Execute(ctx context.Context, input json.RawMessage) (Result, error) {
	if d.handler == nil {
		return Result{}, ErrNoHandler
	}
	return d.handler(ctx, input)
}

// Builder provides a fluent API for constructing tools.
type Builder struct {
	def *Definition
}

// NewBuilder creates a new tool builder with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{def: &Definition{name: name}}
}

// WithDescription sets the tool description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.def.description = desc
	return b
}

// WithInputSchema sets the input schema.
func (b *Builder) WithInputSchema(schema Schema) *Builder {
	b.def.inputSchema = schema
	return b
}

// WithHandler sets the tool handler function.
func (b *Builder) WithHandler(handler Handler) *Builder {
	b.def.handler = handler
	return b
}

// Build constructs the tool definition.
func (b *Builder) Build() (Tool, error) {
	if b.def.name == "" {
		return nil, ErrEmptyName
	}
	if b.def.handler == nil {
		return nil, ErrNoHandler
	}
	return b.def, nil
}

// MustBuild constructs the tool definition or panics on error.
func (b *Builder) MustBuild() Tool {
	t, err := b.Build()
	if err != nil {
		panic(err)
	}
	return t
}
