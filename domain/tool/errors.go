package tool

import "errors"

// Domain errors for the tool system.
var (
	// ErrEmptyName indicates a tool was created with an empty name.
	ErrEmptyName = errors.New("tool name cannot be empty")

	// ErrNoHandler indicates a tool was created without a handler.
	ErrNoHandler = errors.New("tool has no handler")

	// ErrToolNotFound indicates the requested tool was not found.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolExists indicates a tool with the same name already exists.
	ErrToolExists = errors.New("tool already exists")

	// ErrInvalidInput indicates the input failed schema validation.
	ErrInvalidInput = errors.New("invalid tool input")
)
