package knowledge

import "errors"

// Domain errors for knowledge storage.
var (
	// ErrInvalidID indicates a vector has no ID.
	ErrInvalidID = errors.New("vector ID cannot be empty")

	// ErrInvalidEmbedding indicates a vector has no embedding.
	ErrInvalidEmbedding = errors.New("embedding cannot be empty")

	// ErrDimensionMismatch indicates an embedding has the wrong dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotFound indicates the requested vector does not exist.
	ErrNotFound = errors.New("vector not found")
)
