package conversation

import "errors"

// Domain errors for conversation storage.
var (
	// ErrEmptyUserID indicates an operation was attempted without a user ID.
	ErrEmptyUserID = errors.New("user ID cannot be empty")

	// ErrNotFound indicates no history exists for the user.
	ErrNotFound = errors.New("conversation not found")
)
