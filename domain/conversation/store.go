package conversation

import "context"

// Store persists per-user conversation memory. Implementations live in
// infrastructure (memory, redis, postgres, badger) and must be safe for
// concurrent use; the orchestrator serializes writes per user on top.
type Store interface {
	// Append adds messages to a user's history.
	Append(ctx context.Context, userID string, messages ...Message) error

	// Recent returns up to n most recent messages for a user, oldest first.
	Recent(ctx context.Context, userID string, n int) (History, error)

	// Clear removes a user's history.
	Clear(ctx context.Context, userID string) error
}
