// Package postgres provides the Postgres-backed conversation store.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balizero/zantara-agentic/domain/conversation"
)

// Schema for the conversation table. Applied by Migrate.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversation_messages (
    id         BIGSERIAL PRIMARY KEY,
    user_id    TEXT        NOT NULL,
    role       TEXT        NOT NULL,
    content    TEXT        NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conversation_messages_user
    ON conversation_messages (user_id, id);
`

// ConversationStore implements conversation.Store on a pgx pool.
type ConversationStore struct {
	pool *pgxpool.Pool
}

// NewConversationStore connects to Postgres and verifies the connection.
func NewConversationStore(ctx context.Context, dsn string) (*ConversationStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &ConversationStore{pool: pool}, nil
}

// NewConversationStoreFromPool wraps an existing pool.
func NewConversationStoreFromPool(pool *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{pool: pool}
}

// Migrate creates the conversation table if missing.
func (s *ConversationStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// Append inserts messages in one transaction.
func (s *ConversationStore) Append(ctx context.Context, userID string, messages ...conversation.Message) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	if len(messages) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, m := range messages {
		_, err := tx.Exec(ctx,
			`INSERT INTO conversation_messages (user_id, role, content, created_at)
			 VALUES ($1, $2, $3, $4)`,
			userID, string(m.Role), m.Content, m.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// Recent returns up to n most recent messages, oldest first.
func (s *ConversationStore) Recent(ctx context.Context, userID string, n int) (conversation.History, error) {
	if userID == "" {
		return nil, conversation.ErrEmptyUserID
	}
	if n <= 0 {
		n = 200
	}

	rows, err := s.pool.Query(ctx,
		`SELECT role, content, created_at FROM (
		     SELECT id, role, content, created_at
		     FROM conversation_messages
		     WHERE user_id = $1
		     ORDER BY id DESC
		     LIMIT $2
		 ) recent ORDER BY id ASC`,
		userID, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history conversation.History
	for rows.Next() {
		var m conversation.Message
		var role string
		if err := rows.Scan(&role, &m.Content, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Role = conversation.Role(role)
		history = append(history, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, conversation.ErrNotFound
	}
	return history, nil
}

// Clear deletes the user's history.
func (s *ConversationStore) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_messages WHERE user_id = $1`, userID)
	return err
}

// Close releases the pool.
func (s *ConversationStore) Close() {
	s.pool.Close()
}

// IsNotFound reports whether err means "no rows".
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, conversation.ErrNotFound)
}
