// Package redis provides the Redis-backed conversation store: one list
// per user, trimmed server-side, with an idle TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/balizero/zantara-agentic/domain/conversation"
)

// ErrConnectionFailed indicates Redis was unreachable at startup.
var ErrConnectionFailed = errors.New("redis connection failed")

// Config holds the Redis connection settings.
type Config struct {
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	MaxPerUser int64
	// TTL expires idle conversations; zero keeps them forever.
	TTL         time.Duration
	DialTimeout time.Duration
}

// DefaultConfig returns settings for a local Redis.
func DefaultConfig() Config {
	return Config{
		Addr:        "localhost:6379",
		KeyPrefix:   "zantara:conv:",
		MaxPerUser:  200,
		TTL:         30 * 24 * time.Hour,
		DialTimeout: 5 * time.Second,
	}
}

// ConversationStore implements conversation.Store on Redis lists.
type ConversationStore struct {
	client *redis.Client
	cfg    Config
}

// NewConversationStore connects to Redis and verifies the connection.
func NewConversationStore(cfg Config) (*ConversationStore, error) {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "zantara:conv:"
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = 200
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return &ConversationStore{client: client, cfg: cfg}, nil
}

// NewConversationStoreFromClient wraps an existing client, for tests and
// shared pools.
func NewConversationStoreFromClient(client *redis.Client, cfg Config) *ConversationStore {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "zantara:conv:"
	}
	if cfg.MaxPerUser <= 0 {
		cfg.MaxPerUser = 200
	}
	return &ConversationStore{client: client, cfg: cfg}
}

func (s *ConversationStore) key(userID string) string {
	return s.cfg.KeyPrefix + userID
}

// Append pushes messages onto the user's list and trims it to the cap.
func (s *ConversationStore) Append(ctx context.Context, userID string, messages ...conversation.Message) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	if len(messages) == 0 {
		return nil
	}

	values := make([]any, 0, len(messages))
	for _, m := range messages {
		raw, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding message: %w", err)
		}
		values = append(values, raw)
	}

	pipe := s.client.TxPipeline()
	key := s.key(userID)
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -s.cfg.MaxPerUser, -1)
	if s.cfg.TTL > 0 {
		pipe.Expire(ctx, key, s.cfg.TTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Recent returns up to n most recent messages, oldest first.
func (s *ConversationStore) Recent(ctx context.Context, userID string, n int) (conversation.History, error) {
	if userID == "" {
		return nil, conversation.ErrEmptyUserID
	}
	if n <= 0 {
		n = int(s.cfg.MaxPerUser)
	}

	raws, err := s.client.LRange(ctx, s.key(userID), int64(-n), -1).Result()
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return nil, conversation.ErrNotFound
	}

	history := make(conversation.History, 0, len(raws))
	for _, raw := range raws {
		var m conversation.Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			// A corrupt entry loses one message, not the whole history.
			continue
		}
		history = append(history, m)
	}
	return history, nil
}

// Clear deletes the user's list.
func (s *ConversationStore) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	return s.client.Del(ctx, s.key(userID)).Err()
}

// Close releases the client.
func (s *ConversationStore) Close() error {
	return s.client.Close()
}
