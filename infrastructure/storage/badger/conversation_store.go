// Package badger provides an embedded conversation store on BadgerDB for
// single-node deployments without external storage.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync/atomic"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/balizero/zantara-agentic/domain/conversation"
)

// Keys are "conv/<user>/<seq>" with a big-endian sequence so lexical key
// order is insertion order.
const keyPrefix = "conv/"

// ConversationStore implements conversation.Store on a Badger database.
type ConversationStore struct {
	db  *badger.DB
	seq atomic.Uint64
}

// Open opens (or creates) the store at dir. An empty dir uses an
// in-memory database.
func Open(dir string) (*ConversationStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", dir, err)
	}
	s := &ConversationStore{db: db}
	if err := s.restoreSeq(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// restoreSeq finds the highest sequence already on disk.
func (s *ConversationStore) restoreSeq() error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(keyPrefix)})
		defer it.Close()
		var max uint64
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			if len(key) >= 8 {
				if seq := binary.BigEndian.Uint64(key[len(key)-8:]); seq > max {
					max = seq
				}
			}
		}
		s.seq.Store(max)
		return nil
	})
}

func userPrefix(userID string) []byte {
	return []byte(keyPrefix + userID + "/")
}

func (s *ConversationStore) nextKey(userID string) []byte {
	key := userPrefix(userID)
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], s.seq.Add(1))
	return append(key, seq[:]...)
}

// Append writes messages in one transaction.
func (s *ConversationStore) Append(_ context.Context, userID string, messages ...conversation.Message) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	if len(messages) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, m := range messages {
			raw, err := json.Marshal(m)
			if err != nil {
				return err
			}
			if err := txn.Set(s.nextKey(userID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recent returns up to n most recent messages, oldest first.
func (s *ConversationStore) Recent(_ context.Context, userID string, n int) (conversation.History, error) {
	if userID == "" {
		return nil, conversation.ErrEmptyUserID
	}

	var history conversation.History
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: userPrefix(userID)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var m conversation.Message
				if err := json.Unmarshal(val, &m); err != nil {
					return nil // skip corrupt entry
				}
				history = append(history, m)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, conversation.ErrNotFound
	}
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}
	return history, nil
}

// Clear deletes the user's entries.
func (s *ConversationStore) Clear(_ context.Context, userID string) error {
	if userID == "" {
		return conversation.ErrEmptyUserID
	}
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: userPrefix(userID)})
		defer it.Close()
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (s *ConversationStore) Close() error {
	return s.db.Close()
}
