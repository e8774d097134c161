//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks
package repositories

import (
	"chat-vault/domain"
	"chat-vault/errors"
	"chat-vault/storage"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	conversationPrefix = "conv:"
	maxConflictRetries = 10
)

type IConversationRepository interface {
	Get(ctx context.Context, id string) (domain.Conversation, error)
	Save(ctx context.Context, conv domain.Conversation) error
	RecordLastMessage(ctx context.Context, id string, summary domain.SealedSummary) (bool, error)
	IDs(ctx context.Context) ([]string, error)
}

type ConversationRepository struct {
	db    *badger.DB
	log   *slog.Logger
	locks sync.Map // conversation id -> *sync.Mutex
}

func NewConversationRepository(db *badger.DB, log *slog.Logger) *ConversationRepository {
	return &ConversationRepository{db: db, log: log}
}

func (c *ConversationRepository) Get(ctx context.Context, id string) (domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}
	var conv domain.Conversation
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		conv, err = getConversation(txn, id)
		return err
	})
	return conv, err
}

// Save writes the membership of a conversation.
// It stands in for conversation management: the summary and updatedAt
// already stored are kept, since only the send path may move them.
func (c *ConversationRepository) Save(ctx context.Context, conv domain.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !conv.Valid() {
		return errors.ErrInvalidConversation
	}
	mu := c.lock(conv.ID)
	mu.Lock()
	defer mu.Unlock()
	return c.update(func(txn *badger.Txn) error {
		existing, err := getConversation(txn, conv.ID)
		switch {
		case err == nil:
			conv.Summary = existing.Summary
			conv.UpdatedAt = existing.UpdatedAt
		case goerrors.Is(err, errors.ErrConversationNotFound):
			conv.Summary = nil
		default:
			return err
		}
		return txn.Set(conversationKey(conv.ID), storage.EncodeConversation(conv))
	})
}

// RecordLastMessage stores the summary unless a newer one is already in place.
// It reports whether the summary was written. Equal createdAt values refer to
// the same message, since createdAt is strictly increasing within a conversation.
func (c *ConversationRepository) RecordLastMessage(ctx context.Context, id string, summary domain.SealedSummary) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	mu := c.lock(id)
	mu.Lock()
	defer mu.Unlock()

	var applied bool
	err := c.update(func(txn *badger.Txn) error {
		applied = false
		conv, err := getConversation(txn, id)
		if err != nil {
			return err
		}
		if conv.Summary != nil && summary.CreatedAt.Before(conv.Summary.CreatedAt) {
			return nil
		}
		conv.Summary = &summary
		if summary.CreatedAt.After(conv.UpdatedAt) {
			conv.UpdatedAt = summary.CreatedAt
		}
		applied = true
		return txn.Set(conversationKey(id), storage.EncodeConversation(conv))
	})
	if err != nil {
		return false, err
	}
	if !applied {
		c.log.Debug("Stale summary skipped", "conversation_id", id, "message_id", summary.MessageID)
	}
	return applied, nil
}

// IDs lists every known conversation id.
func (c *ConversationRepository) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := c.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(conversationPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ids = append(ids, strings.TrimPrefix(string(it.Item().Key()), conversationPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return ids, nil
}

func (c *ConversationRepository) lock(id string) *sync.Mutex {
	mu, _ := c.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// update retries the transaction when badger detects a write conflict.
func (c *ConversationRepository) update(fn func(txn *badger.Txn) error) error {
	return updateWithRetry(c.db, fn)
}

// updateWithRetry reruns fn in a fresh transaction on badger.ErrConflict.
// fn must rebuild everything it writes from what it reads in txn.
func updateWithRetry(db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = db.Update(fn)
		if !goerrors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getConversation(txn *badger.Txn, id string) (domain.Conversation, error) {
	item, err := txn.Get(conversationKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Conversation{}, errors.ErrConversationNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return domain.Conversation{}, err
	}
	return storage.DecodeConversation(value)
}

func conversationKey(id string) []byte {
	return []byte(conversationPrefix + id)
}
