//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"bytes"
	"chat-vault/domain"
	"chat-vault/storage"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// sequenceWidth pads the append sequence so that keys sort lexicographically.
const sequenceWidth = 20

type IMessageRepository interface {
	Append(ctx context.Context, conversationID, senderID string, ciphertext []byte, envelope domain.Envelope) (domain.Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	Last(ctx context.Context, conversationID string) (domain.Message, bool, error)
}

// MessageRepository is the append-only message log, one key range per conversation.
type MessageRepository struct {
	db    *badger.DB
	log   *slog.Logger
	now   func() time.Time
	locks sync.Map // conversation id -> *sync.Mutex
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log, now: time.Now}
}

// Append persists a message at the end of its conversation log.
// The key is formatted as "msg:{conversation}:{sequence_padded}" to:
//  1. Keep the log in append order under a plain prefix scan.
//  2. Break createdAt ties by insertion order.
//
// createdAt is forced strictly above the previous message of the conversation,
// so that append order and createdAt order never disagree even if the clock steps back.
func (m *MessageRepository) Append(ctx context.Context, conversationID, senderID string,
	ciphertext []byte, envelope domain.Envelope) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}

	mu := m.lock(conversationID)
	mu.Lock()
	defer mu.Unlock()

	// The reverse scan also visits keys of ids such as "a:1" under "msg:a:",
	// so appends to those conversations may conflict and are retried.
	var message domain.Message
	err := updateWithRetry(m.db, func(txn *badger.Txn) error {
		last, found, err := lastMessage(txn, conversationID)
		if err != nil {
			return err
		}
		message = domain.Message{
			ID:             uuid.New(),
			ConversationID: conversationID,
			SenderID:       senderID,
			Ciphertext:     bytes.Clone(ciphertext),
			Envelope:       envelope,
			CreatedAt:      m.now().UTC(),
			Sequence:       1,
		}
		if found {
			message.Sequence = last.Sequence + 1
			if !message.CreatedAt.After(last.CreatedAt) {
				message.CreatedAt = last.CreatedAt.Add(time.Nanosecond)
			}
		}
		return txn.Set(messageKey(conversationID, message.Sequence), storage.EncodeMessage(message))
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("append message: %w", err)
	}
	m.log.Debug("Message appended",
		"conversation_id", conversationID,
		"message_id", message.ID,
		"sequence", message.Sequence)
	return message, nil
}

// ListByConversation returns the whole log of a conversation, oldest first.
// Each call reads a consistent snapshot of the log.
func (m *MessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(conversationID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			if !isSequenceKey(item.Key(), prefix) {
				continue
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			message, err := storage.DecodeMessage(value)
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Last returns the newest message of a conversation, if any.
func (m *MessageRepository) Last(ctx context.Context, conversationID string) (domain.Message, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, false, err
	}
	var (
		message domain.Message
		found   bool
	)
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		message, found, err = lastMessage(txn, conversationID)
		return err
	})
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("last message: %w", err)
	}
	return message, found, nil
}

func (m *MessageRepository) lock(conversationID string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// lastMessage seeks from the highest possible sequence backwards.
func lastMessage(txn *badger.Txn, conversationID string) (domain.Message, bool, error) {
	prefix := messagePrefix(conversationID)
	options := badger.DefaultIteratorOptions
	options.Reverse = true
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	seekKey := append(bytes.Clone(prefix), bytes.Repeat([]byte("9"), sequenceWidth)...)
	for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if !isSequenceKey(item.Key(), prefix) {
			continue
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return domain.Message{}, false, err
		}
		message, err := storage.DecodeMessage(value)
		if err != nil {
			return domain.Message{}, false, err
		}
		return message, true, nil
	}
	return domain.Message{}, false, nil
}

func messagePrefix(conversationID string) []byte {
	return []byte(fmt.Sprintf("msg:%s:", conversationID))
}

func messageKey(conversationID string, sequence uint64) []byte {
	return []byte(fmt.Sprintf("msg:%s:%0*d", conversationID, sequenceWidth, sequence))
}

// isSequenceKey filters out keys of another conversation whose id
// merely starts with this one followed by a colon.
func isSequenceKey(key, prefix []byte) bool {
	rest := key[len(prefix):]
	if len(rest) != sequenceWidth {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
