//go:generate go run go.uber.org/mock/mockgen -source=keyring.go -destination=../mocks/mock_keyring.go -package=mocks
package keyring

import (
	"bytes"
	"chat-vault/errors"
	"chat-vault/storage"
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/crypto/chacha20poly1305"
	"google.golang.org/protobuf/encoding/protowire"
)

const (
	versionWidth = 10
	keyPrefix    = "dek:"
)

// Key is a conversation data key. Material must not be retained by callers.
type Key struct {
	ConversationID string
	Version        uint32
	Material       []byte
}

// IKeyProvider resolves conversation keys for the encryption envelope.
type IKeyProvider interface {
	Current(ctx context.Context, conversationID string) (Key, error)
	Resolve(ctx context.Context, conversationID string, version uint32) (Key, error)
}

type versionRef struct {
	conversationID string
	version        uint32
}

// Keyring keeps one data key per conversation and version, wrapped by the
// master key before it reaches BadgerDB. Unwrapped keys are cached in memory.
type Keyring struct {
	db  *badger.DB
	log *slog.Logger
	kek cipher.AEAD
	now func() time.Time

	mu      sync.RWMutex
	cache   map[versionRef][]byte
	active  map[string]uint32
	retired map[versionRef]struct{}

	// writes serializes key creation, rotation and retirement.
	writes sync.Mutex
}

// ParseMasterKey decodes a 32 bytes hex encoded master key.
func ParseMasterKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil || len(key) != chacha20poly1305.KeySize {
		return nil, errors.ErrInvalidMasterKey
	}
	return key, nil
}

func New(db *badger.DB, log *slog.Logger, masterKey []byte) (*Keyring, error) {
	if len(masterKey) != chacha20poly1305.KeySize {
		return nil, errors.ErrInvalidMasterKey
	}
	kek, err := chacha20poly1305.NewX(masterKey)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	return &Keyring{
		db:      db,
		log:     log,
		kek:     kek,
		now:     time.Now,
		cache:   make(map[versionRef][]byte),
		active:  make(map[string]uint32),
		retired: make(map[versionRef]struct{}),
	}, nil
}

// Current returns the active key of a conversation, creating version 1
// the first time the conversation needs one.
func (k *Keyring) Current(ctx context.Context, conversationID string) (Key, error) {
	if err := ctx.Err(); err != nil {
		return Key{}, err
	}
	k.mu.RLock()
	version, ok := k.active[conversationID]
	k.mu.RUnlock()
	if ok {
		return k.Resolve(ctx, conversationID, version)
	}

	k.writes.Lock()
	defer k.writes.Unlock()

	latest, found, err := k.latest(conversationID)
	if err != nil {
		return Key{}, err
	}
	if !found {
		return k.create(conversationID, 1)
	}
	k.setActive(conversationID, latest.Version)
	return k.unwrap(conversationID, latest)
}

// Resolve returns a given version of a conversation key.
// Unknown and retired versions fail with ErrUnknownKeyVersion.
func (k *Keyring) Resolve(ctx context.Context, conversationID string, version uint32) (Key, error) {
	if err := ctx.Err(); err != nil {
		return Key{}, err
	}
	ref := versionRef{conversationID: conversationID, version: version}
	k.mu.RLock()
	material, ok := k.cache[ref]
	k.mu.RUnlock()
	if ok {
		return Key{ConversationID: conversationID, Version: version, Material: bytes.Clone(material)}, nil
	}

	var wrapped storage.WrappedKey
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey(conversationID, version))
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUnknownKeyVersion
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			wrapped, err = storage.DecodeWrappedKey(val)
			return err
		})
	})
	if err != nil {
		return Key{}, err
	}
	if wrapped.Retired {
		return Key{}, errors.ErrUnknownKeyVersion
	}
	return k.unwrap(conversationID, wrapped)
}

// Rotate creates a new active version. Older versions keep decrypting
// the messages they sealed.
func (k *Keyring) Rotate(ctx context.Context, conversationID string) (Key, error) {
	if err := ctx.Err(); err != nil {
		return Key{}, err
	}
	k.writes.Lock()
	defer k.writes.Unlock()

	latest, found, err := k.latest(conversationID)
	if err != nil {
		return Key{}, err
	}
	next := uint32(1)
	if found {
		next = latest.Version + 1
	}
	key, err := k.create(conversationID, next)
	if err != nil {
		return Key{}, err
	}
	k.log.Info("Conversation key rotated", "conversation_id", conversationID, "version", next)
	return key, nil
}

// Retire makes a version unresolvable. The active version cannot be retired.
func (k *Keyring) Retire(ctx context.Context, conversationID string, version uint32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.writes.Lock()
	defer k.writes.Unlock()

	latest, found, err := k.latest(conversationID)
	if err != nil {
		return err
	}
	if found && latest.Version == version {
		return fmt.Errorf("%w: version %d is active, rotate first", errors.ErrInvalidArgument, version)
	}

	err = k.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey(conversationID, version))
		if goerrors.Is(err, badger.ErrKeyNotFound) {
			return errors.ErrUnknownKeyVersion
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		wrapped, err := storage.DecodeWrappedKey(value)
		if err != nil {
			return err
		}
		wrapped.Retired = true
		return txn.Set(versionKey(conversationID, version), storage.EncodeWrappedKey(wrapped))
	})
	if err != nil {
		return err
	}

	ref := versionRef{conversationID: conversationID, version: version}
	k.mu.Lock()
	k.retired[ref] = struct{}{}
	if material, ok := k.cache[ref]; ok {
		secureWipe(material)
		delete(k.cache, ref)
	}
	k.mu.Unlock()
	k.log.Info("Conversation key retired", "conversation_id", conversationID, "version", version)
	return nil
}

// Close wipes every unwrapped key held in memory.
func (k *Keyring) Close() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for ref, material := range k.cache {
		secureWipe(material)
		delete(k.cache, ref)
	}
}

// create must be called with writes held.
func (k *Keyring) create(conversationID string, version uint32) (Key, error) {
	material := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(material); err != nil {
		return Key{}, fmt.Errorf("generate key: %w", err)
	}
	nonce := make([]byte, k.kek.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Key{}, fmt.Errorf("generate nonce: %w", err)
	}
	wrapped := storage.WrappedKey{
		Version:   version,
		Nonce:     nonce,
		Blob:      k.kek.Seal(nil, nonce, material, wrapAAD(conversationID, version)),
		CreatedAt: k.now().UTC(),
	}
	err := k.db.Update(func(txn *badger.Txn) error {
		return txn.Set(versionKey(conversationID, version), storage.EncodeWrappedKey(wrapped))
	})
	if err != nil {
		secureWipe(material)
		return Key{}, fmt.Errorf("store key: %w", err)
	}
	k.remember(conversationID, version, material)
	k.setActive(conversationID, version)
	return Key{ConversationID: conversationID, Version: version, Material: material}, nil
}

func (k *Keyring) unwrap(conversationID string, wrapped storage.WrappedKey) (Key, error) {
	material, err := k.kek.Open(nil, wrapped.Nonce, wrapped.Blob, wrapAAD(conversationID, wrapped.Version))
	if err != nil {
		k.log.Error("Conversation key unwrap failed",
			"conversation_id", conversationID,
			"version", wrapped.Version)
		return Key{}, fmt.Errorf("%w: unwrap key version %d", errors.ErrDecryptionFailed, wrapped.Version)
	}
	k.remember(conversationID, wrapped.Version, material)
	return Key{ConversationID: conversationID, Version: wrapped.Version, Material: material}, nil
}

func (k *Keyring) remember(conversationID string, version uint32, material []byte) {
	ref := versionRef{conversationID: conversationID, version: version}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, ok := k.retired[ref]; ok {
		return
	}
	k.cache[ref] = bytes.Clone(material)
}

func (k *Keyring) setActive(conversationID string, version uint32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.active[conversationID] = version
}

// latest finds the highest stored version of a conversation key.
func (k *Keyring) latest(conversationID string) (storage.WrappedKey, bool, error) {
	var (
		wrapped storage.WrappedKey
		found   bool
	)
	err := k.db.View(func(txn *badger.Txn) error {
		prefix := versionPrefix(conversationID)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(bytes.Clone(prefix), bytes.Repeat([]byte("9"), versionWidth)...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if !isVersionKey(it.Item().Key(), prefix) {
				continue
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			wrapped, err = storage.DecodeWrappedKey(value)
			if err != nil {
				return err
			}
			found = true
			return nil
		}
		return nil
	})
	return wrapped, found, err
}

// wrapAAD binds a wrapped key to its conversation and version,
// so a blob copied under another key path fails to open.
func wrapAAD(conversationID string, version uint32) []byte {
	var b []byte
	b = protowire.AppendString(b, "chat-vault/dek/v1")
	b = protowire.AppendString(b, conversationID)
	return protowire.AppendVarint(b, uint64(version))
}

func versionPrefix(conversationID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", keyPrefix, conversationID))
}

func versionKey(conversationID string, version uint32) []byte {
	return []byte(fmt.Sprintf("%s%s:%0*d", keyPrefix, conversationID, versionWidth, version))
}

func isVersionKey(key, prefix []byte) bool {
	rest := key[len(prefix):]
	if len(rest) != versionWidth {
		return false
	}
	for _, c := range rest {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func secureWipe(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
