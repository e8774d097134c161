//go:generate go run go.uber.org/mock/mockgen -source=envelope.go -destination=../mocks/mock_cipher.go -package=mocks

// Package envelope seals message bodies under per-conversation keys.
//
// Each body is encrypted with XChaCha20-Poly1305. The content key is derived
// with HKDF-SHA256 from the conversation data key, and the additional data
// binds the ciphertext to its conversation, its sender, its purpose and the
// key version. A ciphertext copied into another conversation, attributed to
// another sender or moved between a message and a summary fails to open.
package envelope

import (
	"chat-vault/domain"
	"chat-vault/errors"
	"chat-vault/keyring"
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"google.golang.org/protobuf/encoding/protowire"
)

// Algorithm is the only algorithm this package produces and accepts.
const Algorithm = "xchacha20poly1305-hkdf-sha256"

const contentKeyInfo = "chat-vault/message/v1|"

type Purpose string

const (
	PurposeMessage Purpose = "message"
	PurposeSummary Purpose = "summary"
)

// Context is what a ciphertext is bound to.
type Context struct {
	ConversationID string
	SenderID       string
	// Purpose defaults to PurposeMessage.
	Purpose Purpose
}

// Sealed is the output of Encrypt. EchoPlaintext is the text that was sealed,
// returned so that callers never have to keep their own copy around.
type Sealed struct {
	Ciphertext    []byte
	Envelope      domain.Envelope
	EchoPlaintext string
}

type ICipher interface {
	Encrypt(ctx context.Context, plaintext string, c Context) (Sealed, error)
	Decrypt(ctx context.Context, message domain.Message, viewerID string) (string, error)
	Open(ctx context.Context, c Context, ciphertext []byte, envelope domain.Envelope) (string, error)
}

type Cipher struct {
	keys   keyring.IKeyProvider
	log    *slog.Logger
	policy ViewerPolicy
}

// NewCipher builds a cipher on top of a key provider.
// A nil policy disables the viewer hook.
func NewCipher(keys keyring.IKeyProvider, log *slog.Logger, policy ViewerPolicy) *Cipher {
	if policy == nil {
		policy = NoopPolicy{}
	}
	return &Cipher{keys: keys, log: log, policy: policy}
}

func (c *Cipher) Encrypt(ctx context.Context, plaintext string, bind Context) (Sealed, error) {
	key, err := c.keys.Current(ctx, bind.ConversationID)
	if err != nil {
		return Sealed{}, fmt.Errorf("encrypt: %w", err)
	}
	defer wipe(key.Material)

	aead, err := contentCipher(key.Material, bind.ConversationID)
	if err != nil {
		return Sealed{}, fmt.Errorf("encrypt: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Sealed{}, fmt.Errorf("encrypt: generate nonce: %w", err)
	}
	envelope := domain.Envelope{
		Algorithm:  Algorithm,
		KeyID:      bind.ConversationID,
		KeyVersion: key.Version,
		Nonce:      nonce,
	}
	return Sealed{
		Ciphertext:    aead.Seal(nil, nonce, []byte(plaintext), additionalData(bind, envelope)),
		Envelope:      envelope,
		EchoPlaintext: plaintext,
	}, nil
}

// Decrypt opens a stored message for viewerID.
// Membership is not checked here, callers authorize first.
func (c *Cipher) Decrypt(ctx context.Context, message domain.Message, viewerID string) (string, error) {
	bind := Context{
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Purpose:        PurposeMessage,
	}
	text, err := c.Open(ctx, bind, message.Ciphertext, message.Envelope)
	if err != nil {
		if goerrors.Is(err, errors.ErrDecryptionFailed) {
			c.log.Error("Message decryption failed",
				"conversation_id", message.ConversationID,
				"message_id", message.ID,
				"key_version", message.Envelope.KeyVersion,
				"error", err)
		}
		return "", err
	}
	c.policy.Viewed(ctx, message, viewerID)
	return text, nil
}

// Open is the low level decryption shared by messages and summaries.
// Every failure other than a canceled context wraps ErrDecryptionFailed.
func (c *Cipher) Open(ctx context.Context, bind Context, ciphertext []byte, envelope domain.Envelope) (string, error) {
	if envelope.Algorithm != Algorithm {
		return "", fmt.Errorf("%w: %w %q", errors.ErrDecryptionFailed, errors.ErrUnknownAlgorithm, envelope.Algorithm)
	}
	if envelope.KeyID != bind.ConversationID {
		return "", fmt.Errorf("%w: key belongs to another conversation", errors.ErrDecryptionFailed)
	}
	key, err := c.keys.Resolve(ctx, bind.ConversationID, envelope.KeyVersion)
	switch {
	case err == nil:
	case goerrors.Is(err, context.Canceled), goerrors.Is(err, context.DeadlineExceeded):
		return "", err
	case goerrors.Is(err, errors.ErrDecryptionFailed):
		return "", err
	default:
		return "", fmt.Errorf("%w: %w", errors.ErrDecryptionFailed, err)
	}
	defer wipe(key.Material)

	aead, err := contentCipher(key.Material, bind.ConversationID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrDecryptionFailed, err)
	}
	if len(envelope.Nonce) != aead.NonceSize() {
		return "", fmt.Errorf("%w: invalid nonce", errors.ErrDecryptionFailed)
	}
	plaintext, err := aead.Open(nil, envelope.Nonce, ciphertext, additionalData(bind, envelope))
	if err != nil {
		return "", fmt.Errorf("%w: authentication failed", errors.ErrDecryptionFailed)
	}
	return string(plaintext), nil
}

func contentCipher(dek []byte, conversationID string) (cipher.AEAD, error) {
	contentKey := make([]byte, chacha20poly1305.KeySize)
	defer wipe(contentKey)
	reader := hkdf.New(sha256.New, dek, nil, []byte(contentKeyInfo+conversationID))
	if _, err := io.ReadFull(reader, contentKey); err != nil {
		return nil, fmt.Errorf("derive content key: %w", err)
	}
	return chacha20poly1305.NewX(contentKey)
}

func additionalData(bind Context, envelope domain.Envelope) []byte {
	purpose := bind.Purpose
	if purpose == "" {
		purpose = PurposeMessage
	}
	var b []byte
	b = protowire.AppendString(b, envelope.Algorithm)
	b = protowire.AppendString(b, string(purpose))
	b = protowire.AppendString(b, bind.ConversationID)
	b = protowire.AppendString(b, bind.SenderID)
	return protowire.AppendVarint(b, uint64(envelope.KeyVersion))
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
