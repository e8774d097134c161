// Package domain contains core concepts of the chat system.
// This file defines Message records and the envelope needed to open them.
// Messages are immutable once appended to the log.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted, encrypted chat entry.
// Ciphertext never leaves the core, only the text recomputed per viewer.
type Message struct {
	ID             uuid.UUID
	ConversationID string
	SenderID       string
	Ciphertext     []byte
	Envelope       Envelope
	CreatedAt      time.Time
	// Sequence is the per-conversation append position, used to break createdAt ties.
	Sequence uint64
}

// Envelope describes how a ciphertext was produced.
// The AEAD tag travels at the end of the ciphertext.
type Envelope struct {
	Algorithm  string
	KeyID      string
	KeyVersion uint32
	Nonce      []byte
}

// SenderSnapshot is a point-in-time copy of the author's directory entry.
// Every field except ID is optional.
type SenderSnapshot struct {
	ID          string
	DisplayName *string
	Username    *string
	Role        *string
	Department  *string
	Email       *string
}
