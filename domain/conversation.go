// Package domain contains core concepts of the chat system.
// This file defines Conversation records and membership rules.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"time"

	"github.com/samber/lo"
)

type ConversationKind string

const (
	KindDirect ConversationKind = "direct"
	KindGroup  ConversationKind = "group"
)

// Conversation is owned by conversation management.
// The core only writes Summary and UpdatedAt.
type Conversation struct {
	ID           string
	Kind         ConversationKind
	Participants []string
	RemovedFor   []string
	Summary      *SealedSummary
	UpdatedAt    time.Time
}

// SealedSummary is the at-rest form of the last message summary.
// The text is encrypted like any message body.
type SealedSummary struct {
	MessageID  string
	SenderID   string
	CreatedAt  time.Time
	Ciphertext []byte
	Envelope   Envelope
}

// LastMessage is the opened summary of the newest message of a conversation.
type LastMessage struct {
	MessageID string
	Text      string
	SenderID  string
	CreatedAt time.Time
}

func (c Conversation) IsGroup() bool {
	return c.Kind == KindGroup
}

func (c Conversation) IsParticipant(userID string) bool {
	return lo.Contains(c.Participants, userID)
}

func (c Conversation) IsRemoved(userID string) bool {
	return lo.Contains(c.RemovedFor, userID)
}

// Valid checks the membership invariants:
// unique participants, exactly two for a direct chat,
// removed members only on groups and never also active.
func (c Conversation) Valid() bool {
	if c.ID == "" {
		return false
	}
	if len(lo.Uniq(c.Participants)) != len(c.Participants) {
		return false
	}
	switch c.Kind {
	case KindDirect:
		if len(c.Participants) != 2 || len(c.RemovedFor) != 0 {
			return false
		}
	case KindGroup:
	default:
		return false
	}
	return len(lo.Intersect(c.Participants, c.RemovedFor)) == 0
}
