// Package guard decides whether an actor may act on a conversation.
// Decisions are pure functions of the conversation state.
package guard

import (
	"chat-vault/domain"
	"chat-vault/errors"
)

type Mode int

const (
	// ModeStrict admits active participants only. Used for writes.
	ModeStrict Mode = iota
	// ModeHistoryTolerant also admits members removed from a group, for reading history.
	ModeHistoryTolerant
)

func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeHistoryTolerant:
		return "history_tolerant"
	default:
		return "unknown"
	}
}

// Authorize fails with ErrForbidden when the actor is not admitted by mode.
// The error never tells whether the actor was removed or never a member.
func Authorize(conv domain.Conversation, actorID string, mode Mode) error {
	if conv.IsParticipant(actorID) {
		return nil
	}
	if mode == ModeHistoryTolerant && conv.IsRemoved(actorID) {
		return nil
	}
	return errors.ErrForbidden
}

// AuthorizeSend rejects removed group members with a dedicated message
// before falling back to the strict check.
func AuthorizeSend(conv domain.Conversation, senderID string) error {
	if conv.IsGroup() && conv.IsRemoved(senderID) {
		return errors.ErrNotGroupMember
	}
	return Authorize(conv, senderID, ModeStrict)
}
