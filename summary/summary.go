//go:generate go run go.uber.org/mock/mockgen -source=summary.go -destination=../mocks/mock_summary_writer.go -package=mocks

// Package summary maintains the denormalized last message of a conversation.
// The text is sealed like a message body before it is stored.
package summary

import (
	"chat-vault/domain"
	"chat-vault/envelope"
	"chat-vault/repositories"
	"context"
	"fmt"
	"log/slog"
)

type IWriter interface {
	RecordLastMessage(ctx context.Context, conversationID string, last domain.LastMessage) error
	Read(ctx context.Context, conv domain.Conversation) (domain.LastMessage, bool, error)
}

type Writer struct {
	conversations repositories.IConversationRepository
	cipher        envelope.ICipher
	log           *slog.Logger
}

func NewWriter(conversations repositories.IConversationRepository, cipher envelope.ICipher, log *slog.Logger) *Writer {
	return &Writer{conversations: conversations, cipher: cipher, log: log}
}

// RecordLastMessage seals and stores last as the conversation summary.
// A summary older than the stored one is dropped, so concurrent sends
// settle on the newest message whatever order their writes land in.
func (w *Writer) RecordLastMessage(ctx context.Context, conversationID string, last domain.LastMessage) error {
	sealed, err := w.cipher.Encrypt(ctx, last.Text, envelope.Context{
		ConversationID: conversationID,
		SenderID:       last.SenderID,
		Purpose:        envelope.PurposeSummary,
	})
	if err != nil {
		return fmt.Errorf("seal summary: %w", err)
	}
	applied, err := w.conversations.RecordLastMessage(ctx, conversationID, domain.SealedSummary{
		MessageID:  last.MessageID,
		SenderID:   last.SenderID,
		CreatedAt:  last.CreatedAt,
		Ciphertext: sealed.Ciphertext,
		Envelope:   sealed.Envelope,
	})
	if err != nil {
		return fmt.Errorf("record summary: %w", err)
	}
	if applied {
		w.log.Debug("Summary recorded",
			"conversation_id", conversationID,
			"message_id", last.MessageID)
	}
	return nil
}

// Read opens the stored summary. It reports false when the conversation
// has no message yet.
func (w *Writer) Read(ctx context.Context, conv domain.Conversation) (domain.LastMessage, bool, error) {
	if conv.Summary == nil {
		return domain.LastMessage{}, false, nil
	}
	text, err := w.cipher.Open(ctx, envelope.Context{
		ConversationID: conv.ID,
		SenderID:       conv.Summary.SenderID,
		Purpose:        envelope.PurposeSummary,
	}, conv.Summary.Ciphertext, conv.Summary.Envelope)
	if err != nil {
		return domain.LastMessage{}, false, fmt.Errorf("open summary: %w", err)
	}
	return domain.LastMessage{
		MessageID: conv.Summary.MessageID,
		Text:      text,
		SenderID:  conv.Summary.SenderID,
		CreatedAt: conv.Summary.CreatedAt,
	}, true, nil
}
