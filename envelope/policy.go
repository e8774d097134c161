package envelope

import (
	"chat-vault/domain"
	"context"
	"log/slog"
)

// ViewerPolicy is invoked after a message was opened for a viewer.
// Keys are per conversation, so it cannot change what the viewer reads.
type ViewerPolicy interface {
	Viewed(ctx context.Context, message domain.Message, viewerID string)
}

type NoopPolicy struct{}

func (NoopPolicy) Viewed(context.Context, domain.Message, string) {}

// AuditPolicy records every read at debug level.
type AuditPolicy struct {
	Log *slog.Logger
}

func (a AuditPolicy) Viewed(_ context.Context, message domain.Message, viewerID string) {
	a.Log.Debug("Message opened",
		"conversation_id", message.ConversationID,
		"message_id", message.ID,
		"viewer_id", viewerID)
}
