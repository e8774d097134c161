package workers

import (
	"chat-vault/domain"
	"chat-vault/envelope"
	"chat-vault/repositories"
	"chat-vault/summary"
	"context"
	goerrors "errors"
	"log/slog"
	"time"
)

// SummaryReconciler brings conversation summaries back in line with the
// message log. A summary lags when the process stops between a message
// append and the summary write.
type SummaryReconciler struct {
	conversations repositories.IConversationRepository
	messages      repositories.IMessageRepository
	cipher        envelope.ICipher
	summaries     summary.IWriter
	interval      time.Duration
	log           *slog.Logger
}

func NewSummaryReconciler(
	conversations repositories.IConversationRepository,
	messages repositories.IMessageRepository,
	cipher envelope.ICipher,
	summaries summary.IWriter,
	interval time.Duration,
	log *slog.Logger,
) *SummaryReconciler {
	return &SummaryReconciler{
		conversations: conversations,
		messages:      messages,
		cipher:        cipher,
		summaries:     summaries,
		interval:      interval,
		log:           log,
	}
}

// Run reconciles once at startup, then on every tick.
func (r *SummaryReconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		repaired, err := r.ReconcileOnce(ctx)
		if err != nil {
			return err
		}
		if repaired > 0 {
			r.log.Info("Summaries repaired", "count", repaired)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ReconcileOnce walks every conversation and returns how many summaries
// it rewrote. A conversation that cannot be repaired is logged and skipped.
func (r *SummaryReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	ids, err := r.conversations.IDs(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return repaired, err
		}
		ok, err := r.reconcile(ctx, id)
		if err != nil {
			if goerrors.Is(err, context.Canceled) || goerrors.Is(err, context.DeadlineExceeded) {
				return repaired, err
			}
			r.log.Error("Summary reconciliation failed", "conversation_id", id, "error", err)
			continue
		}
		if ok {
			repaired++
		}
	}
	return repaired, nil
}

func (r *SummaryReconciler) reconcile(ctx context.Context, conversationID string) (bool, error) {
	conv, err := r.conversations.Get(ctx, conversationID)
	if err != nil {
		return false, err
	}
	last, found, err := r.messages.Last(ctx, conversationID)
	if err != nil || !found {
		return false, err
	}
	if conv.Summary != nil && !conv.Summary.CreatedAt.Before(last.CreatedAt) {
		return false, nil
	}

	// The author's own view, as on the send path
	text, err := r.cipher.Decrypt(ctx, last, last.SenderID)
	if err != nil {
		return false, err
	}
	err = r.summaries.RecordLastMessage(ctx, conversationID, domain.LastMessage{
		MessageID: last.ID.String(),
		Text:      text,
		SenderID:  last.SenderID,
		CreatedAt: last.CreatedAt,
	})
	if err != nil {
		return false, err
	}
	r.log.Debug("Summary caught up", "conversation_id", conversationID, "message_id", last.ID)
	return true, nil
}
