package workers

import (
	"chat-vault/domain"
	"chat-vault/errors"
	"chat-vault/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type reconcilerMocks struct {
	conversations *mocks.MockIConversationRepository
	messages      *mocks.MockIMessageRepository
	cipher        *mocks.MockICipher
	summaries     *mocks.MockIWriter
}

func newReconciler(t *testing.T) (*SummaryReconciler, reconcilerMocks) {
	ctrl := gomock.NewController(t)
	m := reconcilerMocks{
		conversations: mocks.NewMockIConversationRepository(ctrl),
		messages:      mocks.NewMockIMessageRepository(ctrl),
		cipher:        mocks.NewMockICipher(ctrl),
		summaries:     mocks.NewMockIWriter(ctrl),
	}
	r := NewSummaryReconciler(m.conversations, m.messages, m.cipher, m.summaries,
		10*time.Millisecond, logs.GetLoggerFromLevel(slog.LevelDebug))
	return r, m
}

func TestSummaryReconciler_ReconcileOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	r, m := newReconciler(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	last := domain.Message{ID: uuid.New(), ConversationID: "lagging", SenderID: "bob", CreatedAt: at}

	m.conversations.EXPECT().IDs(gomock.Any()).Return([]string{"lagging", "fresh", "empty", "broken"}, nil)

	// Given a summary behind the log
	m.conversations.EXPECT().Get(gomock.Any(), "lagging").Return(domain.Conversation{
		ID: "lagging", Summary: &domain.SealedSummary{CreatedAt: at.Add(-time.Second)},
	}, nil)
	m.messages.EXPECT().Last(gomock.Any(), "lagging").Return(last, true, nil)
	m.cipher.EXPECT().Decrypt(gomock.Any(), last, "bob").Return("caught up", nil)
	m.summaries.EXPECT().RecordLastMessage(gomock.Any(), "lagging", domain.LastMessage{
		MessageID: last.ID.String(), Text: "caught up", SenderID: "bob", CreatedAt: at,
	}).Return(nil)

	// Given a summary already pointing at the last message
	m.conversations.EXPECT().Get(gomock.Any(), "fresh").Return(domain.Conversation{
		ID: "fresh", Summary: &domain.SealedSummary{CreatedAt: at},
	}, nil)
	m.messages.EXPECT().Last(gomock.Any(), "fresh").Return(domain.Message{CreatedAt: at}, true, nil)

	// Given a conversation without messages
	m.conversations.EXPECT().Get(gomock.Any(), "empty").Return(domain.Conversation{ID: "empty"}, nil)
	m.messages.EXPECT().Last(gomock.Any(), "empty").Return(domain.Message{}, false, nil)

	// Given a conversation whose last message cannot be opened
	broken := domain.Message{ID: uuid.New(), ConversationID: "broken", SenderID: "alice", CreatedAt: at}
	m.conversations.EXPECT().Get(gomock.Any(), "broken").Return(domain.Conversation{ID: "broken"}, nil)
	m.messages.EXPECT().Last(gomock.Any(), "broken").Return(broken, true, nil)
	m.cipher.EXPECT().Decrypt(gomock.Any(), broken, "alice").Return("", errors.ErrDecryptionFailed)

	repaired, err := r.ReconcileOnce(ctx)

	req.NoError(err)
	req.Equal(1, repaired)
}

func TestSummaryReconciler_Run_Stops_With_Context(t *testing.T) {
	req := require.New(t)
	r, m := newReconciler(t)
	m.conversations.EXPECT().IDs(gomock.Any()).Return(nil, nil).MinTimes(2)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := r.Run(ctx)

	req.ErrorIs(err, context.DeadlineExceeded)
}
