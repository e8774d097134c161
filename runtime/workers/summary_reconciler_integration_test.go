package workers

import (
	"chat-vault/domain"
	"chat-vault/envelope"
	"chat-vault/keyring"
	"chat-vault/repositories"
	"chat-vault/summary"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestSummaryReconciler_Repairs_Summary_Lost_After_Append(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	masterKey, err := keyring.ParseMasterKey(strings.Repeat("a5", 32))
	req.NoError(err)
	keys, err := keyring.New(db, log, masterKey)
	req.NoError(err)
	defer keys.Close()

	cipher := envelope.NewCipher(keys, log, nil)
	conversations := repositories.NewConversationRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	writer := summary.NewWriter(conversations, cipher, log)
	req.NoError(conversations.Save(ctx, domain.Conversation{
		ID: "d1", Kind: domain.KindDirect, Participants: []string{"alice", "bob"},
	}))

	// Given a message appended without its summary write
	sealed, err := cipher.Encrypt(ctx, "lost summary", envelope.Context{ConversationID: "d1", SenderID: "alice"})
	req.NoError(err)
	message, err := messages.Append(ctx, "d1", "alice", sealed.Ciphertext, sealed.Envelope)
	req.NoError(err)

	// When the reconciler runs
	reconciler := NewSummaryReconciler(conversations, messages, cipher, writer, time.Minute, log)
	repaired, err := reconciler.ReconcileOnce(ctx)
	req.NoError(err)
	req.Equal(1, repaired)

	// Then the summary points at the message
	conv, err := conversations.Get(ctx, "d1")
	req.NoError(err)
	last, ok, err := writer.Read(ctx, conv)
	req.NoError(err)
	req.True(ok)
	req.Equal(message.ID.String(), last.MessageID)
	req.Equal("lost summary", last.Text)
	req.Equal(message.CreatedAt, last.CreatedAt)

	// And a second pass has nothing to do
	repaired, err = reconciler.ReconcileOnce(ctx)
	req.NoError(err)
	req.Zero(repaired)
}
