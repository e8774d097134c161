package services

import (
	"chat-vault/domain"
	"chat-vault/envelope"
	"chat-vault/errors"
	"chat-vault/keyring"
	"chat-vault/repositories"
	"chat-vault/summary"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type stack struct {
	service       *MessageService
	keys          *keyring.Keyring
	conversations *repositories.ConversationRepository
	messages      *repositories.MessageRepository
	users         repositories.IUserRepository
}

func newStack(t *testing.T) stack {
	t.Helper()
	ctx := context.Background()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	masterKey, err := keyring.ParseMasterKey(strings.Repeat("7e", 32))
	require.NoError(t, err)
	keys, err := keyring.New(db, log, masterKey)
	require.NoError(t, err)
	t.Cleanup(keys.Close)

	cipher := envelope.NewCipher(keys, log, envelope.AuditPolicy{Log: log})
	messages := repositories.NewMessageRepository(db, log)
	conversations := repositories.NewConversationRepository(db, log)
	users := repositories.NewUserRepository(db)
	service := NewMessageService(cipher, messages, conversations, users,
		summary.NewWriter(conversations, cipher, log), log, 4)

	require.NoError(t, conversations.Save(ctx, domain.Conversation{
		ID: "D", Kind: domain.KindDirect, Participants: []string{"A", "B"},
	}))
	require.NoError(t, conversations.Save(ctx, domain.Conversation{
		ID: "G", Kind: domain.KindGroup, Participants: []string{"A", "B", "C"},
	}))
	require.NoError(t, users.Save(ctx, domain.User{ID: "A", DisplayName: "Ann", Department: "Ops"}))

	return stack{service: service, keys: keys, conversations: conversations, messages: messages, users: users}
}

func TestScenario_Direct_Conversation_Round_Trip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStack(t)

	sent, err := s.service.Send(ctx, SendMessageRequest{ConversationID: "D", SenderID: "A", Text: "Hello"})
	req.NoError(err)
	req.Equal("Hello", sent.Text)
	req.Equal("Ann", *sent.Sender.DisplayName)
	req.Equal("Ops", *sent.Sender.Department)

	for _, viewer := range []string{"A", "B"} {
		dtos, err := s.service.List(ctx, GetMessagesRequest{ConversationID: "D", ViewerID: viewer})
		req.NoError(err)
		req.Len(dtos, 1)
		req.Equal("Hello", dtos[0].Text)
		req.Equal("A", dtos[0].SenderID)
		req.Equal(sent.ID, dtos[0].ID)
		req.Equal(sent.CreatedAt, dtos[0].CreatedAt)
	}

	// Nothing readable is stored
	stored, err := s.messages.ListByConversation(ctx, "D")
	req.NoError(err)
	req.NotContains(string(stored[0].Ciphertext), "Hello")
	conv, err := s.conversations.Get(ctx, "D")
	req.NoError(err)
	req.NotContains(string(conv.Summary.Ciphertext), "Hello")
}

func TestScenario_Removed_Member_Keeps_History(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStack(t)
	for _, text := range []string{"one", "two", "three"} {
		_, err := s.service.Send(ctx, SendMessageRequest{ConversationID: "G", SenderID: "C", Text: text})
		req.NoError(err)
	}

	// When C is removed from the group
	req.NoError(s.conversations.Save(ctx, domain.Conversation{
		ID: "G", Kind: domain.KindGroup, Participants: []string{"A", "B"}, RemovedFor: []string{"C"},
	}))

	// Then C can no longer send
	_, err := s.service.Send(ctx, SendMessageRequest{ConversationID: "G", SenderID: "C", Text: "hi"})
	req.ErrorIs(err, errors.ErrNotGroupMember)
	req.Equal(403, errors.HTTPStatus(err))

	// But still reads the full prior history
	dtos, err := s.service.List(ctx, GetMessagesRequest{ConversationID: "G", ViewerID: "C"})
	req.NoError(err)
	req.Equal([]string{"one", "two", "three"}, textsOf(dtos))
}

func TestScenario_Whitespace_Message_Is_Not_Stored(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStack(t)
	_, err := s.service.Send(ctx, SendMessageRequest{ConversationID: "D", SenderID: "A", Text: "first"})
	req.NoError(err)

	_, err = s.service.Send(ctx, SendMessageRequest{ConversationID: "D", SenderID: "A", Text: "   "})
	req.ErrorIs(err, errors.ErrInvalidArgument)
	req.Equal(400, errors.HTTPStatus(err))

	dtos, err := s.service.List(ctx, GetMessagesRequest{ConversationID: "D", ViewerID: "A"})
	req.NoError(err)
	req.Len(dtos, 1)
	conv, err := s.conversations.Get(ctx, "D")
	req.NoError(err)
	last, _, err := summary.NewWriter(s.conversations, envelope.NewCipher(s.keys, slog.Default(), nil), slog.Default()).Read(ctx, conv)
	req.NoError(err)
	req.Equal("first", last.Text)
}

func TestScenario_Outsider_Cannot_List(t *testing.T) {
	req := require.New(t)
	s := newStack(t)

	_, err := s.service.List(context.Background(), GetMessagesRequest{ConversationID: "D", ViewerID: "X"})

	req.ErrorIs(err, errors.ErrForbidden)
	req.Equal(403, errors.HTTPStatus(err))
}

func TestScenario_Unknown_Key_Version_Fails_List(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStack(t)
	_, err := s.service.Send(ctx, SendMessageRequest{ConversationID: "D", SenderID: "A", Text: "under v1"})
	req.NoError(err)

	// Given the key of the first message is no longer resolvable
	_, err = s.keys.Rotate(ctx, "D")
	req.NoError(err)
	_, err = s.service.Send(ctx, SendMessageRequest{ConversationID: "D", SenderID: "B", Text: "under v2"})
	req.NoError(err)
	req.NoError(s.keys.Retire(ctx, "D", 1))

	// Then list fails instead of returning garbled or partial history
	dtos, err := s.service.List(ctx, GetMessagesRequest{ConversationID: "D", ViewerID: "B"})
	req.ErrorIs(err, errors.ErrDecryptionFailed)
	req.Nil(dtos)
	req.Equal(500, errors.HTTPStatus(err))
}

func TestMessageService_Rotation_Keeps_Both_Generations_Readable(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStack(t)
	_, err := s.service.Send(ctx, SendMessageRequest{ConversationID: "D", SenderID: "A", Text: "old"})
	req.NoError(err)
	_, err = s.keys.Rotate(ctx, "D")
	req.NoError(err)
	_, err = s.service.Send(ctx, SendMessageRequest{ConversationID: "D", SenderID: "B", Text: "new"})
	req.NoError(err)

	dtos, err := s.service.List(ctx, GetMessagesRequest{ConversationID: "D", ViewerID: "A"})

	req.NoError(err)
	req.Equal([]string{"old", "new"}, textsOf(dtos))
}

func TestMessageService_Concurrent_Senders_Keep_Order_And_Summary(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	s := newStack(t)
	const perSender = 15

	var wg sync.WaitGroup
	errs := make(chan error, 3*perSender)
	for _, sender := range []string{"A", "B", "C"} {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				_, err := s.service.Send(ctx, SendMessageRequest{
					ConversationID: "G",
					SenderID:       sender,
					Text:           fmt.Sprintf("%s-%02d", sender, i),
				})
				errs <- err
			}
		}(sender)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		req.NoError(err)
	}

	dtos, err := s.service.List(ctx, GetMessagesRequest{ConversationID: "G", ViewerID: "A"})
	req.NoError(err)
	req.Len(dtos, 3*perSender)
	next := map[string]int{}
	for i, dto := range dtos {
		if i > 0 {
			req.True(dto.CreatedAt.After(dtos[i-1].CreatedAt))
		}
		// Each sender's own messages keep their send order
		req.Equal(fmt.Sprintf("%s-%02d", dto.SenderID, next[dto.SenderID]), dto.Text)
		next[dto.SenderID]++
	}

	// The summary points at the true last message
	last, err := s.service.Summary(ctx, SummaryRequest{ConversationID: "G", ViewerID: "B"})
	req.NoError(err)
	req.NotNil(last)
	req.Equal(dtos[len(dtos)-1].ID, last.MessageID)
	req.Equal(dtos[len(dtos)-1].Text, last.Text)
	req.Equal(dtos[len(dtos)-1].CreatedAt, last.CreatedAt)
}

func textsOf(dtos []MessageDto) []string {
	texts := make([]string, 0, len(dtos))
	for _, dto := range dtos {
		texts = append(texts, dto.Text)
	}
	return texts
}
