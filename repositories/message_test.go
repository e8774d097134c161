package repositories

import (
	"chat-vault/domain"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func envelope(conversationID string) domain.Envelope {
	return domain.Envelope{Algorithm: "test", KeyID: conversationID, KeyVersion: 1, Nonce: []byte{1, 2, 3}}
}

func Test_Append_And_List_In_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), logs.GetLoggerFromLevel(slog.LevelDebug))
	authors := []string{"Alice", "Bob", "Clara"}

	// Given three messages appended one after the other
	var appended []domain.Message
	for i, author := range authors {
		message, err := repository.Append(ctx, "c1", author, []byte{byte(i)}, envelope("c1"))
		req.NoError(err)
		appended = append(appended, message)
	}

	// When listing the conversation
	listed, err := repository.ListByConversation(ctx, "c1")

	// Then the log comes back in append order with the assigned fields
	req.NoError(err)
	req.Equal(appended, listed)
	for i, message := range listed {
		req.Equal(uint64(i+1), message.Sequence)
		req.Equal(authors[i], message.SenderID)
		if i > 0 {
			req.True(message.CreatedAt.After(listed[i-1].CreatedAt))
		}
	}
}

func Test_Append_Clock_Going_Backwards(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), slog.Default())
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{at, at, at.Add(-time.Hour)}
	repository.now = func() time.Time {
		next := clock[0]
		clock = clock[1:]
		return next
	}

	first, err := repository.Append(ctx, "c1", "Alice", []byte("a"), envelope("c1"))
	req.NoError(err)
	second, err := repository.Append(ctx, "c1", "Bob", []byte("b"), envelope("c1"))
	req.NoError(err)
	third, err := repository.Append(ctx, "c1", "Clara", []byte("c"), envelope("c1"))
	req.NoError(err)

	// createdAt keeps increasing whatever the clock says
	req.Equal(at, first.CreatedAt)
	req.True(second.CreatedAt.After(first.CreatedAt))
	req.True(third.CreatedAt.After(second.CreatedAt))
}

func Test_Append_Concurrent_Senders_Keep_Total_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), slog.Default())
	senders := 20
	perSender := 5

	var wg sync.WaitGroup
	for s := 0; s < senders; s++ {
		wg.Add(1)
		go func(sender string) {
			defer wg.Done()
			var previous domain.Message
			for i := 0; i < perSender; i++ {
				message, err := repository.Append(ctx, "c1", sender, []byte{byte(i)}, envelope("c1"))
				if err != nil {
					t.Error(err)
					return
				}
				// What returned first must sort first
				if i > 0 && !message.CreatedAt.After(previous.CreatedAt) {
					t.Errorf("createdAt regressed for %s", sender)
				}
				previous = message
			}
		}(fmt.Sprintf("user-%d", s))
	}
	wg.Wait()

	listed, err := repository.ListByConversation(ctx, "c1")
	req.NoError(err)
	req.Len(listed, senders*perSender)
	for i := 1; i < len(listed); i++ {
		req.Equal(listed[i-1].Sequence+1, listed[i].Sequence)
		req.True(listed[i].CreatedAt.After(listed[i-1].CreatedAt))
	}
}

func Test_Append_Concurrent_To_Conversations_Sharing_A_Prefix(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), slog.Default())
	conversations := []string{"a", "a:1"}
	perConversation := 25

	// Given two conversations whose keys interleave under "msg:a:"
	errs := make(chan error, len(conversations)*perConversation)
	var wg sync.WaitGroup
	for _, id := range conversations {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perConversation; i++ {
				_, err := repository.Append(ctx, id, "Alice", []byte{byte(i)}, envelope(id))
				errs <- err
			}
		}(id)
	}
	wg.Wait()
	close(errs)

	// Then every append lands despite the overlapping scans
	for err := range errs {
		req.NoError(err)
	}
	for _, id := range conversations {
		listed, err := repository.ListByConversation(ctx, id)
		req.NoError(err)
		req.Len(listed, perConversation)
		req.Equal(uint64(perConversation), listed[len(listed)-1].Sequence)
	}
}

func Test_List_Isolates_Conversations_Sharing_A_Prefix(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), slog.Default())

	_, err := repository.Append(ctx, "c1", "Alice", []byte("a"), envelope("c1"))
	req.NoError(err)
	_, err = repository.Append(ctx, "c1:x", "Bob", []byte("b"), envelope("c1:x"))
	req.NoError(err)

	listed, err := repository.ListByConversation(ctx, "c1")
	req.NoError(err)
	req.Len(listed, 1)
	req.Equal("Alice", listed[0].SenderID)

	last, found, err := repository.Last(ctx, "c1")
	req.NoError(err)
	req.True(found)
	req.Equal("Alice", last.SenderID)
}

func Test_Last(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openDB(t), slog.Default())

	// Given an empty conversation
	_, found, err := repository.Last(ctx, "c1")
	req.NoError(err)
	req.False(found)

	// When two messages are appended
	_, err = repository.Append(ctx, "c1", "Alice", []byte("a"), envelope("c1"))
	req.NoError(err)
	second, err := repository.Append(ctx, "c1", "Bob", []byte("b"), envelope("c1"))
	req.NoError(err)

	// Then the newest one is returned
	last, found, err := repository.Last(ctx, "c1")
	req.NoError(err)
	req.True(found)
	req.Equal(second, last)
}

func Test_List_Empty_Conversation(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default())

	listed, err := repository.ListByConversation(context.Background(), "nothing")

	req.NoError(err)
	req.Empty(listed)
}

func Test_Append_Canceled_Context(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openDB(t), slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repository.Append(ctx, "c1", "Alice", []byte("a"), envelope("c1"))
	req.ErrorIs(err, context.Canceled)

	listed, err := repository.ListByConversation(context.Background(), "c1")
	req.NoError(err)
	req.Empty(listed)
}
