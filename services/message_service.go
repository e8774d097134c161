package services

import (
	"chat-vault/domain"
	"chat-vault/envelope"
	"chat-vault/errors"
	"chat-vault/guard"
	"chat-vault/repositories"
	"chat-vault/summary"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const defaultDecryptParallelism = 8

type IMessageService interface {
	Send(ctx context.Context, request SendMessageRequest) (MessageDto, error)
	List(ctx context.Context, request GetMessagesRequest) ([]MessageDto, error)
	Summary(ctx context.Context, request SummaryRequest) (*SummaryDto, error)
}

type MessageService struct {
	cipher        envelope.ICipher
	messages      repositories.IMessageRepository
	conversations repositories.IConversationRepository
	users         repositories.IUserRepository
	summaries     summary.IWriter
	validator     *validator.Validate
	log           *slog.Logger
	parallelism   int
}

func NewMessageService(
	cipher envelope.ICipher,
	messages repositories.IMessageRepository,
	conversations repositories.IConversationRepository,
	users repositories.IUserRepository,
	summaries summary.IWriter,
	log *slog.Logger,
	parallelism int,
) *MessageService {
	if parallelism <= 0 {
		parallelism = defaultDecryptParallelism
	}
	return &MessageService{
		cipher:        cipher,
		messages:      messages,
		conversations: conversations,
		users:         users,
		summaries:     summaries,
		validator:     validator.New(),
		log:           log,
		parallelism:   parallelism,
	}
}

// Send stores an encrypted message and returns it as its sender sees it.
// The returned DTO is meant to be broadcast by the transport layer.
func (s *MessageService) Send(ctx context.Context, request SendMessageRequest) (MessageDto, error) {
	// 1. Both identifiers are required
	if err := s.validator.Struct(request); err != nil {
		return MessageDto{}, invalidRequest(err)
	}

	// 2. Whitespace only is not a message
	text := trim(request.Text)
	if text == "" {
		return MessageDto{}, errors.ErrEmptyMessage
	}

	// 3. The conversation must exist
	conv, err := s.conversations.Get(ctx, request.ConversationID)
	if err != nil {
		return MessageDto{}, err
	}

	// 4-5. Removed group members get a dedicated error before the strict check
	if err := guard.AuthorizeSend(conv, request.SenderID); err != nil {
		return MessageDto{}, err
	}

	// 6. Seal under the current conversation key
	sealed, err := s.cipher.Encrypt(ctx, text, envelope.Context{
		ConversationID: conv.ID,
		SenderID:       request.SenderID,
	})
	if err != nil {
		return MessageDto{}, err
	}

	// 7. Append to the log, which assigns id and createdAt
	message, err := s.messages.Append(ctx, conv.ID, request.SenderID, sealed.Ciphertext, sealed.Envelope)
	if err != nil {
		return MessageDto{}, err
	}

	// 8. Snapshot the author as the directory knows it now
	sender, err := s.snapshot(ctx, request.SenderID)
	if err != nil {
		return MessageDto{}, err
	}

	// 9. The message is already durable when this fails: the summary lags
	// until the reconciler catches it up, and the caller still gets the error.
	err = s.summaries.RecordLastMessage(ctx, conv.ID, domain.LastMessage{
		MessageID: message.ID.String(),
		Text:      sealed.EchoPlaintext,
		SenderID:  request.SenderID,
		CreatedAt: message.CreatedAt,
	})
	if err != nil {
		s.log.Error("Summary update failed",
			"conversation_id", conv.ID,
			"message_id", message.ID,
			"error", err)
		return MessageDto{}, fmt.Errorf("record summary: %w", err)
	}

	// 10. Echo through the same path readers use
	echo, err := s.cipher.Decrypt(ctx, message, request.SenderID)
	if err != nil {
		return MessageDto{}, err
	}

	return toMessageDto(message, sender, echo), nil
}

// List returns the whole history of a conversation, oldest first.
// Removed group members keep read access. A single undecryptable message
// fails the call, nothing is silently dropped.
func (s *MessageService) List(ctx context.Context, request GetMessagesRequest) ([]MessageDto, error) {
	if err := s.validator.Struct(request); err != nil {
		return nil, invalidRequest(err)
	}

	conv, err := s.conversations.Get(ctx, request.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := guard.Authorize(conv, request.ViewerID, guard.ModeHistoryTolerant); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	senders, err := s.snapshots(ctx, lo.Uniq(lo.Map(messages, func(m domain.Message, _ int) string {
		return m.SenderID
	})))
	if err != nil {
		return nil, err
	}

	dtos := make([]MessageDto, len(messages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, message := range messages {
		g.Go(func() error {
			text, err := s.cipher.Decrypt(gctx, message, request.ViewerID)
			if err != nil {
				return fmt.Errorf("message %s: %w", message.ID, err)
			}
			dtos[i] = toMessageDto(message, senders[message.SenderID], text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dtos, nil
}

// Summary opens the last message summary of a conversation for a viewer.
// It returns nil when the conversation has no message yet.
func (s *MessageService) Summary(ctx context.Context, request SummaryRequest) (*SummaryDto, error) {
	if err := s.validator.Struct(request); err != nil {
		return nil, invalidRequest(err)
	}

	conv, err := s.conversations.Get(ctx, request.ConversationID)
	if err != nil {
		return nil, err
	}
	if err := guard.Authorize(conv, request.ViewerID, guard.ModeHistoryTolerant); err != nil {
		return nil, err
	}

	last, ok, err := s.summaries.Read(ctx, conv)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return toSummaryDto(last), nil
}

// snapshot falls back to the bare id when the directory has no entry.
func (s *MessageService) snapshot(ctx context.Context, userID string) (domain.SenderSnapshot, error) {
	user, err := s.users.Lookup(ctx, userID)
	if goerrors.Is(err, errors.ErrUserNotFound) {
		return domain.SenderSnapshot{ID: userID}, nil
	}
	if err != nil {
		return domain.SenderSnapshot{}, fmt.Errorf("lookup sender %s: %w", userID, err)
	}
	snapshot := user.Snapshot()
	snapshot.ID = userID
	return snapshot, nil
}

func (s *MessageService) snapshots(ctx context.Context, userIDs []string) (map[string]domain.SenderSnapshot, error) {
	senders := make(map[string]domain.SenderSnapshot, len(userIDs))
	for _, id := range userIDs {
		snapshot, err := s.snapshot(ctx, id)
		if err != nil {
			return nil, err
		}
		senders[id] = snapshot
	}
	return senders, nil
}

// invalidRequest names the missing fields without leaking validator internals.
func invalidRequest(err error) error {
	var fieldErrors validator.ValidationErrors
	if !goerrors.As(err, &fieldErrors) {
		return errors.ErrMissingIdentifiers
	}
	fields := lo.Map(fieldErrors, func(fe validator.FieldError, _ int) string {
		return fe.Field()
	})
	return fmt.Errorf("%w: missing %s", errors.ErrMissingIdentifiers, strings.Join(fields, ", "))
}

// trim strips leading and trailing white space, byte order marks included.
func trim(text string) string {
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}
