package server

import (
	"chat-vault/auth"
	"chat-vault/errors"
	pb "chat-vault/infrastructure/grpc/chatvaultv1"
	"chat-vault/services"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// MessageServer exposes the message service over gRPC.
// The acting user always comes from the authenticated context, never from the payload.
// Broadcasting the sent message to other participants is left to the caller.
type MessageServer struct {
	service services.IMessageService
	log     *slog.Logger
}

func NewMessageServer(log *slog.Logger, service services.IMessageService) *MessageServer {
	return &MessageServer{service: service, log: log}
}

func (s *MessageServer) SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	conversationID, err := stringField(req, pb.FieldConversationID, false)
	if err != nil {
		return nil, s.fail("SendMessage", err)
	}
	text, err := stringField(req, pb.FieldText, true)
	if err != nil {
		return nil, s.fail("SendMessage", err)
	}

	dto, err := s.service.Send(ctx, services.SendMessageRequest{
		ConversationID: conversationID,
		SenderID:       actorID,
		Text:           text,
	})
	if err != nil {
		return nil, s.fail("SendMessage", err)
	}
	return s.reply(map[string]any{pb.FieldMessage: messageFields(dto)})
}

func (s *MessageServer) GetMessages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	conversationID, err := stringField(req, pb.FieldConversationID, false)
	if err != nil {
		return nil, s.fail("GetMessages", err)
	}

	dtos, err := s.service.List(ctx, services.GetMessagesRequest{
		ConversationID: conversationID,
		ViewerID:       actorID,
	})
	if err != nil {
		return nil, s.fail("GetMessages", err)
	}
	messages := lo.Map(dtos, func(dto services.MessageDto, _ int) any {
		return messageFields(dto)
	})
	return s.reply(map[string]any{pb.FieldMessages: messages})
}

func (s *MessageServer) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	conversationID, err := stringField(req, pb.FieldConversationID, false)
	if err != nil {
		return nil, s.fail("GetSummary", err)
	}

	dto, err := s.service.Summary(ctx, services.SummaryRequest{
		ConversationID: conversationID,
		ViewerID:       actorID,
	})
	if err != nil {
		return nil, s.fail("GetSummary", err)
	}
	var summary any
	if dto != nil {
		summary = map[string]any{
			pb.FieldMessageID: dto.MessageID,
			pb.FieldText:      dto.Text,
			pb.FieldSenderID:  dto.SenderID,
			pb.FieldCreatedAt: dto.CreatedAt.Format(time.RFC3339Nano),
		}
	}
	return s.reply(map[string]any{pb.FieldSummary: summary})
}

// fail maps a service error to its gRPC status. Server side failures are
// logged here since their detail is not sent to the client.
func (s *MessageServer) fail(method string, err error) error {
	mapped := errors.MapToGRPCError(err)
	switch status.Code(mapped) {
	case codes.Internal, codes.DataLoss:
		s.log.Error("Request failed", "method", method, "error", err)
	}
	return mapped
}

func (s *MessageServer) reply(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, s.fail("reply", err)
	}
	return out, nil
}

func actor(ctx context.Context) (string, error) {
	userID, ok := auth.UserID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "missing authenticated user")
	}
	return userID, nil
}

// stringField reads a string value. An absent optional field reads as "".
func stringField(req *structpb.Struct, key string, required bool) (string, error) {
	value, ok := req.GetFields()[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: %s is required", errors.ErrInvalidArgument, key)
		}
		return "", nil
	}
	str, ok := value.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", errors.ErrInvalidArgument, key)
	}
	return str.StringValue, nil
}

func messageFields(dto services.MessageDto) map[string]any {
	sender := map[string]any{pb.FieldID: dto.Sender.ID}
	optional := map[string]*string{
		pb.FieldDisplayName: dto.Sender.DisplayName,
		pb.FieldUsername:    dto.Sender.Username,
		pb.FieldRole:        dto.Sender.Role,
		pb.FieldDepartment:  dto.Sender.Department,
		pb.FieldEmail:       dto.Sender.Email,
	}
	for key, value := range optional {
		if value != nil {
			sender[key] = *value
		}
	}
	return map[string]any{
		pb.FieldID:             dto.ID,
		pb.FieldConversationID: dto.ConversationID,
		pb.FieldSenderID:       dto.SenderID,
		pb.FieldSender:         sender,
		pb.FieldText:           dto.Text,
		pb.FieldCreatedAt:      dto.CreatedAt.Format(time.RFC3339Nano),
	}
}
