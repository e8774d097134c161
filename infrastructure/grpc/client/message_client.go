package client

import (
	pb "chat-vault/infrastructure/grpc/chatvaultv1"
	"chat-vault/services"
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// MessageClient calls chatvault.v1.MessageService as a single authenticated user.
type MessageClient struct {
	client pb.MessageServiceClient
	token  string
}

func NewMessageClient(conn grpc.ClientConnInterface, token string) *MessageClient {
	return &MessageClient{client: pb.NewMessageServiceClient(conn), token: token}
}

func (c *MessageClient) Send(ctx context.Context, conversationID, text string) (services.MessageDto, error) {
	req, err := structpb.NewStruct(map[string]any{
		pb.FieldConversationID: conversationID,
		pb.FieldText:           text,
	})
	if err != nil {
		return services.MessageDto{}, err
	}
	resp, err := c.client.SendMessage(c.authenticated(ctx), req)
	if err != nil {
		return services.MessageDto{}, err
	}
	return toMessageDto(resp.GetFields()[pb.FieldMessage].GetStructValue())
}

func (c *MessageClient) History(ctx context.Context, conversationID string) ([]services.MessageDto, error) {
	resp, err := c.client.GetMessages(c.authenticated(ctx), conversationRequest(conversationID))
	if err != nil {
		return nil, err
	}
	values := resp.GetFields()[pb.FieldMessages].GetListValue().GetValues()
	dtos := make([]services.MessageDto, 0, len(values))
	for _, value := range values {
		dto, err := toMessageDto(value.GetStructValue())
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

// Summary returns nil when the conversation has no message yet.
func (c *MessageClient) Summary(ctx context.Context, conversationID string) (*services.SummaryDto, error) {
	resp, err := c.client.GetSummary(c.authenticated(ctx), conversationRequest(conversationID))
	if err != nil {
		return nil, err
	}
	fields := resp.GetFields()[pb.FieldSummary].GetStructValue().GetFields()
	if fields == nil {
		return nil, nil
	}
	createdAt, err := parseTime(fields[pb.FieldCreatedAt])
	if err != nil {
		return nil, err
	}
	return &services.SummaryDto{
		MessageID: fields[pb.FieldMessageID].GetStringValue(),
		Text:      fields[pb.FieldText].GetStringValue(),
		SenderID:  fields[pb.FieldSenderID].GetStringValue(),
		CreatedAt: createdAt,
	}, nil
}

func (c *MessageClient) authenticated(ctx context.Context) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

func conversationRequest(conversationID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		pb.FieldConversationID: structpb.NewStringValue(conversationID),
	}}
}

func toMessageDto(s *structpb.Struct) (services.MessageDto, error) {
	fields := s.GetFields()
	if fields == nil {
		return services.MessageDto{}, fmt.Errorf("malformed message payload")
	}
	createdAt, err := parseTime(fields[pb.FieldCreatedAt])
	if err != nil {
		return services.MessageDto{}, err
	}
	sender := fields[pb.FieldSender].GetStructValue().GetFields()
	return services.MessageDto{
		ID:             fields[pb.FieldID].GetStringValue(),
		ConversationID: fields[pb.FieldConversationID].GetStringValue(),
		SenderID:       fields[pb.FieldSenderID].GetStringValue(),
		Sender: services.SenderDto{
			ID:          sender[pb.FieldID].GetStringValue(),
			DisplayName: optional(sender[pb.FieldDisplayName]),
			Username:    optional(sender[pb.FieldUsername]),
			Role:        optional(sender[pb.FieldRole]),
			Department:  optional(sender[pb.FieldDepartment]),
			Email:       optional(sender[pb.FieldEmail]),
		},
		Text:      fields[pb.FieldText].GetStringValue(),
		CreatedAt: createdAt,
	}, nil
}

func optional(v *structpb.Value) *string {
	if v == nil {
		return nil
	}
	s := v.GetStringValue()
	return &s
}

func parseTime(v *structpb.Value) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v.GetStringValue())
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed createdAt: %w", err)
	}
	return t.UTC(), nil
}
