// Package chatvaultv1 describes the chatvault.v1.MessageService contract.
// Payloads are google.protobuf.Struct documents whose keys are listed below,
// so any gRPC client can call the service without generated stubs.
package chatvaultv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "chatvault.v1.MessageService"

const (
	MessageService_SendMessage_FullMethodName = "/chatvault.v1.MessageService/SendMessage"
	MessageService_GetMessages_FullMethodName = "/chatvault.v1.MessageService/GetMessages"
	MessageService_GetSummary_FullMethodName  = "/chatvault.v1.MessageService/GetSummary"
)

// Payload keys.
const (
	FieldConversationID = "conversationId"
	FieldText           = "text"
	FieldID             = "id"
	FieldMessageID      = "messageId"
	FieldSenderID       = "senderId"
	FieldSender         = "sender"
	FieldDisplayName    = "displayName"
	FieldUsername       = "username"
	FieldRole           = "role"
	FieldDepartment     = "department"
	FieldEmail          = "email"
	FieldCreatedAt      = "createdAt"
	FieldMessage        = "message"
	FieldMessages       = "messages"
	FieldSummary        = "summary"
)

type MessageServiceServer interface {
	SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetMessages(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterMessageServiceServer(s grpc.ServiceRegistrar, srv MessageServiceServer) {
	s.RegisterService(&MessageService_ServiceDesc, srv)
}

var MessageService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SendMessage",
			Handler:    unaryHandler(MessageService_SendMessage_FullMethodName, MessageServiceServer.SendMessage),
		},
		{
			MethodName: "GetMessages",
			Handler:    unaryHandler(MessageService_GetMessages_FullMethodName, MessageServiceServer.GetMessages),
		},
		{
			MethodName: "GetSummary",
			Handler:    unaryHandler(MessageService_GetSummary_FullMethodName, MessageServiceServer.GetSummary),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chatvault/v1/message_service.proto",
}

type unaryMethod func(MessageServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(MessageServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return method(srv.(MessageServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type MessageServiceClient interface {
	SendMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetMessages(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type messageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageServiceClient(cc grpc.ClientConnInterface) MessageServiceClient {
	return &messageServiceClient{cc: cc}
}

func (c *messageServiceClient) SendMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MessageService_SendMessage_FullMethodName, in, opts)
}

func (c *messageServiceClient) GetMessages(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MessageService_GetMessages_FullMethodName, in, opts)
}

func (c *messageServiceClient) GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MessageService_GetSummary_FullMethodName, in, opts)
}

func (c *messageServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
