package e2e

import (
	"chat-vault/infrastructure/grpc/client"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type testDirectConversationSuite struct {
	BaseGrpcSuite
}

func TestDirectConversationSuite(t *testing.T) {
	suite.Run(t, &testDirectConversationSuite{})
}

func (s *testDirectConversationSuite) TestSend_Then_Read_As_Recipient() {
	text := "e2e " + uuid.New().String()
	var sentID string

	s.As(s.Config.Sender, func(ctx context.Context, c *client.MessageClient) {
		message, err := c.Send(ctx, s.Config.ConversationID, "  "+text+"\n")
		s.Require().NoError(err)
		s.Equal(text, message.Text)
		s.Equal(s.Config.Sender, message.SenderID)
		sentID = message.ID
	})

	s.As(s.Config.Recipient, func(ctx context.Context, c *client.MessageClient) {
		messages, err := c.History(ctx, s.Config.ConversationID)
		s.Require().NoError(err)
		s.Require().NotEmpty(messages)
		last := messages[len(messages)-1]
		s.Equal(sentID, last.ID)
		s.Equal(text, last.Text)

		summary, err := c.Summary(ctx, s.Config.ConversationID)
		s.Require().NoError(err)
		s.Require().NotNil(summary)
		s.Equal(sentID, summary.MessageID)
		s.Equal(text, summary.Text)
	})
}

func (s *testDirectConversationSuite) TestOutsider_Is_Denied() {
	s.As(s.Config.Outsider, func(ctx context.Context, c *client.MessageClient) {
		_, err := c.Send(ctx, s.Config.ConversationID, "let me in")
		s.Equal(codes.PermissionDenied, status.Code(err))

		_, err = c.History(ctx, s.Config.ConversationID)
		s.Equal(codes.PermissionDenied, status.Code(err))
	})
}

func (s *testDirectConversationSuite) TestBlank_Message_Is_Rejected() {
	s.As(s.Config.Sender, func(ctx context.Context, c *client.MessageClient) {
		_, err := c.Send(ctx, s.Config.ConversationID, " \t\n")
		s.Equal(codes.InvalidArgument, status.Code(err))
	})
}
