package services

import (
	"chat-vault/domain"
	"time"
)

type SendMessageRequest struct {
	ConversationID string `validate:"required"`
	SenderID       string `validate:"required"`
	Text           string
}

type GetMessagesRequest struct {
	ConversationID string `validate:"required"`
	ViewerID       string `validate:"required"`
}

type SummaryRequest struct {
	ConversationID string `validate:"required"`
	ViewerID       string `validate:"required"`
}

// SenderDto is the author snapshot taken from the user directory.
// Only ID is guaranteed.
type SenderDto struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"displayName,omitempty"`
	Username    *string `json:"username,omitempty"`
	Role        *string `json:"role,omitempty"`
	Department  *string `json:"department,omitempty"`
	Email       *string `json:"email,omitempty"`
}

// MessageDto is what transports forward to clients. It never carries ciphertext.
type MessageDto struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Sender         SenderDto `json:"sender"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

type SummaryDto struct {
	MessageID string    `json:"messageId"`
	Text      string    `json:"text"`
	SenderID  string    `json:"senderId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSenderDto(s domain.SenderSnapshot) SenderDto {
	return SenderDto{
		ID:          s.ID,
		DisplayName: s.DisplayName,
		Username:    s.Username,
		Role:        s.Role,
		Department:  s.Department,
		Email:       s.Email,
	}
}

func toMessageDto(m domain.Message, sender domain.SenderSnapshot, text string) MessageDto {
	return MessageDto{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Sender:         toSenderDto(sender),
		Text:           text,
		CreatedAt:      m.CreatedAt,
	}
}

func toSummaryDto(last domain.LastMessage) *SummaryDto {
	return &SummaryDto{
		MessageID: last.MessageID,
		Text:      last.Text,
		SenderID:  last.SenderID,
		CreatedAt: last.CreatedAt,
	}
}
