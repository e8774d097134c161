package internal

import (
	"chat-vault/domain"
	"chat-vault/storage"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestInspectMapper_Never_Shows_Ciphertext(t *testing.T) {
	req := require.New(t)

	// Given a stored message
	ciphertext := []byte("opaque-bytes-that-must-stay-hidden")
	message := domain.Message{
		ID:             uuid.New(),
		ConversationID: "c1",
		SenderID:       "alice",
		Ciphertext:     ciphertext,
		Envelope:       domain.Envelope{Algorithm: "xchacha20poly1305-hkdf-sha256", KeyID: "c1", KeyVersion: 2},
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Sequence:       7,
	}

	// When it is mapped for the inspector
	row := InspectMapper("msg:c1:00000000000000000007", storage.EncodeMessage(message))

	// Then only metadata is shown
	req.Equal("MESSAGE", row.Type)
	req.Contains(row.Detail, "seq=7")
	req.Contains(row.Detail, "key=v2")
	req.NotContains(row.Detail, string(ciphertext))
}

func TestInspectMapper_Wrapped_Key(t *testing.T) {
	req := require.New(t)

	row := InspectMapper("dek:c1:0000000003", storage.EncodeWrappedKey(storage.WrappedKey{
		Version: 3,
		Nonce:   []byte("n"),
		Blob:    []byte("secret-blob"),
		Retired: true,
	}))

	req.Equal("KEY", row.Type)
	req.Equal("version=3 retired=true", row.Detail)
}

func TestInspectMapper_Conversation(t *testing.T) {
	req := require.New(t)

	row := InspectMapper("conv:c1", storage.EncodeConversation(domain.Conversation{
		ID:           "c1",
		Kind:         domain.KindGroup,
		Participants: []string{"alice", "bob", "carol"},
	}))

	req.Equal("CONVERSATION", row.Type)
	req.Contains(row.Detail, "participants=3")
}

func TestInspectMapper_User_Without_Username_Falls_Back_To_ID(t *testing.T) {
	req := require.New(t)

	row := InspectMapper("user:alice", storage.EncodeUser(domain.User{ID: "alice", DisplayName: "Alice"}))

	req.Equal("USER", row.Type)
	req.Equal("Alice (alice)", row.Detail)
}
