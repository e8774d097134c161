// Package storage holds the on-disk encoding of every record kept in BadgerDB.
// Records use the protobuf wire format so fields can be added without
// breaking what is already persisted. Unknown fields are skipped on decode.
package storage

import (
	"chat-vault/domain"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the message record.
const (
	messageID           protowire.Number = 1
	messageConversation protowire.Number = 2
	messageSender       protowire.Number = 3
	messageCiphertext   protowire.Number = 4
	messageEnvelope     protowire.Number = 5
	messageCreatedAt    protowire.Number = 6
	messageSequence     protowire.Number = 7
)

const (
	envelopeAlgorithm  protowire.Number = 1
	envelopeKeyID      protowire.Number = 2
	envelopeKeyVersion protowire.Number = 3
	envelopeNonce      protowire.Number = 4
)

const (
	conversationID           protowire.Number = 1
	conversationKind         protowire.Number = 2
	conversationParticipants protowire.Number = 3
	conversationRemovedFor   protowire.Number = 4
	conversationSummary      protowire.Number = 5
	conversationUpdatedAt    protowire.Number = 6
)

const (
	summaryMessageID  protowire.Number = 1
	summarySender     protowire.Number = 2
	summaryCreatedAt  protowire.Number = 3
	summaryCiphertext protowire.Number = 4
	summaryEnvelope   protowire.Number = 5
)

const (
	userID          protowire.Number = 1
	userDisplayName protowire.Number = 2
	userUsername    protowire.Number = 3
	userRole        protowire.Number = 4
	userDepartment  protowire.Number = 5
	userEmail       protowire.Number = 6
)

const (
	wrappedKeyVersion   protowire.Number = 1
	wrappedKeyNonce     protowire.Number = 2
	wrappedKeyBlob      protowire.Number = 3
	wrappedKeyCreatedAt protowire.Number = 4
	wrappedKeyRetired   protowire.Number = 5
)

// WrappedKey is a conversation data key sealed by the master key.
type WrappedKey struct {
	Version   uint32
	Nonce     []byte
	Blob      []byte
	CreatedAt time.Time
	Retired   bool
}

func EncodeMessage(m domain.Message) []byte {
	var b []byte
	b = appendString(b, messageID, m.ID.String())
	b = appendString(b, messageConversation, m.ConversationID)
	b = appendString(b, messageSender, m.SenderID)
	b = appendBytes(b, messageCiphertext, m.Ciphertext)
	b = appendBytes(b, messageEnvelope, encodeEnvelope(m.Envelope))
	b = appendTime(b, messageCreatedAt, m.CreatedAt)
	b = appendVarint(b, messageSequence, m.Sequence)
	return b
}

func DecodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	err := decodeFields(b, func(f field) error {
		switch f.num {
		case messageID:
			id, err := uuid.ParseBytes(f.bytes)
			if err != nil {
				return err
			}
			m.ID = id
		case messageConversation:
			m.ConversationID = string(f.bytes)
		case messageSender:
			m.SenderID = string(f.bytes)
		case messageCiphertext:
			m.Ciphertext = clone(f.bytes)
		case messageEnvelope:
			env, err := decodeEnvelope(f.bytes)
			if err != nil {
				return err
			}
			m.Envelope = env
		case messageCreatedAt:
			m.CreatedAt = toTime(f.varint)
		case messageSequence:
			m.Sequence = f.varint
		}
		return nil
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("decode message: %w", err)
	}
	return m, nil
}

func encodeEnvelope(e domain.Envelope) []byte {
	var b []byte
	b = appendString(b, envelopeAlgorithm, e.Algorithm)
	b = appendString(b, envelopeKeyID, e.KeyID)
	b = appendVarint(b, envelopeKeyVersion, uint64(e.KeyVersion))
	b = appendBytes(b, envelopeNonce, e.Nonce)
	return b
}

func decodeEnvelope(b []byte) (domain.Envelope, error) {
	var e domain.Envelope
	err := decodeFields(b, func(f field) error {
		switch f.num {
		case envelopeAlgorithm:
			e.Algorithm = string(f.bytes)
		case envelopeKeyID:
			e.KeyID = string(f.bytes)
		case envelopeKeyVersion:
			e.KeyVersion = uint32(f.varint)
		case envelopeNonce:
			e.Nonce = clone(f.bytes)
		}
		return nil
	})
	return e, err
}

func EncodeConversation(c domain.Conversation) []byte {
	var b []byte
	b = appendString(b, conversationID, c.ID)
	b = appendString(b, conversationKind, string(c.Kind))
	for _, p := range c.Participants {
		b = appendString(b, conversationParticipants, p)
	}
	for _, r := range c.RemovedFor {
		b = appendString(b, conversationRemovedFor, r)
	}
	if c.Summary != nil {
		b = appendBytes(b, conversationSummary, encodeSummary(*c.Summary))
	}
	b = appendTime(b, conversationUpdatedAt, c.UpdatedAt)
	return b
}

func DecodeConversation(b []byte) (domain.Conversation, error) {
	var c domain.Conversation
	err := decodeFields(b, func(f field) error {
		switch f.num {
		case conversationID:
			c.ID = string(f.bytes)
		case conversationKind:
			c.Kind = domain.ConversationKind(f.bytes)
		case conversationParticipants:
			c.Participants = append(c.Participants, string(f.bytes))
		case conversationRemovedFor:
			c.RemovedFor = append(c.RemovedFor, string(f.bytes))
		case conversationSummary:
			s, err := decodeSummary(f.bytes)
			if err != nil {
				return err
			}
			c.Summary = &s
		case conversationUpdatedAt:
			c.UpdatedAt = toTime(f.varint)
		}
		return nil
	})
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("decode conversation: %w", err)
	}
	return c, nil
}

func encodeSummary(s domain.SealedSummary) []byte {
	var b []byte
	b = appendString(b, summaryMessageID, s.MessageID)
	b = appendString(b, summarySender, s.SenderID)
	b = appendTime(b, summaryCreatedAt, s.CreatedAt)
	b = appendBytes(b, summaryCiphertext, s.Ciphertext)
	b = appendBytes(b, summaryEnvelope, encodeEnvelope(s.Envelope))
	return b
}

func decodeSummary(b []byte) (domain.SealedSummary, error) {
	var s domain.SealedSummary
	err := decodeFields(b, func(f field) error {
		switch f.num {
		case summaryMessageID:
			s.MessageID = string(f.bytes)
		case summarySender:
			s.SenderID = string(f.bytes)
		case summaryCreatedAt:
			s.CreatedAt = toTime(f.varint)
		case summaryCiphertext:
			s.Ciphertext = clone(f.bytes)
		case summaryEnvelope:
			env, err := decodeEnvelope(f.bytes)
			if err != nil {
				return err
			}
			s.Envelope = env
		}
		return nil
	})
	return s, err
}

func EncodeUser(u domain.User) []byte {
	var b []byte
	b = appendString(b, userID, u.ID)
	b = appendString(b, userDisplayName, u.DisplayName)
	b = appendString(b, userUsername, u.Username)
	b = appendString(b, userRole, u.Role)
	b = appendString(b, userDepartment, u.Department)
	b = appendString(b, userEmail, u.Email)
	return b
}

func DecodeUser(b []byte) (domain.User, error) {
	var u domain.User
	err := decodeFields(b, func(f field) error {
		switch f.num {
		case userID:
			u.ID = string(f.bytes)
		case userDisplayName:
			u.DisplayName = string(f.bytes)
		case userUsername:
			u.Username = string(f.bytes)
		case userRole:
			u.Role = string(f.bytes)
		case userDepartment:
			u.Department = string(f.bytes)
		case userEmail:
			u.Email = string(f.bytes)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("decode user: %w", err)
	}
	return u, nil
}

func EncodeWrappedKey(k WrappedKey) []byte {
	var b []byte
	b = appendVarint(b, wrappedKeyVersion, uint64(k.Version))
	b = appendBytes(b, wrappedKeyNonce, k.Nonce)
	b = appendBytes(b, wrappedKeyBlob, k.Blob)
	b = appendTime(b, wrappedKeyCreatedAt, k.CreatedAt)
	if k.Retired {
		b = appendVarint(b, wrappedKeyRetired, 1)
	}
	return b
}

func DecodeWrappedKey(b []byte) (WrappedKey, error) {
	var k WrappedKey
	err := decodeFields(b, func(f field) error {
		switch f.num {
		case wrappedKeyVersion:
			k.Version = uint32(f.varint)
		case wrappedKeyNonce:
			k.Nonce = clone(f.bytes)
		case wrappedKeyBlob:
			k.Blob = clone(f.bytes)
		case wrappedKeyCreatedAt:
			k.CreatedAt = toTime(f.varint)
		case wrappedKeyRetired:
			k.Retired = f.varint != 0
		}
		return nil
	})
	if err != nil {
		return WrappedKey{}, fmt.Errorf("decode wrapped key: %w", err)
	}
	return k, nil
}

type field struct {
	num    protowire.Number
	bytes  []byte
	varint uint64
}

// decodeFields walks a wire-format buffer and hands every length-delimited
// or varint field to fn. Other wire types are skipped.
func decodeFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num}
		switch typ {
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendTime(b []byte, num protowire.Number, t time.Time) []byte {
	if t.IsZero() {
		return b
	}
	return appendVarint(b, num, uint64(t.UnixNano()))
}

func toTime(v uint64) time.Time {
	return time.Unix(0, int64(v)).UTC()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
