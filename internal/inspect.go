package internal

import (
	"chat-vault/storage"
	"fmt"
	"strings"

	"github.com/mama165/sdk-go/database"
)

// InspectMapper renders BadgerDB records for the debug inspector.
// Only metadata is shown: ciphertexts are summarized by their size
// and wrapped keys by their version.
func InspectMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	prefix, _, _ := strings.Cut(key, ":")

	switch prefix {
	case "msg":
		m, err := storage.DecodeMessage(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "MESSAGE"
		row.Detail = fmt.Sprintf("seq=%d sender=%s key=v%d ciphertext=%dB at=%s",
			m.Sequence, m.SenderID, m.Envelope.KeyVersion, len(m.Ciphertext), m.CreatedAt.Format("2006-01-02T15:04:05.000Z"))
	case "conv":
		c, err := storage.DecodeConversation(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "CONVERSATION"
		row.Detail = fmt.Sprintf("kind=%s participants=%d removed=%d", c.Kind, len(c.Participants), len(c.RemovedFor))
		if c.Summary != nil {
			row.Detail += fmt.Sprintf(" last=%s", c.Summary.MessageID)
		}
	case "user":
		u, err := storage.DecodeUser(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "USER"
		handle := u.Username
		if handle == "" {
			handle = u.ID
		}
		row.Detail = fmt.Sprintf("%s (%s)", u.DisplayName, handle)
	case "dek":
		k, err := storage.DecodeWrappedKey(val)
		if err != nil {
			row.Detail = "Error: decode failed"
			return row
		}
		row.Type = "KEY"
		row.Detail = fmt.Sprintf("version=%d retired=%t", k.Version, k.Retired)
	}
	return row
}
