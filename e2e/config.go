package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

// Config points the suite at a running chatd whose store was seeded with
// a direct conversation between Sender and Recipient.
type Config struct {
	ChatdAddr string `envconfig:"CHATD_ADDR"`
	JWTSecret string `envconfig:"JWT_SECRET"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours        bool   `envconfig:"E2E_COLOURS" default:"true"`
	ConversationID string `envconfig:"E2E_CONVERSATION_ID" default:"e2e-direct"`
	Sender         string `envconfig:"E2E_SENDER" default:"e2e-alice"`
	Recipient      string `envconfig:"E2E_RECIPIENT" default:"e2e-bob"`
	Outsider       string `envconfig:"E2E_OUTSIDER" default:"e2e-mallory"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
