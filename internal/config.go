package internal

import (
	"chat-vault/keyring"
	"fmt"
	"time"
)

// Config of the chatd server, read from the environment.
type Config struct {
	BadgerFilepath     string        `env:"BADGER_FILEPATH,required=true"`
	MasterKey          string        `env:"MASTER_KEY,required=true"`
	JWTSecret          string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration  time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	LogLevel           string        `env:"LOG_LEVEL,default=INFO"`
	Host               string        `env:"HOST,default=0.0.0.0"`
	Port               int           `env:"PORT,default=50051"`
	DecryptParallelism int           `env:"DECRYPT_PARALLELISM,default=8"`
	ReconcileInterval  time.Duration `env:"RECONCILE_INTERVAL,default=1m"`
	HealthInterval     time.Duration `env:"HEALTH_INTERVAL,default=30s"`
	RestartInterval    time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	DebugPort          int           `env:"DEBUG_PORT"`
}

// Validate checks what the env tags cannot express.
func (c Config) Validate() error {
	if _, err := keyring.ParseMasterKey(c.MasterKey); err != nil {
		return fmt.Errorf("MASTER_KEY must be 64 hex characters: %w", err)
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.ReconcileInterval <= 0 || c.HealthInterval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL and HEALTH_INTERVAL must be positive")
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
