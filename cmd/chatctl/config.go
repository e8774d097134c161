package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr string `envconfig:"CHATD_ADDR" default:"localhost:50051"`
	// JWT_SECRET is shared with chatd so that chatctl can act as any user.
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	TokenDuration time.Duration `envconfig:"AUTH_TOKEN_DURATION" default:"1h"`
	// BADGER_FILEPATH and MASTER_KEY are only needed by the offline commands.
	BadgerFilepath string        `envconfig:"BADGER_FILEPATH"`
	MasterKey      string        `envconfig:"MASTER_KEY"`
	Timeout        time.Duration `envconfig:"CHATCTL_TIMEOUT" default:"10s"`
	// CHATCTL_COLOURS enables colorized output
	Colours bool `envconfig:"CHATCTL_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
