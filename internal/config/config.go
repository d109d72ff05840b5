package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jrsteele09/go-andbang-auth/auth"
)

type Config interface {
	EnvConfig
	AndbangConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type AndbangConfig interface {
	GetAuthConfig() auth.Config
}

type SessionConfig interface {
	GetSessionSecret() []byte
	GetRedisAddr() string
	GetMaxSessionAge() time.Duration
}

type mainConfig struct {
	EnvVars
	Andbang
	Session
}

// New reads the configuration from the environment.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}
