package config

import "time"

type Session struct {
	Secret    string        `env:"SESSION_SECRET"`
	RedisAddr string        `env:"REDIS_ADDR"`
	MaxAge    time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
}

var _ SessionConfig = Session{}

func (s Session) GetSessionSecret() []byte {
	return []byte(s.Secret)
}

// GetRedisAddr is empty when sessions should stay in memory.
func (s Session) GetRedisAddr() string {
	return s.RedisAddr
}

func (s Session) GetMaxSessionAge() time.Duration {
	return s.MaxAge
}
