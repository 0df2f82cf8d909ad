package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = timeout
	}
}

// WithDatabasePath points the sqlite store at path.
func WithDatabasePath(path string) Option {
	return func(c *Config) {
		c.Database.Path = path
	}
}
