package main

import (
	"fmt"
	"time"
)

type Config struct {
	Host         string        `env:"CHAT_SERVER_HOST,default=localhost"`
	Port         int           `env:"CHAT_SERVER_PORT,default=8080"`
	PollInterval time.Duration `env:"POLL_INTERVAL,default=1s"`
	LogLevel     string        `env:"LOG_LEVEL,default=WARN"`
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
