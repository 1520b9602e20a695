package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Chat     ChatConfig
	LogLevel string
}

type ServerConfig struct {
	HTTPAddr string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type ChatConfig struct {
	ReconnectDelay time.Duration
	TypingTimeout  time.Duration
	HistoryLimit   int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Chat: ChatConfig{
			ReconnectDelay: getEnvDuration("CHAT_RECONNECT_DELAY", 3*time.Second),
			TypingTimeout:  getEnvDuration("CHAT_TYPING_TIMEOUT", 3*time.Second),
			HistoryLimit:   getEnvInt("CHAT_HISTORY_LIMIT", 100),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
