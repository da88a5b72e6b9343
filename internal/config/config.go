package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Ticketing TicketingConfig
	Webhook   WebhookConfig
	Sync      SyncConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers []string
	Enabled bool
}

// TicketingConfig carries credentials for the upstream ticketing platform API.
type TicketingConfig struct {
	BaseURL     string
	APIKey      string
	APISecret   string
	GroupID     int64
	Timeout     time.Duration
	RetryMax    int
	RetryWait   time.Duration
	PageSize    int
	PageDelay   time.Duration
}

type WebhookConfig struct {
	Secret   string
	Insecure bool
}

type SyncConfig struct {
	Concurrency int
	// Events with an ID at or below this floor are manually curated and are
	// never marked removed when absent from the upstream fetch.
	CustomEventIDMax int64
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8086"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:          getEnv("POSTGRES_DSN", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			Enabled: getEnvBool("KAFKA_ENABLED", true),
		},
		Ticketing: TicketingConfig{
			BaseURL:   getEnv("TICKETING_API_BASE", "https://api.ticketing.example.com"),
			APIKey:    getEnv("TICKETING_API_KEY", ""),
			APISecret: getEnv("TICKETING_API_SECRET", ""),
			GroupID:   int64(getEnvInt("TICKETING_GROUP_ID", 0)),
			Timeout:   time.Duration(getEnvInt("TICKETING_TIMEOUT_SECONDS", 10)) * time.Second,
			RetryMax:  getEnvInt("SYNC_RETRY_MAX", 3),
			RetryWait: time.Duration(getEnvInt("SYNC_RETRY_WAIT_MS", 500)) * time.Millisecond,
			PageSize:  getEnvInt("SYNC_PAGE_SIZE", 100),
			PageDelay: time.Duration(getEnvInt("SYNC_PAGE_DELAY_MS", 200)) * time.Millisecond,
		},
		Webhook: WebhookConfig{
			Secret:   getEnv("WEBHOOK_SECRET", ""),
			Insecure: getEnvBool("WEBHOOK_INSECURE", false),
		},
		Sync: SyncConfig{
			Concurrency:      getEnvInt("SYNC_CONCURRENCY", 10),
			CustomEventIDMax: int64(getEnvInt("CUSTOM_EVENT_ID_MAX", 1000)),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
