package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application, loaded from
// environment variables with local-development defaults.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Messaging MessagingConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type MessagingConfig struct {
	// EditWindow bounds how long a sender may edit a message after sending.
	EditWindow time.Duration
	// SendLimit / SendWindow cap messages per sender per conversation.
	SendLimit  int
	SendWindow time.Duration
	// TypingTTL is the window after which a typing indicator is stale.
	TypingTTL time.Duration
	// DefaultPageSize / MaxPageSize bound cursor pagination.
	DefaultPageSize int
	MaxPageSize     int
}

type StorageConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	PublicURL string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "campuschat"),
			Password: getEnv("DB_PASSWORD", "campuschat"),
			Name:     getEnv("DB_NAME", "campuschat"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
		},
		Messaging: MessagingConfig{
			EditWindow:      getEnvAsDuration("MESSAGE_EDIT_WINDOW", 15*time.Minute),
			SendLimit:       getEnvAsInt("MESSAGE_SEND_LIMIT", 30),
			SendWindow:      getEnvAsDuration("MESSAGE_SEND_WINDOW", time.Minute),
			TypingTTL:       getEnvAsDuration("TYPING_TTL", 5*time.Second),
			DefaultPageSize: getEnvAsInt("MESSAGE_PAGE_SIZE", 50),
			MaxPageSize:     getEnvAsInt("MESSAGE_MAX_PAGE_SIZE", 100),
		},
		Storage: StorageConfig{
			Bucket:    getEnv("S3_BUCKET", "campuschat-attachments"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
