package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
)

// Client holds the runtime configuration for the appstore CLI.
type Client struct {
	ServiceName string
	Env         string
	LogLevel    string
	AWSRegion   string

	// Credentials. When APIKey is empty the CLI resolves it from
	// AWS Secrets Manager under {Env}/appstore/{AppSlug}.
	APIKey  string
	AppSlug string
	UserID  string

	Environment string // production | development
	BaseURL     string
	HTTPTimeout time.Duration

	SecretsCacheTTL time.Duration
}

// Sandbox holds the runtime configuration for the local appstore emulator.
type Sandbox struct {
	ServiceName string
	Env         string
	LogLevel    string
	Port        int

	RedisAddr string
	RedisDB   int
	RedisPass string

	Apps     map[string]string // app slug → api key
	TokenTTL time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int
}

// LoadClient loads CLI configuration from environment variables and optional .env file.
func LoadClient() *Client {
	_ = godotenv.Load()

	return &Client{
		ServiceName:     GetEnv("SERVICE_NAME", "appstore"),
		Env:             GetEnv("ENV", "dev"),
		LogLevel:        GetEnv("LOG_LEVEL", "warn"),
		AWSRegion:       GetEnv("AWS_REGION", "us-east-2"),
		APIKey:          GetEnv("APPSTORE_API_KEY", ""),
		AppSlug:         GetEnv("APPSTORE_APP_SLUG", ""),
		UserID:          GetEnv("APPSTORE_USER_ID", ""),
		Environment:     GetEnv("APPSTORE_ENVIRONMENT", "production"),
		BaseURL:         GetEnv("APPSTORE_BASE_URL", ""),
		HTTPTimeout:     GetEnvDuration("APPSTORE_HTTP_TIMEOUT", 30*time.Second),
		SecretsCacheTTL: GetEnvDuration("SECRETS_CACHE_TTL", 15*time.Minute),
	}
}

// LoadSandbox loads sandbox configuration from environment variables and optional .env file.
func LoadSandbox() (*Sandbox, error) {
	_ = godotenv.Load()

	apps, err := GetEnvPairs("SANDBOX_APPS")
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, fmt.Errorf("SANDBOX_APPS: at least one slug:key entry is required")
	}

	return &Sandbox{
		ServiceName:      GetEnv("SERVICE_NAME", "appstore-sandbox"),
		Env:              GetEnv("ENV", "dev"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		Port:             GetEnvInt("SANDBOX_PORT", 9040),
		RedisAddr:        GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          GetEnvInt("REDIS_DB", 0),
		RedisPass:        GetEnv("REDIS_PASS", ""),
		Apps:             apps,
		TokenTTL:         GetEnvDuration("TOKEN_TTL", time.Hour),
		HTTPReadTimeout:  GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: GetEnvDuration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		HTTPIdleTimeout:  GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
	}, nil
}
