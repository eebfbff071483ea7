package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the AIDSENSE backend.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis cache configuration
	Redis RedisConfig `yaml:"redis"`

	// Auth configuration
	Auth AuthConfig `yaml:"auth"`

	// NLP text-analysis service configuration
	NLP NLPConfig `yaml:"nlp"`

	// Chat LLM / embedding endpoints
	Chat ChatConfig `yaml:"chat"`

	// Media upload configuration
	Media MediaConfig `yaml:"media"`

	// Stats cache configuration
	Stats StatsConfig `yaml:"stats"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"aidsense"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"aidsense"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// URL builds a connection string for pgx.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AuthConfig holds bearer-token verification configuration.
// Tokens are issued by the identity collaborator; this service only verifies.
type AuthConfig struct {
	// JWTSecret is the shared HS256 signing secret.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"` // Secret - not in YAML
}

// NLPConfig holds the external text-analysis service configuration.
type NLPConfig struct {
	// Endpoint is the base URL of the SOS text-processing service.
	Endpoint string `yaml:"endpoint" env:"NLP_ENDPOINT" env-default:"http://127.0.0.1:8001"`
	// TimeoutSeconds bounds each enrichment call.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"NLP_TIMEOUT_SECONDS" env-default:"30"`
}

// ChatConfig holds the OpenAI-compatible chat/embedding endpoint configuration.
type ChatConfig struct {
	BaseURL        string `yaml:"base_url" env:"CHAT_BASE_URL" env-default:""`
	Model          string `yaml:"model" env:"CHAT_MODEL" env-default:""`
	EmbeddingModel string `yaml:"embedding_model" env:"CHAT_EMBEDDING_MODEL" env-default:"text-embedding-nomic-embed-text-v1.5"`
	APIKey         string `yaml:"-" env:"CHAT_API_KEY"` // Secret - not in YAML
}

// IsAvailable returns true if the chat endpoint is configured.
func (c *ChatConfig) IsAvailable() bool {
	return c.BaseURL != "" && c.Model != ""
}

// MediaConfig holds the media store (image host) configuration.
type MediaConfig struct {
	// UploadURL is the unsigned upload endpoint, e.g.
	// https://api.cloudinary.com/v1_1/<cloud>/image/upload
	UploadURL    string `yaml:"upload_url" env:"MEDIA_UPLOAD_URL" env-default:""`
	UploadPreset string `yaml:"upload_preset" env:"MEDIA_UPLOAD_PRESET" env-default:""`
}

// StatsConfig holds the stats cache configuration.
type StatsConfig struct {
	// CacheTTLSeconds is how long aggregate counts stay cached.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" env:"STATS_CACHE_TTL_SECONDS" env-default:"300"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	return cfg, nil
}
