package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the complete runtime configuration, read from the environment.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"debug"`

	Database Database
	Auth     Auth
	Storage  Storage
	Log      Log
}

type Database struct {
	Driver   string `envconfig:"DB_DRIVER" default:"postgres"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASS" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"chatapp"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	Path     string `envconfig:"DB_PATH" default:"chat.db"`
	MaxOpen  int    `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdle  int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
}

type Auth struct {
	JWTSecret  string        `envconfig:"JWT_SECRET"`
	TokenTTL   time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	TokenStore string        `envconfig:"TOKEN_STORE" default:"database"`
	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB    int           `envconfig:"REDIS_DB" default:"0"`
}

type Storage struct {
	Driver      string `envconfig:"STORAGE_DRIVER" default:"local"`
	Path        string `envconfig:"STORAGE_PATH" default:"media"`
	MaxUploadMB int64  `envconfig:"MAX_UPLOAD_MB" default:"20"`

	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket       string `envconfig:"S3_BUCKET"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"false"`
}

type Log struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Pretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load decodes the process environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Auth.TokenStore {
	case "database", "redis":
	default:
		return fmt.Errorf("unsupported TOKEN_STORE %q", c.Auth.TokenStore)
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Auth.JWTSecret == "" {
		if c.GinMode == "release" {
			return fmt.Errorf("JWT_SECRET must be set in release mode")
		}
		c.Auth.JWTSecret = "your-secret-key" // Default secret (not recommended for production)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

// MaxUploadBytes caps the whole message request body; larger bodies get 413.
func (s Storage) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}
