package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "chatapp", cfg.Database.Name)
	assert.Equal(t, 168*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "database", cfg.Auth.TokenStore)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, int64(20<<20), cfg.Storage.MaxUploadBytes())
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", "/tmp/chat.db")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/chat.db", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			GinMode:  "debug",
			Database: Database{Driver: "sqlite"},
			Auth:     Auth{TokenStore: "database", TokenTTL: time.Hour},
			Storage:  Storage{Driver: "local"},
		}
	}

	t.Run("unknown db driver", func(t *testing.T) {
		cfg := base()
		cfg.Database.Driver = "mongo"
		assert.Error(t, cfg.Validate())
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Driver = "s3"
		assert.Error(t, cfg.Validate())
	})

	t.Run("release requires secret", func(t *testing.T) {
		cfg := base()
		cfg.GinMode = "release"
		assert.Error(t, cfg.Validate())
	})

	t.Run("debug falls back to default secret", func(t *testing.T) {
		cfg := base()
		require.NoError(t, cfg.Validate())
		assert.NotEmpty(t, cfg.Auth.JWTSecret)
	})
}
