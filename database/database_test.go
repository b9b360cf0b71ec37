package database

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CUknot/chat_backend/config"
	"github.com/CUknot/chat_backend/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestConnectAndMigrate_SQLite(t *testing.T) {
	db, err := Connect(config.Database{Driver: "sqlite", Path: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range []any{&models.User{}, &models.Room{}, &models.RoomUser{}, &models.Message{}, &models.AuthToken{}} {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Room{}, "PairKey"))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(config.Database{Driver: "oracle"})
	assert.Error(t, err)
}

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.InfoLevel)
	gl := newGormLogger(&zl)
	query := func() (string, int64) { return "SELECT * FROM rooms WHERE pair_key = '1:2'", 0 }

	gl.Trace(context.Background(), time.Now(), query, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	gl.Trace(context.Background(), time.Now(), query, errors.New("disk I/O error"))
	assert.Contains(t, buf.String(), "disk I/O error")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
