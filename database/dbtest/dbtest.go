// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"testing"

	"github.com/CUknot/chat_backend/config"
	"github.com/CUknot/chat_backend/database"
	"github.com/CUknot/chat_backend/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// New returns an in-memory sqlite database with the full schema applied.
func New(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := database.Connect(config.Database{Driver: "sqlite", Path: "file::memory:"})
	require.NoError(tb, err)
	require.NoError(tb, database.Migrate(db))

	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given username and password "password".
func CreateUser(tb testing.TB, db *gorm.DB, username string) models.User {
	tb.Helper()

	user := models.User{Username: username, Email: username + "@example.com", Password: "password"}
	require.NoError(tb, db.Create(&user).Error)
	return user
}
