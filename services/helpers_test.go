package services_test

import (
	"testing"
	"time"

	"github.com/CUknot/chat_backend/database/dbtest"
	"github.com/CUknot/chat_backend/services"
	"github.com/CUknot/chat_backend/storage"
	"github.com/CUknot/chat_backend/stores"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fixture struct {
	db       *gorm.DB
	blobs    *storage.LocalStorage
	auth     *services.AuthService
	gate     *services.AccessGate
	rooms    *services.RoomDirectory
	messages *services.MessageLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	userStore := stores.NewGormUserStore(db)
	roomStore := stores.NewGormRoomStore(db)
	messageStore := stores.NewGormMessageStore(db)
	gate := services.NewAccessGate(roomStore)

	return &fixture{
		db:       db,
		blobs:    blobs,
		auth:     services.NewAuthService(userStore, stores.NewGormTokenStore(db), testSecret, time.Hour),
		gate:     gate,
		rooms:    services.NewRoomDirectory(roomStore, userStore, gate),
		messages: services.NewMessageLog(messageStore, roomStore, blobs, gate),
	}
}
