package stores

import (
	"context"
	"errors"
	"time"

	"github.com/CUknot/chat_backend/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound reports that the requested row does not exist
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate reports a unique constraint violation
	ErrDuplicate = errors.New("store: duplicate entry")
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type RoomStore interface {
	// Create inserts the room and its participants in one transaction.
	Create(ctx context.Context, room *models.Room, userIDs []uint) error
	FindByID(ctx context.Context, id uint) (*models.Room, error)
	FindByPairKey(ctx context.Context, key string) (*models.Room, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Room, error)
	IDsForUser(ctx context.Context, userID uint) ([]uint, error)
	UpdateName(ctx context.Context, id uint, name *string) error
	HasParticipant(ctx context.Context, roomID, userID uint) (bool, error)
}

// MessageQuery narrows a room listing; zero values mean "no bound".
type MessageQuery struct {
	AfterID uint
	Limit   int
}

type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	FindByID(ctx context.Context, id uint) (*models.Message, error)
	ListByRoom(ctx context.Context, roomID uint, q MessageQuery) ([]models.Message, error)
	ListByRooms(ctx context.Context, roomIDs []uint) ([]models.Message, error)
	Latest(ctx context.Context, roomID uint) (*models.Message, error)
	LatestByRooms(ctx context.Context, roomIDs []uint) (map[uint]models.Message, error)
}

type TokenStore interface {
	Issue(ctx context.Context, key string, userID uint, expiresAt time.Time) error
	// Lookup returns the owner of a live token, or ErrNotFound when the key
	// is unknown, revoked or expired.
	Lookup(ctx context.Context, key string) (uint, error)
	Revoke(ctx context.Context, key string) error
}

// translate maps gorm errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
