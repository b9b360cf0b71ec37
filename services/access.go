package services

import (
	"context"

	"github.com/CUknot/chat_backend/stores"
)

// AccessGate decides whether a user may read or write a room.
type AccessGate struct {
	rooms stores.RoomStore
}

func NewAccessGate(rooms stores.RoomStore) *AccessGate {
	return &AccessGate{rooms: rooms}
}

func (g *AccessGate) IsParticipant(ctx context.Context, userID, roomID uint) (bool, error) {
	return g.rooms.HasParticipant(ctx, roomID, userID)
}

// Require fails with ErrRoomNotFound when the room does not exist and with
// ErrNotParticipant when userID is not one of its participants.
func (g *AccessGate) Require(ctx context.Context, userID, roomID uint) error {
	ok, err := g.IsParticipant(ctx, userID, roomID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := g.rooms.FindByID(ctx, roomID); err != nil {
		return notFound(err, ErrRoomNotFound)
	}
	return ErrNotParticipant
}
