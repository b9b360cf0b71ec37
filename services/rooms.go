package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/CUknot/chat_backend/logger"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/stores"
)

// RoomDirectory finds, creates and renames rooms on behalf of a caller.
type RoomDirectory struct {
	rooms stores.RoomStore
	users stores.UserStore
	gate  *AccessGate
}

func NewRoomDirectory(rooms stores.RoomStore, users stores.UserStore, gate *AccessGate) *RoomDirectory {
	return &RoomDirectory{rooms: rooms, users: users, gate: gate}
}

// ResolveOrCreate returns the two-party room of caller and otherID, creating
// it when missing. created reports whether this call inserted the room.
// The pair key is unique in storage, so a concurrent creator that loses the
// insert race reads back the winner's room.
func (d *RoomDirectory) ResolveOrCreate(ctx context.Context, callerID, otherID uint, name string) (room *models.Room, created bool, err error) {
	if err := validateName(name); err != nil {
		return nil, false, err
	}
	if _, err := d.users.FindByID(ctx, otherID); err != nil {
		return nil, false, notFound(err, ErrUserNotFound)
	}

	key := models.PairKey(callerID, otherID)
	room, err = d.rooms.FindByPairKey(ctx, key)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, stores.ErrNotFound) {
		return nil, false, err
	}

	room = &models.Room{Name: optionalName(name), PairKey: &key}
	if err := d.rooms.Create(ctx, room, []uint{callerID, otherID}); err != nil {
		if !errors.Is(err, stores.ErrDuplicate) {
			return nil, false, err
		}
		room, err = d.rooms.FindByPairKey(ctx, key)
		if err != nil {
			return nil, false, err
		}
		return room, false, nil
	}

	logger.Ctx(ctx).Info().
		Uint(logger.FieldRoomID, room.ID).
		Uint(logger.FieldUserID, callerID).
		Uint("other_user_id", otherID).
		Msg("room created")
	return room, true, nil
}

// CreateRoom makes a room whose only participant is the caller.
func (d *RoomDirectory) CreateRoom(ctx context.Context, callerID uint) (*models.Room, error) {
	room := &models.Room{}
	if err := d.rooms.Create(ctx, room, []uint{callerID}); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info().Uint(logger.FieldRoomID, room.ID).Uint(logger.FieldUserID, callerID).Msg("room created")
	return room, nil
}

// ListRooms returns every room the caller participates in.
func (d *RoomDirectory) ListRooms(ctx context.Context, callerID uint) ([]models.Room, error) {
	return d.rooms.ListForUser(ctx, callerID)
}

func (d *RoomDirectory) GetRoom(ctx context.Context, callerID, roomID uint) (*models.Room, error) {
	if err := d.gate.Require(ctx, callerID, roomID); err != nil {
		return nil, err
	}
	room, err := d.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, notFound(err, ErrRoomNotFound)
	}
	return room, nil
}

// Rename sets the room's display name; a blank name clears it.
func (d *RoomDirectory) Rename(ctx context.Context, callerID, roomID uint, name string) (*models.Room, error) {
	if err := d.gate.Require(ctx, callerID, roomID); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := d.rooms.UpdateName(ctx, roomID, optionalName(name)); err != nil {
		return nil, notFound(err, ErrRoomNotFound)
	}
	return d.GetRoom(ctx, callerID, roomID)
}

const maxRoomNameLen = 100

func validateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > maxRoomNameLen {
		return Validationf("name must be at most %d characters", maxRoomNameLen)
	}
	return nil
}

func optionalName(name string) *string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return &name
}
