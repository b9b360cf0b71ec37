package services

import (
	"errors"
	"fmt"

	"github.com/CUknot/chat_backend/stores"
)

// Error kinds. Every error a service returns to a caller wraps exactly one.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Error is a caller-facing failure: Msg is safe to show, Kind classifies it.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Validationf builds an ad-hoc validation error.
func Validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrPasswordMismatch   = newError(ErrValidation, "Passwords must match.")
	ErrUsernameTaken      = newError(ErrValidation, "A user with that username already exists.")
	ErrEmptyMessage       = newError(ErrValidation, "A message needs content or an attachment.")
	ErrNotAnImage         = newError(ErrValidation, "Uploaded image is not a valid image.")
	ErrEmptyAttachment    = newError(ErrValidation, "The submitted file is empty.")
	ErrInvalidCredentials = newError(ErrUnauthorized, "Unable to log in with provided credentials.")
	ErrInvalidToken       = newError(ErrUnauthorized, "Invalid token.")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrRoomNotFound       = newError(ErrNotFound, "Room not found")
	ErrMessageNotFound    = newError(ErrNotFound, "Message not found")
	ErrAttachmentNotFound = newError(ErrNotFound, "Attachment not found")
	ErrNotParticipant     = newError(ErrPermissionDenied, "You are not a member of this room")
)

// notFound swaps a store miss for the given service error and passes
// anything else through.
func notFound(err error, replacement error) error {
	if errors.Is(err, stores.ErrNotFound) {
		return replacement
	}
	return err
}
