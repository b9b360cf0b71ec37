package controllers

import (
	"fmt"
	"time"

	"github.com/CUknot/chat_backend/models"
	"github.com/samber/lo"
)

type UserPayload struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type MessagePayload struct {
	ID        uint        `json:"id"`
	Room      uint        `json:"room"`
	Sender    UserPayload `json:"sender"`
	Content   *string     `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	IsMe      bool        `json:"is_me"`
	Image     *string     `json:"image"`
	File      *string     `json:"file"`
}

type RoomPayload struct {
	ID          uint            `json:"id"`
	Name        *string         `json:"name"`
	DisplayName string          `json:"display_name"`
	Users       []UserPayload   `json:"users"`
	CreatedAt   time.Time       `json:"created_at"`
	LastMessage *MessagePayload `json:"last_message"`
}

func newUserPayload(u models.User) UserPayload {
	return UserPayload{ID: u.ID, Username: u.Username, Email: u.Email}
}

func newUserPayloads(users []models.User) []UserPayload {
	return lo.Map(users, func(u models.User, _ int) UserPayload { return newUserPayload(u) })
}

// newMessagePayload shapes m for callerID; is_me compares the sender with the caller.
func newMessagePayload(m models.Message, callerID uint) MessagePayload {
	p := MessagePayload{
		ID:        m.ID,
		Room:      m.RoomID,
		Sender:    newUserPayload(m.Sender),
		Content:   m.Content,
		Timestamp: m.CreatedAt,
		IsMe:      m.SenderID == callerID,
	}
	if m.Image != nil {
		p.Image = lo.ToPtr(attachmentURL(m.ID, models.AttachmentImage))
	}
	if m.File != nil {
		p.File = lo.ToPtr(attachmentURL(m.ID, models.AttachmentFile))
	}
	return p
}

func newMessagePayloads(messages []models.Message, callerID uint) []MessagePayload {
	return lo.Map(messages, func(m models.Message, _ int) MessagePayload { return newMessagePayload(m, callerID) })
}

func newRoomPayload(r models.Room, last *models.Message, callerID uint) RoomPayload {
	p := RoomPayload{
		ID:          r.ID,
		Name:        r.Name,
		DisplayName: r.DisplayName(),
		Users:       newUserPayloads(r.Users),
		CreatedAt:   r.CreatedAt,
	}
	if last != nil {
		p.LastMessage = lo.ToPtr(newMessagePayload(*last, callerID))
	}
	return p
}

func attachmentURL(messageID uint, kind string) string {
	return fmt.Sprintf("/api/messages/%d/%s", messageID, kind)
}
