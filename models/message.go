package models

import (
	"time"
)

type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	RoomID    uint      `gorm:"not null;index:idx_messages_room_created,priority:1" json:"room_id"`
	SenderID  uint      `gorm:"not null;index" json:"sender_id"`
	Sender    User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content   *string   `gorm:"type:text" json:"content"`
	Image     *string   `gorm:"size:255" json:"image"`
	File      *string   `gorm:"size:255" json:"file"`
	CreatedAt time.Time `gorm:"index:idx_messages_room_created,priority:2" json:"timestamp"`
}

// AttachmentKey returns the storage key for the named attachment kind ("image" or "file").
func (m *Message) AttachmentKey(kind string) string {
	var key *string
	switch kind {
	case AttachmentImage:
		key = m.Image
	case AttachmentFile:
		key = m.File
	}
	if key == nil {
		return ""
	}
	return *key
}

const (
	AttachmentImage = "image"
	AttachmentFile  = "file"
)
