package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

type Room struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      *string   `gorm:"size:100" json:"name"`
	PairKey   *string   `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Users     []User    `gorm:"many2many:room_users;" json:"users,omitempty"`
	Messages  []Message `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

type RoomUser struct {
	RoomID    uint      `gorm:"primaryKey" json:"room_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PairKey identifies the two-party room of a and b regardless of argument order.
func PairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// DisplayName returns the explicit name, or the participants' usernames when unnamed.
func (r *Room) DisplayName() string {
	if r.Name != nil && *r.Name != "" {
		return *r.Name
	}
	names := lo.Map(r.Users, func(u User, _ int) string { return u.Username })
	if len(names) == 0 {
		return fmt.Sprintf("Room #%d", r.ID)
	}
	return strings.Join(names, ", ")
}

// HasUser reports whether the preloaded participant list contains userID.
func (r *Room) HasUser(userID uint) bool {
	return lo.ContainsBy(r.Users, func(u User) bool { return u.ID == userID })
}
