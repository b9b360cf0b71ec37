package models

import (
	"time"
)

// AuthToken records an issued access token by its JWT id so it can be revoked.
type AuthToken struct {
	Key       string    `gorm:"column:token_key;primaryKey;size:64" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
