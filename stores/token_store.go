package stores

import (
	"context"
	"time"

	"github.com/CUknot/chat_backend/models"
	"gorm.io/gorm"
)

type GormTokenStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db, now: time.Now}
}

func (s *GormTokenStore) Issue(ctx context.Context, key string, userID uint, expiresAt time.Time) error {
	token := models.AuthToken{Key: key, UserID: userID, ExpiresAt: expiresAt}
	return translate(s.db.WithContext(ctx).Create(&token).Error)
}

func (s *GormTokenStore) Lookup(ctx context.Context, key string) (uint, error) {
	var token models.AuthToken
	if err := s.db.WithContext(ctx).Where("token_key = ?", key).First(&token).Error; err != nil {
		return 0, translate(err)
	}
	if !token.ExpiresAt.After(s.now()) {
		return 0, ErrNotFound
	}
	return token.UserID, nil
}

func (s *GormTokenStore) Revoke(ctx context.Context, key string) error {
	return translate(s.db.WithContext(ctx).Where("token_key = ?", key).Delete(&models.AuthToken{}).Error)
}

// PurgeExpired drops rows whose expiry has passed and reports how many went.
func (s *GormTokenStore) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.AuthToken{})
	return res.RowsAffected, translate(res.Error)
}
