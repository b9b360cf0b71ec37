package stores

import (
	"context"

	"github.com/CUknot/chat_backend/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type GormRoomStore struct {
	db *gorm.DB
}

func NewGormRoomStore(db *gorm.DB) *GormRoomStore {
	return &GormRoomStore{db: db}
}

func (s *GormRoomStore) Create(ctx context.Context, room *models.Room, userIDs []uint) error {
	userIDs = lo.Uniq(userIDs)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Users", "Messages").Create(room).Error; err != nil {
			return err
		}
		roomUsers := lo.Map(userIDs, func(id uint, _ int) models.RoomUser {
			return models.RoomUser{RoomID: room.ID, UserID: id}
		})
		if len(roomUsers) > 0 {
			if err := tx.Create(&roomUsers).Error; err != nil {
				return err
			}
		}
		return tx.Where("id IN ?", userIDs).Order("id ASC").Find(&room.Users).Error
	})
	if err != nil {
		room.ID = 0
		return translate(err)
	}
	return nil
}

func (s *GormRoomStore) FindByID(ctx context.Context, id uint) (*models.Room, error) {
	var room models.Room
	if err := s.withUsers(ctx).First(&room, id).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *GormRoomStore) FindByPairKey(ctx context.Context, key string) (*models.Room, error) {
	var room models.Room
	if err := s.withUsers(ctx).Where("pair_key = ?", key).First(&room).Error; err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

func (s *GormRoomStore) ListForUser(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := s.withUsers(ctx).
		Where("id IN (?)", s.db.WithContext(ctx).Model(&models.RoomUser{}).Select("room_id").Where("user_id = ?", userID)).
		Order("id ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, translate(err)
	}
	return rooms, nil
}

func (s *GormRoomStore) IDsForUser(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.RoomUser{}).
		Where("user_id = ?", userID).
		Order("room_id ASC").
		Pluck("room_id", &ids).Error
	if err != nil {
		return nil, translate(err)
	}
	return ids, nil
}

func (s *GormRoomStore) UpdateName(ctx context.Context, id uint, name *string) error {
	res := s.db.WithContext(ctx).Model(&models.Room{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormRoomStore) HasParticipant(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RoomUser{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (s *GormRoomStore) withUsers(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Users", func(db *gorm.DB) *gorm.DB {
		return db.Order("users.id ASC")
	})
}
