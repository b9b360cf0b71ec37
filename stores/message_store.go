package stores

import (
	"context"
	"errors"

	"github.com/CUknot/chat_backend/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type GormMessageStore struct {
	db *gorm.DB
}

func NewGormMessageStore(db *gorm.DB) *GormMessageStore {
	return &GormMessageStore{db: db}
}

func (s *GormMessageStore) Create(ctx context.Context, msg *models.Message) error {
	if err := s.db.WithContext(ctx).Omit("Sender").Create(msg).Error; err != nil {
		return translate(err)
	}
	return translate(s.db.WithContext(ctx).First(&msg.Sender, msg.SenderID).Error)
}

func (s *GormMessageStore) FindByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := s.db.WithContext(ctx).Preload("Sender").First(&msg, id).Error; err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

func (s *GormMessageStore) ListByRoom(ctx context.Context, roomID uint, q MessageQuery) ([]models.Message, error) {
	query := s.ordered(ctx).Where("room_id = ?", roomID)
	if q.AfterID > 0 {
		query = query.Where("id > ?", q.AfterID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var messages []models.Message
	if err := query.Find(&messages).Error; err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

func (s *GormMessageStore) ListByRooms(ctx context.Context, roomIDs []uint) ([]models.Message, error) {
	messages := []models.Message{}
	if len(roomIDs) == 0 {
		return messages, nil
	}
	if err := s.ordered(ctx).Where("room_id IN ?", roomIDs).Find(&messages).Error; err != nil {
		return nil, translate(err)
	}
	return messages, nil
}

func (s *GormMessageStore) Latest(ctx context.Context, roomID uint) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).Preload("Sender").
		Where("room_id = ?", roomID).
		Order("created_at DESC").Order("id DESC").
		First(&msg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &msg, nil
}

// LatestByRooms returns the newest message of each non-empty room in roomIDs.
// It issues one indexed query per room; callers pass one user's rooms.
func (s *GormMessageStore) LatestByRooms(ctx context.Context, roomIDs []uint) (map[uint]models.Message, error) {
	latest := make(map[uint]models.Message, len(roomIDs))
	for _, id := range lo.Uniq(roomIDs) {
		msg, err := s.Latest(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		latest[id] = *msg
	}
	return latest, nil
}

func (s *GormMessageStore) ordered(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Sender").Order("created_at ASC").Order("id ASC")
}
