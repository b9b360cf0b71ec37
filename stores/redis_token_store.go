package stores

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "chat:token:"

// RedisTokenStore keeps tokens as keys whose TTL matches the token expiry.
type RedisTokenStore struct {
	client redis.UniversalClient
}

func NewRedisTokenStore(client redis.UniversalClient) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (s *RedisTokenStore) Issue(ctx context.Context, key string, userID uint, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("token %s already expired", key)
	}
	ok, err := s.client.SetNX(ctx, tokenKeyPrefix+key, userID, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (s *RedisTokenStore) Lookup(ctx context.Context, key string) (uint, error) {
	val, err := s.client.Get(ctx, tokenKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt token entry %s: %w", key, err)
	}
	return uint(id), nil
}

func (s *RedisTokenStore) Revoke(ctx context.Context, key string) error {
	return s.client.Del(ctx, tokenKeyPrefix+key).Err()
}
