package statestore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "conv:state:"

// Redis: состояние под ключом conv:state:<chat_id> с TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis: ttl <= 0 хранит состояние бессрочно.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	// у go-redis отрицательный срок значит KeepTTL, а не «без срока»
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}
}

func key(chatID int64) string { return keyPrefix + strconv.FormatInt(chatID, 10) }

func (s *Redis) Load(ctx context.Context, chatID int64) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return b, true, nil
}

func (s *Redis) Save(ctx context.Context, chatID int64, payload []byte) error {
	return s.client.Set(ctx, key(chatID), payload, s.ttl).Err()
}

func (s *Redis) Delete(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, key(chatID)).Err()
}
