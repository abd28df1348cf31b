package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/internal/domain/payment"

	"github.com/redis/go-redis/v9"
)

const intentKeyPrefix = "payment:intent:"

// RedisIntentStore は (user, receipt) → 作成済みインテントを保存する
type RedisIntentStore struct {
	client *redis.Client
}

func NewRedisIntentStore(client *redis.Client) *RedisIntentStore {
	return &RedisIntentStore{client: client}
}

func intentKey(userID, receipt string) string {
	return intentKeyPrefix + userID + ":" + receipt
}

func (s *RedisIntentStore) Get(ctx context.Context, userID, receipt string) (payment.Intent, bool, error) {
	raw, err := s.client.Get(ctx, intentKey(userID, receipt)).Bytes()
	if errors.Is(err, redis.Nil) {
		return payment.Intent{}, false, nil
	}
	if err != nil {
		return payment.Intent{}, false, err
	}

	var in payment.Intent
	if err := json.Unmarshal(raw, &in); err != nil {
		return payment.Intent{}, false, err
	}
	return in, true, nil
}

func (s *RedisIntentStore) Put(ctx context.Context, userID, receipt string, intent payment.Intent, ttl time.Duration) error {
	b, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	// 先に入ったものを優先
	return s.client.SetNX(ctx, intentKey(userID, receipt), b, ttl).Err()
}

// NoopIntentStore はREDIS_URL未設定のとき用
type NoopIntentStore struct{}

func (NoopIntentStore) Get(context.Context, string, string) (payment.Intent, bool, error) {
	return payment.Intent{}, false, nil
}

func (NoopIntentStore) Put(context.Context, string, string, payment.Intent, time.Duration) error {
	return nil
}
