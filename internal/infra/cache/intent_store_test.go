package cache

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/payment"

	"github.com/stretchr/testify/assert"
)

func TestIntentKey(t *testing.T) {
	assert.Equal(t, "payment:intent:u1:order_123", intentKey("u1", "order_123"))
	//同じreceiptでもユーザーが違えば別キー
	assert.NotEqual(t, intentKey("u1", "r1"), intentKey("u2", "r1"))
}

func TestNoopIntentStore(t *testing.T) {
	var s payment.IntentStore = NoopIntentStore{}

	assert.NoError(t, s.Put(context.Background(), "u1", "r1", payment.Intent{ID: "order_1"}, time.Minute))

	_, found, err := s.Get(context.Background(), "u1", "r1")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url://")
	assert.Error(t, err)
}

var _ payment.IntentStore = (*RedisIntentStore)(nil)
