package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/till_shop/services/till/internal/checkout"
)

const lockTTL = 30 * time.Second

// unlockScript deletes the lock only while it still holds this caller's token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func registerKey(tellerID uuid.UUID) string {
	return fmt.Sprintf("till:register:%s", tellerID)
}

func lockKey(tellerID uuid.UUID) string {
	return fmt.Sprintf("till:register:%s:lock", tellerID)
}

func (s *RedisStore) Load(ctx context.Context, tellerID, ownerID uuid.UUID) (*checkout.Register, error) {
	raw, err := s.rdb.Get(ctx, registerKey(tellerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return checkout.NewRegister(tellerID, ownerID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load register: %w", err)
	}
	var reg checkout.Register
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("decode register: %w", err)
	}
	// a teller moved to another owner starts over
	if reg.OwnerID != ownerID {
		return checkout.NewRegister(tellerID, ownerID), nil
	}
	return &reg, nil
}

func (s *RedisStore) Save(ctx context.Context, reg *checkout.Register) error {
	reg.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode register: %w", err)
	}
	if err := s.rdb.Set(ctx, registerKey(reg.TellerID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save register: %w", err)
	}
	return nil
}

func (s *RedisStore) Lock(ctx context.Context, tellerID uuid.UUID) (func(), error) {
	token := uuid.NewString()
	ok, err := s.rdb.SetNX(ctx, lockKey(tellerID), token, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("lock register: %w", err)
	}
	if !ok {
		return nil, checkout.ErrBusy
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		unlockScript.Run(ctx, s.rdb, []string{lockKey(tellerID)}, token)
	}, nil
}
