package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/homeplast-storefront/pkg/redis"
)

type redisKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	StateKey(sessionID string) string
}

// RedisStore keeps each session as a JSON snapshot that expires after ttl of inactivity.
type RedisStore struct {
	kv  redisKV
	ttl time.Duration
}

func NewRedisStore(kv redisKV, ttl time.Duration) (*RedisStore, error) {
	if kv == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{kv: kv, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*State, error) {
	raw, err := s.kv.Get(ctx, s.kv.StateKey(sessionID))
	if err != nil {
		if errors.Is(err, pkgredis.ErrNil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load state: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	state.ensureCollections()
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, state *State) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.kv.Set(ctx, s.kv.StateKey(state.SessionID), string(payload), s.ttl); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return s.kv.Del(ctx, s.kv.StateKey(sessionID))
}
