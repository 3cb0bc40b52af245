package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/barberq/internal/wizard"
)

// RedisStore keeps wizard snapshots in Redis so any replica can serve a session.
// Booking claims are SETNX keys, which keeps submissions single-flight across
// replicas. Other commands on one session from two replicas are last-write-wins.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func (s *RedisStore) key(id string) string {
	return fmt.Sprintf("barberq:wizard:%s", id)
}

func (s *RedisStore) claimKey(id string) string {
	return fmt.Sprintf("barberq:wizard:%s:submit", id)
}

func (s *RedisStore) Load(ctx context.Context, id string) (wizard.Snapshot, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.Snapshot{}, ErrSessionNotFound
	}
	if err != nil {
		return wizard.Snapshot{}, fmt.Errorf("booking: get session: %w", err)
	}
	var snap wizard.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return wizard.Snapshot{}, fmt.Errorf("booking: unmarshal session: %w", err)
	}
	return snap, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, snap wizard.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("booking: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("booking: set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id), s.claimKey(id)).Err(); err != nil {
		return fmt.Errorf("booking: delete session: %w", err)
	}
	return nil
}

func (s *RedisStore) ClaimSubmission(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.claimKey(id), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("booking: claim submission: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseSubmission(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.claimKey(id)).Err(); err != nil {
		return fmt.Errorf("booking: release submission: %w", err)
	}
	return nil
}
