package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store is a best-effort JSON read cache over redis. All methods are
// nil-safe so callers can run without redis configured; cache failures
// are logged and never surfaced to the request path.
type Store struct {
	client *redis.Client
	log    *zap.Logger
}

func NewStore(client *redis.Client, log *zap.Logger) *Store {
	if client == nil {
		return nil
	}
	return &Store{client: client, log: log.Named("cache")}
}

// GetJSON loads key into dest. The second return is false on miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) bool {
	if s == nil || s.client == nil {
		return false
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) {
	if s == nil || s.client == nil {
		return
	}
	raw, err := json.Marshal(val)
	if err != nil {
		s.log.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		s.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops the given keys. Used after any bill mutation so
// readers never observe a stale paid amount.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if s == nil || s.client == nil || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.log.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
