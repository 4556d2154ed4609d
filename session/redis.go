package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultSessionTTL = time.Hour

// RedisStore keeps each session's turns in a Redis list under
// "session:<id>". The list expires after TTL of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "session_store")),
	}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *RedisStore) Append(ctx context.Context, sessionID, role, content string) error {
	turn := Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
	raw, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}

	key := sessionKey(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, raw)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, sessionID string, lastN int) ([]Turn, error) {
	if lastN <= 0 {
		return nil, nil
	}

	raws, err := s.client.LRange(ctx, sessionKey(sessionID), int64(-lastN), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	turns := make([]Turn, 0, len(raws))
	for _, raw := range raws {
		var turn Turn
		if err := json.Unmarshal([]byte(raw), &turn); err != nil {
			s.logger.Warn("skipping malformed turn", zap.Error(err))
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
