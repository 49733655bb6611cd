package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/internal/model"
)

// SessionCache keeps sessions in Redis with a key TTL matching the session
// expiry.
type SessionCache struct {
	rdb *redis.Client
	now func() time.Time
}

// NewSessionCache creates a new SessionCache.
func NewSessionCache(rdb *redis.Client) *SessionCache {
	return &SessionCache{rdb: rdb, now: time.Now}
}

// Save stores a session.
func (c *SessionCache) Save(ctx context.Context, s *model.Session) error {
	ttl := time.Unix(s.ExpiresAt, 0).Sub(c.now())
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}

	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := c.rdb.Set(ctx, config.CacheKey.SessionKey(s.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}
	return nil
}

// Get resolves a token. Keys vanish on expiry, so a hit may still be
// checked against ExpiresAt by the caller.
func (c *SessionCache) Get(ctx context.Context, token string) (*model.Session, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.SessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// Delete removes a session. Unknown tokens are not an error.
func (c *SessionCache) Delete(ctx context.Context, token string) error {
	if err := c.rdb.Del(ctx, config.CacheKey.SessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
