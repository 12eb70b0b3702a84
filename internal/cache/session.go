package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wealthplan/backend/internal/domain"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionCache holds the denormalized session projection keyed by session
// token. It is strictly an optimization: callers treat every returned error
// as a miss and fall back to the durable store.
type SessionCache interface {
	Get(ctx context.Context, sessionToken string) (*domain.CachedSession, error)
	// Set writes the projection of the given session with a TTL equal to its
	// remaining lifetime.
	Set(ctx context.Context, session *domain.Session) error
	// UpdateAccessJTI rewrites the access jti of an existing entry in place,
	// keeping its TTL. Missing entries are left missing.
	UpdateAccessJTI(ctx context.Context, sessionToken string, accessJTI string) error
	Delete(ctx context.Context, sessionToken string) error
}

type redisSessionCache struct {
	client redis.UniversalClient
}

func NewRedisSessionCache(client redis.UniversalClient) SessionCache {
	return &redisSessionCache{
		client: client,
	}
}

func sessionKey(sessionToken string) string {
	return sessionKeyPrefix + sessionToken
}

func (c *redisSessionCache) Get(ctx context.Context, sessionToken string) (*domain.CachedSession, error) {
	payload, err := c.client.Get(ctx, sessionKey(sessionToken)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get session failed: %w", err)
	}

	var cached domain.CachedSession
	if err := json.Unmarshal(payload, &cached); err != nil {
		return nil, fmt.Errorf("cache session unmarshal failed: %w", err)
	}

	return &cached, nil
}

func (c *redisSessionCache) Set(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	cached := domain.CachedSession{
		UserID:         session.UserID,
		AccessTokenJTI: session.AccessTokenJTI,
		IsActive:       session.IsActive,
		ExpiresAt:      session.ExpiresAt,
	}

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("cache session marshal failed: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(session.SessionToken), payload, ttl).Err(); err != nil {
		return fmt.Errorf("cache set session failed: %w", err)
	}

	return nil
}

func (c *redisSessionCache) UpdateAccessJTI(ctx context.Context, sessionToken string, accessJTI string) error {
	cached, err := c.Get(ctx, sessionToken)
	if err != nil {
		return err
	}
	if cached == nil {
		return nil
	}

	cached.AccessTokenJTI = accessJTI

	payload, err := json.Marshal(cached)
	if err != nil {
		return fmt.Errorf("cache session marshal failed: %w", err)
	}

	// redis.KeepTTL preserves the expiry set on the original write-through.
	if err := c.client.Set(ctx, sessionKey(sessionToken), payload, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("cache update session failed: %w", err)
	}

	return nil
}

func (c *redisSessionCache) Delete(ctx context.Context, sessionToken string) error {
	if err := c.client.Del(ctx, sessionKey(sessionToken)).Err(); err != nil {
		return fmt.Errorf("cache delete session failed: %w", err)
	}

	return nil
}

// noopSessionCache backs deployments without a cache. Every read is a miss,
// every write succeeds, so callers never special-case "is a cache configured".
type noopSessionCache struct{}

func NewNoopSessionCache() SessionCache {
	return noopSessionCache{}
}

func (noopSessionCache) Get(context.Context, string) (*domain.CachedSession, error) {
	return nil, nil
}

func (noopSessionCache) Set(context.Context, *domain.Session) error { return nil }

func (noopSessionCache) UpdateAccessJTI(context.Context, string, string) error { return nil }

func (noopSessionCache) Delete(context.Context, string) error { return nil }
