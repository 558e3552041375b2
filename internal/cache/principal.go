package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/niolikon/taskboard/internal/auth"
)

const (
	// principalPrefix is the Redis key prefix for verified bearer tokens.
	principalPrefix = "auth:principal:"
	// MaxPrincipalTTL caps how long a verified token is trusted without re-verification.
	MaxPrincipalTTL = 5 * time.Minute
)

type cachedPrincipal struct {
	UserID string `json:"user_id"`
}

// GetPrincipal returns the caller cached for a token fingerprint.
// A miss or a corrupted entry reports ok=false with no error.
func (c *Cache) GetPrincipal(ctx context.Context, fingerprint string) (auth.AuthenticatedUser, bool, error) {
	data, err := c.client.Get(ctx, principalPrefix+fingerprint).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.AuthenticatedUser{}, false, nil
	}
	if err != nil {
		return auth.AuthenticatedUser{}, false, fmt.Errorf("get principal: %w", err)
	}

	var cached cachedPrincipal
	if err := json.Unmarshal(data, &cached); err != nil || cached.UserID == "" {
		return auth.AuthenticatedUser{}, false, nil //nolint:nilerr
	}
	return auth.AuthenticatedUser{ID: cached.UserID}, true, nil
}

// SetPrincipal caches user for the token fingerprint until expiresAt, at most
// MaxPrincipalTTL. Tokens already expired are not cached.
func (c *Cache) SetPrincipal(ctx context.Context, fingerprint string, user auth.AuthenticatedUser, expiresAt time.Time) error {
	ttl := PrincipalTTL(time.Now(), expiresAt)
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(cachedPrincipal{UserID: user.ID})
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}
	return c.client.Set(ctx, principalPrefix+fingerprint, data, ttl).Err()
}

// DeletePrincipal forgets a cached token. Logout calls it for the caller's token.
func (c *Cache) DeletePrincipal(ctx context.Context, fingerprint string) error {
	return c.client.Del(ctx, principalPrefix+fingerprint).Err()
}

// PrincipalTTL returns how long a token expiring at expiresAt may stay cached.
// A zero expiresAt means the token carries no expiry.
func PrincipalTTL(now, expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return MaxPrincipalTTL
	}
	return min(MaxPrincipalTTL, expiresAt.Sub(now))
}
