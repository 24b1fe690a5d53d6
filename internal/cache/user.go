package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zerotodo/zerotodo/internal/model"
)

// userCachePrefix is the Redis key prefix for cached auth lookups.
const userCachePrefix = "auth:user:"

// GetUser returns the cached user for email, or ErrCacheMiss.
func (c *Cache) GetUser(ctx context.Context, email string) (*model.User, error) {
	data, err := c.client.Get(ctx, UserKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("get cached user: %w", err)
	}

	var cached model.CachedUser
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted entry, treat as a miss and let the caller refill it.
		_ = c.client.Del(ctx, UserKey(email)).Err()
		return nil, ErrCacheMiss
	}

	return cached.ToUser(), nil
}

// SetUser caches user under its email for the configured TTL.
func (c *Cache) SetUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user.ToCachedUser())
	if err != nil {
		return fmt.Errorf("marshal cached user: %w", err)
	}

	return c.client.Set(ctx, UserKey(user.Email), data, c.userTTL).Err()
}

// DeleteUser evicts the cached entries for the given emails.
func (c *Cache) DeleteUser(ctx context.Context, emails ...string) error {
	if len(emails) == 0 {
		return nil
	}

	keys := make([]string, 0, len(emails))
	for _, email := range emails {
		keys = append(keys, UserKey(email))
	}

	return c.client.Del(ctx, keys...).Err()
}

// UserKey returns the Redis key for email. Emails are unique byte-for-byte
// in the users table, so the key is derived from the exact address; raw
// addresses never appear in key names.
func UserKey(email string) string {
	sum := sha256.Sum256([]byte(email))
	return userCachePrefix + hex.EncodeToString(sum[:16])
}
