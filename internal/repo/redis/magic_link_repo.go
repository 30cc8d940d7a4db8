package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	authsvc "github.com/CrossGen-ai/ai-in-4-sub002/internal/services/auth"
)

const magicLinkPrefix = "magic_link:"

type MagicLinkRepo struct {
	client *goredis.Client
}

func NewMagicLinkRepo(client *goredis.Client) *MagicLinkRepo {
	return &MagicLinkRepo{client: client}
}

func (r *MagicLinkRepo) Store(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(token) == "" || userID <= 0 || ttl <= 0 {
		return authsvc.ErrInvalidInput
	}

	if err := r.client.Set(ctx, magicLinkKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("store magic link token: %w", err)
	}

	return nil
}

// Consume atomically fetches and deletes the token so a magic link can only
// be redeemed once.
func (r *MagicLinkRepo) Consume(ctx context.Context, token string) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(token) == "" {
		return 0, authsvc.ErrInvalidInput
	}

	value, err := r.client.GetDel(ctx, magicLinkKey(token)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, authsvc.ErrMagicLinkNotFound
		}
		return 0, fmt.Errorf("consume magic link token: %w", err)
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil || userID <= 0 {
		return 0, authsvc.ErrMagicLinkNotFound
	}

	return userID, nil
}

func magicLinkKey(token string) string {
	return magicLinkPrefix + token
}
