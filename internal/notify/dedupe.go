package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupeTTL bounds how long a sent status notification suppresses repeats.
const dedupeTTL = 24 * time.Hour

// Deduper suppresses duplicate status-change notifications. Concurrent
// reconciliation passes for the same user could otherwise double-send when
// the same transition is observed twice.
type Deduper struct {
	redis *redis.Client
}

// NewDeduperFromEnv returns a Redis-backed deduper when REDIS_URL is set,
// otherwise nil. A nil Deduper is valid and performs no suppression.
func NewDeduperFromEnv() (*Deduper, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &Deduper{redis: client}, nil
}

// ShouldNotify claims the requestID+status transition and reports whether a
// notification should be sent. The first caller for a given transition wins;
// on Redis errors it reports true so a broken cache degrades to the
// at-least-once reference behavior.
func (d *Deduper) ShouldNotify(ctx context.Context, requestID, status string) bool {
	if d == nil || d.redis == nil {
		return true
	}
	key := "iga:notified:" + hashKey(requestID+":"+status)
	set, err := d.redis.SetNX(ctx, key, 1, dedupeTTL).Result()
	if err != nil {
		return true
	}
	return set
}

// Close releases the Redis connection.
func (d *Deduper) Close() error {
	if d == nil || d.redis == nil {
		return nil
	}
	return d.redis.Close()
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
