package dedup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/tkivela/dealwatch/app/alert"
)

const (
	redisKeyPrefix   = "dealwatch:finding:"
	redisRecentKey   = "dealwatch:findings:recent"
	redisCountKey    = "dealwatch:findings:count"
	redisRecentLimit = 1000
)

var _ Index = (*RedisIndex)(nil)

// RedisIndex shares the dedup index between processes. SET NX on the
// fingerprint key is the atomic check-and-insert; a capped list keeps the
// recent findings view.
type RedisIndex struct {
	client *redis.Client
}

func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func (r *RedisIndex) CheckAndInsert(ctx context.Context, f alert.Finding) (bool, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return false, fmt.Errorf("failed to marshal finding: %w", err)
	}

	inserted, err := r.client.SetNX(ctx, redisKeyPrefix+f.Fingerprint, data, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to insert finding: %w", err)
	}
	if !inserted {
		return false, nil
	}

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, redisRecentKey, data)
	pipe.LTrim(ctx, redisRecentKey, 0, redisRecentLimit-1)
	pipe.Incr(ctx, redisCountKey)
	if _, err := pipe.Exec(ctx); err != nil {
		// The fingerprint is already committed; only the recency view failed.
		slog.Warn("Failed to update recent findings view", "fingerprint", f.Fingerprint, "error", err)
	}

	return true, nil
}

func (r *RedisIndex) Recent(ctx context.Context, limit int) ([]alert.Finding, error) {
	if limit <= 0 {
		limit = redisRecentLimit
	}

	entries, err := r.client.LRange(ctx, redisRecentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read recent findings: %w", err)
	}

	findings := make([]alert.Finding, 0, len(entries))
	for _, entry := range entries {
		var f alert.Finding
		if err := json.Unmarshal([]byte(entry), &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal finding: %w", err)
		}
		findings = append(findings, f)
	}

	return findings, nil
}

func (r *RedisIndex) Count(ctx context.Context) (int, error) {
	count, err := r.client.Get(ctx, redisCountKey).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read finding count: %w", err)
	}
	return count, nil
}
