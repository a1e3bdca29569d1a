package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory/internal/model"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "inventory:report"

// ReportCache keeps financial reports in Redis. Keys embed a generation
// counter so Invalidate drops every period with a single INCR.
type ReportCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewReportCache(client redis.Cmdable, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func generationKey() string {
	return keyPrefix + ":generation"
}

func reportKey(generation int64, start, end time.Time) string {
	return fmt.Sprintf("%s:%d:%d:%d", keyPrefix, generation, start.UnixNano(), end.UnixNano())
}

func (c *ReportCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get returns the generation it read alongside the report so a caller that
// misses can store its result under that same generation.
func (c *ReportCache) Get(ctx context.Context, start, end time.Time) (*model.FinancialReport, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to read report generation: %w", err)
	}

	data, err := c.client.Get(ctx, reportKey(gen, start, end)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, gen, false, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report model.FinancialReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, gen, false, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &report, gen, true, nil
}

// Set stores a report under the generation observed by the Get that missed.
// If Invalidate ran in between, the entry lands under a generation nobody
// reads anymore and simply expires.
func (c *ReportCache) Set(ctx context.Context, generation int64, start, end time.Time, report *model.FinancialReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.Set(ctx, reportKey(generation, start, end), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// Invalidate bumps the generation; old entries expire on their own.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate reports: %w", err)
	}
	return nil
}
