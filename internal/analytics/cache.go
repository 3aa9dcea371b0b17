// internal/analytics/cache.go
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"msme-insights/internal/models"
)

// SummaryCache keeps computed summaries in Redis keyed by a hash of the
// filter set. It fails open: any Redis error reads as a miss and writes are
// fire-and-forget.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger Logger
}

func NewSummaryCache(client *redis.Client, ttl time.Duration, log Logger) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl, logger: log}
}

func cacheKey(filters models.AnalyticsFilters) string {
	// Filters marshal deterministically: fixed struct field order.
	raw, _ := json.Marshal(filters)
	sum := sha256.Sum256(raw)
	return "analytics:summary:" + hex.EncodeToString(sum[:16])
}

func (c *SummaryCache) Get(ctx context.Context, filters models.AnalyticsFilters) (*models.AnalyticsSummary, bool) {
	payload, err := c.client.Get(ctx, cacheKey(filters)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("summary cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var summary models.AnalyticsSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		c.logger.Warn("summary cache entry corrupt", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	return &summary, true
}

func (c *SummaryCache) Set(ctx context.Context, filters models.AnalyticsFilters, summary *models.AnalyticsSummary) {
	payload, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(filters), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("summary cache write failed", map[string]interface{}{"error": err.Error()})
	}
}
