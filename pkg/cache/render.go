// Package cache holds the rendered-HTML cache for offer content. The cache is
// process-external and shared; it is the only state outside the store. Writes
// are not transactional with store writes, so writers invalidate and then
// eagerly repopulate. Failures degrade to uncached renders.
package cache

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis"
)

const renderTTL = 12 * time.Hour

func NewRenderCache(logger *slog.Logger, client *redis.Client) *RenderCache {
	return &RenderCache{
		logger: logger,
		client: client,
		ttl:    renderTTL,
	}
}

type RenderCache struct {
	logger *slog.Logger
	client *redis.Client
	ttl    time.Duration
}

// Get returns the cached HTML for an offer, false on a miss or a backend
// failure.
func (c *RenderCache) Get(offerID uint) (string, bool) {
	html, err := c.client.Get(key(offerID)).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.logger.Warn("Render cache read failed", "offer", offerID, "error", err)
		return "", false
	}
	return html, true
}

func (c *RenderCache) Set(offerID uint, html string) {
	if err := c.client.Set(key(offerID), html, c.ttl).Err(); err != nil {
		c.logger.Warn("Render cache write failed", "offer", offerID, "error", err)
	}
}

func (c *RenderCache) Invalidate(offerID uint) {
	if err := c.client.Del(key(offerID)).Err(); err != nil {
		c.logger.Warn("Render cache invalidation failed", "offer", offerID, "error", err)
	}
}

func key(offerID uint) string {
	return fmt.Sprintf("offer:%d:rendered", offerID)
}
