package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joshua-takyi/eventnest/internal/monitoring"
	"github.com/joshua-takyi/eventnest/internal/search"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "search:filters:"

// FilterCache stores parsed search filters in Redis keyed by normalized query.
type FilterCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

func NewFilterCache(client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *FilterCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &FilterCache{client: client, ttl: ttl, logger: logger}
}

func Key(query string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func (c *FilterCache) Get(ctx context.Context, query string) (search.Filters, bool) {
	raw, err := c.client.Get(ctx, Key(query)).Result()
	if errors.Is(err, redis.Nil) {
		return search.Filters{}, false
	}
	if err != nil {
		c.logger.Warn("Filter cache read failed", "error", err)
		return search.Filters{}, false
	}

	var f search.Filters
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		c.logger.Warn("Filter cache entry corrupt", "error", err)
		return search.Filters{}, false
	}
	return f, true
}

func (c *FilterCache) Set(ctx context.Context, query string, f search.Filters) {
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, Key(query), string(data), c.ttl).Err(); err != nil {
		c.logger.Warn("Filter cache write failed", "error", err)
	}
}

// CachedParser answers from the cache before delegating to Parser.
type CachedParser struct {
	Cache  *FilterCache
	Parser search.Parser
}

func (p *CachedParser) Parse(ctx context.Context, query string) (search.Filters, error) {
	if f, ok := p.Cache.Get(ctx, query); ok {
		monitoring.RecordSearchParse("cache")
		return f, nil
	}
	f, err := p.Parser.Parse(ctx, query)
	if err != nil {
		return f, err
	}
	p.Cache.Set(ctx, query, f)
	return f, nil
}
