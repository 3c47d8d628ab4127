package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"library-ai-be/pkg/assistant/catalog"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Level tells where a cached lookup was served from.
type Level string

const (
	LevelNone Level = ""
	LevelL1   Level = "l1"
	LevelL2   Level = "l2"

	keyPrefix = "catalog:lookup:"
)

// CatalogCache keeps lookup results in process memory and, when a redis
// client is configured, in redis shared by all instances. Redis errors only
// cost a cache miss.
type CatalogCache struct {
	local *gocache.Cache
	rdb   *redis.Client
	ttl   time.Duration
}

func NewCatalogCache(rdb *redis.Client, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CatalogCache{
		local: gocache.New(ttl, 2*ttl),
		rdb:   rdb,
		ttl:   ttl,
	}
}

func key(keyword string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(keyword))
}

func (c *CatalogCache) Get(ctx context.Context, keyword string) ([]catalog.Record, Level, bool) {
	k := key(keyword)
	if x, found := c.local.Get(k); found {
		return x.([]catalog.Record), LevelL1, true
	}
	if c.rdb == nil {
		return nil, LevelNone, false
	}

	raw, err := c.rdb.Get(ctx, k).Bytes()
	if err != nil {
		return nil, LevelNone, false
	}
	var records []catalog.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, LevelNone, false
	}
	c.local.Set(k, records, gocache.DefaultExpiration)
	return records, LevelL2, true
}

// Set stores records, including an empty result so misses are not retried
// against the database until the entry expires.
func (c *CatalogCache) Set(ctx context.Context, keyword string, records []catalog.Record) error {
	if records == nil {
		records = []catalog.Record{}
	}
	k := key(keyword)
	c.local.Set(k, records, gocache.DefaultExpiration)
	if c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, k, raw, c.ttl).Err()
}

func (c *CatalogCache) Flush(ctx context.Context) {
	c.local.Flush()
}
