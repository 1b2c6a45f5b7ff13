package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/salon-offers/internal/model"
)

const publicGenerationKey = "offers:public:generation"

// RedisCommander is the subset of the go-redis client used by the cache.
type RedisCommander interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// OfferCache caches pages of the public active listing in Redis.
// Entries are namespaced by a generation counter; bumping it invalidates every page at once
// and the old entries age out through their TTL.
type OfferCache struct {
	client RedisCommander
	ttl    time.Duration
}

// NewOfferCache creates an OfferCache storing pages for ttl.
func NewOfferCache(client RedisCommander, ttl time.Duration) *OfferCache {
	return &OfferCache{client: client, ttl: ttl}
}

func (c *OfferCache) generation(ctx context.Context) (string, error) {
	gen, err := c.client.Get(ctx, publicGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return gen, err
}

func pageKey(gen string, f model.OfferFilter) string {
	return fmt.Sprintf("offers:public:%s:salon=%s:product=%s:service=%s:page=%d:limit=%d",
		gen, f.SalonID, f.ProductID, f.ServiceID, f.Page, f.Limit)
}

// Get returns the cached page for filter, if any.
func (c *OfferCache) Get(ctx context.Context, filter model.OfferFilter) (*model.OfferPage, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("offer cache: read generation failed")
		return nil, false
	}

	raw, err := c.client.Get(ctx, pageKey(gen, filter)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("offer cache: read page failed")
		}
		return nil, false
	}

	var page model.OfferPage
	if err := json.Unmarshal(raw, &page); err != nil {
		log.Warn().Err(err).Msg("offer cache: corrupt page ignored")
		return nil, false
	}
	return &page, true
}

// Set stores page for filter under the current generation for the configured TTL,
// shortened to maxAge when that is positive and smaller.
func (c *OfferCache) Set(ctx context.Context, filter model.OfferFilter, page *model.OfferPage, maxAge time.Duration) {
	gen, err := c.generation(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("offer cache: read generation failed")
		return
	}

	raw, err := json.Marshal(page)
	if err != nil {
		log.Warn().Err(err).Msg("offer cache: marshal page failed")
		return
	}
	ttl := c.ttl
	if maxAge > 0 && maxAge < ttl {
		ttl = maxAge
	}
	if err := c.client.Set(ctx, pageKey(gen, filter), raw, ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("offer cache: write page failed")
	}
}

// Invalidate drops every cached page.
func (c *OfferCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, publicGenerationKey).Err(); err != nil {
		log.Warn().Err(err).Msg("offer cache: invalidate failed")
	}
}
