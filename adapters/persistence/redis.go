package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

func NewRedisClient(ctx context.Context, cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}

	log.Info("Connect Redis successfully.", zap.String("addr", cfg.Redis.Addr))
	return rdb, nil
}

const (
	publicCachePrefix   = "folio:public:"
	publicVersionPrefix = "folio:public-version:"

	// versionTTL only has to outlive any in-flight render.
	versionTTL = 24 * time.Hour
)

// setIfVersion writes the view only while the slug's version still equals
// ARGV[1]. A missing version key counts as 0.
var setIfVersion = redis.NewScript(`
if tonumber(redis.call('GET', KEYS[2]) or '0') ~= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

type redisPortfolioCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisPortfolioCache(rdb *redis.Client, ttl time.Duration, log logger.Logger) service.PortfolioCache {
	return &redisPortfolioCache{rdb: rdb, ttl: ttl, logger: log}
}

func publicCacheKey(slug string) string {
	return publicCachePrefix + slug
}

func publicVersionKey(slug string) string {
	return publicVersionPrefix + slug
}

// Get treats every failure as a miss; the database is the source of truth.
func (c *redisPortfolioCache) Get(ctx context.Context, slug string) (*service.PublicPortfolio, bool) {
	raw, err := c.rdb.Get(ctx, publicCacheKey(slug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Public cache read failed", zap.String("slug", slug), zap.Error(err))
		}
		return nil, false
	}

	var view service.PublicPortfolio
	if err := json.Unmarshal(raw, &view); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("slug", slug), zap.Error(err))
		c.rdb.Del(ctx, publicCacheKey(slug))
		return nil, false
	}
	return &view, true
}

func (c *redisPortfolioCache) Version(ctx context.Context, slug string) (int64, error) {
	v, err := c.rdb.Get(ctx, publicVersionKey(slug)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *redisPortfolioCache) Set(ctx context.Context, slug string, version int64, view *service.PublicPortfolio) (bool, error) {
	raw, err := json.Marshal(view)
	if err != nil {
		return false, fmt.Errorf("marshal public view: %w", err)
	}
	stored, err := setIfVersion.Run(ctx, c.rdb,
		[]string{publicCacheKey(slug), publicVersionKey(slug)},
		version, raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate bumps each slug's version before dropping its view, in one
// transaction, so a render that loaded before the change cannot store it.
func (c *redisPortfolioCache) Invalidate(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range slugs {
			pipe.Incr(ctx, publicVersionKey(s))
			pipe.Expire(ctx, publicVersionKey(s), versionTTL)
			pipe.Del(ctx, publicCacheKey(s))
		}
		return nil
	})
	return err
}
