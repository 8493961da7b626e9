// Package rediscache is a read-through cache for public tracking records.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/envutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

const (
	defaultKeyPrefix = "tracking:"
	defaultTTL       = 5 * time.Minute
)

type Config struct {
	Addr      string
	Password  string
	DB        int
	TTL       time.Duration
	KeyPrefix string
}

func ConfigFromEnv() Config {
	return Config{
		Addr:      envutil.String("REDIS_ADDR", ""),
		Password:  envutil.String("REDIS_PASSWORD", ""),
		DB:        envutil.Int("REDIS_DB", 0),
		TTL:       envutil.Duration("TRACKING_CACHE_TTL", defaultTTL),
		KeyPrefix: envutil.String("TRACKING_CACHE_PREFIX", defaultKeyPrefix),
	}
}

type TrackingCache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	ttl    time.Duration
	prefix string
}

// New dials Redis and verifies the connection.
func New(log *logger.Logger, cfg Config) (*TrackingCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewWithClient(log, rdb, cfg), nil
}

func NewWithClient(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) *TrackingCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &TrackingCache{
		log:    log.With("client", "RedisTrackingCache"),
		rdb:    rdb,
		ttl:    ttl,
		prefix: prefix,
	}
}

func (c *TrackingCache) key(trackingID string) string {
	return c.prefix + strings.TrimSpace(trackingID)
}

// Get returns nil, nil on a miss.
func (c *TrackingCache) Get(ctx context.Context, trackingID string) (*types.Tracking, error) {
	raw, err := c.rdb.Get(ctx, c.key(trackingID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t types.Tracking
	if err := json.Unmarshal(raw, &t); err != nil {
		c.log.Warn("Dropping undecodable tracking cache entry", "tracking_id", trackingID, "error", err)
		_ = c.rdb.Del(ctx, c.key(trackingID)).Err()
		return nil, nil
	}
	return &t, nil
}

func (c *TrackingCache) Set(ctx context.Context, t *types.Tracking) error {
	if t == nil || t.TrackingID == "" {
		return nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(t.TrackingID), raw, c.ttl).Err()
}

func (c *TrackingCache) Delete(ctx context.Context, trackingIDs ...string) error {
	if len(trackingIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(trackingIDs))
	for _, id := range trackingIDs {
		keys = append(keys, c.key(id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *TrackingCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *TrackingCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
