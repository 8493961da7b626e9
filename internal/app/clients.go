package app

import (
	"context"
	"fmt"
	"strings"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/gcp"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/rediscache"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/sendgrid"
	"github.com/Britinogn/CourviaShipAPI/internal/temporalx"
)

// Clients holds the external connections. Every field is nil when the
// matching integration is not configured.
type Clients struct {
	Cache    *rediscache.TrackingCache
	Bucket   gcp.BucketService
	Mailer   sendgrid.Client
	Temporal temporalsdkclient.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	// Redis
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		cache, err := rediscache.New(log, cfg.Redis)
		if err != nil {
			// Public lookups fall back to the tracking store.
			log.Warn("Redis unavailable; tracking cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			c.Cache = cache
		}
	}

	// Gcs
	if cfg.ReceiptStorage == ReceiptStorageGCS {
		bucket, err := gcp.NewBucketService(ctx, log)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init receipt bucket: %w", err)
		}
		c.Bucket = bucket
	}

	// SendGrid
	if cfg.EmailEnabled {
		mailer, err := sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init sendgrid client: %w", err)
		}
		c.Mailer = mailer
	}

	// Temporal
	tc, err := temporalx.NewClient(ctx, log, cfg.Temporal)
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}
	c.Temporal = tc

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Bucket != nil {
		_ = c.Bucket.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
