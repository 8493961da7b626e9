package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

const trackingCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ExistsFunc reports whether a tracking code is already taken.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

type TrackingCodeConfig struct {
	Prefix     string
	Length     int
	MaxRetries int
}

func DefaultTrackingCodeConfig() TrackingCodeConfig {
	return TrackingCodeConfig{Prefix: "NSD", Length: 6, MaxRetries: 5}
}

type TrackingCodeGenerator interface {
	Generate(ctx context.Context, prefix string, length, maxRetries int) (string, error)
}

type trackingCodeGenerator struct {
	log    *logger.Logger
	exists ExistsFunc
	// randIndex returns a uniform index in [0, n). Swapped in tests.
	randIndex func(n int) (int, error)
}

func NewTrackingCodeGenerator(log *logger.Logger, exists ExistsFunc) TrackingCodeGenerator {
	return &trackingCodeGenerator{
		log:       log.With("service", "TrackingCodeGenerator"),
		exists:    exists,
		randIndex: cryptoIndex,
	}
}

// Generate probes random codes against the existence oracle. Nothing is
// reserved; the unique index on insert catches races between callers.
func (g *trackingCodeGenerator) Generate(ctx context.Context, prefix string, length, maxRetries int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("tracking code length must be positive, got %d", length)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code, err := g.candidate(prefix, length)
		if err != nil {
			return "", fmt.Errorf("generate tracking code: %w", err)
		}
		taken, err := g.exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check tracking code %s: %w", code, err)
		}
		if !taken {
			return code, nil
		}
		g.log.Warn("Tracking code collision",
			"tracking_id", code,
			"attempt", attempt,
			"max_retries", maxRetries,
		)
	}

	return "", &TrackingCodeExhaustedError{Prefix: prefix, Length: length, Attempts: maxRetries}
}

func (g *trackingCodeGenerator) candidate(prefix string, length int) (string, error) {
	var b strings.Builder
	b.Grow(len(prefix) + length)
	b.WriteString(prefix)
	for i := 0; i < length; i++ {
		idx, err := g.randIndex(len(trackingCodeAlphabet))
		if err != nil {
			return "", err
		}
		b.WriteByte(trackingCodeAlphabet[idx])
	}
	return b.String(), nil
}

func cryptoIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
