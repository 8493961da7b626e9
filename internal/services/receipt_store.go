package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/ctxutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/gcp"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

var ErrReceiptNotFound = errors.New("receipt not found")

// ReceiptStore archives rendered receipts keyed by tracking ID.
type ReceiptStore interface {
	// Save returns a URL or path the receipt can be fetched from.
	Save(ctx context.Context, trackingID string, pdf []byte) (string, error)
	Load(ctx context.Context, trackingID string) ([]byte, error)
	// Delete is a no-op for a receipt that was never archived.
	Delete(ctx context.Context, trackingID string) error
}

func receiptFileName(trackingID string) (string, error) {
	id := strings.TrimSpace(trackingID)
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid tracking id %q", trackingID)
	}
	return "receipt-" + id + ".pdf", nil
}

type localReceiptStore struct {
	log *logger.Logger
	dir string
}

func NewLocalReceiptStore(log *logger.Logger, dir string) (ReceiptStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "receipts"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir receipt dir: %w", err)
	}
	return &localReceiptStore{log: log.With("service", "LocalReceiptStore"), dir: dir}, nil
}

func (s *localReceiptStore) path(trackingID string) (string, error) {
	name, err := receiptFileName(trackingID)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

func (s *localReceiptStore) Save(ctx context.Context, trackingID string, pdf []byte) (string, error) {
	if err := ctxutil.Default(ctx).Err(); err != nil {
		return "", err
	}
	p, err := s.path(trackingID)
	if err != nil {
		return "", err
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename receipt: %w", err)
	}
	s.log.Debug("Receipt archived", "tracking_id", trackingID, "path", p, "bytes", len(pdf))
	return p, nil
}

func (s *localReceiptStore) Load(ctx context.Context, trackingID string) ([]byte, error) {
	if err := ctxutil.Default(ctx).Err(); err != nil {
		return nil, err
	}
	p, err := s.path(trackingID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read receipt: %w", err)
	}
	return data, nil
}

func (s *localReceiptStore) Delete(ctx context.Context, trackingID string) error {
	p, err := s.path(trackingID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove receipt: %w", err)
	}
	return nil
}

// ObjectBucket is the subset of gcp.BucketService the bucket store needs.
type ObjectBucket interface {
	Upload(ctx context.Context, key string, data []byte) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type bucketReceiptStore struct {
	bucket ObjectBucket
	prefix string
}

func NewBucketReceiptStore(bucket ObjectBucket, prefix string) ReceiptStore {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "receipts"
	}
	return &bucketReceiptStore{bucket: bucket, prefix: prefix}
}

func (s *bucketReceiptStore) key(trackingID string) (string, error) {
	name, err := receiptFileName(trackingID)
	if err != nil {
		return "", err
	}
	return s.prefix + "/" + name, nil
}

func (s *bucketReceiptStore) Save(ctx context.Context, trackingID string, pdf []byte) (string, error) {
	key, err := s.key(trackingID)
	if err != nil {
		return "", err
	}
	if err := s.bucket.Upload(ctx, key, pdf); err != nil {
		return "", err
	}
	return s.bucket.PublicURL(key), nil
}

func (s *bucketReceiptStore) Load(ctx context.Context, trackingID string) ([]byte, error) {
	key, err := s.key(trackingID)
	if err != nil {
		return nil, err
	}
	data, err := s.bucket.Download(ctx, key)
	if errors.Is(err, gcp.ErrObjectNotFound) {
		return nil, ErrReceiptNotFound
	}
	return data, err
}

func (s *bucketReceiptStore) Delete(ctx context.Context, trackingID string) error {
	key, err := s.key(trackingID)
	if err != nil {
		return err
	}
	return s.bucket.Delete(ctx, key)
}
