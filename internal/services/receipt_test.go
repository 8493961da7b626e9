package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/testutil"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/gcp"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

func TestReceiptRendererProducesPDF(t *testing.T) {
	r, err := NewReceiptRenderer(logger.Nop(), DefaultReceiptBranding())
	if err != nil {
		t.Fatalf("NewReceiptRenderer: %v", err)
	}
	s := testutil.NewShipment("NSDPDF001")
	zip := "GA-100"
	s.Receiver.ZipCode = &zip

	pdf, err := r.Render(context.Background(), s)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF-")) {
		t.Fatalf("not a pdf: %q", pdf[:min(len(pdf), 16)])
	}
	if len(pdf) < 1024 {
		t.Fatalf("pdf suspiciously small: %d bytes", len(pdf))
	}
}

func TestReceiptRendererRejectsCancelledContext(t *testing.T) {
	r, err := NewReceiptRenderer(logger.Nop(), DefaultReceiptBranding())
	if err != nil {
		t.Fatalf("NewReceiptRenderer: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx, testutil.NewShipment("NSDPDF002")); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled got=%v", err)
	}
}

func TestReceiptRendererConcurrentRenders(t *testing.T) {
	r, err := NewReceiptRenderer(logger.Nop(), DefaultReceiptBranding())
	if err != nil {
		t.Fatalf("NewReceiptRenderer: %v", err)
	}

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pdf, err := r.Render(context.Background(), testutil.NewShipment(fmt.Sprintf("NSDCON%03d", i)))
			if err == nil && !bytes.HasPrefix(pdf, []byte("%PDF-")) {
				err = fmt.Errorf("not a pdf")
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("render %d: %v", i, err)
		}
	}
}

func TestLocalReceiptStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	store, err := NewLocalReceiptStore(logger.Nop(), dir)
	if err != nil {
		t.Fatalf("NewLocalReceiptStore: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Load(ctx, "NSDLOC001"); !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("want ErrReceiptNotFound got=%v", err)
	}
	p, err := store.Save(ctx, "NSDLOC001", []byte("%PDF-x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if want := filepath.Join(dir, "receipt-NSDLOC001.pdf"); p != want {
		t.Fatalf("path: want=%q got=%q", want, p)
	}
	got, err := store.Load(ctx, "NSDLOC001")
	if err != nil || string(got) != "%PDF-x" {
		t.Fatalf("Load: got=%q err=%v", got, err)
	}
	if err := store.Delete(ctx, "NSDLOC001"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("file must be removed, stat err=%v", err)
	}
	if err := store.Delete(ctx, "NSDLOC001"); err != nil {
		t.Fatalf("second Delete must be a no-op: %v", err)
	}
}

func TestReceiptFileNameRejectsPaths(t *testing.T) {
	for _, id := range []string{"", "  ", "../etc", "a/b", `a\b`} {
		if _, err := receiptFileName(id); err == nil {
			t.Fatalf("id %q: want error", id)
		}
	}
}

type fakeBucket struct {
	objects map[string][]byte
}

func (b *fakeBucket) Upload(ctx context.Context, key string, data []byte) error {
	b.objects[key] = data
	return nil
}

func (b *fakeBucket) Download(ctx context.Context, key string) ([]byte, error) {
	data, ok := b.objects[key]
	if !ok {
		return nil, gcp.ErrObjectNotFound
	}
	return data, nil
}

func (b *fakeBucket) Delete(ctx context.Context, key string) error {
	delete(b.objects, key)
	return nil
}

func (b *fakeBucket) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestBucketReceiptStore(t *testing.T) {
	bucket := &fakeBucket{objects: map[string][]byte{}}
	store := NewBucketReceiptStore(bucket, "/archive/")
	ctx := context.Background()

	url, err := store.Save(ctx, "NSDGCS001", []byte("%PDF-y"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if url != "https://cdn.example.com/archive/receipt-NSDGCS001.pdf" {
		t.Fatalf("url: got=%q", url)
	}
	if _, ok := bucket.objects["archive/receipt-NSDGCS001.pdf"]; !ok {
		t.Fatalf("object key: got=%v", bucket.objects)
	}
	if _, err := store.Load(ctx, "NSDGCS404"); !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("want ErrReceiptNotFound got=%v", err)
	}

	def := NewBucketReceiptStore(bucket, "")
	if _, err := def.Save(ctx, "NSDGCS002", []byte("%PDF-z")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := bucket.objects["receipts/receipt-NSDGCS002.pdf"]; !ok {
		t.Fatalf("default prefix not applied: %v", bucket.objects)
	}
}
