package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/testutil"
	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type testStores struct {
	db        *gorm.DB
	shipments repos.ShipmentRepo
	trackings repos.TrackingRepo
}

func newTestStores(t *testing.T) testStores {
	t.Helper()
	db := testutil.DB(t)
	log := logger.Nop()
	return testStores{
		db:        db,
		shipments: repos.NewShipmentRepo(db, log),
		trackings: repos.NewTrackingRepo(db, log),
	}
}

func validRegisterInput() RegisterShipmentInput {
	zip := "GA-100"
	qty := 2
	return RegisterShipmentInput{
		SenderName:         "Ada Obi",
		SenderEmail:        " ADA@Example.com ",
		SenderPhone:        "+2348000000001",
		SenderAddress:      "1 Marina",
		SenderCity:         "Lagos",
		SenderCountry:      "Nigeria",
		ReceiverName:       "Kofi Mensah",
		ReceiverEmail:      "kofi@example.com",
		ReceiverPhone:      "+233200000002",
		ReceiverAddress:    "2 Ring Rd",
		ReceiverCity:       "Accra",
		ReceiverCountry:    "Ghana",
		ReceiverZipCode:    &zip,
		PackageWeightKg:    2.5,
		PackageDimensions:  "30x20x15 cm",
		PackageDescription: "Books",
		PackageQuantity:    &qty,
		OriginAddress:      "Hub 1",
		OriginCity:         "Lagos",
		OriginCountry:      "Nigeria",
		DestinationAddress: "Hub 9",
		DestinationCity:    "Accra",
		DestinationCountry: "Ghana",
		EstimatedDelivery:  time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339),
	}
}

// fixedCodes hands out codes in order and ignores the existence oracle.
type fixedCodes struct {
	codes []string
	err   error
	calls int
}

func (f *fixedCodes) Generate(ctx context.Context, prefix string, length, maxRetries int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	code := f.codes[f.calls%len(f.codes)]
	f.calls++
	return code, nil
}

type notifyCall struct {
	kind    string
	id      string
	receipt []byte
	change  ShipmentChange
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
	err   error
}

func (n *recordingNotifier) ShipmentRegistered(ctx context.Context, s *types.Shipment, receipt []byte) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{kind: "registered", id: s.TrackingID, receipt: receipt})
	return n.err
}

func (n *recordingNotifier) ShipmentUpdated(ctx context.Context, s *types.Shipment, change ShipmentChange) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifyCall{kind: "updated", id: s.TrackingID, change: change})
	return n.err
}

type stubRenderer struct {
	err   error
	calls int
}

func (r *stubRenderer) Render(ctx context.Context, s *types.Shipment) ([]byte, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-" + s.TrackingID), nil
}

type memReceiptStore struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemReceiptStore() *memReceiptStore {
	return &memReceiptStore{files: map[string][]byte{}}
}

func (m *memReceiptStore) Save(ctx context.Context, id string, pdf []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = pdf
	return "mem://" + id, nil
}

func (m *memReceiptStore) Load(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[id]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return b, nil
}

func (m *memReceiptStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	return nil
}

type memTrackingCache struct {
	mu      sync.Mutex
	entries map[string]*types.Tracking
	gets    int
}

func newMemTrackingCache() *memTrackingCache {
	return &memTrackingCache{entries: map[string]*types.Tracking{}}
}

func (c *memTrackingCache) Get(ctx context.Context, id string) (*types.Tracking, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.entries[id], nil
}

func (c *memTrackingCache) Set(ctx context.Context, t *types.Tracking) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[t.TrackingID] = t
	return nil
}

func (c *memTrackingCache) Delete(ctx context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
	return nil
}

// hookTrackingRepo runs beforeUpdate ahead of each delegated UpdateFields.
type hookTrackingRepo struct {
	repos.TrackingRepo
	beforeUpdate func(trackingID string)
}

func (h hookTrackingRepo) UpdateFields(dbc dbctx.Context, trackingID string, fields map[string]interface{}) (int64, error) {
	if h.beforeUpdate != nil {
		h.beforeUpdate(trackingID)
	}
	return h.TrackingRepo.UpdateFields(dbc, trackingID, fields)
}

var errTrackingDown = errors.New("tracking store unavailable")

// flakyTrackingRepo fails writes while delegating reads to the real repo.
type flakyTrackingRepo struct {
	repos.TrackingRepo
}

func (f flakyTrackingRepo) Create(dbc dbctx.Context, t *types.Tracking) error {
	return errTrackingDown
}

func (f flakyTrackingRepo) UpdateFields(dbc dbctx.Context, id string, fields map[string]interface{}) (int64, error) {
	return 0, errTrackingDown
}
