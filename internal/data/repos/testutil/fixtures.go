package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/shipment"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: "user-" + uuid.NewString()[:8],
		Email:    email,
		Password: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// NewShipment builds an unsaved shipment with every required field filled in.
func NewShipment(trackingID string) *types.Shipment {
	now := time.Now().UTC().Truncate(time.Second)
	return &types.Shipment{
		TrackingID: trackingID,
		Sender: types.Person{
			Name: "Ada Obi", Email: "ada@example.com", Phone: "+2348000000001",
			Address: "1 Marina", City: "Lagos", Country: "Nigeria",
		},
		Receiver: types.Person{
			Name: "Kofi Mensah", Email: "kofi@example.com", Phone: "+233200000002",
			Address: "2 Ring Rd", City: "Accra", Country: "Ghana",
		},
		Package: types.PackageInfo{
			WeightKg: 2.5, Dimensions: "30x20x15 cm", Description: "Books", Quantity: 1,
		},
		Origin:            types.Address{Address: "Hub 1", City: "Lagos", Country: "Nigeria"},
		Destination:       types.Address{Address: "Hub 9", City: "Accra", Country: "Ghana"},
		Status:            types.StatusInTransit,
		CurrentLocation:   shipment.NewLocationColumn(nil),
		RegisteredAt:      now,
		EstimatedDelivery: now.Add(72 * time.Hour),
	}
}

func SeedShipment(tb testing.TB, ctx context.Context, tx *gorm.DB, trackingID string, mutate ...func(*types.Shipment)) *types.Shipment {
	tb.Helper()
	s := NewShipment(trackingID)
	for _, m := range mutate {
		m(s)
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed shipment: %v", err)
	}
	return s
}

func SeedTracking(tb testing.TB, ctx context.Context, tx *gorm.DB, s *types.Shipment) *types.Tracking {
	tb.Helper()
	t := shipment.ProjectTracking(s)
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tracking: %v", err)
	}
	return t
}
