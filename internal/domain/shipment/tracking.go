package shipment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrackingSender struct {
	Name    string `gorm:"not null" json:"name"`
	City    string `gorm:"not null" json:"city"`
	Country string `gorm:"not null" json:"country"`
}

type TrackingReceiver struct {
	Name    string `gorm:"not null" json:"name"`
	Phone   string `gorm:"not null" json:"phoneNumber"`
	City    string `gorm:"not null" json:"city"`
	Country string `gorm:"not null" json:"country"`
}

// Tracking is the public projection of a Shipment. Its embedded columns reuse
// the Shipment column names so a shipment patch can be filtered onto it.
type Tracking struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"-"`
	TrackingID        string           `gorm:"column:tracking_id;uniqueIndex;not null;size:64" json:"trackingId"`
	Sender            TrackingSender   `gorm:"embedded;embeddedPrefix:sender_" json:"sender"`
	Receiver          TrackingReceiver `gorm:"embedded;embeddedPrefix:receiver_" json:"receiver"`
	Status            Status           `gorm:"column:status;not null;default:InTransit" json:"status"`
	Destination       Address          `gorm:"embedded;embeddedPrefix:destination_" json:"destination"`
	CurrentLocation   LocationColumn   `gorm:"column:current_location" json:"currentLocation"`
	RegisteredAt      time.Time        `gorm:"column:registered_at;not null" json:"registeredAt"`
	EstimatedDelivery time.Time        `gorm:"column:estimated_delivery;not null" json:"estimatedDelivery"`
	CreatedAt         time.Time        `json:"-"`
	UpdatedAt         time.Time        `json:"-"`
}

func (Tracking) TableName() string { return "tracking" }

func (t *Tracking) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ProjectTracking derives the public record from a shipment.
func ProjectTracking(s *Shipment) *Tracking {
	if s == nil {
		return nil
	}
	return &Tracking{
		TrackingID: s.TrackingID,
		Sender: TrackingSender{
			Name:    s.Sender.Name,
			City:    s.Sender.City,
			Country: s.Sender.Country,
		},
		Receiver: TrackingReceiver{
			Name:    s.Receiver.Name,
			Phone:   s.Receiver.Phone,
			City:    s.Receiver.City,
			Country: s.Receiver.Country,
		},
		Status:            s.Status,
		Destination:       s.Destination,
		CurrentLocation:   NewLocationColumn(s.Location()),
		RegisteredAt:      s.RegisteredAt,
		EstimatedDelivery: s.EstimatedDelivery,
	}
}

// TrackingColumns is the subset of shipment columns mirrored on the tracking table.
var TrackingColumns = map[string]struct{}{
	"sender_name":          {},
	"sender_city":          {},
	"sender_country":       {},
	"receiver_name":        {},
	"receiver_phone":       {},
	"receiver_city":        {},
	"receiver_country":     {},
	"status":               {},
	"destination_address":  {},
	"destination_city":     {},
	"destination_country":  {},
	"destination_zip_code": {},
	"current_location":     {},
	"estimated_delivery":   {},
}

// Drifted reports whether the tracking record disagrees with the shipment on
// the fields the public lookup depends on.
func (t *Tracking) Drifted(s *Shipment) bool {
	if t == nil || s == nil {
		return t != nil || s != nil
	}
	if t.Status != s.Status || !t.EstimatedDelivery.Equal(s.EstimatedDelivery) {
		return true
	}
	if t.Destination.Address != s.Destination.Address ||
		t.Destination.City != s.Destination.City ||
		t.Destination.Country != s.Destination.Country {
		return true
	}
	return !equalZip(t.Destination.ZipCode, s.Destination.ZipCode)
}

func equalZip(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
