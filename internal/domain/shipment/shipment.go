package shipment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Person struct {
	Name           string  `gorm:"not null" json:"name"`
	Email          string  `gorm:"not null;index" json:"email"`
	Phone          string  `gorm:"not null" json:"phoneNumber"`
	Address        string  `gorm:"not null" json:"address"`
	City           string  `gorm:"not null" json:"city"`
	Country        string  `gorm:"not null" json:"country"`
	ZipCode        *string `json:"zipCode,omitempty"`
	CompanyName    *string `json:"companyName,omitempty"`
	AlternatePhone *string `json:"alternatePhone,omitempty"`
}

type PackageInfo struct {
	WeightKg          float64  `gorm:"not null" json:"weightKg"`
	Dimensions        string   `gorm:"not null" json:"dimensions"`
	Description       string   `gorm:"not null" json:"description"`
	DeclaredValue     *float64 `json:"declaredValue,omitempty"`
	Quantity          int      `gorm:"not null;default:1" json:"quantity"`
	IsFragile         bool     `gorm:"not null;default:false" json:"isFragile"`
	RequiresSignature bool     `gorm:"not null;default:false" json:"requiresSignature"`
}

type Address struct {
	Address string  `gorm:"not null" json:"address"`
	City    string  `gorm:"not null" json:"city"`
	Country string  `gorm:"not null;index" json:"country"`
	ZipCode *string `json:"zipCode,omitempty"`
}

// Location is the last known hub or checkpoint of a shipment.
type Location struct {
	HubName      string     `json:"hubName,omitempty"`
	Address      string     `json:"address,omitempty"`
	City         string     `json:"city"`
	Country      string     `json:"country"`
	ZipCode      string     `json:"zipCode,omitempty"`
	ContactName  string     `json:"contactName,omitempty"`
	ContactPhone string     `json:"contactPhone,omitempty"`
	ArrivedAt    *time.Time `json:"arrivedAt,omitempty"`
	DepartedAt   *time.Time `json:"departedAt,omitempty"`
}

// LocationColumn stores an optional Location as JSON. A JSON null means no location.
type LocationColumn = datatypes.JSONType[*Location]

func NewLocationColumn(loc *Location) LocationColumn {
	return datatypes.NewJSONType(loc)
}

type Shipment struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TrackingID        string         `gorm:"column:tracking_id;uniqueIndex;not null;size:64" json:"trackingId"`
	Sender            Person         `gorm:"embedded;embeddedPrefix:sender_" json:"sender"`
	Receiver          Person         `gorm:"embedded;embeddedPrefix:receiver_" json:"receiver"`
	Package           PackageInfo    `gorm:"embedded;embeddedPrefix:package_" json:"package"`
	Origin            Address        `gorm:"embedded;embeddedPrefix:origin_" json:"origin"`
	Destination       Address        `gorm:"embedded;embeddedPrefix:destination_" json:"destination"`
	Status            Status         `gorm:"column:status;not null;index;default:InTransit" json:"status"`
	CurrentLocation   LocationColumn `gorm:"column:current_location" json:"currentLocation"`
	RegisteredAt      time.Time      `gorm:"column:registered_at;not null" json:"registeredAt"`
	EstimatedDelivery time.Time      `gorm:"column:estimated_delivery;not null" json:"estimatedDelivery"`
	CreatedAt         time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (Shipment) TableName() string { return "shipment" }

func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StatusInTransit
	}
	if s.Package.Quantity < 1 {
		s.Package.Quantity = 1
	}
	return nil
}

// Location returns the current location, or nil when none is recorded.
func (s *Shipment) Location() *Location {
	if s == nil {
		return nil
	}
	return s.CurrentLocation.Data()
}
