package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Channel string

const ChannelEmail Channel = "email"

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

type Kind string

const (
	KindRegistration Kind = "registration"
	KindUpdate       Kind = "update"
)

// Notification records one attempt to tell a receiver about their shipment.
type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TrackingID string         `gorm:"column:tracking_id;index;not null" json:"trackingId"`
	Channel    Channel        `gorm:"column:channel;not null;default:email" json:"type"`
	Kind       Kind           `gorm:"column:kind;not null" json:"kind"`
	Recipient  string         `gorm:"column:recipient;not null" json:"recipient"`
	Subject    string         `gorm:"column:subject" json:"subject"`
	Status     Status         `gorm:"column:status;not null;index" json:"status"`
	Error      string         `gorm:"column:error" json:"error,omitempty"`
	MessageID  string         `gorm:"column:message_id" json:"messageId,omitempty"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	SentAt     *time.Time     `gorm:"column:sent_at" json:"sentAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

func (Notification) TableName() string { return "notification" }

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = StatusPending
	}
	return nil
}
