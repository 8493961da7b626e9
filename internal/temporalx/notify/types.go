package notify

import "github.com/Britinogn/CourviaShipAPI/internal/services"

const (
	WorkflowName    = "shipment_notification"
	ActivityDeliver = "shipment_notification_deliver"
)

type Kind string

const (
	KindRegistered Kind = "registered"
	KindUpdated    Kind = "updated"
)

// Request identifies one customer email. The shipment is reloaded when the
// activity runs so retries always send current data.
type Request struct {
	TrackingID string                   `json:"tracking_id"`
	Kind       Kind                     `json:"kind"`
	Change     *services.ShipmentChange `json:"change,omitempty"`
}
