package domain

import (
	"github.com/Britinogn/CourviaShipAPI/internal/domain/auth"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/notification"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/shipment"
	"github.com/Britinogn/CourviaShipAPI/internal/domain/user"
)

type (
	User      = user.User
	UserToken = auth.UserToken

	Shipment         = shipment.Shipment
	Tracking         = shipment.Tracking
	Person           = shipment.Person
	PackageInfo      = shipment.PackageInfo
	Address          = shipment.Address
	Location         = shipment.Location
	ShipmentStatus   = shipment.Status
	TrackingSender   = shipment.TrackingSender
	TrackingReceiver = shipment.TrackingReceiver

	Notification       = notification.Notification
	NotificationStatus = notification.Status
	NotificationKind   = notification.Kind
)

const (
	StatusPickedUp       = shipment.StatusPickedUp
	StatusInTransit      = shipment.StatusInTransit
	StatusEnRoute        = shipment.StatusEnRoute
	StatusInCustoms      = shipment.StatusInCustoms
	StatusAtHub          = shipment.StatusAtHub
	StatusOutForDelivery = shipment.StatusOutForDelivery
	StatusDelivered      = shipment.StatusDelivered
	StatusDelayed        = shipment.StatusDelayed
	StatusCancelled      = shipment.StatusCancelled

	NotificationPending = notification.StatusPending
	NotificationSent    = notification.StatusSent
	NotificationFailed  = notification.StatusFailed

	NotificationRegistration = notification.KindRegistration
	NotificationUpdate       = notification.KindUpdate
)

// Models lists every persisted model in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserToken{},
		&Shipment{},
		&Tracking{},
		&Notification{},
	}
}
