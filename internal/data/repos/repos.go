package repos

import (
	"gorm.io/gorm"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/auth"
	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/notification"
	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/shipment"
	"github.com/Britinogn/CourviaShipAPI/internal/data/repos/user"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type ShipmentRepo = shipment.ShipmentRepo
type TrackingRepo = shipment.TrackingRepo
type ShipmentFilter = shipment.Filter
type CountryCount = shipment.CountryCount
type RouteCount = shipment.RouteCount

type NotificationRepo = notification.NotificationRepo

var ErrDuplicateTrackingID = shipment.ErrDuplicateTrackingID

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}
func NewShipmentRepo(db *gorm.DB, log *logger.Logger) ShipmentRepo {
	return shipment.NewShipmentRepo(db, log)
}
func NewTrackingRepo(db *gorm.DB, log *logger.Logger) TrackingRepo {
	return shipment.NewTrackingRepo(db, log)
}
func NewNotificationRepo(db *gorm.DB, log *logger.Logger) NotificationRepo {
	return notification.NewNotificationRepo(db, log)
}
