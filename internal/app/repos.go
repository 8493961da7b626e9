package app

import (
	"gorm.io/gorm"

	"github.com/Britinogn/CourviaShipAPI/internal/data/repos"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	UserToken    repos.UserTokenRepo
	Shipment     repos.ShipmentRepo
	Tracking     repos.TrackingRepo
	Notification repos.NotificationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		UserToken:    repos.NewUserTokenRepo(db, log),
		Shipment:     repos.NewShipmentRepo(db, log),
		Tracking:     repos.NewTrackingRepo(db, log),
		Notification: repos.NewNotificationRepo(db, log),
	}
}
