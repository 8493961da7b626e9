package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
	"github.com/Britinogn/CourviaShipAPI/internal/temporalx/notify"
	"github.com/Britinogn/CourviaShipAPI/internal/temporalx/temporalworker"
)

type Services struct {
	Auth         services.AuthService
	Shipments    services.ShipmentService
	Tracking     services.TrackingService
	Dashboard    services.DashboardService
	Reconciler   services.Reconciler
	Receipts     services.ReceiptRenderer
	ReceiptStore services.ReceiptStore
	// Notifier is nil when email is disabled.
	Notifier services.ShipmentNotifier

	// NotifyWorker is nil unless Temporal is configured.
	NotifyWorker *temporalworker.Runner
}

// trackingCache returns the cache as the services interface, keeping a nil
// client a nil interface.
func trackingCache(clients Clients) services.TrackingCache {
	if clients.Cache == nil {
		return nil
	}
	return clients.Cache
}

func wireReceiptStore(log *logger.Logger, cfg Config, clients Clients) (services.ReceiptStore, error) {
	switch cfg.ReceiptStorage {
	case ReceiptStorageGCS:
		if clients.Bucket == nil {
			return nil, fmt.Errorf("receipt bucket not initialized")
		}
		return services.NewBucketReceiptStore(clients.Bucket, cfg.ReceiptPrefix), nil
	case ReceiptStorageLocal:
		return services.NewLocalReceiptStore(log, cfg.ReceiptDir)
	default:
		return nil, nil
	}
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	cache := trackingCache(clients)

	authService := services.NewAuthService(
		db,
		log,
		repos.User,
		repos.UserToken,
		cfg.JWTSecretKey,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)

	renderer, err := services.NewReceiptRenderer(log, services.DefaultReceiptBranding())
	if err != nil {
		return Services{}, fmt.Errorf("init receipt renderer: %w", err)
	}
	store, err := wireReceiptStore(log, cfg, clients)
	if err != nil {
		return Services{}, fmt.Errorf("init receipt store: %w", err)
	}

	var notifier services.ShipmentNotifier
	var worker *temporalworker.Runner
	if clients.Mailer != nil {
		email := services.NewEmailNotifier(log, clients.Mailer, repos.Notification, services.EmailNotifierConfig{
			Company:         services.DefaultReceiptBranding().Company,
			TrackingBaseURL: cfg.TrackingBaseURL,
		})
		notifier = email

		if clients.Temporal != nil {
			notifier = notify.NewDispatcher(log, clients.Temporal, cfg.Temporal.TaskQueue, email)
			worker, err = temporalworker.NewRunner(log, clients.Temporal, cfg.Temporal, &notify.Activities{
				Log:       log.With("service", "NotifyActivities"),
				Shipments: repos.Shipment,
				Receipts:  store,
				Renderer:  renderer,
				Mailer:    email,
			})
			if err != nil {
				return Services{}, fmt.Errorf("init notification worker: %w", err)
			}
		}
	}

	codes := services.NewTrackingCodeGenerator(log, func(ctx context.Context, code string) (bool, error) {
		return repos.Shipment.ExistsByTrackingID(dbctx.Context{Ctx: ctx}, code)
	})

	shipmentService := services.NewShipmentService(
		log,
		repos.Shipment,
		repos.Tracking,
		codes,
		cfg.TrackingCode,
		renderer,
		store,
		notifier,
		cache,
	)

	return Services{
		Auth:         authService,
		Shipments:    shipmentService,
		Tracking:     services.NewTrackingService(log, repos.Tracking, cache),
		Dashboard:    services.NewDashboardService(log, repos.Shipment),
		Reconciler:   services.NewReconciler(log, repos.Shipment, repos.Tracking, cache),
		Receipts:     renderer,
		ReceiptStore: store,
		Notifier:     notifier,
		NotifyWorker: worker,
	}, nil
}
