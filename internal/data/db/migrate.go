package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

// EnsureShipmentIndexes adds the Postgres-only indexes gorm tags cannot express.
func EnsureShipmentIndexes(db *gorm.DB) error {
	// Case-insensitive name search on the admin listing.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_shipment_sender_name_lower
		ON shipment (lower(sender_name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_shipment_sender_name_lower: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_shipment_receiver_name_lower
		ON shipment (lower(receiver_name));
	`).Error; err != nil {
		return fmt.Errorf("create idx_shipment_receiver_name_lower: %w", err)
	}

	// Dashboard route ranking.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_shipment_route
		ON shipment (origin_country, destination_country);
	`).Error; err != nil {
		return fmt.Errorf("create idx_shipment_route: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notification_tracking_created
		ON notification (tracking_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_notification_tracking_created: %w", err)
	}
	return nil
}

func EnsureAuthIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_user_token_expires_at ON user_token(expires_at);`).Error; err != nil {
		return fmt.Errorf("create idx_user_token_expires_at: %w", err)
	}
	if err := db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'fk_user_token_user_id'
			) THEN
				ALTER TABLE "user_token"
				ADD CONSTRAINT "fk_user_token_user_id"
				FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE;
			END IF;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("create fk_user_token_user_id: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureAuthIndexes(s.db); err != nil {
		s.log.Error("Auth index migration failed", "error", err)
		return err
	}
	if err := EnsureShipmentIndexes(s.db); err != nil {
		s.log.Error("Shipment index migration failed", "error", err)
		return err
	}
	return nil
}
