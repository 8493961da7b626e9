package shipment

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type TrackingRepo interface {
	Create(dbc dbctx.Context, t *types.Tracking) error
	Upsert(dbc dbctx.Context, t *types.Tracking) error
	GetByTrackingID(dbc dbctx.Context, trackingID string) (*types.Tracking, error)
	GetByTrackingIDs(dbc dbctx.Context, trackingIDs []string) ([]*types.Tracking, error)
	UpdateFields(dbc dbctx.Context, trackingID string, fields map[string]interface{}) (int64, error)
	DeleteByTrackingID(dbc dbctx.Context, trackingID string) (int64, error)
	DeleteByTrackingIDs(dbc dbctx.Context, trackingIDs []string) (int64, error)
}

type trackingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTrackingRepo(db *gorm.DB, baseLog *logger.Logger) TrackingRepo {
	repoLog := baseLog.With("repo", "TrackingRepo")
	return &trackingRepo{db: db, log: repoLog}
}

func (r *trackingRepo) Create(dbc dbctx.Context, t *types.Tracking) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if t == nil {
		return fmt.Errorf("tracking record required")
	}
	if err := transaction.WithContext(dbc.Ctx).Create(t).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateTrackingID, t.TrackingID)
		}
		return err
	}
	return nil
}

var upsertColumns = []string{
	"sender_name", "sender_city", "sender_country",
	"receiver_name", "receiver_phone", "receiver_city", "receiver_country",
	"status",
	"destination_address", "destination_city", "destination_country", "destination_zip_code",
	"current_location", "registered_at", "estimated_delivery", "updated_at",
}

// Upsert inserts the record or overwrites the existing one with the same tracking id.
func (r *trackingRepo) Upsert(dbc dbctx.Context, t *types.Tracking) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if t == nil {
		return fmt.Errorf("tracking record required")
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tracking_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		Create(t).Error
}

func (r *trackingRepo) GetByTrackingID(dbc dbctx.Context, trackingID string) (*types.Tracking, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var t types.Tracking
	err := transaction.WithContext(dbc.Ctx).
		Where("tracking_id = ?", trackingID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *trackingRepo) GetByTrackingIDs(dbc dbctx.Context, trackingIDs []string) ([]*types.Tracking, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Tracking
	if len(trackingIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("tracking_id IN ?", trackingIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *trackingRepo) UpdateFields(dbc dbctx.Context, trackingID string, fields map[string]interface{}) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Tracking{}).
		Where("tracking_id = ?", trackingID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *trackingRepo) DeleteByTrackingID(dbc dbctx.Context, trackingID string) (int64, error) {
	return r.DeleteByTrackingIDs(dbc, []string{trackingID})
}

func (r *trackingRepo) DeleteByTrackingIDs(dbc dbctx.Context, trackingIDs []string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(trackingIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("tracking_id IN ?", trackingIDs).
		Delete(&types.Tracking{})
	return res.RowsAffected, res.Error
}
