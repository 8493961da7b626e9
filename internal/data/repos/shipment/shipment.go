package shipment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

// Filter narrows a shipment listing. Zero values mean "no constraint".
type Filter struct {
	Status        types.ShipmentStatus
	SenderName    string
	ReceiverName  string
	SenderEmail   string
	ReceiverEmail string
	Limit         int
	Skip          int
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

type RouteCount struct {
	OriginCountry      string `json:"originCountry"`
	DestinationCountry string `json:"destinationCountry"`
	Count              int64  `json:"count"`
}

type ShipmentRepo interface {
	Create(dbc dbctx.Context, s *types.Shipment) error
	ExistsByTrackingID(dbc dbctx.Context, trackingID string) (bool, error)
	GetByTrackingID(dbc dbctx.Context, trackingID string) (*types.Shipment, error)
	List(dbc dbctx.Context, f Filter) ([]*types.Shipment, int64, error)
	UpdateFields(dbc dbctx.Context, trackingID string, fields map[string]interface{}) (int64, error)
	DeleteByTrackingID(dbc dbctx.Context, trackingID string) (int64, error)
	DeleteByTrackingIDs(dbc dbctx.Context, trackingIDs []string) (int64, error)
	ForEachBatch(dbc dbctx.Context, size int, fn func(batch []*types.Shipment) error) error

	Count(dbc dbctx.Context) (int64, error)
	CountByStatus(dbc dbctx.Context, status types.ShipmentStatus) (int64, error)
	CountCreatedSince(dbc dbctx.Context, since time.Time) (int64, error)
	Recent(dbc dbctx.Context, limit int) ([]*types.Shipment, error)
	TopOriginCountries(dbc dbctx.Context, limit int) ([]CountryCount, error)
	TopDestinationCountries(dbc dbctx.Context, limit int) ([]CountryCount, error)
	PopularRoutes(dbc dbctx.Context, limit int) ([]RouteCount, error)
}

type shipmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShipmentRepo(db *gorm.DB, baseLog *logger.Logger) ShipmentRepo {
	repoLog := baseLog.With("repo", "ShipmentRepo")
	return &shipmentRepo{db: db, log: repoLog}
}

func (r *shipmentRepo) Create(dbc dbctx.Context, s *types.Shipment) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if s == nil {
		return fmt.Errorf("shipment required")
	}
	if err := transaction.WithContext(dbc.Ctx).Create(s).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateTrackingID, s.TrackingID)
		}
		return err
	}
	return nil
}

func (r *shipmentRepo) ExistsByTrackingID(dbc dbctx.Context, trackingID string) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.Shipment{}).
		Where("tracking_id = ?", trackingID).
		Limit(1).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *shipmentRepo) GetByTrackingID(dbc dbctx.Context, trackingID string) (*types.Shipment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.Shipment
	err := transaction.WithContext(dbc.Ctx).
		Where("tracking_id = ?", trackingID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *shipmentRepo) List(dbc dbctx.Context, f Filter) ([]*types.Shipment, int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(dbc.Ctx).Model(&types.Shipment{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if v := strings.TrimSpace(f.SenderName); v != "" {
		q = q.Where("LOWER(sender_name) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if v := strings.TrimSpace(f.ReceiverName); v != "" {
		q = q.Where("LOWER(receiver_name) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	if v := strings.TrimSpace(f.SenderEmail); v != "" {
		q = q.Where("sender_email = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(f.ReceiverEmail); v != "" {
		q = q.Where("receiver_email = ?", strings.ToLower(v))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []*types.Shipment
	page := q.Order("created_at DESC").Order("tracking_id ASC")
	if f.Limit > 0 {
		page = page.Limit(f.Limit)
	}
	if f.Skip > 0 {
		page = page.Offset(f.Skip)
	}
	if err := page.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *shipmentRepo) UpdateFields(dbc dbctx.Context, trackingID string, fields map[string]interface{}) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(fields) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Shipment{}).
		Where("tracking_id = ?", trackingID).
		Updates(fields)
	return res.RowsAffected, res.Error
}

func (r *shipmentRepo) DeleteByTrackingID(dbc dbctx.Context, trackingID string) (int64, error) {
	return r.DeleteByTrackingIDs(dbc, []string{trackingID})
}

func (r *shipmentRepo) DeleteByTrackingIDs(dbc dbctx.Context, trackingIDs []string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(trackingIDs) == 0 {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("tracking_id IN ?", trackingIDs).
		Delete(&types.Shipment{})
	return res.RowsAffected, res.Error
}

func (r *shipmentRepo) ForEachBatch(dbc dbctx.Context, size int, fn func(batch []*types.Shipment) error) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if size <= 0 {
		size = 200
	}
	var batch []*types.Shipment
	return transaction.WithContext(dbc.Ctx).
		FindInBatches(&batch, size, func(tx *gorm.DB, n int) error {
			return fn(batch)
		}).Error
}

func (r *shipmentRepo) Count(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).Model(&types.Shipment{}).Count(&n).Error
	return n, err
}

func (r *shipmentRepo) CountByStatus(dbc dbctx.Context, status types.ShipmentStatus) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Shipment{}).
		Where("status = ?", status).
		Count(&n).Error
	return n, err
}

func (r *shipmentRepo) CountCreatedSince(dbc dbctx.Context, since time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Shipment{}).
		Where("created_at >= ?", since).
		Count(&n).Error
	return n, err
}

func (r *shipmentRepo) Recent(dbc dbctx.Context, limit int) ([]*types.Shipment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Shipment
	err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

func (r *shipmentRepo) TopOriginCountries(dbc dbctx.Context, limit int) ([]CountryCount, error) {
	return r.topCountries(dbc, "origin_country", limit)
}

func (r *shipmentRepo) TopDestinationCountries(dbc dbctx.Context, limit int) ([]CountryCount, error) {
	return r.topCountries(dbc, "destination_country", limit)
}

func (r *shipmentRepo) topCountries(dbc dbctx.Context, column string, limit int) ([]CountryCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []CountryCount
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Shipment{}).
		Select(column + " AS country, COUNT(*) AS count").
		Group(column).
		Order("count DESC").
		Order("country ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *shipmentRepo) PopularRoutes(dbc dbctx.Context, limit int) ([]RouteCount, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []RouteCount
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.Shipment{}).
		Select("origin_country, destination_country, COUNT(*) AS count").
		Group("origin_country, destination_country").
		Order("count DESC").
		Order("origin_country ASC").
		Order("destination_country ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
