package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/Britinogn/CourviaShipAPI/internal/domain"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/dbctx"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
)

type NotificationRepo interface {
	Create(dbc dbctx.Context, n *types.Notification) error
	MarkSent(dbc dbctx.Context, id uuid.UUID, messageID string, at time.Time) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, reason string) error
	ListByTrackingID(dbc dbctx.Context, trackingID string) ([]*types.Notification, error)
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(dbc dbctx.Context, n *types.Notification) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if n == nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Create(n).Error
}

func (r *notificationRepo) MarkSent(dbc dbctx.Context, id uuid.UUID, messageID string, at time.Time) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     types.NotificationSent,
			"message_id": messageID,
			"sent_at":    at,
			"error":      "",
		}).Error
}

func (r *notificationRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, reason string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(reason) > 1000 {
		reason = reason[:1000]
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": types.NotificationFailed,
			"error":  reason,
		}).Error
}

func (r *notificationRepo) ListByTrackingID(dbc dbctx.Context, trackingID string) ([]*types.Notification, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Notification
	if err := transaction.WithContext(dbc.Ctx).
		Where("tracking_id = ?", trackingID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
