package postgres

import (
	"gorm.io/gorm"

	notificationDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/notification"
	"github.com/timewise-hq/timewise/internal/notification"
	"github.com/timewise-hq/timewise/internal/rules"
)

// NotificationRepository implements notification.Repository using GORM.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) notification.Repository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(record *notification.Record) error {
	dm, err := notification.ToDataModel(record)
	if err != nil {
		return err
	}
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	record.ID = dm.ID
	record.CreatedAt = dm.CreatedAt
	return nil
}

func (r *NotificationRepository) ListForUserOnDay(userID int64, day rules.Date, notificationType string) ([]*notification.Record, error) {
	var dms []*notificationDatamodel.NotificationLog
	err := r.db.Where("user_id = ? AND sent_on = ? AND notification_type = ?", userID, day.Time(), notificationType).
		Order("created_at ASC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return fromDataModels(dms)
}

func (r *NotificationRepository) List(limit, offset int) ([]*notification.Record, error) {
	var dms []*notificationDatamodel.NotificationLog
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return fromDataModels(dms)
}

func fromDataModels(dms []*notificationDatamodel.NotificationLog) ([]*notification.Record, error) {
	records := make([]*notification.Record, 0, len(dms))
	for _, dm := range dms {
		record, err := notification.FromDataModel(dm)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
