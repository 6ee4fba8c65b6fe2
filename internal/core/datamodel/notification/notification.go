package notification

import "time"

// NotificationLog records every reminder attempt, including failed sends, so
// the deduplicator can compare today's target-date sets against priors.
type NotificationLog struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"column:user_id;not null"`
	UserEmail   string    `gorm:"column:user_email;not null"`
	Type        string    `gorm:"column:notification_type;not null;default:missing_entries"`
	SentOn      time.Time `gorm:"column:sent_on;type:date;not null"`
	TargetDates string    `gorm:"column:target_dates;not null"`
	Delivered   bool      `gorm:"column:delivered;default:false"`
	ErrorDetail *string   `gorm:"column:error_detail"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (NotificationLog) TableName() string {
	return "notification_log"
}
