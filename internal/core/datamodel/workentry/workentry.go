package workentry

import "time"

type WorkEntry struct {
	ID              int64      `gorm:"primaryKey"`
	UserID          int64      `gorm:"column:user_id;not null"`
	UserName        string     `gorm:"column:user_name;not null"`
	UserEmail       string     `gorm:"column:user_email;not null"`
	UserRole        string     `gorm:"column:user_role;not null"`
	EntryDate       time.Time  `gorm:"column:entry_date;type:date;not null"`
	Category        string     `gorm:"column:category;not null"`
	Location        string     `gorm:"column:location;not null"`
	Activity        string     `gorm:"column:activity;not null"`
	Description     string     `gorm:"column:description;not null"`
	DurationHours   int        `gorm:"column:duration_hours;not null"`
	DurationMinutes int        `gorm:"column:duration_minutes;not null"`
	Status          string     `gorm:"column:status;default:approved"`
	RejectedBy      *int64     `gorm:"column:rejected_by"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	RejectReason    *string    `gorm:"column:reject_reason"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (WorkEntry) TableName() string {
	return "work_entries"
}
