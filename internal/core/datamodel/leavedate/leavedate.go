package leavedate

import "time"

type LeaveDate struct {
	ID        int64     `gorm:"primaryKey"`
	LeaveDate time.Time `gorm:"column:leave_date;type:date;uniqueIndex;not null"`
	Name      string    `gorm:"column:name;not null"`
	CreatedBy int64     `gorm:"column:created_by;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (LeaveDate) TableName() string {
	return "leave_dates"
}
