package notification

import (
	"encoding/json"
	"time"

	notificationDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/notification"
	"github.com/timewise-hq/timewise/internal/rules"
)

// TypeMissingEntries is the reminder for workdays with no approved entries.
// Deduplication is scoped per type, so new notification kinds never suppress
// each other.
const TypeMissingEntries = "missing_entries"

// Target is one unlogged workday in a reminder, with how many edit-window
// days remained at send time.
type Target struct {
	Date          rules.Date `json:"date"`
	DaysRemaining int        `json:"days_remaining"`
}

// Record is one reminder attempt. Failed deliveries are recorded too, with
// the error, so the log doubles as a delivery audit trail.
type Record struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	UserEmail   string     `json:"user_email"`
	Type        string     `json:"type"`
	SentOn      rules.Date `json:"sent_on"`
	Targets     []Target   `json:"targets"`
	Delivered   bool       `json:"delivered"`
	ErrorDetail *string    `json:"error_detail,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TargetDates projects the targets down to their dates, the set the
// deduplication rule compares.
func (r *Record) TargetDates() []rules.Date {
	dates := make([]rules.Date, len(r.Targets))
	for i, t := range r.Targets {
		dates[i] = t.Date
	}
	return dates
}

func ToDataModel(r *Record) (*notificationDatamodel.NotificationLog, error) {
	targets, err := json.Marshal(r.Targets)
	if err != nil {
		return nil, err
	}
	return &notificationDatamodel.NotificationLog{
		ID:          r.ID,
		UserID:      r.UserID,
		UserEmail:   r.UserEmail,
		Type:        r.Type,
		SentOn:      r.SentOn.Time(),
		TargetDates: string(targets),
		Delivered:   r.Delivered,
		ErrorDetail: r.ErrorDetail,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func FromDataModel(dm *notificationDatamodel.NotificationLog) (*Record, error) {
	var targets []Target
	if err := json.Unmarshal([]byte(dm.TargetDates), &targets); err != nil {
		return nil, err
	}
	return &Record{
		ID:          dm.ID,
		UserID:      dm.UserID,
		UserEmail:   dm.UserEmail,
		Type:        dm.Type,
		SentOn:      rules.DateOf(dm.SentOn),
		Targets:     targets,
		Delivered:   dm.Delivered,
		ErrorDetail: dm.ErrorDetail,
		CreatedAt:   dm.CreatedAt,
	}, nil
}
