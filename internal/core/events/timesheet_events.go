package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEntryCreated     = "entry.created"
	EventTypeEntryRejected    = "entry.rejected"
	EventTypeEntryDeleted     = "entry.deleted"
	EventTypeNotificationSent = "notification.sent"
)

type EntryCreatedEvent struct {
	BaseEvent
	EntryID   int64  `json:"entry_id"`
	UserID    int64  `json:"user_id"`
	EntryDate string `json:"entry_date"`
	Category  string `json:"category"`
}

func NewEntryCreatedEvent(entryID, userID int64, entryDate, category string) *EntryCreatedEvent {
	return &EntryCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEntryCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id":   entryID,
				"user_id":    userID,
				"entry_date": entryDate,
				"category":   category,
			},
		},
		EntryID:   entryID,
		UserID:    userID,
		EntryDate: entryDate,
		Category:  category,
	}
}

type EntryRejectedEvent struct {
	BaseEvent
	EntryID    int64  `json:"entry_id"`
	UserID     int64  `json:"user_id"`
	RejectedBy int64  `json:"rejected_by"`
	Reason     string `json:"reason"`
}

func NewEntryRejectedEvent(entryID, userID, rejectedBy int64, reason string) *EntryRejectedEvent {
	return &EntryRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEntryRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id":    entryID,
				"user_id":     userID,
				"rejected_by": rejectedBy,
				"reason":      reason,
			},
		},
		EntryID:    entryID,
		UserID:     userID,
		RejectedBy: rejectedBy,
		Reason:     reason,
	}
}

type EntryDeletedEvent struct {
	BaseEvent
	EntryID   int64  `json:"entry_id"`
	UserID    int64  `json:"user_id"`
	DeletedBy int64  `json:"deleted_by"`
	EntryDate string `json:"entry_date"`
}

func NewEntryDeletedEvent(entryID, userID, deletedBy int64, entryDate string) *EntryDeletedEvent {
	return &EntryDeletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeEntryDeleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entry_id":   entryID,
				"user_id":    userID,
				"deleted_by": deletedBy,
				"entry_date": entryDate,
			},
		},
		EntryID:   entryID,
		UserID:    userID,
		DeletedBy: deletedBy,
		EntryDate: entryDate,
	}
}

type NotificationSentEvent struct {
	BaseEvent
	UserID      int64    `json:"user_id"`
	UserEmail   string   `json:"user_email"`
	TargetDates []string `json:"target_dates"`
	Delivered   bool     `json:"delivered"`
}

func NewNotificationSentEvent(userID int64, userEmail string, targetDates []string, delivered bool) *NotificationSentEvent {
	return &NotificationSentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeNotificationSent,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":      userID,
				"user_email":   userEmail,
				"target_dates": targetDates,
				"delivered":    delivered,
			},
		},
		UserID:      userID,
		UserEmail:   userEmail,
		TargetDates: targetDates,
		Delivered:   delivered,
	}
}
