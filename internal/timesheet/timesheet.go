package timesheet

import (
	"time"

	entryDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/workentry"
	"github.com/timewise-hq/timewise/internal/rules"
)

const (
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// WorkEntry is one logged block of work on a calendar day. Owner name, email
// and role are captured at creation time and never re-read from the users
// table, so entries stay historically accurate after account changes.
type WorkEntry struct {
	ID           int64          `json:"id"`
	UserID       int64          `json:"user_id"`
	UserName     string         `json:"user_name"`
	UserEmail    string         `json:"user_email"`
	UserRole     string         `json:"user_role"`
	EntryDate    rules.Date     `json:"entry_date"`
	Category     string         `json:"category"`
	Location     string         `json:"location"`
	Activity     string         `json:"activity"`
	Description  string         `json:"description"`
	Duration     rules.Duration `json:"duration"`
	Status       string         `json:"status"`
	RejectedBy   *int64         `json:"rejected_by,omitempty"`
	RejectedAt   *time.Time     `json:"rejected_at,omitempty"`
	RejectReason *string        `json:"reject_reason,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (e *WorkEntry) IsApproved() bool {
	return e.Status == StatusApproved
}

func (e *WorkEntry) Reject(rejectedBy int64, reason string) {
	now := time.Now()
	e.Status = StatusRejected
	e.RejectedBy = &rejectedBy
	e.RejectedAt = &now
	e.RejectReason = &reason
	e.UpdatedAt = now
}

// deleteOutcome is what an admin delete does to an entry in a given status.
type deleteOutcome int

const (
	outcomeSoftReject deleteOutcome = iota
	outcomeRemove
)

// Admin deletion is two-phase: the first delete of an approved entry only
// rejects it, keeping the audit trail; deleting an already-rejected entry
// removes it permanently.
var deleteTransitions = map[string]deleteOutcome{
	StatusApproved: outcomeSoftReject,
	StatusRejected: outcomeRemove,
}

func ToDataModel(e *WorkEntry) *entryDatamodel.WorkEntry {
	return &entryDatamodel.WorkEntry{
		ID:              e.ID,
		UserID:          e.UserID,
		UserName:        e.UserName,
		UserEmail:       e.UserEmail,
		UserRole:        e.UserRole,
		EntryDate:       e.EntryDate.Time(),
		Category:        e.Category,
		Location:        e.Location,
		Activity:        e.Activity,
		Description:     e.Description,
		DurationHours:   e.Duration.Hours,
		DurationMinutes: e.Duration.Minutes,
		Status:          e.Status,
		RejectedBy:      e.RejectedBy,
		RejectedAt:      e.RejectedAt,
		RejectReason:    e.RejectReason,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func FromDataModel(e *entryDatamodel.WorkEntry) *WorkEntry {
	return &WorkEntry{
		ID:           e.ID,
		UserID:       e.UserID,
		UserName:     e.UserName,
		UserEmail:    e.UserEmail,
		UserRole:     e.UserRole,
		EntryDate:    rules.DateOf(e.EntryDate),
		Category:     e.Category,
		Location:     e.Location,
		Activity:     e.Activity,
		Description:  e.Description,
		Duration:     rules.Duration{Hours: e.DurationHours, Minutes: e.DurationMinutes},
		Status:       e.Status,
		RejectedBy:   e.RejectedBy,
		RejectedAt:   e.RejectedAt,
		RejectReason: e.RejectReason,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func FromDataModelSlice(entries []*entryDatamodel.WorkEntry) []*WorkEntry {
	result := make([]*WorkEntry, len(entries))
	for i, e := range entries {
		result[i] = FromDataModel(e)
	}
	return result
}
