package timesheet

import (
	"time"

	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/core/common/validation"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
)

// Actor is the authenticated caller as seen by the timesheet service. The
// name, email and role are denormalized onto every entry the actor creates.
type Actor struct {
	ID          int64
	Name        string
	Email       string
	Role        rules.Role
	Permissions []string
}

func (a Actor) IsAdmin() bool {
	return a.Role == rules.RoleAdmin || a.HasPermission("admin")
}

func (a Actor) HasPermission(name string) bool {
	for _, p := range a.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

func (a Actor) CanApproveEntries() bool {
	return a.IsAdmin() || a.HasPermission("approve_entries")
}

func (a Actor) CanViewCompliance() bool {
	return a.IsAdmin() || a.HasPermission("view_compliance")
}

type CreateEntryDTO struct {
	EntryDate   string `json:"entry_date"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Activity    string `json:"activity"`
	Description string `json:"description"`
	Hours       int    `json:"hours"`
	Minutes     int    `json:"minutes"`
}

// Validate checks shape and vocabulary; date-window and daily-cap rules are
// enforced in the service where existing entries are visible.
func (dto CreateEntryDTO) Validate(ts settings.Timesheet) *errors.AppError {
	v := validation.NewValidator()
	v.Field("entry_date", dto.EntryDate).Required()
	v.Field("category", dto.Category).
		Required().
		OneOf(ts.Verticals, errors.ErrCodeInvalidCategory)
	v.Field("location", dto.Location).
		Required().
		OneOf(ts.Countries, errors.ErrCodeValidationFailed)
	v.Field("activity", dto.Activity).
		Required().
		OneOf(ts.Activities, errors.ErrCodeValidationFailed)
	v.Field("description", dto.Description).
		Required().
		MinWords(3, errors.ErrCodeInvalidDescription).
		MaxLength(500)
	if err := v.Validate(); err != nil {
		return err
	}

	if !(rules.Duration{Hours: dto.Hours, Minutes: dto.Minutes}).Valid() {
		return errors.NewValidationError("duration must be between 0h00m and 24h00m with minutes under 60", errors.ErrCodeInvalidDuration)
	}
	return nil
}

func (dto CreateEntryDTO) Duration() rules.Duration {
	return rules.Duration{Hours: dto.Hours, Minutes: dto.Minutes}
}

type UpdateEntryDTO struct {
	Category    string `json:"category"`
	Location    string `json:"location"`
	Activity    string `json:"activity"`
	Description string `json:"description"`
	Hours       int    `json:"hours"`
	Minutes     int    `json:"minutes"`
}

func (dto UpdateEntryDTO) Validate(ts settings.Timesheet) *errors.AppError {
	return CreateEntryDTO{
		EntryDate:   "unchanged",
		Category:    dto.Category,
		Location:    dto.Location,
		Activity:    dto.Activity,
		Description: dto.Description,
		Hours:       dto.Hours,
		Minutes:     dto.Minutes,
	}.Validate(ts)
}

func (dto UpdateEntryDTO) Duration() rules.Duration {
	return rules.Duration{Hours: dto.Hours, Minutes: dto.Minutes}
}

type RejectEntryDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectEntryDTO) Validate() *errors.AppError {
	if dto.Reason == "" {
		return errors.NewValidationError("reason is required when rejecting an entry", errors.ErrCodeValidationFailed)
	}
	return nil
}

// EntryResponse decorates an entry with whether the caller may still edit it,
// so the UI can disable controls without re-deriving window rules.
type EntryResponse struct {
	*WorkEntry
	CanEdit bool `json:"can_edit"`
}

func NewEntryResponse(e *WorkEntry, actor Actor, today rules.Date, ts settings.Timesheet) EntryResponse {
	// Rejected entries are never editable, matching the service's refusal.
	editable := e.IsApproved() && (actor.IsAdmin() || actor.ID == e.UserID)
	if editable {
		decision := rules.CanWrite(e.EntryDate, today, actor.Role, ts.EditWindowDays, ts.AllowFutureDates)
		editable = decision.Allowed
	}
	return EntryResponse{WorkEntry: e, CanEdit: editable}
}

func NewEntryResponses(entries []*WorkEntry, actor Actor, today rules.Date, ts settings.Timesheet) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = NewEntryResponse(e, actor, today, ts)
	}
	return out
}

// DeleteResult tells the caller which phase of the two-phase delete ran.
type DeleteResult struct {
	Removed bool       `json:"removed"`
	Status  string     `json:"status"`
	At      time.Time  `json:"at"`
	EntryID int64      `json:"entry_id"`
	Date    rules.Date `json:"date"`
}
