package timesheet

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/core/events"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
)

// Repository defines the data access methods for work entries.
type Repository interface {
	Create(entry *WorkEntry) error
	GetByID(id int64) (*WorkEntry, error)
	ListByUser(userID int64, from, to rules.Date, limit, offset int) ([]*WorkEntry, error)
	ListAll(from, to rules.Date, limit, offset int) ([]*WorkEntry, error)
	ApprovedDurationsForDay(userID int64, day rules.Date, excludeID int64) ([]rules.Duration, error)
	ApprovedHoursByDay(userID int64, from, to rules.Date) (map[rules.Date]decimal.Decimal, error)
	Update(entry *WorkEntry) error
	UpdateRejection(entry *WorkEntry) error
	Delete(id int64) error
}

// LeaveChecker reports whether a date is a company leave day.
type LeaveChecker interface {
	IsLeaveDay(d rules.Date) (bool, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// dayLocks serializes the cap check-then-insert per (user, day). Striped so
// the lock set stays bounded regardless of how many user-days are touched.
type dayLocks [64]sync.Mutex

func (l *dayLocks) forKey(userID int64, d rules.Date) *sync.Mutex {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d:%s", userID, d)
	return &l[h.Sum32()%uint32(len(l))]
}

type Service struct {
	repo     Repository
	settings settings.Provider
	leave    LeaveChecker
	bus      EventPublisher
	logger   *slog.Logger
	locks    dayLocks
	today    func() rules.Date
}

func NewService(repo Repository, provider settings.Provider, leave LeaveChecker, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: provider,
		leave:    leave,
		bus:      bus,
		logger:   logger,
		today:    rules.Today,
	}
}

// CreateEntry validates and stores a new work entry. New entries are always
// approved; review happens after the fact via rejection.
func (s *Service) CreateEntry(actor Actor, dto CreateEntryDTO) (*WorkEntry, error) {
	ts := s.settings.Timesheet()

	if err := dto.Validate(ts); err != nil {
		s.logger.Error("entry validation failed", "error", err, "user_id", actor.ID)
		return nil, err
	}

	entryDate, err := rules.ParseDate(dto.EntryDate)
	if err != nil {
		return nil, errors.NewValidationError(err.Error(), errors.ErrCodeInvalidDate)
	}

	if appErr := s.checkWriteWindow(entryDate, actor, ts); appErr != nil {
		s.logger.Warn("entry date outside writable window",
			"user_id", actor.ID, "entry_date", entryDate.String(), "reason", appErr.Message)
		return nil, appErr
	}

	if appErr := s.checkLeaveDay(entryDate, actor); appErr != nil {
		return nil, appErr
	}

	lock := s.locks.forKey(actor.ID, entryDate)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.repo.ApprovedDurationsForDay(actor.ID, entryDate, 0)
	if err != nil {
		s.logger.Error("failed to load existing durations", "error", err, "user_id", actor.ID)
		return nil, errors.NewInternalError("failed to validate daily total", err)
	}

	if appErr := checkDailyCap(existing, dto.Duration(), ts.MaxHoursPerDay); appErr != nil {
		return nil, appErr
	}

	now := time.Now()
	entry := &WorkEntry{
		UserID:      actor.ID,
		UserName:    actor.Name,
		UserEmail:   actor.Email,
		UserRole:    string(actor.Role),
		EntryDate:   entryDate,
		Category:    dto.Category,
		Location:    dto.Location,
		Activity:    dto.Activity,
		Description: dto.Description,
		Duration:    dto.Duration(),
		Status:      StatusApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(entry); err != nil {
		s.logger.Error("failed to create entry", "error", err, "user_id", actor.ID)
		return nil, errors.NewInternalError("failed to create entry", err)
	}

	s.publish(events.NewEntryCreatedEvent(entry.ID, entry.UserID, entry.EntryDate.String(), entry.Category))

	s.logger.Info("entry created",
		"entry_id", entry.ID,
		"user_id", actor.ID,
		"entry_date", entry.EntryDate.String(),
		"duration", entry.Duration.String())

	return entry, nil
}

// UpdateEntry replaces the mutable fields of an entry the actor owns. The
// entry date itself cannot change; delete and re-create instead.
func (s *Service) UpdateEntry(actor Actor, entryID int64, dto UpdateEntryDTO) (*WorkEntry, error) {
	ts := s.settings.Timesheet()

	if err := dto.Validate(ts); err != nil {
		return nil, err
	}

	entry, err := s.repo.GetByID(entryID)
	if err != nil {
		return nil, errors.NewNotFoundError("entry not found", errors.ErrCodeEntryNotFound)
	}

	if entry.UserID != actor.ID && !actor.IsAdmin() {
		s.logger.Warn("unauthorized entry update", "entry_id", entryID, "user_id", actor.ID)
		return nil, errors.NewForbiddenError("entry belongs to another user", errors.ErrCodeUnauthorizedAccess)
	}

	if entry.Status != StatusApproved {
		return nil, errors.NewValidationError("rejected entries cannot be edited", errors.ErrCodeInvalidEntryStatus)
	}

	if appErr := s.checkWriteWindow(entry.EntryDate, actor, ts); appErr != nil {
		return nil, appErr
	}

	lock := s.locks.forKey(entry.UserID, entry.EntryDate)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.repo.ApprovedDurationsForDay(entry.UserID, entry.EntryDate, entry.ID)
	if err != nil {
		return nil, errors.NewInternalError("failed to validate daily total", err)
	}

	if appErr := checkDailyCap(existing, dto.Duration(), ts.MaxHoursPerDay); appErr != nil {
		return nil, appErr
	}

	entry.Category = dto.Category
	entry.Location = dto.Location
	entry.Activity = dto.Activity
	entry.Description = dto.Description
	entry.Duration = dto.Duration()
	entry.UpdatedAt = time.Now()

	if err := s.repo.Update(entry); err != nil {
		s.logger.Error("failed to update entry", "error", err, "entry_id", entryID)
		return nil, errors.NewInternalError("failed to update entry", err)
	}

	s.logger.Info("entry updated", "entry_id", entryID, "user_id", actor.ID)
	return entry, nil
}

// DeleteEntry removes or rejects an entry. Owners get a permanent delete
// gated by the edit window. Reviewers deleting someone else's entry go
// through the two-phase transition: approved entries are soft-rejected
// first, already-rejected entries are removed for good.
func (s *Service) DeleteEntry(actor Actor, entryID int64) (*DeleteResult, error) {
	entry, err := s.repo.GetByID(entryID)
	if err != nil {
		return nil, errors.NewNotFoundError("entry not found", errors.ErrCodeEntryNotFound)
	}

	if entry.UserID == actor.ID {
		ts := s.settings.Timesheet()
		if appErr := s.checkWriteWindow(entry.EntryDate, actor, ts); appErr != nil {
			return nil, appErr
		}
		return s.remove(entry, actor)
	}

	if !actor.CanApproveEntries() {
		s.logger.Warn("unauthorized entry delete", "entry_id", entryID, "user_id", actor.ID)
		return nil, errors.NewForbiddenError("reviewer access required", errors.ErrCodeUnauthorizedAccess)
	}

	switch deleteTransitions[entry.Status] {
	case outcomeSoftReject:
		entry.Reject(actor.ID, "entry removed by reviewer")
		if err := s.repo.UpdateRejection(entry); err != nil {
			s.logger.Error("failed to reject entry on delete", "error", err, "entry_id", entryID)
			return nil, errors.NewInternalError("failed to delete entry", err)
		}
		s.publish(events.NewEntryRejectedEvent(entry.ID, entry.UserID, actor.ID, *entry.RejectReason))
		s.logger.Info("entry soft-rejected on delete", "entry_id", entryID, "deleted_by", actor.ID)
		return &DeleteResult{
			Removed: false,
			Status:  StatusRejected,
			At:      time.Now(),
			EntryID: entry.ID,
			Date:    entry.EntryDate,
		}, nil
	case outcomeRemove:
		return s.remove(entry, actor)
	default:
		return nil, errors.NewValidationError("entry cannot be deleted in current status", errors.ErrCodeInvalidEntryStatus)
	}
}

func (s *Service) remove(entry *WorkEntry, actor Actor) (*DeleteResult, error) {
	if err := s.repo.Delete(entry.ID); err != nil {
		s.logger.Error("failed to delete entry", "error", err, "entry_id", entry.ID)
		return nil, errors.NewInternalError("failed to delete entry", err)
	}

	s.publish(events.NewEntryDeletedEvent(entry.ID, entry.UserID, actor.ID, entry.EntryDate.String()))
	s.logger.Info("entry permanently deleted", "entry_id", entry.ID, "deleted_by", actor.ID)

	return &DeleteResult{
		Removed: true,
		Status:  entry.Status,
		At:      time.Now(),
		EntryID: entry.ID,
		Date:    entry.EntryDate,
	}, nil
}

// RejectEntry marks an approved entry rejected with a reviewer reason.
func (s *Service) RejectEntry(actor Actor, entryID int64, reason string) (*WorkEntry, error) {
	if !actor.CanApproveEntries() {
		s.logger.Warn("reject entry denied: insufficient permissions",
			"entry_id", entryID, "user_id", actor.ID, "permissions", actor.Permissions)
		return nil, errors.NewForbiddenError("reviewer access required", errors.ErrCodeUnauthorizedAccess)
	}

	entry, err := s.repo.GetByID(entryID)
	if err != nil {
		return nil, errors.NewNotFoundError("entry not found", errors.ErrCodeEntryNotFound)
	}

	if entry.Status != StatusApproved {
		s.logger.Warn("cannot reject entry in current status",
			"entry_id", entryID, "current_status", entry.Status)
		return nil, errors.NewValidationError("entry is already rejected", errors.ErrCodeInvalidEntryStatus)
	}

	entry.Reject(actor.ID, reason)
	if err := s.repo.UpdateRejection(entry); err != nil {
		s.logger.Error("failed to reject entry", "error", err, "entry_id", entryID)
		return nil, errors.NewInternalError("failed to reject entry", err)
	}

	s.publish(events.NewEntryRejectedEvent(entry.ID, entry.UserID, actor.ID, reason))

	s.logger.Info("entry rejected",
		"entry_id", entryID, "rejected_by", actor.ID, "reason", reason)

	return entry, nil
}

// GetEntry retrieves a single entry with access control.
func (s *Service) GetEntry(actor Actor, entryID int64) (*WorkEntry, error) {
	entry, err := s.repo.GetByID(entryID)
	if err != nil {
		return nil, errors.NewNotFoundError("entry not found", errors.ErrCodeEntryNotFound)
	}

	if entry.UserID != actor.ID && !actor.CanViewCompliance() {
		s.logger.Warn("unauthorized entry access",
			"entry_id", entryID, "user_id", actor.ID, "entry_user_id", entry.UserID)
		return nil, errors.NewForbiddenError("entry belongs to another user", errors.ErrCodeUnauthorizedAccess)
	}

	return entry, nil
}

// ListUserEntries lists entries for one user; callers other than the user
// need compliance visibility.
func (s *Service) ListUserEntries(actor Actor, userID int64, from, to rules.Date, limit, offset int) ([]*WorkEntry, error) {
	if userID != actor.ID && !actor.CanViewCompliance() {
		return nil, errors.NewForbiddenError("cannot view another user's entries", errors.ErrCodeUnauthorizedAccess)
	}

	entries, err := s.repo.ListByUser(userID, from, to, limit, offset)
	if err != nil {
		s.logger.Error("failed to list entries", "error", err, "user_id", userID)
		return nil, errors.NewInternalError("failed to list entries", err)
	}
	return entries, nil
}

// ListAllEntries lists entries across users for reviewers and auditors.
func (s *Service) ListAllEntries(actor Actor, from, to rules.Date, limit, offset int) ([]*WorkEntry, error) {
	if !actor.CanViewCompliance() {
		return nil, errors.NewForbiddenError("compliance visibility required", errors.ErrCodeUnauthorizedAccess)
	}

	entries, err := s.repo.ListAll(from, to, limit, offset)
	if err != nil {
		s.logger.Error("failed to list all entries", "error", err)
		return nil, errors.NewInternalError("failed to list entries", err)
	}
	return entries, nil
}

// DailySummary returns approved decimal-hour totals per calendar day for one
// user, keyed by date string. Rejected entries never count.
func (s *Service) DailySummary(actor Actor, userID int64, from, to rules.Date) (map[string]decimal.Decimal, error) {
	if userID != actor.ID && !actor.CanViewCompliance() {
		return nil, errors.NewForbiddenError("cannot view another user's entries", errors.ErrCodeUnauthorizedAccess)
	}

	totals, err := s.repo.ApprovedHoursByDay(userID, from, to)
	if err != nil {
		s.logger.Error("failed to load daily totals", "error", err, "user_id", userID)
		return nil, errors.NewInternalError("failed to load daily totals", err)
	}

	out := make(map[string]decimal.Decimal, len(totals))
	for day, hours := range totals {
		out[day.String()] = hours
	}
	return out, nil
}

// Snapshot exposes the current rule settings for handlers that decorate
// responses with editability.
func (s *Service) Snapshot() settings.Timesheet {
	return s.settings.Timesheet()
}

func (s *Service) Today() rules.Date {
	return s.today()
}

// SetTodayFunc overrides the clock, for tests.
func (s *Service) SetTodayFunc(fn func() rules.Date) {
	s.today = fn
}

func (s *Service) checkWriteWindow(entryDate rules.Date, actor Actor, ts settings.Timesheet) *errors.AppError {
	today := s.today()

	decision := rules.CanWrite(entryDate, today, actor.Role, ts.EditWindowDays, ts.AllowFutureDates)
	if !decision.Allowed {
		code := errors.ErrCodeOutsideEditWindow
		if decision.Reason == rules.ReasonFutureDateNotAllowed {
			code = errors.ErrCodeFutureDateNotAllowed
		}
		return errors.NewValidationError(decision.Reason, code)
	}

	if !ts.AllowPastDates && actor.Role != rules.RoleAdmin && entryDate.Before(today) {
		return errors.NewValidationError(rules.ReasonPastDateNotAllowed, errors.ErrCodePastDateNotAllowed)
	}

	return nil
}

func (s *Service) checkLeaveDay(entryDate rules.Date, actor Actor) *errors.AppError {
	if actor.IsAdmin() {
		return nil
	}

	isLeave, err := s.leave.IsLeaveDay(entryDate)
	if err != nil {
		s.logger.Error("failed to check leave calendar", "error", err, "entry_date", entryDate.String())
		return errors.NewInternalError("failed to check leave calendar", err)
	}
	if isLeave {
		return errors.NewValidationError(rules.ReasonLeaveDayRestricted, errors.ErrCodeLeaveDayRestricted)
	}
	return nil
}

func checkDailyCap(existing []rules.Duration, candidate rules.Duration, maxHours decimal.Decimal) *errors.AppError {
	result := rules.ValidateDailyCap(existing, candidate, maxHours)
	if result.Allowed {
		return nil
	}

	code := errors.ErrCodeDailyCapExceeded
	if candidate.TotalMinutes() < rules.MinEntryMinutes {
		code = errors.ErrCodeBelowMinimumDuration
	}
	return errors.NewValidationError(result.Reason, code)
}

func (s *Service) publish(event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(context.Background(), event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "event_type", event.EventType())
	}
}
