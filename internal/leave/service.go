package leave

import (
	"log/slog"
	"time"

	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/rules"
)

type Repository interface {
	Create(leaveDate *LeaveDate) error
	GetByID(id int64) (*LeaveDate, error)
	GetByDate(d rules.Date) (*LeaveDate, error)
	ListRange(from, to rules.Date) ([]*LeaveDate, error)
	Delete(id int64) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// CreateLeaveDate adds a holiday to the calendar. Dates are unique; adding a
// duplicate is a conflict rather than an upsert so accidental double entry
// surfaces to the admin.
func (s *Service) CreateLeaveDate(createdBy int64, dto CreateLeaveDateDTO) (*LeaveDate, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	date, err := rules.ParseDate(dto.Date)
	if err != nil {
		return nil, errors.NewValidationError(err.Error(), errors.ErrCodeInvalidDate)
	}

	if existing, err := s.repo.GetByDate(date); err == nil && existing != nil {
		s.logger.Warn("duplicate leave date", "date", date.String(), "existing_id", existing.ID)
		return nil, errors.NewConflictError("leave date already exists", errors.ErrCodeDuplicateLeaveDate)
	}

	leaveDate := &LeaveDate{
		Date:      date,
		Name:      dto.Name,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(leaveDate); err != nil {
		s.logger.Error("failed to create leave date", "error", err, "date", date.String())
		return nil, errors.NewInternalError("failed to create leave date", err)
	}

	s.logger.Info("leave date created",
		"leave_id", leaveDate.ID, "date", date.String(), "name", dto.Name, "created_by", createdBy)

	return leaveDate, nil
}

func (s *Service) DeleteLeaveDate(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return errors.NewNotFoundError("leave date not found", errors.ErrCodeLeaveDateNotFound)
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete leave date", "error", err, "leave_id", id)
		return errors.NewInternalError("failed to delete leave date", err)
	}

	s.logger.Info("leave date deleted", "leave_id", id)
	return nil
}

func (s *Service) ListLeaveDates(from, to rules.Date) ([]*LeaveDate, error) {
	dates, err := s.repo.ListRange(from, to)
	if err != nil {
		s.logger.Error("failed to list leave dates", "error", err)
		return nil, errors.NewInternalError("failed to list leave dates", err)
	}
	return dates, nil
}

// Dates returns just the calendar days in a range, for building classifiers.
func (s *Service) Dates(from, to rules.Date) ([]rules.Date, error) {
	leaveDates, err := s.repo.ListRange(from, to)
	if err != nil {
		return nil, err
	}

	dates := make([]rules.Date, len(leaveDates))
	for i, l := range leaveDates {
		dates[i] = l.Date
	}
	return dates, nil
}

// IsLeaveDay satisfies the entry validation's leave lookup.
func (s *Service) IsLeaveDay(d rules.Date) (bool, error) {
	existing, err := s.repo.GetByDate(d)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}
