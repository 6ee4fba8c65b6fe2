package report

import (
	"log/slog"

	"github.com/shopspring/decimal"

	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/timesheet"
)

// EntryReader supplies approved hours per day for one user.
type EntryReader interface {
	ApprovedHoursByDay(userID int64, from, to rules.Date) (map[rules.Date]decimal.Decimal, error)
}

// LeaveReader supplies the leave calendar for a range.
type LeaveReader interface {
	Dates(from, to rules.Date) ([]rules.Date, error)
}

// Directory lists the users a summary report covers.
type Directory interface {
	ActiveMembers() ([]Member, error)
}

type Service struct {
	entries   EntryReader
	leave     LeaveReader
	directory Directory
	settings  settings.Provider
	logger    *slog.Logger
	today     func() rules.Date
}

func NewService(entries EntryReader, leave LeaveReader, directory Directory, provider settings.Provider, logger *slog.Logger) *Service {
	return &Service{
		entries:   entries,
		leave:     leave,
		directory: directory,
		settings:  provider,
		logger:    logger,
		today:     rules.Today,
	}
}

// SetTodayFunc overrides the clock, for tests.
func (s *Service) SetTodayFunc(fn func() rules.Date) {
	s.today = fn
}

// UserCompliance computes one user's compliance. Employees may only see
// their own; reviewers and inspection see anyone's.
func (s *Service) UserCompliance(actor timesheet.Actor, userID int64, from, to rules.Date, completion string) (*UserComplianceReport, error) {
	if userID != actor.ID && !actor.CanViewCompliance() {
		s.logger.Warn("compliance report denied", "user_id", actor.ID, "target_id", userID)
		return nil, errors.NewForbiddenError("cannot view another user's compliance", errors.ErrCodeUnauthorizedAccess)
	}

	aggregator, err := s.buildAggregator(from, to, completion)
	if err != nil {
		return nil, err
	}

	logged, err := s.entries.ApprovedHoursByDay(userID, from, to)
	if err != nil {
		s.logger.Error("failed to load logged hours", "error", err, "user_id", userID)
		return nil, errors.NewInternalError("failed to compute compliance", err)
	}

	return &UserComplianceReport{
		UserID:     userID,
		From:       from,
		To:         to,
		Completion: completionOrDefault(completion),
		Report:     aggregator.Compute(logged, from, to, s.today()),
	}, nil
}

// ComplianceSummary computes compliance per active member.
func (s *Service) ComplianceSummary(actor timesheet.Actor, from, to rules.Date, completion string) (*Summary, error) {
	if !actor.CanViewCompliance() {
		return nil, errors.NewForbiddenError("compliance visibility required", errors.ErrCodeUnauthorizedAccess)
	}

	aggregator, err := s.buildAggregator(from, to, completion)
	if err != nil {
		return nil, err
	}

	members, err := s.directory.ActiveMembers()
	if err != nil {
		s.logger.Error("failed to list members for summary", "error", err)
		return nil, errors.NewInternalError("failed to compute summary", err)
	}

	today := s.today()
	summary := &Summary{
		From:       from,
		To:         to,
		Completion: completionOrDefault(completion),
		Rows:       make([]SummaryRow, 0, len(members)),
	}

	for _, member := range members {
		logged, err := s.entries.ApprovedHoursByDay(member.ID, from, to)
		if err != nil {
			s.logger.Error("failed to load logged hours for member",
				"error", err, "member_id", member.ID)
			return nil, errors.NewInternalError("failed to compute summary", err)
		}

		result := aggregator.Compute(logged, from, to, today)
		summary.Rows = append(summary.Rows, SummaryRow{
			UserID:           member.ID,
			Name:             member.Name,
			Email:            member.Email,
			ExpectedWorkdays: result.ExpectedWorkdays,
			CompletedDays:    result.CompletedDays,
			ComplianceRate:   result.ComplianceRate,
			MissingCount:     len(result.MissingDates),
		})
	}

	return summary, nil
}

func (s *Service) buildAggregator(from, to rules.Date, completion string) (*rules.ComplianceAggregator, error) {
	leaveDates, err := s.leave.Dates(from, to)
	if err != nil {
		s.logger.Error("failed to load leave calendar", "error", err)
		return nil, errors.NewInternalError("failed to load leave calendar", err)
	}
	classifier := rules.NewCalendarClassifier(leaveDates)

	switch completionOrDefault(completion) {
	case CompletionPresence:
		return rules.NewComplianceAggregator(classifier, rules.PresenceCompletion{}), nil
	case CompletionHours:
		ts := s.settings.Timesheet()
		return rules.NewComplianceAggregator(classifier, rules.HourThresholdCompletion{
			MinHours: ts.MinHoursForCompleteDay,
		}), nil
	default:
		return nil, errors.NewValidationError("completion must be presence or hours", errors.ErrCodeValidationFailed)
	}
}

func completionOrDefault(completion string) string {
	if completion == "" {
		return CompletionPresence
	}
	return completion
}
