package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/core/events"
	"github.com/timewise-hq/timewise/internal/mailer"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
)

// Recipient is an employee the sweep may remind.
type Recipient struct {
	ID    int64
	Name  string
	Email string
}

// Directory lists active employees eligible for reminders.
type Directory interface {
	ActiveRecipients() ([]Recipient, error)
}

// EntryReader supplies approved hours per day, used to find unlogged days.
type EntryReader interface {
	ApprovedHoursByDay(userID int64, from, to rules.Date) (map[rules.Date]decimal.Decimal, error)
}

// LeaveReader supplies the leave calendar for a range.
type LeaveReader interface {
	Dates(from, to rules.Date) ([]rules.Date, error)
}

// Repository stores and queries the notification log. Prior lookups are
// scoped by notification type so distinct reminder kinds dedup independently.
type Repository interface {
	Create(record *Record) error
	ListForUserOnDay(userID int64, day rules.Date, notificationType string) ([]*Record, error)
	List(limit, offset int) ([]*Record, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// SweepResult summarizes one reminder sweep.
type SweepResult struct {
	RanAt      time.Time `json:"ran_at"`
	Recipients int       `json:"recipients"`
	Notified   int       `json:"notified"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
}

type Service struct {
	repo      Repository
	directory Directory
	entries   EntryReader
	leave     LeaveReader
	settings  settings.Provider
	transport mailer.Transport
	bus       EventPublisher
	logger    *slog.Logger
	today     func() rules.Date
}

func NewService(repo Repository, directory Directory, entries EntryReader, leave LeaveReader,
	provider settings.Provider, transport mailer.Transport, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		entries:   entries,
		leave:     leave,
		settings:  provider,
		transport: transport,
		bus:       bus,
		logger:    logger,
		today:     rules.Today,
	}
}

// SetTodayFunc overrides the clock, for tests.
func (s *Service) SetTodayFunc(fn func() rules.Date) {
	s.today = fn
}

// RunSweep reminds every active employee about workdays still inside the
// edit window with no approved entries. Running it again on the same day is
// safe: a reminder whose missing-date set matches one already sent today is
// suppressed.
func (s *Service) RunSweep() (*SweepResult, error) {
	ts := s.settings.Timesheet()
	today := s.today()
	return s.sweep(today.AddDays(-ts.EditWindowDays), today, ts.EditWindowDays)
}

// RunCatchUpSweep checks yesterday only, catching entries rejected or
// deleted since the daily sweep. With no edit window yesterday is already
// closed and there is nothing actionable to remind about.
func (s *Service) RunCatchUpSweep() (*SweepResult, error) {
	ts := s.settings.Timesheet()
	if ts.EditWindowDays < 1 {
		return &SweepResult{RanAt: time.Now()}, nil
	}
	yesterday := s.today().AddDays(-1)
	return s.sweep(yesterday, yesterday, ts.EditWindowDays)
}

func (s *Service) sweep(from, to rules.Date, windowDays int) (*SweepResult, error) {
	today := s.today()

	leaveDates, err := s.leave.Dates(from, to)
	if err != nil {
		s.logger.Error("sweep aborted: failed to load leave calendar", "error", err)
		return nil, errors.NewInternalError("failed to load leave calendar", err)
	}
	classifier := rules.NewCalendarClassifier(leaveDates)

	recipients, err := s.directory.ActiveRecipients()
	if err != nil {
		s.logger.Error("sweep aborted: failed to list recipients", "error", err)
		return nil, errors.NewInternalError("failed to list recipients", err)
	}

	result := &SweepResult{RanAt: time.Now(), Recipients: len(recipients)}

	for _, recipient := range recipients {
		missing, err := s.missingDates(recipient.ID, classifier, from, to)
		if err != nil {
			s.logger.Error("skipping recipient: failed to compute missing dates",
				"error", err, "user_id", recipient.ID)
			result.Failed++
			continue
		}

		if s.shouldSkip(recipient, missing, today) {
			result.Skipped++
			continue
		}

		s.notify(recipient, missing, today, windowDays, result)
	}

	s.logger.Info("reminder sweep finished",
		"recipients", result.Recipients,
		"notified", result.Notified,
		"skipped", result.Skipped,
		"failed", result.Failed)

	return result, nil
}

func (s *Service) missingDates(userID int64, classifier *rules.CalendarClassifier, from, to rules.Date) ([]rules.Date, error) {
	logged, err := s.entries.ApprovedHoursByDay(userID, from, to)
	if err != nil {
		return nil, err
	}

	var missing []rules.Date
	for d := from; !d.After(to); d = d.AddDays(1) {
		if !classifier.IsWorkday(d) {
			continue
		}
		if _, ok := logged[d]; !ok {
			missing = append(missing, d)
		}
	}
	return missing, nil
}

// shouldSkip reads today's prior reminders for the recipient. A failed read
// is treated as no priors: the dedup is biased toward over-notifying over
// silently dropping a reminder.
func (s *Service) shouldSkip(recipient Recipient, missing []rules.Date, today rules.Date) bool {
	priors, err := s.repo.ListForUserOnDay(recipient.ID, today, TypeMissingEntries)
	if err != nil {
		s.logger.Warn("failed to load prior reminders, sending anyway",
			"error", err, "user_id", recipient.ID)
		priors = nil
	}

	priorSets := make([][]rules.Date, len(priors))
	for i, p := range priors {
		priorSets[i] = p.TargetDates()
	}

	return rules.ShouldSkipNotification(missing, priorSets)
}

func (s *Service) notify(recipient Recipient, missing []rules.Date, today rules.Date, windowDays int, result *SweepResult) {
	targets := make([]Target, len(missing))
	for i, d := range missing {
		targets[i] = Target{Date: d, DaysRemaining: windowDays - today.DaysSince(d)}
	}

	subject := fmt.Sprintf("Timesheet reminder: %d unlogged workday(s)", len(missing))
	body := composeBody(recipient.Name, targets)

	sendErr := s.transport.Send(recipient.Email, subject, body)

	record := &Record{
		UserID:    recipient.ID,
		UserEmail: recipient.Email,
		Type:      TypeMissingEntries,
		SentOn:    today,
		Targets:   targets,
		Delivered: sendErr == nil,
		CreatedAt: time.Now(),
	}
	if sendErr != nil {
		detail := sendErr.Error()
		record.ErrorDetail = &detail
		result.Failed++
	} else {
		result.Notified++
	}

	// The attempt is recorded even when delivery failed, so the dedup set
	// and the audit trail stay consistent.
	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to record reminder", "error", err, "user_id", recipient.ID)
	}

	if s.bus != nil {
		targets := make([]string, len(missing))
		for i, d := range missing {
			targets[i] = d.String()
		}
		event := events.NewNotificationSentEvent(recipient.ID, recipient.Email, targets, sendErr == nil)
		if err := s.bus.Publish(context.Background(), event); err != nil {
			s.logger.Error("failed to publish notification event", "error", err)
		}
	}
}

// composeBody lists each unlogged day with how many days remain before the
// edit window closes on it.
func composeBody(name string, targets []Target) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	b.WriteString("You have workdays inside the edit window with no time logged:\n\n")

	for _, t := range targets {
		d := t.Date
		switch {
		case t.DaysRemaining <= 0:
			fmt.Fprintf(&b, "  - %s (%s): window closes today\n", d.String(), d.Weekday())
		case t.DaysRemaining == 1:
			fmt.Fprintf(&b, "  - %s (%s): 1 day left to log\n", d.String(), d.Weekday())
		default:
			fmt.Fprintf(&b, "  - %s (%s): %d days left to log\n", d.String(), d.Weekday(), t.DaysRemaining)
		}
	}

	b.WriteString("\nOnce the window closes these days can no longer be edited.\n")
	return b.String()
}

// ListRecords pages through the notification log, newest first.
func (s *Service) ListRecords(limit, offset int) ([]*Record, error) {
	records, err := s.repo.List(limit, offset)
	if err != nil {
		s.logger.Error("failed to list notification log", "error", err)
		return nil, errors.NewInternalError("failed to list notifications", err)
	}
	return records, nil
}
