package report_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/report"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/timesheet"
)

type stubEntryReader struct {
	hoursByUser map[int64]map[rules.Date]decimal.Decimal
}

func (s *stubEntryReader) ApprovedHoursByDay(userID int64, from, to rules.Date) (map[rules.Date]decimal.Decimal, error) {
	out := make(map[rules.Date]decimal.Decimal)
	for d, hours := range s.hoursByUser[userID] {
		if !d.Before(from) && !d.After(to) {
			out[d] = hours
		}
	}
	return out, nil
}

type stubLeaveReader struct {
	dates []rules.Date
}

func (s *stubLeaveReader) Dates(from, to rules.Date) ([]rules.Date, error) {
	var out []rules.Date
	for _, d := range s.dates {
		if !d.Before(from) && !d.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

type stubDirectory struct {
	members []report.Member
}

func (s *stubDirectory) ActiveMembers() ([]report.Member, error) {
	return s.members, nil
}

var _ = Describe("ReportService", func() {
	var (
		service   *report.Service
		entries   *stubEntryReader
		leave     *stubLeaveReader
		directory *stubDirectory
		today     rules.Date
		employee  timesheet.Actor
		inspector timesheet.Actor
	)

	logHours := func(userID int64, hours float64, dates ...rules.Date) {
		if entries.hoursByUser[userID] == nil {
			entries.hoursByUser[userID] = make(map[rules.Date]decimal.Decimal)
		}
		for _, d := range dates {
			entries.hoursByUser[userID][d] = decimal.NewFromFloat(hours)
		}
	}

	BeforeEach(func() {
		entries = &stubEntryReader{hoursByUser: make(map[int64]map[rules.Date]decimal.Decimal)}
		leave = &stubLeaveReader{}
		directory = &stubDirectory{members: []report.Member{
			{ID: 1, Name: "Priya Nair", Email: "priya@example.com"},
			{ID: 2, Name: "Ravi Kumar", Email: "ravi@example.com"},
		}}
		today = rules.NewDate(2024, time.June, 1)

		provider := settings.NewStaticFromSnapshot(settings.Timesheet{
			MaxHoursPerDay:         decimal.NewFromInt(8),
			EditWindowDays:         3,
			MinHoursForCompleteDay: decimal.NewFromInt(4),
			Verticals:              []string{"CMIS"},
		})

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = report.NewService(entries, leave, directory, provider, lg)
		service.SetTodayFunc(func() rules.Date { return today })

		employee = timesheet.Actor{ID: 1, Role: rules.RoleEmployee}
		inspector = timesheet.Actor{ID: 9, Role: rules.RoleInspection, Permissions: []string{"view_compliance"}}
	})

	Describe("UserCompliance", func() {
		It("counts only non-future workdays and excludes leave", func() {
			// May 1-12 2024: Sundays on the 5th and 12th, second Saturday
			// the 11th, leave on the 1st.
			leave.dates = []rules.Date{rules.NewDate(2024, time.May, 1)}
			logHours(1, 8,
				rules.NewDate(2024, time.May, 2),
				rules.NewDate(2024, time.May, 3),
			)

			result, err := service.UserCompliance(employee, 1,
				rules.NewDate(2024, time.May, 1), rules.NewDate(2024, time.May, 12), "")

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Report.ExpectedWorkdays).To(Equal(8))
			Expect(result.Report.CompletedDays).To(Equal(2))
			Expect(result.Report.ComplianceRate).To(Equal(25))
			Expect(result.Completion).To(Equal(report.CompletionPresence))
		})

		It("applies the hour threshold when completion=hours", func() {
			day := rules.NewDate(2024, time.May, 6)
			logHours(1, 3.5, day)

			result, err := service.UserCompliance(employee, 1, day, day, report.CompletionHours)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Report.CompletedDays).To(Equal(0))
			Expect(result.Report.MissingDates).To(ContainElement(day))
		})

		It("denies employees access to other users' reports", func() {
			_, err := service.UserCompliance(employee, 2,
				rules.NewDate(2024, time.May, 1), rules.NewDate(2024, time.May, 31), "")

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeUnauthorizedAccess))
		})

		It("allows inspection to view any user", func() {
			_, err := service.UserCompliance(inspector, 1,
				rules.NewDate(2024, time.May, 1), rules.NewDate(2024, time.May, 31), "")

			Expect(err).ToNot(HaveOccurred())
		})

		It("rejects unknown completion modes", func() {
			_, err := service.UserCompliance(employee, 1,
				rules.NewDate(2024, time.May, 1), rules.NewDate(2024, time.May, 31), "vibes")

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ComplianceSummary", func() {
		It("produces one row per active member", func() {
			logHours(1, 8, rules.NewDate(2024, time.May, 6), rules.NewDate(2024, time.May, 7))
			logHours(2, 8, rules.NewDate(2024, time.May, 6))

			summary, err := service.ComplianceSummary(inspector,
				rules.NewDate(2024, time.May, 6), rules.NewDate(2024, time.May, 8), "")

			Expect(err).ToNot(HaveOccurred())
			Expect(summary.Rows).To(HaveLen(2))
			Expect(summary.Rows[0].CompletedDays).To(Equal(2))
			Expect(summary.Rows[0].ComplianceRate).To(Equal(67))
			Expect(summary.Rows[1].CompletedDays).To(Equal(1))
			Expect(summary.Rows[1].MissingCount).To(Equal(2))
		})

		It("requires compliance visibility", func() {
			_, err := service.ComplianceSummary(employee,
				rules.NewDate(2024, time.May, 1), rules.NewDate(2024, time.May, 31), "")

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeUnauthorizedAccess))
		})
	})
})
