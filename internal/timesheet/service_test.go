package timesheet_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	apperrors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/timesheet"
)

type mockEntryRepository struct {
	entries     map[int64]*timesheet.WorkEntry
	createError error
	getError    error
	nextID      int64
}

func newMockEntryRepository() *mockEntryRepository {
	return &mockEntryRepository{
		entries: make(map[int64]*timesheet.WorkEntry),
		nextID:  1,
	}
}

func (m *mockEntryRepository) Create(entry *timesheet.WorkEntry) error {
	if m.createError != nil {
		return m.createError
	}
	entry.ID = m.nextID
	m.nextID++
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockEntryRepository) GetByID(id int64) (*timesheet.WorkEntry, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	entry, exists := m.entries[id]
	if !exists {
		return nil, errors.New("work entry not found")
	}
	return entry, nil
}

func (m *mockEntryRepository) ListByUser(userID int64, from, to rules.Date, limit, offset int) ([]*timesheet.WorkEntry, error) {
	var out []*timesheet.WorkEntry
	for _, e := range m.entries {
		if e.UserID == userID && !e.EntryDate.Before(from) && !e.EntryDate.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntryRepository) ListAll(from, to rules.Date, limit, offset int) ([]*timesheet.WorkEntry, error) {
	var out []*timesheet.WorkEntry
	for _, e := range m.entries {
		if !e.EntryDate.Before(from) && !e.EntryDate.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEntryRepository) ApprovedDurationsForDay(userID int64, day rules.Date, excludeID int64) ([]rules.Duration, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	var out []rules.Duration
	for _, e := range m.entries {
		if e.UserID == userID && e.EntryDate.Equal(day) && e.Status == timesheet.StatusApproved && e.ID != excludeID {
			out = append(out, e.Duration)
		}
	}
	return out, nil
}

func (m *mockEntryRepository) ApprovedHoursByDay(userID int64, from, to rules.Date) (map[rules.Date]decimal.Decimal, error) {
	totals := make(map[rules.Date]decimal.Decimal)
	for _, e := range m.entries {
		if e.UserID == userID && e.Status == timesheet.StatusApproved &&
			!e.EntryDate.Before(from) && !e.EntryDate.After(to) {
			totals[e.EntryDate] = totals[e.EntryDate].Add(e.Duration.DecimalHours())
		}
	}
	return totals, nil
}

func (m *mockEntryRepository) Update(entry *timesheet.WorkEntry) error {
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockEntryRepository) UpdateRejection(entry *timesheet.WorkEntry) error {
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockEntryRepository) Delete(id int64) error {
	delete(m.entries, id)
	return nil
}

type stubLeaveChecker struct {
	leaveDates map[rules.Date]bool
	err        error
}

func (s *stubLeaveChecker) IsLeaveDay(d rules.Date) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.leaveDates[d], nil
}

func testSettings() settings.Timesheet {
	return settings.Timesheet{
		MaxHoursPerDay:         decimal.NewFromInt(8),
		EditWindowDays:         3,
		AllowFutureDates:       false,
		AllowPastDates:         true,
		MinHoursForCompleteDay: decimal.NewFromInt(4),
		Verticals:              []string{"CMIS", "ERP", "Infra", "Support"},
		Countries:              []string{"India", "Remote"},
		Activities:             []string{"Development", "Testing", "Meeting", "Documentation"},
	}
}

func expectAppErrorCode(err error, code apperrors.ErrorCode) {
	GinkgoHelper()
	appErr, ok := apperrors.IsAppError(err)
	Expect(ok).To(BeTrue(), "expected an AppError, got %v", err)
	Expect(appErr.Code).To(Equal(code))
}

var _ = Describe("TimesheetService", func() {
	var (
		service   *timesheet.Service
		mockRepo  *mockEntryRepository
		leave     *stubLeaveChecker
		today     rules.Date
		employee  timesheet.Actor
		admin     timesheet.Actor
		inspector timesheet.Actor
	)

	validDTO := func(date rules.Date) timesheet.CreateEntryDTO {
		return timesheet.CreateEntryDTO{
			EntryDate:   date.String(),
			Category:    "CMIS",
			Location:    "India",
			Activity:    "Development",
			Description: "Fixed login bug today",
			Hours:       2,
			Minutes:     0,
		}
	}

	BeforeEach(func() {
		mockRepo = newMockEntryRepository()
		leave = &stubLeaveChecker{leaveDates: make(map[rules.Date]bool)}
		today = rules.NewDate(2024, time.May, 10)

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = timesheet.NewService(mockRepo, settings.NewStaticFromSnapshot(testSettings()), leave, nil, lg)
		service.SetTodayFunc(func() rules.Date { return today })

		employee = timesheet.Actor{
			ID: 1, Name: "Priya Nair", Email: "priya@example.com",
			Role: rules.RoleEmployee, Permissions: []string{"log_work"},
		}
		admin = timesheet.Actor{
			ID: 2, Name: "Admin", Email: "admin@example.com",
			Role: rules.RoleAdmin, Permissions: []string{"admin", "approve_entries", "view_compliance"},
		}
		inspector = timesheet.Actor{
			ID: 3, Name: "Auditor", Email: "audit@example.com",
			Role: rules.RoleInspection, Permissions: []string{"view_compliance"},
		}
	})

	Describe("CreateEntry", func() {
		It("creates an approved entry with denormalized owner fields", func() {
			entry, err := service.CreateEntry(employee, validDTO(today))

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.ID).To(BeNumerically(">", 0))
			Expect(entry.Status).To(Equal(timesheet.StatusApproved))
			Expect(entry.UserName).To(Equal("Priya Nair"))
			Expect(entry.UserEmail).To(Equal("priya@example.com"))
			Expect(entry.UserRole).To(Equal("employee"))
		})

		It("accepts an entry dated exactly at the window boundary", func() {
			entry, err := service.CreateEntry(employee, validDTO(today.AddDays(-3)))

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.Status).To(Equal(timesheet.StatusApproved))
		})

		It("rejects an entry one day beyond the window", func() {
			_, err := service.CreateEntry(employee, validDTO(today.AddDays(-4)))

			expectAppErrorCode(err, apperrors.ErrCodeOutsideEditWindow)
		})

		It("rejects a future-dated entry when futures are disabled", func() {
			_, err := service.CreateEntry(employee, validDTO(today.AddDays(1)))

			expectAppErrorCode(err, apperrors.ErrCodeFutureDateNotAllowed)
		})

		It("allows admins to write far outside the window", func() {
			entry, err := service.CreateEntry(admin, validDTO(today.AddDays(-30)))

			Expect(err).ToNot(HaveOccurred())
			Expect(entry.Status).To(Equal(timesheet.StatusApproved))
		})

		It("rejects descriptions with fewer than three words", func() {
			dto := validDTO(today)
			dto.Description = "fixed bug"

			_, err := service.CreateEntry(employee, dto)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("at least 3 words"))
		})

		It("rejects categories outside the configured verticals", func() {
			dto := validDTO(today)
			dto.Category = "Sales"

			_, err := service.CreateEntry(employee, dto)

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("category"))
		})

		It("rejects entries under thirty minutes", func() {
			dto := validDTO(today)
			dto.Hours = 0
			dto.Minutes = 29

			_, err := service.CreateEntry(employee, dto)

			expectAppErrorCode(err, apperrors.ErrCodeBelowMinimumDuration)
		})

		It("rejects when the daily cap would be exceeded", func() {
			first := validDTO(today)
			first.Hours = 7
			first.Minutes = 30
			_, err := service.CreateEntry(employee, first)
			Expect(err).ToNot(HaveOccurred())

			second := validDTO(today)
			second.Hours = 0
			second.Minutes = 36

			_, err = service.CreateEntry(employee, second)

			expectAppErrorCode(err, apperrors.ErrCodeDailyCapExceeded)
		})

		It("allows filling the day exactly to the cap", func() {
			first := validDTO(today)
			first.Hours = 7
			first.Minutes = 30
			_, err := service.CreateEntry(employee, first)
			Expect(err).ToNot(HaveOccurred())

			second := validDTO(today)
			second.Hours = 0
			second.Minutes = 30

			_, err = service.CreateEntry(employee, second)
			Expect(err).ToNot(HaveOccurred())
		})

		It("excludes rejected entries from the daily total", func() {
			first, err := service.CreateEntry(employee, func() timesheet.CreateEntryDTO {
				dto := validDTO(today)
				dto.Hours = 7
				return dto
			}())
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RejectEntry(admin, first.ID, "wrong project")
			Expect(err).ToNot(HaveOccurred())

			second := validDTO(today)
			second.Hours = 6

			_, err = service.CreateEntry(employee, second)
			Expect(err).ToNot(HaveOccurred())
		})

		It("blocks employees from logging on a company leave day", func() {
			leave.leaveDates[today] = true

			_, err := service.CreateEntry(employee, validDTO(today))

			expectAppErrorCode(err, apperrors.ErrCodeLeaveDayRestricted)
		})
	})

	Describe("RejectEntry", func() {
		var entry *timesheet.WorkEntry

		BeforeEach(func() {
			var err error
			entry, err = service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())
		})

		It("marks an approved entry rejected with reviewer metadata", func() {
			rejected, err := service.RejectEntry(admin, entry.ID, "duplicate entry")

			Expect(err).ToNot(HaveOccurred())
			Expect(rejected.Status).To(Equal(timesheet.StatusRejected))
			Expect(rejected.RejectedBy).ToNot(BeNil())
			Expect(*rejected.RejectedBy).To(Equal(admin.ID))
			Expect(*rejected.RejectReason).To(Equal("duplicate entry"))
		})

		It("denies rejection without reviewer permissions", func() {
			_, err := service.RejectEntry(inspector, entry.ID, "nope")

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})

		It("refuses to reject an already-rejected entry", func() {
			_, err := service.RejectEntry(admin, entry.ID, "first")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.RejectEntry(admin, entry.ID, "second")

			expectAppErrorCode(err, apperrors.ErrCodeInvalidEntryStatus)
		})
	})

	Describe("DeleteEntry", func() {
		var entry *timesheet.WorkEntry

		BeforeEach(func() {
			var err error
			entry, err = service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())
		})

		It("soft-rejects on the first reviewer delete of an approved entry", func() {
			result, err := service.DeleteEntry(admin, entry.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Removed).To(BeFalse())
			Expect(result.Status).To(Equal(timesheet.StatusRejected))

			stored, err := service.GetEntry(admin, entry.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(stored.Status).To(Equal(timesheet.StatusRejected))
		})

		It("permanently removes an already-rejected entry on the second delete", func() {
			_, err := service.DeleteEntry(admin, entry.ID)
			Expect(err).ToNot(HaveOccurred())

			result, err := service.DeleteEntry(admin, entry.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Removed).To(BeTrue())

			_, err = service.GetEntry(admin, entry.ID)
			expectAppErrorCode(err, apperrors.ErrCodeEntryNotFound)
		})

		It("lets the owner hard-delete within the edit window", func() {
			result, err := service.DeleteEntry(employee, entry.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(result.Removed).To(BeTrue())
		})

		It("blocks the owner once the window has passed", func() {
			today = today.AddDays(10)

			_, err := service.DeleteEntry(employee, entry.ID)

			expectAppErrorCode(err, apperrors.ErrCodeOutsideEditWindow)
		})

		It("denies delete of another user's entry without reviewer permissions", func() {
			other := timesheet.Actor{ID: 99, Role: rules.RoleEmployee}

			_, err := service.DeleteEntry(other, entry.ID)

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})
	})

	Describe("UpdateEntry", func() {
		var entry *timesheet.WorkEntry

		BeforeEach(func() {
			var err error
			entry, err = service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())
		})

		It("updates mutable fields and revalidates the cap excluding itself", func() {
			updated, err := service.UpdateEntry(employee, entry.ID, timesheet.UpdateEntryDTO{
				Category:    "ERP",
				Location:    "Remote",
				Activity:    "Testing",
				Description: "Regression run for release",
				Hours:       8,
				Minutes:     0,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Category).To(Equal("ERP"))
			Expect(updated.Duration.Hours).To(Equal(8))
		})

		It("refuses to edit a rejected entry", func() {
			_, err := service.RejectEntry(admin, entry.ID, "bad entry")
			Expect(err).ToNot(HaveOccurred())

			_, err = service.UpdateEntry(employee, entry.ID, timesheet.UpdateEntryDTO{
				Category:    "ERP",
				Location:    "Remote",
				Activity:    "Testing",
				Description: "Regression run for release",
				Hours:       1,
				Minutes:     0,
			})

			expectAppErrorCode(err, apperrors.ErrCodeInvalidEntryStatus)
		})

		It("denies edits on another user's entry", func() {
			_, err := service.UpdateEntry(inspector, entry.ID, timesheet.UpdateEntryDTO{
				Category:    "ERP",
				Location:    "Remote",
				Activity:    "Testing",
				Description: "Regression run for release",
				Hours:       1,
				Minutes:     0,
			})

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})
	})

	Describe("visibility", func() {
		BeforeEach(func() {
			_, err := service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())
		})

		It("lets inspection read other users' entries", func() {
			entries, err := service.ListUserEntries(inspector, employee.ID, today.AddDays(-7), today, 50, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
		})

		It("blocks employees from listing other users' entries", func() {
			_, err := service.ListUserEntries(timesheet.Actor{ID: 42, Role: rules.RoleEmployee}, employee.ID, today.AddDays(-7), today, 50, 0)

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})
	})

	Describe("DailySummary", func() {
		BeforeEach(func() {
			_, err := service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())

			halfDay := validDTO(today)
			halfDay.Hours = 1
			halfDay.Minutes = 30
			_, err = service.CreateEntry(employee, halfDay)
			Expect(err).ToNot(HaveOccurred())
		})

		It("sums approved entries per day as decimal hours", func() {
			totals, err := service.DailySummary(employee, employee.ID, today.AddDays(-7), today)

			Expect(err).ToNot(HaveOccurred())
			Expect(totals).To(HaveLen(1))
			Expect(totals[today.String()].Equal(decimal.NewFromFloat(3.5))).To(BeTrue())
		})

		It("excludes rejected entries from the totals", func() {
			_, err := service.RejectEntry(admin, 2, "wrong project")
			Expect(err).ToNot(HaveOccurred())

			totals, err := service.DailySummary(employee, employee.ID, today.AddDays(-7), today)

			Expect(err).ToNot(HaveOccurred())
			Expect(totals[today.String()].Equal(decimal.NewFromInt(2))).To(BeTrue())
		})

		It("blocks employees from another user's summary", func() {
			_, err := service.DailySummary(timesheet.Actor{ID: 42, Role: rules.RoleEmployee}, employee.ID, today.AddDays(-7), today)

			expectAppErrorCode(err, apperrors.ErrCodeUnauthorizedAccess)
		})

		It("lets inspection read any user's summary", func() {
			totals, err := service.DailySummary(inspector, employee.ID, today.AddDays(-7), today)

			Expect(err).ToNot(HaveOccurred())
			Expect(totals).To(HaveKey(today.String()))
		})
	})

	Describe("entry response editability", func() {
		It("marks an owned approved entry inside the window editable", func() {
			entry, err := service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())

			resp := timesheet.NewEntryResponse(entry, employee, today, testSettings())

			Expect(resp.CanEdit).To(BeTrue())
		})

		It("never marks a rejected entry editable, even for its owner inside the window", func() {
			entry, err := service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())
			rejected, err := service.RejectEntry(admin, entry.ID, "wrong vertical")
			Expect(err).ToNot(HaveOccurred())

			Expect(timesheet.NewEntryResponse(rejected, employee, today, testSettings()).CanEdit).To(BeFalse())
			Expect(timesheet.NewEntryResponse(rejected, admin, today, testSettings()).CanEdit).To(BeFalse())
		})

		It("marks an owned entry outside the window read-only", func() {
			entry, err := service.CreateEntry(employee, validDTO(today))
			Expect(err).ToNot(HaveOccurred())

			later := today.AddDays(10)
			resp := timesheet.NewEntryResponse(entry, employee, later, testSettings())

			Expect(resp.CanEdit).To(BeFalse())
		})
	})
})
