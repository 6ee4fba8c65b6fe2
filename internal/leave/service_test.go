package leave_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/leave"
	"github.com/timewise-hq/timewise/internal/rules"
)

type mockLeaveRepository struct {
	byID   map[int64]*leave.LeaveDate
	byDate map[rules.Date]*leave.LeaveDate
	nextID int64
}

func newMockLeaveRepository() *mockLeaveRepository {
	return &mockLeaveRepository{
		byID:   make(map[int64]*leave.LeaveDate),
		byDate: make(map[rules.Date]*leave.LeaveDate),
		nextID: 1,
	}
}

func (m *mockLeaveRepository) Create(l *leave.LeaveDate) error {
	l.ID = m.nextID
	m.nextID++
	m.byID[l.ID] = l
	m.byDate[l.Date] = l
	return nil
}

func (m *mockLeaveRepository) GetByID(id int64) (*leave.LeaveDate, error) {
	l, exists := m.byID[id]
	if !exists {
		return nil, errors.New("leave date not found")
	}
	return l, nil
}

func (m *mockLeaveRepository) GetByDate(d rules.Date) (*leave.LeaveDate, error) {
	return m.byDate[d], nil
}

func (m *mockLeaveRepository) ListRange(from, to rules.Date) ([]*leave.LeaveDate, error) {
	var out []*leave.LeaveDate
	for _, l := range m.byID {
		if !l.Date.Before(from) && !l.Date.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLeaveRepository) Delete(id int64) error {
	if l, exists := m.byID[id]; exists {
		delete(m.byDate, l.Date)
		delete(m.byID, id)
	}
	return nil
}

var _ = Describe("LeaveService", func() {
	var (
		service  *leave.Service
		mockRepo *mockLeaveRepository
	)

	BeforeEach(func() {
		mockRepo = newMockLeaveRepository()
		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = leave.NewService(mockRepo, lg)
	})

	Describe("CreateLeaveDate", func() {
		It("creates a leave date", func() {
			created, err := service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{
				Date: "2024-08-15",
				Name: "Independence Day",
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(created.Date).To(Equal(rules.NewDate(2024, time.August, 15)))
			Expect(created.CreatedBy).To(Equal(int64(1)))
		})

		It("rejects a duplicate date with a conflict", func() {
			_, err := service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{Date: "2024-08-15", Name: "Independence Day"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{Date: "2024-08-15", Name: "Duplicate"})

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeDuplicateLeaveDate))
		})

		It("rejects malformed dates", func() {
			_, err := service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{Date: "15-08-2024", Name: "Bad"})

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidDate))
		})

		It("requires a name", func() {
			_, err := service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{Date: "2024-08-15"})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("DeleteLeaveDate", func() {
		It("removes an existing date", func() {
			created, err := service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{Date: "2024-08-15", Name: "Independence Day"})
			Expect(err).ToNot(HaveOccurred())

			Expect(service.DeleteLeaveDate(created.ID)).To(Succeed())

			isLeave, err := service.IsLeaveDay(created.Date)
			Expect(err).ToNot(HaveOccurred())
			Expect(isLeave).To(BeFalse())
		})

		It("returns not found for unknown ids", func() {
			err := service.DeleteLeaveDate(999)

			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeLeaveDateNotFound))
		})
	})

	Describe("IsLeaveDay and Dates", func() {
		BeforeEach(func() {
			_, err := service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{Date: "2024-08-15", Name: "Independence Day"})
			Expect(err).ToNot(HaveOccurred())
			_, err = service.CreateLeaveDate(1, leave.CreateLeaveDateDTO{Date: "2024-10-02", Name: "Gandhi Jayanti"})
			Expect(err).ToNot(HaveOccurred())
		})

		It("reports leave membership", func() {
			isLeave, err := service.IsLeaveDay(rules.NewDate(2024, time.August, 15))
			Expect(err).ToNot(HaveOccurred())
			Expect(isLeave).To(BeTrue())

			isLeave, err = service.IsLeaveDay(rules.NewDate(2024, time.August, 16))
			Expect(err).ToNot(HaveOccurred())
			Expect(isLeave).To(BeFalse())
		})

		It("returns only dates inside the range", func() {
			dates, err := service.Dates(rules.NewDate(2024, time.August, 1), rules.NewDate(2024, time.August, 31))

			Expect(err).ToNot(HaveOccurred())
			Expect(dates).To(ConsistOf(rules.NewDate(2024, time.August, 15)))
		})
	})
})
