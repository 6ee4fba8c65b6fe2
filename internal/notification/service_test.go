package notification_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/timewise-hq/timewise/internal/notification"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
)

type mockNotificationRepository struct {
	records   []*notification.Record
	listError error
	nextID    int64
}

func (m *mockNotificationRepository) Create(record *notification.Record) error {
	m.nextID++
	record.ID = m.nextID
	m.records = append(m.records, record)
	return nil
}

func (m *mockNotificationRepository) ListForUserOnDay(userID int64, day rules.Date, notificationType string) ([]*notification.Record, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var out []*notification.Record
	for _, r := range m.records {
		if r.UserID == userID && r.SentOn.Equal(day) && r.Type == notificationType {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockNotificationRepository) List(limit, offset int) ([]*notification.Record, error) {
	return m.records, nil
}

type stubDirectory struct {
	recipients []notification.Recipient
}

func (s *stubDirectory) ActiveRecipients() ([]notification.Recipient, error) {
	return s.recipients, nil
}

type stubEntryReader struct {
	hoursByUser map[int64]map[rules.Date]decimal.Decimal
}

func (s *stubEntryReader) ApprovedHoursByDay(userID int64, from, to rules.Date) (map[rules.Date]decimal.Decimal, error) {
	out := make(map[rules.Date]decimal.Decimal)
	for d, h := range s.hoursByUser[userID] {
		if !d.Before(from) && !d.After(to) {
			out[d] = h
		}
	}
	return out, nil
}

type stubLeaveReader struct {
	dates []rules.Date
}

func (s *stubLeaveReader) Dates(from, to rules.Date) ([]rules.Date, error) {
	return s.dates, nil
}

type fakeMailer struct {
	sent      []sentMail
	sendError error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	if f.sendError != nil {
		return f.sendError
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var _ = Describe("NotificationService", func() {
	var (
		service   *notification.Service
		repo      *mockNotificationRepository
		directory *stubDirectory
		entries   *stubEntryReader
		leave     *stubLeaveReader
		transport *fakeMailer
		today     rules.Date
	)

	logDay := func(userID int64, d rules.Date) {
		if entries.hoursByUser[userID] == nil {
			entries.hoursByUser[userID] = make(map[rules.Date]decimal.Decimal)
		}
		entries.hoursByUser[userID][d] = decimal.NewFromInt(8)
	}

	BeforeEach(func() {
		repo = &mockNotificationRepository{}
		directory = &stubDirectory{recipients: []notification.Recipient{
			{ID: 1, Name: "Priya Nair", Email: "priya@example.com"},
		}}
		entries = &stubEntryReader{hoursByUser: make(map[int64]map[rules.Date]decimal.Decimal)}
		leave = &stubLeaveReader{}
		transport = &fakeMailer{}

		// Friday May 10 2024; window covers Tue May 7 through Fri May 10.
		today = rules.NewDate(2024, time.May, 10)

		provider := settings.NewStaticFromSnapshot(settings.Timesheet{
			MaxHoursPerDay: decimal.NewFromInt(8),
			EditWindowDays: 3,
			Verticals:      []string{"CMIS"},
		})

		lg := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = notification.NewService(repo, directory, entries, leave, provider, transport, nil, lg)
		service.SetTodayFunc(func() rules.Date { return today })
	})

	It("reminds about unlogged workdays inside the window", func() {
		logDay(1, rules.NewDate(2024, time.May, 8))

		result, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Notified).To(Equal(1))
		Expect(transport.sent).To(HaveLen(1))
		Expect(transport.sent[0].to).To(Equal("priya@example.com"))
		Expect(transport.sent[0].body).To(ContainSubstring("2024-05-07"))
		Expect(transport.sent[0].body).To(ContainSubstring("2024-05-09"))
		Expect(transport.sent[0].body).ToNot(ContainSubstring("2024-05-08"))

		Expect(repo.records).To(HaveLen(1))
		Expect(repo.records[0].Delivered).To(BeTrue())
		Expect(repo.records[0].Targets).To(HaveLen(3))
	})

	It("records the reminder type and days remaining per date", func() {
		logDay(1, rules.NewDate(2024, time.May, 8))

		_, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(repo.records).To(HaveLen(1))
		Expect(repo.records[0].Type).To(Equal(notification.TypeMissingEntries))

		remaining := make(map[rules.Date]int)
		for _, t := range repo.records[0].Targets {
			remaining[t.Date] = t.DaysRemaining
		}
		// Window of 3 days: May 7 closes today, May 10 has the full window.
		Expect(remaining[rules.NewDate(2024, time.May, 7)]).To(Equal(0))
		Expect(remaining[rules.NewDate(2024, time.May, 9)]).To(Equal(2))
		Expect(remaining[rules.NewDate(2024, time.May, 10)]).To(Equal(3))
	})

	It("does not let a reminder of another type suppress the sweep", func() {
		repo.records = append(repo.records, &notification.Record{
			UserID:    1,
			UserEmail: "priya@example.com",
			Type:      "weekly_digest",
			SentOn:    today,
			Targets: []notification.Target{
				{Date: rules.NewDate(2024, time.May, 7)},
				{Date: rules.NewDate(2024, time.May, 8)},
				{Date: rules.NewDate(2024, time.May, 9)},
				{Date: rules.NewDate(2024, time.May, 10)},
			},
			Delivered: true,
		})

		result, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Notified).To(Equal(1))
		Expect(transport.sent).To(HaveLen(1))
	})

	It("skips employees with every workday logged", func() {
		for d := today.AddDays(-3); !d.After(today); d = d.AddDays(1) {
			logDay(1, d)
		}

		result, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Skipped).To(Equal(1))
		Expect(transport.sent).To(BeEmpty())
		Expect(repo.records).To(BeEmpty())
	})

	It("suppresses a second sweep with the same missing set", func() {
		_, err := service.RunSweep()
		Expect(err).ToNot(HaveOccurred())
		Expect(transport.sent).To(HaveLen(1))

		result, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Skipped).To(Equal(1))
		Expect(transport.sent).To(HaveLen(1))
	})

	It("re-notifies when the missing set changes during the day", func() {
		_, err := service.RunSweep()
		Expect(err).ToNot(HaveOccurred())

		logDay(1, rules.NewDate(2024, time.May, 7))

		result, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Notified).To(Equal(1))
		Expect(transport.sent).To(HaveLen(2))
	})

	It("records failed deliveries with the error", func() {
		transport.sendError = errors.New("connection refused")

		result, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Failed).To(Equal(1))
		Expect(repo.records).To(HaveLen(1))
		Expect(repo.records[0].Delivered).To(BeFalse())
		Expect(*repo.records[0].ErrorDetail).To(ContainSubstring("connection refused"))
	})

	It("sends anyway when prior reminders cannot be read", func() {
		_, err := service.RunSweep()
		Expect(err).ToNot(HaveOccurred())

		repo.listError = errors.New("db down")

		result, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Notified).To(Equal(1))
		Expect(transport.sent).To(HaveLen(2))
	})

	It("limits the catch-up sweep to yesterday", func() {
		result, err := service.RunCatchUpSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Notified).To(Equal(1))
		Expect(transport.sent).To(HaveLen(1))
		Expect(transport.sent[0].body).To(ContainSubstring("2024-05-09"))
		Expect(transport.sent[0].body).ToNot(ContainSubstring("2024-05-07"))
		Expect(transport.sent[0].body).ToNot(ContainSubstring("2024-05-08"))
		Expect(transport.sent[0].body).ToNot(ContainSubstring("2024-05-10"))

		Expect(repo.records).To(HaveLen(1))
		Expect(repo.records[0].Targets).To(HaveLen(1))
		Expect(repo.records[0].Targets[0].Date).To(Equal(rules.NewDate(2024, time.May, 9)))
	})

	It("skips the catch-up sweep when yesterday is logged", func() {
		logDay(1, rules.NewDate(2024, time.May, 9))

		result, err := service.RunCatchUpSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(result.Skipped).To(Equal(1))
		Expect(transport.sent).To(BeEmpty())
	})

	It("skips non-workdays in the window", func() {
		// Monday May 13; window covers Fri 10 through Mon 13 with the
		// weekend in between.
		today = rules.NewDate(2024, time.May, 13)

		_, err := service.RunSweep()

		Expect(err).ToNot(HaveOccurred())
		Expect(transport.sent).To(HaveLen(1))
		Expect(transport.sent[0].body).ToNot(ContainSubstring("2024-05-11"))
		Expect(transport.sent[0].body).ToNot(ContainSubstring("2024-05-12"))
	})
})
