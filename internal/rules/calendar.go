package rules

import "time"

type DayKind int

const (
	Workday DayKind = iota
	Weekend
	SecondSaturday
	LeaveDay
)

func (k DayKind) String() string {
	switch k {
	case Weekend:
		return "weekend"
	case SecondSaturday:
		return "second_saturday"
	case LeaveDay:
		return "leave"
	default:
		return "workday"
	}
}

// CalendarClassifier decides whether a calendar day counts toward expected
// work. Sundays and the second Saturday of each month are off; company leave
// days come from the admin-managed leave calendar. Classification precedence
// is weekend, then second Saturday, then leave, so a leave date that falls
// on a Sunday stays a weekend.
type CalendarClassifier struct {
	leave map[Date]struct{}
}

func NewCalendarClassifier(leaveDates []Date) *CalendarClassifier {
	leave := make(map[Date]struct{}, len(leaveDates))
	for _, d := range leaveDates {
		leave[d] = struct{}{}
	}
	return &CalendarClassifier{leave: leave}
}

func (c *CalendarClassifier) Classify(d Date) DayKind {
	switch d.Weekday() {
	case time.Sunday:
		return Weekend
	case time.Saturday:
		if d.Day == firstSaturday(d.Year, d.Month)+7 {
			return SecondSaturday
		}
	}
	if _, ok := c.leave[d]; ok {
		return LeaveDay
	}
	return Workday
}

func (c *CalendarClassifier) IsLeave(d Date) bool {
	_, ok := c.leave[d]
	return ok
}

func (c *CalendarClassifier) IsWorkday(d Date) bool {
	return c.Classify(d) == Workday
}

func firstSaturday(year int, month time.Month) int {
	for day := 1; day <= 7; day++ {
		if NewDate(year, month, day).Weekday() == time.Saturday {
			return day
		}
	}
	return 0
}
