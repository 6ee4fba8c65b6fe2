package rules

import "github.com/shopspring/decimal"

// DayCompletion decides whether a workday with the given logged hours counts
// as complete.
type DayCompletion interface {
	Complete(d Date, logged map[Date]decimal.Decimal) bool
}

// PresenceCompletion treats any logged entry as completing the day.
type PresenceCompletion struct{}

func (PresenceCompletion) Complete(d Date, logged map[Date]decimal.Decimal) bool {
	_, ok := logged[d]
	return ok
}

// HourThresholdCompletion requires a minimum total of hours for the day.
type HourThresholdCompletion struct {
	MinHours decimal.Decimal
}

func (h HourThresholdCompletion) Complete(d Date, logged map[Date]decimal.Decimal) bool {
	total, ok := logged[d]
	return ok && total.GreaterThanOrEqual(h.MinHours)
}

type ComplianceReport struct {
	ExpectedWorkdays int    `json:"expected_workdays"`
	CompletedDays    int    `json:"completed_days"`
	ComplianceRate   int    `json:"compliance_rate"`
	MissingDates     []Date `json:"missing_dates"`
}

type ComplianceAggregator struct {
	Classifier *CalendarClassifier
	Completion DayCompletion
}

func NewComplianceAggregator(classifier *CalendarClassifier, completion DayCompletion) *ComplianceAggregator {
	if completion == nil {
		completion = PresenceCompletion{}
	}
	return &ComplianceAggregator{Classifier: classifier, Completion: completion}
}

// Compute walks the range [start, end], counting only workdays that are not
// in the future. Days after today never count as expected or missing.
func (a *ComplianceAggregator) Compute(logged map[Date]decimal.Decimal, start, end, today Date) ComplianceReport {
	report := ComplianceReport{MissingDates: []Date{}}

	for d := start; !d.After(end); d = d.AddDays(1) {
		if d.After(today) {
			continue
		}
		if a.Classifier.Classify(d) != Workday {
			continue
		}
		report.ExpectedWorkdays++
		if a.Completion.Complete(d, logged) {
			report.CompletedDays++
		} else {
			report.MissingDates = append(report.MissingDates, d)
		}
	}

	if report.ExpectedWorkdays > 0 {
		rate := decimal.NewFromInt(int64(report.CompletedDays)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(report.ExpectedWorkdays)))
		report.ComplianceRate = int(rate.Round(0).IntPart())
	}
	return report
}
