package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinEntryMinutes is the smallest duration a single entry may record.
const MinEntryMinutes = 30

type Duration struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

func (d Duration) Valid() bool {
	return d.Hours >= 0 && d.Hours <= 24 && d.Minutes >= 0 && d.Minutes <= 59
}

func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

// DecimalHours converts to exact fractional hours; 7h30m is 7.5.
func (d Duration) DecimalHours() decimal.Decimal {
	return decimal.NewFromInt(int64(d.Hours)).
		Add(decimal.NewFromInt(int64(d.Minutes)).Div(decimal.NewFromInt(60)))
}

func (d Duration) String() string {
	return fmt.Sprintf("%dh%02dm", d.Hours, d.Minutes)
}

type CapResult struct {
	Allowed      bool            `json:"allowed"`
	CurrentTotal decimal.Decimal `json:"current_total"`
	Reason       string          `json:"reason,omitempty"`
}

// ValidateDailyCap checks a candidate entry against the per-day hour cap,
// given the durations already logged for that user and day.
func ValidateDailyCap(existing []Duration, candidate Duration, maxHoursPerDay decimal.Decimal) CapResult {
	total := decimal.Zero
	for _, d := range existing {
		total = total.Add(d.DecimalHours())
	}

	if candidate.TotalMinutes() < MinEntryMinutes {
		return CapResult{
			Allowed:      false,
			CurrentTotal: total,
			Reason:       fmt.Sprintf("minimum time is %d minutes", MinEntryMinutes),
		}
	}

	proposed := total.Add(candidate.DecimalHours())
	if proposed.GreaterThan(maxHoursPerDay) {
		return CapResult{
			Allowed:      false,
			CurrentTotal: total,
			Reason: fmt.Sprintf("daily cap of %s hours exceeded: %s hours already logged, adding %s hours",
				maxHoursPerDay.String(), total.String(), candidate.DecimalHours().String()),
		}
	}

	return CapResult{Allowed: true, CurrentTotal: proposed}
}
