package report

import (
	"github.com/timewise-hq/timewise/internal/rules"
)

const (
	CompletionPresence = "presence"
	CompletionHours    = "hours"
)

// Member is the slice of the user directory the report module needs.
type Member struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UserComplianceReport is one user's compliance over a date range.
type UserComplianceReport struct {
	UserID     int64                  `json:"user_id"`
	From       rules.Date             `json:"from"`
	To         rules.Date             `json:"to"`
	Completion string                 `json:"completion"`
	Report     rules.ComplianceReport `json:"report"`
}

// SummaryRow is one line of the all-users compliance summary.
type SummaryRow struct {
	UserID           int64  `json:"user_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	ExpectedWorkdays int    `json:"expected_workdays"`
	CompletedDays    int    `json:"completed_days"`
	ComplianceRate   int    `json:"compliance_rate"`
	MissingCount     int    `json:"missing_count"`
}

// Summary is the aggregate view for reviewers and inspection.
type Summary struct {
	From       rules.Date   `json:"from"`
	To         rules.Date   `json:"to"`
	Completion string       `json:"completion"`
	Rows       []SummaryRow `json:"rows"`
}
