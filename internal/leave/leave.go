package leave

import (
	"time"

	leaveDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/leavedate"
	"github.com/timewise-hq/timewise/internal/rules"
)

// LeaveDate is one company-wide holiday on the leave calendar. The calendar
// is admin-managed and read by entry validation and compliance reporting.
type LeaveDate struct {
	ID        int64      `json:"id"`
	Date      rules.Date `json:"date"`
	Name      string     `json:"name"`
	CreatedBy int64      `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
}

func ToDataModel(l *LeaveDate) *leaveDatamodel.LeaveDate {
	return &leaveDatamodel.LeaveDate{
		ID:        l.ID,
		LeaveDate: l.Date.Time(),
		Name:      l.Name,
		CreatedBy: l.CreatedBy,
		CreatedAt: l.CreatedAt,
	}
}

func FromDataModel(l *leaveDatamodel.LeaveDate) *LeaveDate {
	return &LeaveDate{
		ID:        l.ID,
		Date:      rules.DateOf(l.LeaveDate),
		Name:      l.Name,
		CreatedBy: l.CreatedBy,
		CreatedAt: l.CreatedAt,
	}
}

func FromDataModelSlice(dms []*leaveDatamodel.LeaveDate) []*LeaveDate {
	result := make([]*LeaveDate, len(dms))
	for i, dm := range dms {
		result[i] = FromDataModel(dm)
	}
	return result
}
