package postgres

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	entryDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/workentry"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/timesheet"
)

var ErrEntryNotFound = errors.New("work entry not found")

// WorkEntryRepository implements timesheet.Repository using GORM.
type WorkEntryRepository struct {
	db *gorm.DB
}

func NewWorkEntryRepository(db *gorm.DB) timesheet.Repository {
	return &WorkEntryRepository{db: db}
}

func (r *WorkEntryRepository) Create(entry *timesheet.WorkEntry) error {
	dm := timesheet.ToDataModel(entry)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	entry.ID = dm.ID
	entry.CreatedAt = dm.CreatedAt
	entry.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *WorkEntryRepository) GetByID(id int64) (*timesheet.WorkEntry, error) {
	var dm entryDatamodel.WorkEntry
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return timesheet.FromDataModel(&dm), nil
}

func (r *WorkEntryRepository) ListByUser(userID int64, from, to rules.Date, limit, offset int) ([]*timesheet.WorkEntry, error) {
	var dms []*entryDatamodel.WorkEntry
	err := r.db.Where("user_id = ? AND entry_date BETWEEN ? AND ?", userID, from.Time(), to.Time()).
		Order("entry_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return fromDataModels(dms), nil
}

func (r *WorkEntryRepository) ListAll(from, to rules.Date, limit, offset int) ([]*timesheet.WorkEntry, error) {
	var dms []*entryDatamodel.WorkEntry
	err := r.db.Where("entry_date BETWEEN ? AND ?", from.Time(), to.Time()).
		Order("entry_date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return fromDataModels(dms), nil
}

// ApprovedDurationsForDay returns the durations of approved entries for one
// user and day, optionally excluding an entry being edited.
func (r *WorkEntryRepository) ApprovedDurationsForDay(userID int64, day rules.Date, excludeID int64) ([]rules.Duration, error) {
	query := r.db.Model(&entryDatamodel.WorkEntry{}).
		Where("user_id = ? AND entry_date = ? AND status = ?", userID, day.Time(), timesheet.StatusApproved)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var rows []struct {
		DurationHours   int
		DurationMinutes int
	}
	if err := query.Select("duration_hours", "duration_minutes").Find(&rows).Error; err != nil {
		return nil, err
	}

	durations := make([]rules.Duration, len(rows))
	for i, row := range rows {
		durations[i] = rules.Duration{Hours: row.DurationHours, Minutes: row.DurationMinutes}
	}
	return durations, nil
}

// ApprovedHoursByDay sums approved hours per calendar day over a range.
func (r *WorkEntryRepository) ApprovedHoursByDay(userID int64, from, to rules.Date) (map[rules.Date]decimal.Decimal, error) {
	var dms []*entryDatamodel.WorkEntry
	err := r.db.Where("user_id = ? AND entry_date BETWEEN ? AND ? AND status = ?",
		userID, from.Time(), to.Time(), timesheet.StatusApproved).
		Find(&dms).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[rules.Date]decimal.Decimal)
	for _, dm := range dms {
		day := rules.DateOf(dm.EntryDate)
		dur := rules.Duration{Hours: dm.DurationHours, Minutes: dm.DurationMinutes}
		totals[day] = totals[day].Add(dur.DecimalHours())
	}
	return totals, nil
}

func (r *WorkEntryRepository) Update(entry *timesheet.WorkEntry) error {
	return r.db.Save(timesheet.ToDataModel(entry)).Error
}

func (r *WorkEntryRepository) UpdateRejection(entry *timesheet.WorkEntry) error {
	return r.db.Model(&entryDatamodel.WorkEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"status":        timesheet.StatusRejected,
			"rejected_by":   entry.RejectedBy,
			"rejected_at":   entry.RejectedAt,
			"reject_reason": entry.RejectReason,
			"updated_at":    entry.UpdatedAt,
		}).Error
}

func (r *WorkEntryRepository) Delete(id int64) error {
	return r.db.Delete(&entryDatamodel.WorkEntry{}, id).Error
}

func fromDataModels(dms []*entryDatamodel.WorkEntry) []*timesheet.WorkEntry {
	return timesheet.FromDataModelSlice(dms)
}
