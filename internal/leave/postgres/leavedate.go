package postgres

import (
	"errors"

	"gorm.io/gorm"

	leaveDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/leavedate"
	"github.com/timewise-hq/timewise/internal/leave"
	"github.com/timewise-hq/timewise/internal/rules"
)

var ErrLeaveDateNotFound = errors.New("leave date not found")

// LeaveDateRepository implements leave.Repository using GORM.
type LeaveDateRepository struct {
	db *gorm.DB
}

func NewLeaveDateRepository(db *gorm.DB) leave.Repository {
	return &LeaveDateRepository{db: db}
}

func (r *LeaveDateRepository) Create(l *leave.LeaveDate) error {
	dm := leave.ToDataModel(l)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	l.ID = dm.ID
	l.CreatedAt = dm.CreatedAt
	return nil
}

func (r *LeaveDateRepository) GetByID(id int64) (*leave.LeaveDate, error) {
	var dm leaveDatamodel.LeaveDate
	err := r.db.Where("id = ?", id).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveDateNotFound
		}
		return nil, err
	}
	return leave.FromDataModel(&dm), nil
}

// GetByDate returns (nil, nil) when the date has no leave entry.
func (r *LeaveDateRepository) GetByDate(d rules.Date) (*leave.LeaveDate, error) {
	var dm leaveDatamodel.LeaveDate
	err := r.db.Where("leave_date = ?", d.Time()).First(&dm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return leave.FromDataModel(&dm), nil
}

func (r *LeaveDateRepository) ListRange(from, to rules.Date) ([]*leave.LeaveDate, error) {
	var dms []*leaveDatamodel.LeaveDate
	err := r.db.Where("leave_date BETWEEN ? AND ?", from.Time(), to.Time()).
		Order("leave_date ASC").
		Find(&dms).Error
	if err != nil {
		return nil, err
	}
	return leave.FromDataModelSlice(dms), nil
}

func (r *LeaveDateRepository) Delete(id int64) error {
	return r.db.Delete(&leaveDatamodel.LeaveDate{}, id).Error
}
