// Package settings exposes the admin-tunable timesheet rules to validators.
// Rule changes must take effect on the next request without a restart, so
// consumers always read through a Provider instead of holding a Config.
package settings

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/pkg/logger"
)

// Timesheet is an immutable snapshot of the rule configuration.
type Timesheet struct {
	MaxHoursPerDay         decimal.Decimal
	EditWindowDays         int
	AllowFutureDates       bool
	AllowPastDates         bool
	MinHoursForCompleteDay decimal.Decimal
	Verticals              []string
	Countries              []string
	Activities             []string
}

func (t Timesheet) HasVertical(name string) bool { return contains(t.Verticals, name) }
func (t Timesheet) HasCountry(name string) bool  { return contains(t.Countries, name) }
func (t Timesheet) HasActivity(name string) bool { return contains(t.Activities, name) }

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// Provider hands out the current rule snapshot. Each call may return a
// newer snapshot than the last.
type Provider interface {
	Timesheet() Timesheet
}

func fromConfig(cfg internal.TimesheetConfig) Timesheet {
	return Timesheet{
		MaxHoursPerDay:         decimal.NewFromFloat(cfg.MaxHoursPerDay),
		EditWindowDays:         cfg.EditWindowDays,
		AllowFutureDates:       cfg.AllowFutureDates,
		AllowPastDates:         cfg.AllowPastDates,
		MinHoursForCompleteDay: decimal.NewFromFloat(cfg.MinHoursForCompleteDay),
		Verticals:              cfg.Verticals,
		Countries:              cfg.Countries,
		Activities:             cfg.Activities,
	}
}

// Static serves a fixed snapshot. Used for env-only deployments and tests.
type Static struct {
	snapshot Timesheet
}

func NewStatic(cfg internal.TimesheetConfig) *Static {
	return &Static{snapshot: fromConfig(cfg)}
}

func NewStaticFromSnapshot(s Timesheet) *Static {
	return &Static{snapshot: s}
}

func (s *Static) Timesheet() Timesheet {
	return s.snapshot
}

// FileProvider re-reads the timesheet section whenever the config file
// changes on disk.
type FileProvider struct {
	mu       sync.RWMutex
	snapshot Timesheet
}

func NewFileProvider(v *viper.Viper, initial internal.TimesheetConfig) *FileProvider {
	p := &FileProvider{snapshot: fromConfig(initial)}

	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg internal.TimesheetConfig
		if err := v.UnmarshalKey("timesheet", &cfg); err != nil {
			logger.LoggerWrapper().Error("failed to reload timesheet settings",
				"file", e.Name, "error", err)
			return
		}
		if err := cfg.Validate(); err != nil {
			logger.LoggerWrapper().Error("rejected invalid timesheet settings",
				"file", e.Name, "error", err)
			return
		}

		p.mu.Lock()
		p.snapshot = fromConfig(cfg)
		p.mu.Unlock()

		logger.LoggerWrapper().Info("timesheet settings reloaded",
			"edit_window_days", cfg.EditWindowDays,
			"max_hours_per_day", cfg.MaxHoursPerDay)
	})
	v.WatchConfig()

	return p
}

func (p *FileProvider) Timesheet() Timesheet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}
