package rest

import (
	"encoding/json"
	"net/http"

	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/user"
)

// MetaHandler serves the vocabularies and limits the entry form needs
// to render, straight from the live settings snapshot.
type MetaHandler struct {
	settings settings.Provider
}

func NewMetaHandler(settingsProvider settings.Provider) *MetaHandler {
	return &MetaHandler{settings: settingsProvider}
}

func (h *MetaHandler) Vocabularies(w http.ResponseWriter, r *http.Request) {
	ts := h.settings.Timesheet()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"verticals":         ts.Verticals,
		"countries":         ts.Countries,
		"activities":        ts.Activities,
		"roles":             user.RoleNames(),
		"max_hours_per_day": ts.MaxHoursPerDay,
		"edit_window_days":  ts.EditWindowDays,
	})
}
