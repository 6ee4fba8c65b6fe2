package notification

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/timewise-hq/timewise/internal/transport"
	"github.com/timewise-hq/timewise/pkg/logger"
)

type ServiceAPI interface {
	RunSweep() (*SweepResult, error)
	ListRecords(limit, offset int) ([]*Record, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 200 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	records, err := h.Service.ListRecords(limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": records,
		"limit":         limit,
		"offset":        offset,
	})
}

// RunSweep triggers a reminder sweep on demand.
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.RunSweep()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
