package leave

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/transport"
	"github.com/timewise-hq/timewise/pkg/logger"
)

type ServiceAPI interface {
	CreateLeaveDate(createdBy int64, dto CreateLeaveDateDTO) (*LeaveDate, error)
	DeleteLeaveDate(id int64) error
	ListLeaveDates(from, to rules.Date) ([]*LeaveDate, error)
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

// ListLeaveDates is readable by any authenticated user; the calendar drives
// the entry form.
func (h *Handler) ListLeaveDates(w http.ResponseWriter, r *http.Request) {
	today := rules.Today()
	from := rules.NewDate(today.Year, 1, 1)
	to := rules.NewDate(today.Year, 12, 31)

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := rules.ParseDate(fromStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		from = parsed
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := rules.ParseDate(toStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		to = parsed
	}

	dates, err := h.Service.ListLeaveDates(from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"leave_dates": dates})
}

func (h *Handler) CreateLeaveDate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateLeaveDateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateLeaveDate: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	leaveDate, err := h.Service.CreateLeaveDate(user.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, leaveDate)
}

func (h *Handler) DeleteLeaveDate(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leave date ID")
		return
	}

	if err := h.Service.DeleteLeaveDate(id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
