package report

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/timesheet"
	"github.com/timewise-hq/timewise/internal/transport"
	"github.com/timewise-hq/timewise/pkg/logger"
)

type ServiceAPI interface {
	UserCompliance(actor timesheet.Actor, userID int64, from, to rules.Date, completion string) (*UserComplianceReport, error)
	ComplianceSummary(actor timesheet.Actor, from, to rules.Date, completion string) (*Summary, error)
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

func (h *Handler) MyCompliance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.userCompliance(w, r, user, user.ID)
}

func (h *Handler) UserCompliance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userIDStr := chi.URLParam(r, "userID")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	h.userCompliance(w, r, user, userID)
}

func (h *Handler) ComplianceSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	from, to, err := monthRange(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, svcErr := h.Service.ComplianceSummary(
		timesheet.ActorFromUser(user), from, to, r.URL.Query().Get("completion"))
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) userCompliance(w http.ResponseWriter, r *http.Request, user *auth.User, targetID int64) {
	from, to, err := monthRange(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, svcErr := h.Service.UserCompliance(
		timesheet.ActorFromUser(user), targetID, from, to, r.URL.Query().Get("completion"))
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// monthRange parses from/to query params, defaulting to the current month.
func monthRange(r *http.Request) (rules.Date, rules.Date, error) {
	today := rules.Today()
	from := rules.NewDate(today.Year, today.Month, 1)
	to := from.AddDays(31)
	to = rules.NewDate(to.Year, to.Month, 1).AddDays(-1)

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := rules.ParseDate(fromStr)
		if err != nil {
			return rules.Date{}, rules.Date{}, err
		}
		from = parsed
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := rules.ParseDate(toStr)
		if err != nil {
			return rules.Date{}, rules.Date{}, err
		}
		to = parsed
	}
	return from, to, nil
}
