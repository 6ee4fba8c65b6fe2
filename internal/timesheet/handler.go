package timesheet

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
	"github.com/timewise-hq/timewise/internal/transport"
	"github.com/timewise-hq/timewise/pkg/logger"
)

type ServiceAPI interface {
	CreateEntry(actor Actor, dto CreateEntryDTO) (*WorkEntry, error)
	UpdateEntry(actor Actor, entryID int64, dto UpdateEntryDTO) (*WorkEntry, error)
	DeleteEntry(actor Actor, entryID int64) (*DeleteResult, error)
	RejectEntry(actor Actor, entryID int64, reason string) (*WorkEntry, error)
	GetEntry(actor Actor, entryID int64) (*WorkEntry, error)
	ListUserEntries(actor Actor, userID int64, from, to rules.Date, limit, offset int) ([]*WorkEntry, error)
	ListAllEntries(actor Actor, from, to rules.Date, limit, offset int) ([]*WorkEntry, error)
	DailySummary(actor Actor, userID int64, from, to rules.Date) (map[string]decimal.Decimal, error)
	Snapshot() settings.Timesheet
	Today() rules.Date
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

// ActorFromUser maps the authenticated user onto the timesheet actor.
func ActorFromUser(user *auth.User) Actor {
	return Actor{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        auth.RoleFromPermissions(user.Permissions),
		Permissions: user.Permissions,
	}
}

func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateEntry: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.Service.CreateEntry(ActorFromUser(user), dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, NewEntryResponse(entry, ActorFromUser(user), h.Service.Today(), h.Service.Snapshot()))
}

func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entryID, err := h.entryID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	entry, svcErr := h.Service.GetEntry(ActorFromUser(user), entryID)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewEntryResponse(entry, ActorFromUser(user), h.Service.Today(), h.Service.Snapshot()))
}

func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entryID, err := h.entryID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	var dto UpdateEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateEntry: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, svcErr := h.Service.UpdateEntry(ActorFromUser(user), entryID, dto)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, NewEntryResponse(entry, ActorFromUser(user), h.Service.Today(), h.Service.Snapshot()))
}

func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entryID, err := h.entryID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	result, svcErr := h.Service.DeleteEntry(ActorFromUser(user), entryID)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) RejectEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entryID, err := h.entryID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid entry ID")
		return
	}

	var dto RejectEntryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if valErr := dto.Validate(); valErr != nil {
		h.HandleServiceError(w, valErr)
		return
	}

	entry, svcErr := h.Service.RejectEntry(ActorFromUser(user), entryID, dto.Reason)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) ListMyEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	h.listForUser(w, r, user, user.ID)
}

func (h *Handler) ListUserEntries(w http.ResponseWriter, r *http.Request) {
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

	h.listForUser(w, r, user, userID)
}

func (h *Handler) ListAllEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	from, to, err := h.dateRange(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset := h.pagination(r)

	entries, svcErr := h.Service.ListAllEntries(ActorFromUser(user), from, to, limit, offset)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": NewEntryResponses(entries, ActorFromUser(user), h.Service.Today(), h.Service.Snapshot()),
		"limit":   limit,
		"offset":  offset,
	})
}

// DailySummary serves per-day approved hour totals. Defaults to the caller;
// a user_id query param lets reviewers and auditors inspect someone else.
func (h *Handler) DailySummary(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	targetID := user.ID
	if idStr := r.URL.Query().Get("user_id"); idStr != "" {
		parsed, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid user ID")
			return
		}
		targetID = parsed
	}

	from, to, err := h.dateRange(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	totals, svcErr := h.Service.DailySummary(ActorFromUser(user), targetID, from, to)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": targetID,
		"from":    from,
		"to":      to,
		"totals":  totals,
	})
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request, user *auth.User, targetID int64) {
	from, to, err := h.dateRange(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, offset := h.pagination(r)

	entries, svcErr := h.Service.ListUserEntries(ActorFromUser(user), targetID, from, to, limit, offset)
	if svcErr != nil {
		h.HandleServiceError(w, svcErr)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": NewEntryResponses(entries, ActorFromUser(user), h.Service.Today(), h.Service.Snapshot()),
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) entryID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// dateRange parses optional from/to query params, defaulting to the last 31
// days ending today.
func (h *Handler) dateRange(r *http.Request) (rules.Date, rules.Date, error) {
	today := h.Service.Today()
	from := today.AddDays(-31)
	to := today

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

func (h *Handler) pagination(r *http.Request) (int, int) {
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
	return limit, offset
}
