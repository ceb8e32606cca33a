package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"roomreserve/internal/reservations/service"
	"roomreserve/pkg/auth"
	apperrors "roomreserve/pkg/errors"
	httputil "roomreserve/pkg/http"
	"roomreserve/pkg/logger"
	"roomreserve/pkg/model"
	"roomreserve/pkg/scheduling"

	"github.com/julienschmidt/httprouter"
)

const basePath = "/api/v1/reservations"

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(basePath, h.Create)
	router.GET(basePath, h.List)
	router.GET(basePath+"/availability", h.Availability)
	router.GET(basePath+"/id/:id", h.GetByID)
	router.PATCH(basePath+"/id/:id", h.Update)
	router.DELETE(basePath+"/id/:id", h.Cancel)
}

// Create accepts anonymous callers; they book as guests.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	result, err := h.service.CreateFromRequest(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := h.requirePrincipal(w, r, "GetByID")
	if !ok {
		return
	}

	reservation, err := h.service.GetByID(r.Context(), principal, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	startTime, err := httputil.ExtractTime(r, "start_time")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	endTime, err := httputil.ExtractTime(r, "end_time")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	filter := model.ReservationFilter{
		RoomID:    query.Get("room_id"),
		UserID:    query.Get("user_id"),
		Status:    query.Get("status"),
		StartTime: startTime,
		EndTime:   endTime,
	}

	reservations, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := h.requirePrincipal(w, r, "Update")
	if !ok {
		return
	}

	var updates model.ReservationUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	reservation, err := h.service.Update(r.Context(), principal, ps.ByName("id"), &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

// Cancel soft-cancels by default; ?hard=true deletes the document.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := h.requirePrincipal(w, r, "Cancel")
	if !ok {
		return
	}

	hard := false
	if s := r.URL.Query().Get("hard"); s != "" {
		var err error
		hard, err = strconv.ParseBool(s)
		if err != nil {
			h.writeError(w, "Cancel", apperrors.InvalidInput("invalid hard parameter: "+s))
			return
		}
	}

	if err := h.service.Cancel(r.Context(), principal, ps.ByName("id"), hard); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		h.writeError(w, "Availability", apperrors.InvalidInput("room_id is required"))
		return
	}
	startTime, err := httputil.ExtractTime(r, "start_time")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	endTime, err := httputil.ExtractTime(r, "end_time")
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	if startTime == nil || endTime == nil {
		h.writeError(w, "Availability", apperrors.InvalidInput("start_time and end_time are required"))
		return
	}

	availability, err := h.service.Availability(r.Context(), roomID, scheduling.NewWindow(*startTime, *endTime))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) requirePrincipal(w http.ResponseWriter, r *http.Request, handler string) (auth.Principal, bool) {
	principal := auth.FromContext(r.Context())
	if principal.IsAnonymous() {
		h.writeError(w, handler, apperrors.Unauthorized("Authentication required"))
		return principal, false
	}
	return principal, true
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
