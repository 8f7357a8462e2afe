package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/roster/service"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type RosterHandler struct {
	service service.RosterService
	log     *logger.Logger
}

func NewRosterHandler(service service.RosterService, log *logger.Logger) *RosterHandler {
	return &RosterHandler{
		service: service,
		log:     log,
	}
}

func (h *RosterHandler) AddWeeklySlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "AddWeeklySlot", err)
		return
	}

	var slot model.WeeklyAvailabilitySlot
	if err := json.NewDecoder(r.Body).Decode(&slot); err != nil {
		h.writeBadRequest(w, "AddWeeklySlot", "Invalid request body")
		return
	}

	if err := h.service.AddWeeklySlot(r.Context(), actor, &slot); err != nil {
		h.writeError(w, "AddWeeklySlot", err)
		return
	}

	if err := httputil.WriteCreated(w, slot); err != nil {
		h.log.Error("failed to write created response", "handler", "AddWeeklySlot", "error", err)
	}
}

func (h *RosterHandler) GetWeeklySchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	employeeID := ps.ByName("employeeId")
	if employeeID == "" {
		h.writeBadRequest(w, "GetWeeklySchedule", "Employee ID parameter is required")
		return
	}

	slots, err := h.service.GetWeeklySchedule(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, "GetWeeklySchedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "GetWeeklySchedule", "error", err)
	}
}

func (h *RosterHandler) UpdateWeeklySlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "UpdateWeeklySlot", err)
		return
	}

	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "UpdateWeeklySlot", "ID parameter is required")
		return
	}

	var updates model.WeeklySlotUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeBadRequest(w, "UpdateWeeklySlot", "Invalid request body")
		return
	}

	if err := h.service.UpdateWeeklySlot(r.Context(), actor, id, &updates); err != nil {
		h.writeError(w, "UpdateWeeklySlot", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RosterHandler) RemoveWeeklySlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "RemoveWeeklySlot", err)
		return
	}

	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "RemoveWeeklySlot", "ID parameter is required")
		return
	}

	if err := h.service.RemoveWeeklySlot(r.Context(), actor, id); err != nil {
		h.writeError(w, "RemoveWeeklySlot", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RosterHandler) SetException(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "SetException", err)
		return
	}

	var exc model.AvailabilityException
	if err := json.NewDecoder(r.Body).Decode(&exc); err != nil {
		h.writeBadRequest(w, "SetException", "Invalid request body")
		return
	}

	if err := h.service.SetException(r.Context(), actor, &exc); err != nil {
		h.writeError(w, "SetException", err)
		return
	}

	if err := httputil.WriteCreated(w, exc); err != nil {
		h.log.Error("failed to write created response", "handler", "SetException", "error", err)
	}
}

func (h *RosterHandler) GetExceptions(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	employeeID := ps.ByName("employeeId")
	if employeeID == "" {
		h.writeBadRequest(w, "GetExceptions", "Employee ID parameter is required")
		return
	}

	excs, err := h.service.GetExceptions(r.Context(), employeeID)
	if err != nil {
		h.writeError(w, "GetExceptions", err)
		return
	}

	if err := httputil.WriteSuccess(w, excs); err != nil {
		h.log.Error("failed to write success response", "handler", "GetExceptions", "error", err)
	}
}

func (h *RosterHandler) RemoveException(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "RemoveException", err)
		return
	}

	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "RemoveException", "ID parameter is required")
		return
	}

	if err := h.service.RemoveException(r.Context(), actor, id); err != nil {
		h.writeError(w, "RemoveException", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RosterHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *RosterHandler) writeBadRequest(w http.ResponseWriter, handlerName string, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "error", err)
	}
}

func (h *RosterHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/roster/weekly", h.AddWeeklySlot)
	router.GET("/api/v1/roster/weekly/employee/:employeeId", h.GetWeeklySchedule)
	router.PATCH("/api/v1/roster/weekly/id/:id", h.UpdateWeeklySlot)
	router.DELETE("/api/v1/roster/weekly/id/:id", h.RemoveWeeklySlot)
	router.POST("/api/v1/roster/exceptions", h.SetException)
	router.GET("/api/v1/roster/exceptions/employee/:employeeId", h.GetExceptions)
	router.DELETE("/api/v1/roster/exceptions/id/:id", h.RemoveException)
}
