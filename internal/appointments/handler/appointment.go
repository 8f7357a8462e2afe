package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/appointments/service"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type AppointmentHandler struct {
	service service.AppointmentService
	log     *logger.Logger
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

type SlotsResponse struct {
	EmployeeID string   `json:"employee_id"`
	ServiceID  string   `json:"service_id"`
	Date       string   `json:"date"`
	Slots      []string `json:"slots"`
}

func (h *AppointmentHandler) GetSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	employeeID := strings.TrimSpace(query.Get("employee_id"))
	serviceID := strings.TrimSpace(query.Get("service_id"))
	date := strings.TrimSpace(query.Get("date"))

	if employeeID == "" || serviceID == "" || date == "" {
		h.writeBadRequest(w, "GetSlots", "'employee_id', 'service_id' and 'date' query parameters are required")
		return
	}

	slots, err := h.service.GetAvailableSlots(r.Context(), employeeID, serviceID, date)
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, SlotsResponse{
		EmployeeID: employeeID,
		ServiceID:  serviceID,
		Date:       date,
		Slots:      slots,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlots", "error", err)
	}
}

type ConflictsResponse struct {
	EmployeeID string               `json:"employee_id"`
	Date       string               `json:"date"`
	Count      int                  `json:"count"`
	Conflicts  []*model.Appointment `json:"conflicts"`
}

func (h *AppointmentHandler) CheckConflicts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	employeeID := strings.TrimSpace(query.Get("employee_id"))
	date := strings.TrimSpace(query.Get("date"))

	if employeeID == "" || date == "" {
		h.writeBadRequest(w, "CheckConflicts", "'employee_id' and 'date' query parameters are required")
		return
	}

	conflicts, err := h.service.CheckConflicts(r.Context(), employeeID, date,
		strings.TrimSpace(query.Get("start")),
		strings.TrimSpace(query.Get("end")),
	)
	if err != nil {
		h.writeError(w, "CheckConflicts", err)
		return
	}

	if conflicts == nil {
		conflicts = []*model.Appointment{}
	}
	if err := httputil.WriteSuccess(w, ConflictsResponse{
		EmployeeID: employeeID,
		Date:       date,
		Count:      len(conflicts),
		Conflicts:  conflicts,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckConflicts", "error", err)
	}
}

func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var req model.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "Create", "Invalid request body")
		return
	}

	appt, err := h.service.Create(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, appt); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *AppointmentHandler) CreateManual(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "CreateManual", err)
		return
	}

	var req model.ManualAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "CreateManual", "Invalid request body")
		return
	}

	appt, err := h.service.CreateManual(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, "CreateManual", err)
		return
	}

	if err := httputil.WriteCreated(w, appt); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateManual", "error", err)
	}
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "Reschedule", "ID parameter is required")
		return
	}

	var req model.RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "Reschedule", "Invalid request body")
		return
	}

	appt, err := h.service.Reschedule(r.Context(), actor, id, &req)
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "Reschedule", "error", err)
	}
}

func (h *AppointmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "UpdateStatus", "ID parameter is required")
		return
	}

	var req model.StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeBadRequest(w, "UpdateStatus", "Invalid request body")
		return
	}

	if err := h.service.UpdateStatus(r.Context(), actor, id, req.Status); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	id := ps.ByName("id")
	if id == "" {
		h.writeBadRequest(w, "Cancel", "ID parameter is required")
		return
	}

	if err := h.service.Cancel(r.Context(), actor, id); err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	appt, err := h.service.GetByID(r.Context(), actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

// GetByToken and CancelByToken serve guests holding a manage token. No
// actor headers here: the token itself is the credential.
func (h *AppointmentHandler) GetByToken(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appt, err := h.service.GetByToken(r.Context(), ps.ByName("token"))
	if err != nil {
		h.writeError(w, "GetByToken", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByToken", "error", err)
	}
}

func (h *AppointmentHandler) CancelByToken(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.CancelByToken(r.Context(), ps.ByName("token")); err != nil {
		h.writeError(w, "CancelByToken", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	appointments, total, err := h.service.List(r.Context(), actor, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "error", err)
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *AppointmentHandler) writeBadRequest(w http.ResponseWriter, handlerName string, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "error", err)
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/appointments/slots", h.GetSlots)
	router.GET("/api/v1/appointments/conflicts", h.CheckConflicts)
	router.POST("/api/v1/appointments", h.Create)
	router.POST("/api/v1/appointments/manual", h.CreateManual)
	router.GET("/api/v1/appointments", h.List)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.PUT("/api/v1/appointments/id/:id/reschedule", h.Reschedule)
	router.PUT("/api/v1/appointments/id/:id/status", h.UpdateStatus)
	router.DELETE("/api/v1/appointments/id/:id", h.Cancel)
	router.GET("/api/v1/appointments/manage/:token", h.GetByToken)
	router.DELETE("/api/v1/appointments/manage/:token", h.CancelByToken)
}
