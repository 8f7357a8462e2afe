package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"slotbook/internal/catalog/service"
	httputil "slotbook/pkg/http"
	"slotbook/pkg/logger"
	"slotbook/pkg/model"
)

type CatalogHandler struct {
	service service.CatalogService
	log     *logger.Logger
}

func NewCatalogHandler(service service.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log,
	}
}

func (h *CatalogHandler) CreateEmployee(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "CreateEmployee", err)
		return
	}

	var e model.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		h.writeBadRequest(w, "CreateEmployee", "Invalid request body")
		return
	}

	if err := h.service.CreateEmployee(r.Context(), actor, &e); err != nil {
		h.writeError(w, "CreateEmployee", err)
		return
	}

	if err := httputil.WriteCreated(w, e); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateEmployee", "error", err)
	}
}

func (h *CatalogHandler) GetEmployee(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	e, err := h.service.GetEmployee(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetEmployee", err)
		return
	}

	if err := httputil.WriteSuccess(w, e); err != nil {
		h.log.Error("failed to write success response", "handler", "GetEmployee", "error", err)
	}
}

func (h *CatalogHandler) ListEmployees(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListEmployees", err)
		return
	}

	employees, total, err := h.service.ListEmployees(r.Context(), limit, int(offset))
	if err != nil {
		h.writeError(w, "ListEmployees", err)
		return
	}

	if err := httputil.WritePaginated(w, employees, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListEmployees", "error", err)
	}
}

func (h *CatalogHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "UpdateEmployee", err)
		return
	}

	var e model.Employee
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		h.writeBadRequest(w, "UpdateEmployee", "Invalid request body")
		return
	}

	if err := h.service.UpdateEmployee(r.Context(), actor, ps.ByName("id"), &e); err != nil {
		h.writeError(w, "UpdateEmployee", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CatalogHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "DeleteEmployee", err)
		return
	}

	if err := h.service.DeleteEmployee(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteEmployee", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CatalogHandler) CreateService(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "CreateService", err)
		return
	}

	var svc model.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		h.writeBadRequest(w, "CreateService", "Invalid request body")
		return
	}

	if err := h.service.CreateService(r.Context(), actor, &svc); err != nil {
		h.writeError(w, "CreateService", err)
		return
	}

	if err := httputil.WriteCreated(w, svc); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateService", "error", err)
	}
}

func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	svc, err := h.service.GetService(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetService", err)
		return
	}

	if err := httputil.WriteSuccess(w, svc); err != nil {
		h.log.Error("failed to write success response", "handler", "GetService", "error", err)
	}
}

func (h *CatalogHandler) ListServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListServices", err)
		return
	}

	services, total, err := h.service.ListServices(r.Context(), limit, int(offset))
	if err != nil {
		h.writeError(w, "ListServices", err)
		return
	}

	if err := httputil.WritePaginated(w, services, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListServices", "error", err)
	}
}

func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "UpdateService", err)
		return
	}

	var svc model.Service
	if err := json.NewDecoder(r.Body).Decode(&svc); err != nil {
		h.writeBadRequest(w, "UpdateService", "Invalid request body")
		return
	}

	if err := h.service.UpdateService(r.Context(), actor, ps.ByName("id"), &svc); err != nil {
		h.writeError(w, "UpdateService", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, err := httputil.ExtractActor(r)
	if err != nil {
		h.writeError(w, "DeleteService", err)
		return
	}

	if err := h.service.DeleteService(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "DeleteService", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *CatalogHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *CatalogHandler) writeBadRequest(w http.ResponseWriter, handlerName string, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "error", err)
	}
}

func (h *CatalogHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/employees", h.CreateEmployee)
	router.GET("/api/v1/employees", h.ListEmployees)
	router.GET("/api/v1/employees/id/:id", h.GetEmployee)
	router.PUT("/api/v1/employees/id/:id", h.UpdateEmployee)
	router.DELETE("/api/v1/employees/id/:id", h.DeleteEmployee)

	router.POST("/api/v1/services", h.CreateService)
	router.GET("/api/v1/services", h.ListServices)
	router.GET("/api/v1/services/id/:id", h.GetService)
	router.PUT("/api/v1/services/id/:id", h.UpdateService)
	router.DELETE("/api/v1/services/id/:id", h.DeleteService)
}
