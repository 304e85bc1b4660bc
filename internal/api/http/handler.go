package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"campus-backend/internal/domain"
	"campus-backend/internal/logger"
	"campus-backend/internal/service"
)

// Handler exposes the leave workflow, attendance and roll number services
// over JSON.
type Handler struct {
	workflow   service.WorkflowService
	attendance service.AttendanceService
	users      service.UserService
}

func NewHandler(workflow service.WorkflowService, attendance service.AttendanceService, users service.UserService) *Handler {
	return &Handler{workflow: workflow, attendance: attendance, users: users}
}

// RegisterRoutes registers every API endpoint on router.
func RegisterRoutes(router *mux.Router, h *Handler) {
	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/leaves", h.CreateLeave).Methods(http.MethodPost)
	api.HandleFunc("/leaves/{id}", h.GetLeave).Methods(http.MethodGet)
	api.HandleFunc("/leaves/{id}/decision", h.Decide).Methods(http.MethodPost)
	api.HandleFunc("/approvers/{id}/inbox", h.ApproverInbox).Methods(http.MethodGet)
	api.HandleFunc("/attendance", h.MarkAttendance).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/roll-number", h.ChangeRollNumber).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/department", h.DetectDepartment).Methods(http.MethodGet)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details string              `json:"details,omitempty"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLeaveInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.workflow.CreateLeave(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	req, err := h.workflow.GetLeave(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var in service.DecideInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in.RequestID = mux.Vars(r)["id"]

	result, err := h.workflow.Decide(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if result.Replication != nil && result.Replication.Failed() > 0 {
		logger.InfoContext(r.Context(), "Decision recorded with lagging copies", "leaveID", in.RequestID, "failedTargets", result.Replication.Failures())
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ApproverInbox(w http.ResponseWriter, r *http.Request) {
	items, err := h.workflow.ApproverInbox(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.InboxItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var in service.MarkAttendanceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, report, err := h.attendance.Mark(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "replication": report})
}

func (h *Handler) ChangeRollNumber(w http.ResponseWriter, r *http.Request) {
	var in service.ChangeRollNumberInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	in.UserID = mux.Vars(r)["id"]

	summary, err := h.users.ChangeRollNumber(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) DetectDepartment(w http.ResponseWriter, r *http.Request) {
	role := domain.ParseRole(r.URL.Query().Get("role"))
	if role == "" {
		role = domain.RoleStudent
	}
	userID := mux.Vars(r)["id"]
	code := h.users.DetectDepartment(r.Context(), userID, role)
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID, "department": code})
}

// statusFor maps the service error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrNotPending):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStore):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	switch {
	case status >= http.StatusInternalServerError:
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	case status == http.StatusForbidden, status == http.StatusConflict:
		logger.WarnContext(r.Context(), "Request refused", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	resp := ErrorResponse{Error: http.StatusText(status), Details: err.Error()}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Fields = ve.Errors
	}
	writeJSON(w, status, resp)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
