package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

type AdminHandler struct {
	service *app.Service
}

func NewAdminHandler(service *app.Service) *AdminHandler {
	return &AdminHandler{
		service: service,
	}
}

// adminActor resolves the actor and requires the admin role
func (h *AdminHandler) adminActor(w http.ResponseWriter, r *http.Request) (*models.Student, bool) {
	actor, err := h.service.Actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	if !actor.IsAdmin() {
		writeError(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return actor, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) HandleListStudents(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	if _, ok := h.adminActor(w, r); !ok {
		return
	}

	students, err := h.service.Store.ListStudents()
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": students,
	})
}

type roleRequest struct {
	Role models.Role `json:"role"`
}

func (h *AdminHandler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, ok := h.adminActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req roleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != models.RoleAdmin && req.Role != models.RoleUser {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := h.service.SetStudentRole(actor, id, req.Role); err != nil {
		writeFailure(w, err)
		return
	}

	logger.Info.Printf("Student %d role set to %s by %s", id, req.Role, actor.StudentID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

func (h *AdminHandler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, ok := h.adminActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != models.StatusActive && req.Status != models.StatusSuspended {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := h.service.SetStudentStatus(actor, id, req.Status); err != nil {
		writeFailure(w, err)
		return
	}

	logger.Info.Printf("Student %d status set to %s by %s", id, req.Status, actor.StudentID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AdminHandler) HandleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, ok := h.adminActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteStudent(actor, id); err != nil {
		writeFailure(w, err)
		return
	}

	logger.Info.Printf("Student %d and their ledger entries deleted by %s", id, actor.StudentID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
