package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/models"
)

type StudentsHandler struct {
	service *app.Service
}

func NewStudentsHandler(service *app.Service) *StudentsHandler {
	return &StudentsHandler{
		service: service,
	}
}

type registerRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Section   string `json:"section"`
	Email     string `json:"email"`
}

func (h *StudentsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusForbidden, "these are not the droids you are looking for")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	student := &models.Student{
		StudentID: strings.TrimSpace(req.StudentID),
		Name:      strings.TrimSpace(req.Name),
		Section:   strings.TrimSpace(req.Section),
		Email:     strings.TrimSpace(req.Email),
	}

	if err := h.service.Register(student); err != nil {
		logger.Error.Printf("Registration failed for %s: %v", student.Email, err)
		writeError(w, http.StatusBadRequest, "registration failed")
		return
	}

	writeJSON(w, http.StatusCreated, student)
}

func (h *StudentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	if _, err := h.service.Actor(r); err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
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

func (h *StudentsHandler) HandleSections(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	sections, err := h.service.Store.ListSections()
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": sections,
	})
}
