package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/kardemumma/internal/app"
	"github.com/shrimpsizemoose/kardemumma/internal/metrics"
	"github.com/shrimpsizemoose/kardemumma/internal/policy"
	"github.com/shrimpsizemoose/kardemumma/internal/store"
)

type PointsHandler struct {
	service *app.Service
}

func NewPointsHandler(service *app.Service) *PointsHandler {
	return &PointsHandler{
		service: service,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Debug.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeFailure maps domain errors onto statuses. Forbidden and NotFound
// stay generic so nothing leaks about which entries exist.
func writeFailure(w http.ResponseWriter, err error) {
	var rangeErr *policy.PointsOutOfRangeError
	var reasonErr *policy.ReasonTooShortError
	var limitErr *policy.DailyLimitError

	switch {
	case errors.As(err, &rangeErr), errors.As(err, &reasonErr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &limitErr):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		logger.Error.Printf("Request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type submitRequest struct {
	Points    int    `json:"points"`
	Reason    string `json:"reason"`
	Section   string `json:"section"`
	StudentID string `json:"student_id"`
}

func (h *PointsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		duration := time.Since(start).Seconds()
		metrics.APIRequestDuration.WithLabelValues(
			r.URL.Path,
			r.Method,
			strconv.Itoa(status),
		).Observe(duration)
	}()

	if !h.service.ValidateHeaders(r.Header) {
		status = http.StatusForbidden
		writeError(w, status, "these are not the droids you are looking for")
		return
	}

	actor, err := h.service.Actor(r)
	if err != nil {
		logger.Error.Printf("Auth failed: %v", err)
		status = http.StatusUnauthorized
		writeError(w, status, "unauthorized")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = http.StatusBadRequest
		writeError(w, status, "invalid request body")
		return
	}

	entry, err := h.service.SubmitAward(actor, req.StudentID, req.Points, req.Reason, req.Section)
	if err != nil {
		status = rejectionStatus(err)
		metrics.AwardRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		writeFailure(w, err)
		return
	}

	metrics.AwardsTotal.WithLabelValues(entry.Section, string(actor.Role)).Inc()
	metrics.PointsAwarded.WithLabelValues(entry.Section).Observe(float64(entry.Points))

	targetStudentID := req.StudentID
	if targetStudentID == "" {
		targetStudentID = actor.StudentID
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entry_id":   entry.ID,
		"student_id": targetStudentID,
		"points":     entry.Points,
		"section":    entry.Section,
		"created_at": entry.CreatedAt,
	})
}

func rejectionStatus(err error) int {
	var limitErr *policy.DailyLimitError
	switch {
	case errors.As(err, &limitErr):
		return http.StatusTooManyRequests
	case errors.Is(err, app.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func rejectionReason(err error) string {
	var rangeErr *policy.PointsOutOfRangeError
	var reasonErr *policy.ReasonTooShortError
	var limitErr *policy.DailyLimitError

	switch {
	case errors.As(err, &rangeErr):
		return "out_of_range"
	case errors.As(err, &reasonErr):
		return "reason_too_short"
	case errors.As(err, &limitErr):
		return "daily_limit"
	case errors.Is(err, app.ErrForbidden):
		return "forbidden"
	default:
		return "other"
	}
}

func (h *PointsHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, err := h.service.Actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	total, err := h.service.UsedToday(actor.ID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"total": total})
}

func (h *PointsHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, err := h.service.Actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	targetID := actor.ID
	if q := r.URL.Query().Get("student"); q != "" {
		target, err := h.service.Store.GetStudentByStudentID(q)
		if err != nil {
			writeFailure(w, err)
			return
		}
		targetID = target.ID
	}

	entries, err := h.service.History(actor, targetID)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": entries,
	})
}

type editRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

func (h *PointsHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, err := h.service.Actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.service.EditEntry(actor, entryID, req.Points, req.Reason)
	if err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *PointsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, err := h.service.Actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entryID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	if err := h.service.RemoveEntry(actor, entryID); err != nil {
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *PointsHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, err := h.service.Actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	section := r.URL.Query().Get("section")
	board, err := h.service.Leaderboard(section, actor.ID)
	if err != nil {
		logger.Error.Printf("Failed to compute leaderboard: %v", err)
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rows": board,
	})
}

func (h *PointsHandler) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	if !h.service.ValidateHeaders(r.Header) {
		writeError(w, http.StatusNotFound, "these are not the droids you are looking for")
		return
	}

	actor, err := h.service.Actor(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.service.GetStatistics(actor.ID)
	if err != nil {
		logger.Error.Printf("Failed to fetch statistics for %s: %v", actor.StudentID, err)
		writeFailure(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
