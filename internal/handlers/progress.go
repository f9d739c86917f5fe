package handlers

import (
	"encoding/json"
	"net/http"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/models"
	"studyhall-backend/internal/services"
)

type ProgressHandler struct {
	progress *services.ProgressService
}

func NewProgressHandler(progress *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

func (h *ProgressHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.progress.Stats(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ProgressHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.progress.History(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": records})
}

func (h *ProgressHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	achievements, err := h.progress.Achievements(r.Context(), middleware.GetUserEmail(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"achievements": achievements})
}

func (h *ProgressHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	var req models.CompleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Minutes <= 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"minutes": "must be greater than zero"}, r))
		return
	}

	stats, err := h.progress.RecordCompletion(r.Context(), middleware.GetUserEmail(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ProgressHandler) SetWeeklyGoal(w http.ResponseWriter, r *http.Request) {
	var req models.WeeklyGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	stats, err := h.progress.SetWeeklyGoal(r.Context(), middleware.GetUserEmail(r.Context()), req.Hours)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
