package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"studyhall-backend/internal/signal"
	"studyhall-backend/internal/timer"
)

// RoomHandler keeps one countdown timer per room and fans milestone
// cues out to the room over the signaling hub.
type RoomHandler struct {
	mu        sync.Mutex
	timers    map[string]*timer.Timer
	hub       *signal.Hub
	tickEvery time.Duration
}

// NewRoomHandler builds the registry. tickEvery 0 creates manually
// driven timers, used by the tests.
func NewRoomHandler(hub *signal.Hub, tickEvery time.Duration) *RoomHandler {
	return &RoomHandler{
		timers:    make(map[string]*timer.Timer),
		hub:       hub,
		tickEvery: tickEvery,
	}
}

func (h *RoomHandler) timerFor(roomID string) *timer.Timer {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.timers[roomID]
	if !ok {
		t = timer.New(h.notifyFunc(roomID), h.tickEvery)
		h.timers[roomID] = t
	}
	return t
}

func (h *RoomHandler) notifyFunc(roomID string) timer.NotifyFunc {
	return func(m timer.Milestone, remaining int) {
		payload, _ := json.Marshal(map[string]interface{}{
			"event":             string(m),
			"remaining_seconds": remaining,
			"display":           timer.FormatTime(remaining),
		})
		h.hub.BroadcastToRoom(roomID, signal.Message{
			Type:    "timer",
			Room:    roomID,
			Payload: payload,
		})
	}
}

func (h *RoomHandler) StartTimer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Duration string `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	minutes, err := timer.ParseDuration(req.Duration)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"duration": err.Error()}, r))
		return
	}

	t := h.timerFor(chi.URLParam(r, "id"))
	t.Start(minutes)
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *RoomHandler) PauseTimer(w http.ResponseWriter, r *http.Request) {
	t := h.timerFor(chi.URLParam(r, "id"))
	t.Pause()
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *RoomHandler) ResumeTimer(w http.ResponseWriter, r *http.Request) {
	t := h.timerFor(chi.URLParam(r, "id"))
	t.Resume()
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *RoomHandler) StopTimer(w http.ResponseWriter, r *http.Request) {
	t := h.timerFor(chi.URLParam(r, "id"))
	t.Stop()
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (h *RoomHandler) TimerState(w http.ResponseWriter, r *http.Request) {
	t := h.timerFor(chi.URLParam(r, "id"))
	snap := t.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":             snap.State,
		"duration_seconds":  snap.Duration,
		"remaining_seconds": snap.Remaining,
		"progress":          snap.Progress,
		"display":           timer.FormatTime(snap.Remaining),
	})
}

func (h *RoomHandler) SuggestedDurations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"durations": timer.SuggestedDurations(),
	})
}

// StopAll halts every live timer; used during shutdown.
func (h *RoomHandler) StopAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range h.timers {
		t.Stop()
	}
}
