package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"

	"studyhall-backend/internal/middleware"
	"studyhall-backend/internal/rtc"
	"studyhall-backend/internal/services"
	"studyhall-backend/internal/signal"
)

// RTCHandler drives the manual connection-string path: one peer
// connection manager per authenticated user, created on room entry and
// torn down on leave. The websocket relay is the fast path; these
// endpoints cover clients exchanging connection strings out of band.
type RTCHandler struct {
	mu            sync.Mutex
	managers      map[string]*rtc.Manager
	hub           *signal.Hub
	iceServers    []string
	gatherTimeout time.Duration
}

func NewRTCHandler(hub *signal.Hub, iceServers []string, gatherTimeout time.Duration) *RTCHandler {
	return &RTCHandler{
		managers:      make(map[string]*rtc.Manager),
		hub:           hub,
		iceServers:    iceServers,
		gatherTimeout: gatherTimeout,
	}
}

func (h *RTCHandler) managerFor(email string) (*rtc.Manager, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.managers[email]
	return m, ok
}

// JoinRoom allocates the caller's manager, binds it to the room, and
// optionally acquires local media. Media failures are reported but do
// not block entry; the caller may retry with narrower constraints.
func (h *RTCHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID string               `json:"room_id"`
		Media  *rtc.MediaConstraints `json:"media"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.RoomID == "" {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed",
			map[string]string{"room_id": "room_id is required"}, r))
		return
	}

	email := middleware.GetUserEmail(r.Context())
	name := middleware.GetUserName(r.Context())

	h.mu.Lock()
	m, ok := h.managers[email]
	if !ok {
		m = rtc.NewManager(h.iceServers, h.gatherTimeout)
		h.managers[email] = m
	}
	h.mu.Unlock()
	m.JoinRoom(req.RoomID, email, name)

	resp := map[string]interface{}{"room_id": req.RoomID, "media": false}
	if req.Media != nil {
		if err := m.AcquireLocalMedia(*req.Media); err != nil {
			resp["media_error"] = err.Error()
		} else {
			resp["media"] = true
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RTCHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())

	h.mu.Lock()
	m, ok := h.managers[email]
	delete(h.managers, email)
	h.mu.Unlock()

	if ok {
		m.Teardown()
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Left room"})
}

func (h *RTCHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PeerID string `json:"peer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PeerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "peer_id is required", r))
		return
	}

	m, ok := h.managerFor(middleware.GetUserEmail(r.Context()))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "Join a room before creating offers"})
		return
	}

	blob, err := m.MakeOffer(r.Context(), req.PeerID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"connection_string": blob})
}

func (h *RTCHandler) AcceptOffer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PeerID           string `json:"peer_id"`
		ConnectionString string `json:"connection_string"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PeerID == "" || req.ConnectionString == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "peer_id and connection_string are required", r))
		return
	}

	m, ok := h.managerFor(middleware.GetUserEmail(r.Context()))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "Join a room before accepting offers"})
		return
	}

	answer, err := m.AcceptOffer(r.Context(), req.PeerID, req.ConnectionString)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"connection_string": answer})
}

func (h *RTCHandler) HandleAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PeerID           string `json:"peer_id"`
		ConnectionString string `json:"connection_string"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PeerID == "" || req.ConnectionString == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "peer_id and connection_string are required", r))
		return
	}

	m, ok := h.managerFor(middleware.GetUserEmail(r.Context()))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "No pending connection"})
		return
	}

	if err := m.HandleAnswer(req.PeerID, req.ConnectionString); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Answer applied"})
}

func (h *RTCHandler) AddICECandidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PeerID    string                  `json:"peer_id"`
		Candidate webrtc.ICECandidateInit `json:"candidate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PeerID == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "peer_id and candidate are required", r))
		return
	}

	m, ok := h.managerFor(middleware.GetUserEmail(r.Context()))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "No pending connection"})
		return
	}

	if err := m.AddICECandidate(req.PeerID, req.Candidate); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Candidate added"})
}

func (h *RTCHandler) ToggleCamera(w http.ResponseWriter, r *http.Request) {
	m, ok := h.managerFor(middleware.GetUserEmail(r.Context()))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "Join a room first"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": m.ToggleCamera()})
}

func (h *RTCHandler) ToggleMicrophone(w http.ResponseWriter, r *http.Request) {
	m, ok := h.managerFor(middleware.GetUserEmail(r.Context()))
	if !ok {
		handleServiceError(w, r, &services.NotFoundError{Message: "Join a room first"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"enabled": m.ToggleMicrophone()})
}

// TeardownAll closes every live manager; used during shutdown.
func (h *RTCHandler) TeardownAll() {
	h.mu.Lock()
	managers := h.managers
	h.managers = make(map[string]*rtc.Manager)
	h.mu.Unlock()

	for _, m := range managers {
		m.Teardown()
	}
}
