// Package rtc owns peer connections and local media for a study room:
// one pion connection per remote participant, the offer/answer exchange
// over encoded connection strings, and media toggles.
package rtc

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
)

// MediaConstraints mirrors the capture request: which local tracks to
// publish. Media is acquired lazily, on room entry, never at construction.
type MediaConstraints struct {
	Audio bool `json:"audio"`
	Video bool `json:"video"`
}

type localMedia struct {
	audioTrack   *webrtc.TrackLocalStaticSample
	videoTrack   *webrtc.TrackLocalStaticSample
	audioEnabled bool
	videoEnabled bool
}

type peer struct {
	id string
	pc *webrtc.PeerConnection
}

// Manager owns zero-or-more peer connections for one room occupant.
type Manager struct {
	mu            sync.Mutex
	config        webrtc.Configuration
	gatherTimeout time.Duration

	roomID   string
	userID   string
	userName string

	conns map[string]*peer
	local *localMedia

	// Callbacks; all optional.
	onCandidate   func(peerID string, cand webrtc.ICECandidateInit)
	onRemoteTrack func(peerID string, track *webrtc.TrackRemote)
	onPeerClosed  func(peerID string)
}

// NewManager builds a manager for the given STUN endpoints; gatherTimeout
// bounds the ICE-gathering wait during connection-string generation.
func NewManager(iceServers []string, gatherTimeout time.Duration) *Manager {
	cfg := webrtc.Configuration{}
	if len(iceServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: iceServers}}
	}
	return &Manager{
		config:        cfg,
		gatherTimeout: gatherTimeout,
		conns:         make(map[string]*peer),
	}
}

// JoinRoom binds the manager to a room and local identity.
func (m *Manager) JoinRoom(roomID, userID, userName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomID = roomID
	m.userID = userID
	m.userName = userName
}

// OnCandidate registers the forwarder for locally gathered ICE candidates.
func (m *Manager) OnCandidate(fn func(peerID string, cand webrtc.ICECandidateInit)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCandidate = fn
}

// OnRemoteTrack registers the handler for incoming remote media.
func (m *Manager) OnRemoteTrack(fn func(peerID string, track *webrtc.TrackRemote)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRemoteTrack = fn
}

// OnPeerClosed registers the handler invoked after a connection is
// discarded.
func (m *Manager) OnPeerClosed(fn func(peerID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onPeerClosed = fn
}

// AcquireLocalMedia creates the local tracks to publish. Failures leave
// the manager with no media; the caller may retry audio-only or proceed
// without media.
func (m *Manager) AcquireLocalMedia(constraints MediaConstraints) error {
	if !constraints.Audio && !constraints.Video {
		return &PermissionError{Message: "no capture media requested"}
	}

	media := &localMedia{}
	if constraints.Audio {
		track, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "studyhall-mic")
		if err != nil {
			return &PermissionError{Message: fmt.Sprintf("microphone track unavailable: %v", err)}
		}
		media.audioTrack = track
		media.audioEnabled = true
	}
	if constraints.Video {
		track, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "studyhall-cam")
		if err != nil {
			return &PermissionError{Message: fmt.Sprintf("camera track unavailable: %v", err)}
		}
		media.videoTrack = track
		media.videoEnabled = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.local = media
	return nil
}

// CreateConnection allocates one connection bound to peerID, attaching
// any local tracks and wiring candidate/track/state handlers. A failure
// rolls the connection back completely; the map is never left
// half-registered.
func (m *Manager) CreateConnection(peerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.conns[peerID]; exists {
		return &ProtocolError{Message: fmt.Sprintf("connection to %s already exists", peerID)}
	}
	_, err := m.createConnectionLocked(peerID)
	return err
}

func (m *Manager) createConnectionLocked(peerID string) (*peer, error) {
	pc, err := webrtc.NewPeerConnection(m.config)
	if err != nil {
		return nil, &ProtocolError{Message: fmt.Sprintf("failed to create peer connection: %v", err)}
	}

	if m.local != nil {
		if m.local.audioTrack != nil {
			if _, err := pc.AddTrack(m.local.audioTrack); err != nil {
				pc.Close()
				return nil, &ProtocolError{Message: fmt.Sprintf("failed to attach audio track: %v", err)}
			}
		}
		if m.local.videoTrack != nil {
			if _, err := pc.AddTrack(m.local.videoTrack); err != nil {
				pc.Close()
				return nil, &ProtocolError{Message: fmt.Sprintf("failed to attach video track: %v", err)}
			}
		}
	}

	pc.OnICECandidate(func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}
		m.mu.Lock()
		fn := m.onCandidate
		m.mu.Unlock()
		if fn != nil {
			fn(peerID, c.ToJSON())
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		m.mu.Lock()
		fn := m.onRemoteTrack
		m.mu.Unlock()
		if fn != nil {
			fn(peerID, track)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Printf("peer %s connection state: %s", peerID, state)
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateDisconnected {
			// Close off the pion callback goroutine to avoid re-entrancy.
			go m.ClosePeer(peerID)
		}
	})

	p := &peer{id: peerID, pc: pc}
	m.conns[peerID] = p
	return p, nil
}

func (m *Manager) getOrCreate(peerID string) (*peer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.conns[peerID]; ok {
		return p, nil
	}
	return m.createConnectionLocked(peerID)
}

// MakeOffer creates an offer for the named peer, waits for ICE gathering
// to complete (bounded by the configured timeout), and returns the
// encoded connection string.
func (m *Manager) MakeOffer(ctx context.Context, peerID string) (string, error) {
	p, err := m.getOrCreate(peerID)
	if err != nil {
		return "", err
	}

	offer, err := p.pc.CreateOffer(nil)
	if err != nil {
		m.rollback(peerID)
		return "", &ProtocolError{Message: fmt.Sprintf("failed to create offer: %v", err)}
	}
	gatherComplete := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(offer); err != nil {
		m.rollback(peerID)
		return "", &ProtocolError{Message: fmt.Sprintf("failed to set local description: %v", err)}
	}

	if err := m.waitForGathering(ctx, gatherComplete); err != nil {
		m.rollback(peerID)
		return "", err
	}

	m.mu.Lock()
	payload := ConnectionPayload{
		Type:      "offer",
		Offer:     p.pc.LocalDescription(),
		RoomID:    m.roomID,
		UserID:    m.userID,
		UserName:  m.userName,
		Timestamp: time.Now().UnixMilli(),
	}
	m.mu.Unlock()

	return EncodeConnectionString(payload)
}

// AcceptOffer applies a decoded remote offer, answers it, and returns the
// encoded answer blob. The remote description is applied before any ICE
// candidate exchange is valid.
func (m *Manager) AcceptOffer(ctx context.Context, peerID, connectionString string) (string, error) {
	payload, err := DecodeOffer(connectionString)
	if err != nil {
		return "", err
	}

	p, err := m.getOrCreate(peerID)
	if err != nil {
		return "", err
	}

	if err := p.pc.SetRemoteDescription(*payload.Offer); err != nil {
		m.rollback(peerID)
		return "", &ProtocolError{Message: fmt.Sprintf("failed to apply remote offer: %v", err)}
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		m.rollback(peerID)
		return "", &ProtocolError{Message: fmt.Sprintf("failed to create answer: %v", err)}
	}
	gatherComplete := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(answer); err != nil {
		m.rollback(peerID)
		return "", &ProtocolError{Message: fmt.Sprintf("failed to set local description: %v", err)}
	}

	if err := m.waitForGathering(ctx, gatherComplete); err != nil {
		m.rollback(peerID)
		return "", err
	}

	m.mu.Lock()
	out := ConnectionPayload{
		Type:      "answer",
		Answer:    p.pc.LocalDescription(),
		RoomID:    m.roomID,
		UserID:    m.userID,
		UserName:  m.userName,
		Timestamp: time.Now().UnixMilli(),
	}
	m.mu.Unlock()

	return EncodeConnectionString(out)
}

// HandleAnswer applies the answer blob returned by the remote side of an
// earlier MakeOffer.
func (m *Manager) HandleAnswer(peerID, connectionString string) error {
	payload, err := DecodeAnswer(connectionString)
	if err != nil {
		return err
	}

	m.mu.Lock()
	p, ok := m.conns[peerID]
	m.mu.Unlock()
	if !ok {
		return &ProtocolError{Message: fmt.Sprintf("no pending connection for %s", peerID)}
	}
	if err := p.pc.SetRemoteDescription(*payload.Answer); err != nil {
		return &ProtocolError{Message: fmt.Sprintf("failed to apply remote answer: %v", err)}
	}
	return nil
}

// AddICECandidate feeds a relayed remote candidate into the named
// connection. Candidates for unknown peers are rejected, not dropped
// silently.
func (m *Manager) AddICECandidate(peerID string, cand webrtc.ICECandidateInit) error {
	m.mu.Lock()
	p, ok := m.conns[peerID]
	m.mu.Unlock()
	if !ok {
		return &ProtocolError{Message: fmt.Sprintf("no connection for %s", peerID)}
	}
	if err := p.pc.AddICECandidate(cand); err != nil {
		return &ProtocolError{Message: fmt.Sprintf("failed to add ICE candidate: %v", err)}
	}
	return nil
}

func (m *Manager) waitForGathering(ctx context.Context, done <-chan struct{}) error {
	ctx, cancel := context.WithTimeout(ctx, m.gatherTimeout)
	defer cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return &ProtocolError{Message: "ICE gathering did not complete in time"}
	}
}

// rollback discards a connection after a failed negotiation step so the
// map never holds a half-configured entry.
func (m *Manager) rollback(peerID string) {
	m.mu.Lock()
	p, ok := m.conns[peerID]
	if ok {
		delete(m.conns, peerID)
	}
	m.mu.Unlock()
	if ok {
		p.pc.Close()
	}
}

// ToggleCamera flips the camera-enabled flag and returns the new state;
// false when no local media exists.
func (m *Manager) ToggleCamera() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.local == nil || m.local.videoTrack == nil {
		return false
	}
	m.local.videoEnabled = !m.local.videoEnabled
	return m.local.videoEnabled
}

// ToggleMicrophone flips the microphone-enabled flag and returns the new
// state; false when no local media exists.
func (m *Manager) ToggleMicrophone() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.local == nil || m.local.audioTrack == nil {
		return false
	}
	m.local.audioEnabled = !m.local.audioEnabled
	return m.local.audioEnabled
}

// CameraEnabled reports the current camera flag.
func (m *Manager) CameraEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local != nil && m.local.videoEnabled
}

// MicrophoneEnabled reports the current microphone flag.
func (m *Manager) MicrophoneEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.local != nil && m.local.audioEnabled
}

// Peers lists ids with live connections.
func (m *Manager) Peers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.conns))
	for id := range m.conns {
		out = append(out, id)
	}
	return out
}

// ClosePeer closes and discards the named connection; closing an unknown
// peer is a no-op.
func (m *Manager) ClosePeer(peerID string) {
	m.mu.Lock()
	p, ok := m.conns[peerID]
	if ok {
		delete(m.conns, peerID)
	}
	fn := m.onPeerClosed
	m.mu.Unlock()

	if !ok {
		return
	}
	if err := p.pc.Close(); err != nil {
		log.Printf("closing peer %s: %v", peerID, err)
	}
	if fn != nil {
		fn(peerID)
	}
}

// Teardown closes every connection and releases local media. Called on
// leaving a room; in-flight negotiations are discarded with their
// connections.
func (m *Manager) Teardown() {
	m.mu.Lock()
	conns := m.conns
	m.conns = make(map[string]*peer)
	m.local = nil
	m.roomID = ""
	m.mu.Unlock()

	for id, p := range conns {
		if err := p.pc.Close(); err != nil {
			log.Printf("closing peer %s: %v", id, err)
		}
	}
}
