package rtc

import (
	"context"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
)

func candidateInit() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate: "candidate:1 1 udp 2130706433 127.0.0.1 54321 typ host",
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(nil, 5*time.Second)
	m.JoinRoom("1", "user-a", "Ada")
	t.Cleanup(m.Teardown)
	return m
}

func TestMakeOfferProducesDecodableBlob(t *testing.T) {
	m := newTestManager(t)

	blob, err := m.MakeOffer(context.Background(), "peer-1")
	if err != nil {
		t.Fatalf("MakeOffer: %v", err)
	}

	payload, err := DecodeOffer(blob)
	if err != nil {
		t.Fatalf("offer blob did not decode: %v", err)
	}
	if payload.RoomID != "1" || payload.UserID != "user-a" || payload.UserName != "Ada" {
		t.Errorf("offer payload identity = %s/%s/%s", payload.RoomID, payload.UserID, payload.UserName)
	}
	if payload.Timestamp == 0 {
		t.Error("offer payload missing timestamp")
	}
}

func TestOfferAnswerExchange(t *testing.T) {
	caller := newTestManager(t)
	callee := NewManager(nil, 5*time.Second)
	callee.JoinRoom("1", "user-b", "Grace")
	t.Cleanup(callee.Teardown)

	offer, err := caller.MakeOffer(context.Background(), "user-b")
	if err != nil {
		t.Fatalf("MakeOffer: %v", err)
	}

	answer, err := callee.AcceptOffer(context.Background(), "user-a", offer)
	if err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}
	payload, err := DecodeAnswer(answer)
	if err != nil {
		t.Fatalf("answer blob did not decode: %v", err)
	}
	if payload.UserID != "user-b" {
		t.Errorf("answer userId = %q, want user-b", payload.UserID)
	}

	if err := caller.HandleAnswer("user-b", answer); err != nil {
		t.Fatalf("HandleAnswer: %v", err)
	}
}

func TestHandleAnswerUnknownPeer(t *testing.T) {
	caller := newTestManager(t)
	callee := NewManager(nil, 5*time.Second)
	callee.JoinRoom("1", "user-b", "Grace")
	t.Cleanup(callee.Teardown)

	offer, err := caller.MakeOffer(context.Background(), "user-b")
	if err != nil {
		t.Fatalf("MakeOffer: %v", err)
	}
	answer, err := callee.AcceptOffer(context.Background(), "user-a", offer)
	if err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}

	if err := caller.HandleAnswer("nobody", answer); err == nil {
		t.Fatal("expected an error for an answer from an unknown peer")
	}
}

func TestAcceptOfferRejectsGarbage(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.AcceptOffer(context.Background(), "peer-1", "not a connection string"); err == nil {
		t.Fatal("expected an error")
	}
	if len(m.Peers()) != 0 {
		t.Errorf("garbage offer left %d connections behind", len(m.Peers()))
	}
}

func TestDuplicateConnectionRejected(t *testing.T) {
	m := newTestManager(t)
	if err := m.CreateConnection("peer-1"); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if err := m.CreateConnection("peer-1"); err == nil {
		t.Fatal("expected duplicate connection to be rejected")
	}
}

func TestAddICECandidateUnknownPeer(t *testing.T) {
	m := newTestManager(t)
	err := m.AddICECandidate("ghost", candidateInit())
	if err == nil {
		t.Fatal("expected an error for an unknown peer")
	}
	if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("expected *ProtocolError, got %T", err)
	}
}

func TestClosePeerIdempotent(t *testing.T) {
	m := newTestManager(t)
	closed := make(chan string, 4)
	m.OnPeerClosed(func(id string) { closed <- id })

	if err := m.CreateConnection("peer-1"); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	m.ClosePeer("peer-1")
	m.ClosePeer("peer-1")
	m.ClosePeer("never-existed")

	if got := len(closed); got != 1 {
		t.Errorf("onPeerClosed fired %d times, want 1", got)
	}
	if len(m.Peers()) != 0 {
		t.Errorf("expected no peers after close, got %v", m.Peers())
	}
}

func TestTeardownClearsEverything(t *testing.T) {
	m := NewManager(nil, 5*time.Second)
	m.JoinRoom("1", "user-a", "Ada")
	if err := m.AcquireLocalMedia(MediaConstraints{Audio: true, Video: true}); err != nil {
		t.Fatalf("AcquireLocalMedia: %v", err)
	}
	if err := m.CreateConnection("peer-1"); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}
	if err := m.CreateConnection("peer-2"); err != nil {
		t.Fatalf("CreateConnection: %v", err)
	}

	m.Teardown()

	if len(m.Peers()) != 0 {
		t.Errorf("expected no peers after teardown, got %v", m.Peers())
	}
	if m.ToggleCamera() || m.ToggleMicrophone() {
		t.Error("media toggles should report false after teardown")
	}
}

func TestMediaToggles(t *testing.T) {
	m := newTestManager(t)

	// No media acquired yet.
	if m.ToggleCamera() || m.ToggleMicrophone() {
		t.Fatal("toggles must report false before media is acquired")
	}

	if err := m.AcquireLocalMedia(MediaConstraints{Audio: true, Video: true}); err != nil {
		t.Fatalf("AcquireLocalMedia: %v", err)
	}
	if !m.CameraEnabled() || !m.MicrophoneEnabled() {
		t.Fatal("freshly acquired media should start enabled")
	}

	if on := m.ToggleCamera(); on {
		t.Error("first camera toggle should disable, got enabled")
	}
	if on := m.ToggleCamera(); !on {
		t.Error("second camera toggle should re-enable")
	}
	if on := m.ToggleMicrophone(); on {
		t.Error("first microphone toggle should disable, got enabled")
	}
}

func TestAcquireLocalMediaAudioOnly(t *testing.T) {
	m := newTestManager(t)
	if err := m.AcquireLocalMedia(MediaConstraints{Audio: true}); err != nil {
		t.Fatalf("AcquireLocalMedia: %v", err)
	}
	if m.ToggleCamera() {
		t.Error("camera toggle should report false with an audio-only capture")
	}
	if m.MicrophoneEnabled() != true {
		t.Error("microphone should be enabled")
	}
}

func TestAcquireLocalMediaRequiresAConstraint(t *testing.T) {
	m := newTestManager(t)
	err := m.AcquireLocalMedia(MediaConstraints{})
	if err == nil {
		t.Fatal("expected an error when nothing is requested")
	}
	if _, ok := err.(*PermissionError); !ok {
		t.Fatalf("expected *PermissionError, got %T", err)
	}
}
