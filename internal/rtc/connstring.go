package rtc

import (
	"encoding/base64"
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

// ConnectionPayload is the out-of-band blob exchanged between peers:
// base64 of JSON carrying one side's session description plus room
// metadata. The offer and roomId fields are mandatory on offers.
type ConnectionPayload struct {
	Type      string                     `json:"type"`
	Offer     *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer    *webrtc.SessionDescription `json:"answer,omitempty"`
	RoomID    string                     `json:"roomId"`
	UserID    string                     `json:"userId"`
	UserName  string                     `json:"userName"`
	Timestamp int64                      `json:"timestamp"`
}

// EncodeConnectionString serializes a payload to its wire form.
func EncodeConnectionString(p ConnectionPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", &ProtocolError{Message: "failed to encode connection string"}
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeConnectionString parses the wire form without validating payload
// semantics.
func DecodeConnectionString(s string) (*ConnectionPayload, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &ProtocolError{Message: "connection string is not valid base64"}
	}
	var p ConnectionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ProtocolError{Message: "connection string is not valid JSON"}
	}
	return &p, nil
}

// DecodeOffer parses and validates an offer blob. Missing offer or roomId
// fields are rejected.
func DecodeOffer(s string) (*ConnectionPayload, error) {
	p, err := DecodeConnectionString(s)
	if err != nil {
		return nil, err
	}
	if p.Type != "offer" || p.Offer == nil {
		return nil, &ProtocolError{Message: "connection string does not carry an offer"}
	}
	if p.RoomID == "" {
		return nil, &ProtocolError{Message: "connection string is missing the room id"}
	}
	return p, nil
}

// DecodeAnswer parses and validates an answer blob.
func DecodeAnswer(s string) (*ConnectionPayload, error) {
	p, err := DecodeConnectionString(s)
	if err != nil {
		return nil, err
	}
	if p.Type != "answer" || p.Answer == nil {
		return nil, &ProtocolError{Message: "connection string does not carry an answer"}
	}
	return p, nil
}
