package rtc

import (
	"encoding/base64"
	"testing"

	"github.com/pion/webrtc/v3"
)

func TestConnectionStringRoundTrip(t *testing.T) {
	payload := ConnectionPayload{
		Type: "offer",
		Offer: &webrtc.SessionDescription{
			Type: webrtc.SDPTypeOffer,
			SDP:  "v=0\r\no=- 0 0 IN IP4 127.0.0.1\r\ns=-\r\nt=0 0\r\n",
		},
		RoomID:    "1",
		UserID:    "user-42",
		UserName:  "Ada",
		Timestamp: 1767225600000,
	}

	blob, err := EncodeConnectionString(payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := base64.StdEncoding.DecodeString(blob); err != nil {
		t.Fatalf("connection string is not standard base64: %v", err)
	}

	got, err := DecodeConnectionString(blob)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Type != payload.Type || got.RoomID != payload.RoomID ||
		got.UserID != payload.UserID || got.UserName != payload.UserName ||
		got.Timestamp != payload.Timestamp {
		t.Errorf("decoded payload = %+v, want %+v", got, payload)
	}
	if got.Offer == nil || got.Offer.SDP != payload.Offer.SDP {
		t.Errorf("offer SDP did not survive the round trip")
	}
}

func TestDecodeOfferErrors(t *testing.T) {
	valid := ConnectionPayload{
		Type:   "offer",
		Offer:  &webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0\r\n"},
		RoomID: "1",
	}

	noRoom := valid
	noRoom.RoomID = ""
	noOffer := valid
	noOffer.Offer = nil
	wrongType := valid
	wrongType.Type = "answer"

	encode := func(p ConnectionPayload) string {
		blob, err := EncodeConnectionString(p)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		return blob
	}

	cases := []struct {
		name string
		blob string
	}{
		{"not base64", "!!not-base64!!"},
		{"not json", base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"missing room", encode(noRoom)},
		{"missing offer", encode(noOffer)},
		{"wrong type", encode(wrongType)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeOffer(tc.blob); err == nil {
				t.Fatal("expected an error")
			} else if _, ok := err.(*ProtocolError); !ok {
				t.Fatalf("expected *ProtocolError, got %T", err)
			}
		})
	}
}

func TestDecodeAnswerRequiresAnswer(t *testing.T) {
	blob, err := EncodeConnectionString(ConnectionPayload{Type: "answer", RoomID: "1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeAnswer(blob); err == nil {
		t.Fatal("expected an error for an answer payload without a description")
	}
}
