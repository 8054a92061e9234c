package chatclient

import (
	"testing"
	"time"
)

func TestDecodeFrame(t *testing.T) {
	valid := `{"type":"message","payload":{"id":5,"listingId":7,"senderId":"u2","content":"hi","createdAt":"2026-08-28T10:00:00Z"}}`

	msg, ok := decodeFrame([]byte(valid))
	if !ok {
		t.Fatal("valid frame rejected")
	}
	if msg.ID != 5 || msg.ListingID != 7 || msg.Content != "hi" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !msg.CreatedAt.Equal(time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", msg.CreatedAt)
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"wrong type", `{"type":"error","payload":{"code":"INTERNAL","message":"boom"}}`},
		{"payload not a message", `{"type":"message","payload":"hello"}`},
		{"missing id", `{"type":"message","payload":{"listingId":7,"senderId":"u2","content":"hi"}}`},
		{"missing listing", `{"type":"message","payload":{"id":5,"senderId":"u2","content":"hi"}}`},
	}

	for _, tc := range cases {
		if _, ok := decodeFrame([]byte(tc.data)); ok {
			t.Errorf("%s: frame accepted", tc.name)
		}
	}
}
