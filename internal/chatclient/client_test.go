package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientFetch(t *testing.T) {
	at := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("listing_id"); got != "42" {
			t.Errorf("unexpected listing_id %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("unexpected auth header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []Message{
				{ID: 1, ListingID: 42, SenderID: "owner", Content: "hi", CreatedAt: at},
				{ID: 2, ListingID: 42, SenderID: "u1", Content: "how much?", CreatedAt: at.Add(time.Minute)},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-123", "u1")
	messages, err := c.Fetch(context.Background(), 42)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].ID != 1 || messages[1].Content != "how much?" {
		t.Fatalf("unexpected messages: %+v", messages)
	}
}

func TestClientFetchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "database unavailable",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "u1")
	if _, err := c.Fetch(context.Background(), 42); err == nil {
		t.Fatal("expected an error for a failed envelope")
	}
}

func TestClientSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/messages" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var body struct {
			ListingID int64  `json:"listing_id"`
			Content   string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body.ListingID != 42 || body.Content != "how much?" {
			t.Errorf("unexpected body: %+v", body)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    Message{ID: 9, ListingID: 42, SenderID: "u1", Content: "how much?", CreatedAt: time.Now()},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "u1")
	msg, err := c.Send(context.Background(), 42, "how much?", "")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ID != 9 || msg.ListingID != 42 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestClientSendWrapsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "listing not found",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "u1")
	if _, err := c.Send(context.Background(), 42, "hi", ""); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
}

func TestClientSendConnectionRefused(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "tok", "u1")
	c.HTTPClient.Timeout = time.Second

	if _, err := c.Send(context.Background(), 42, "hi", ""); !errors.Is(err, ErrSendFailed) {
		t.Fatalf("expected ErrSendFailed, got %v", err)
	}
}

func TestWsURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/api/v1/ws/7"},
		{"https://api.campusrent.in", "wss://api.campusrent.in/api/v1/ws/7"},
	}
	for _, tc := range cases {
		c := NewClient(tc.base, "", "")
		if got := c.wsURL(7); got != tc.want {
			t.Errorf("wsURL(%s) = %s, want %s", tc.base, got, tc.want)
		}
	}
}
