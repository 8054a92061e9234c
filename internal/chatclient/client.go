package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the CampusRent API. Construct one per authenticated
// session and pass it around explicitly; there is no package-level
// instance.
type Client struct {
	BaseURL    string // e.g. http://localhost:8080
	Token      string // bearer credential; empty means anonymous
	UserID     string // empty means anonymous
	HTTPClient *http.Client
}

// NewClient builds a Client with a default HTTP client
func NewClient(baseURL, token, userID string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		UserID:     userID,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// envelope is the server's JSON response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Fetch retrieves the durable history of a conversation, ascending by
// creation time. It satisfies HistorySource.
func (c *Client) Fetch(ctx context.Context, listingID int64) ([]Message, error) {
	url := fmt.Sprintf("%s/api/v1/messages?listing_id=%d", c.BaseURL, listingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := json.Unmarshal(env.Data, &messages); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return messages, nil
}

// Send performs the durable send and returns the server's row
func (c *Client) Send(ctx context.Context, listingID int64, content, attachmentURL string) (*Message, error) {
	body, err := json.Marshal(map[string]interface{}{
		"listing_id":     listingID,
		"content":        content,
		"attachment_url": attachmentURL,
	})
	if err != nil {
		return nil, err
	}

	url := c.BaseURL + "/api/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	var msg Message
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrSendFailed, err)
	}
	return &msg, nil
}

// DialLive opens the live channel for a conversation
func (c *Client) DialLive(ctx context.Context, listingID int64) (LiveStream, error) {
	return dialLive(ctx, c.wsURL(listingID), c.Token)
}

// wsURL converts the base URL to its websocket equivalent
func (c *Client) wsURL(listingID int64) string {
	base := c.BaseURL
	if strings.HasPrefix(base, "http") {
		base = "ws" + strings.TrimPrefix(base, "http")
	}
	return fmt.Sprintf("%s/api/v1/ws/%d", base, listingID)
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

func decodeEnvelope(resp *http.Response) (*envelope, error) {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		if env.Error != "" {
			return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, env.Error)
		}
		return nil, fmt.Errorf("api error (status %d)", resp.StatusCode)
	}
	return &env, nil
}
