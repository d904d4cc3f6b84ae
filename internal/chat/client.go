// Package chat relays portal widget messages to the remote chat endpoint
// and keeps a per-session transcript.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the remote chat endpoint.
type Client struct {
	chatURL    string
	httpClient *http.Client
}

// NewClient creates a chat relay client.
func NewClient(chatURL string, timeout time.Duration) *Client {
	return &Client{
		chatURL:    chatURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts one message and returns the assistant reply. Any non-200
// status or transport failure is an error.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", fmt.Errorf("chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("chat: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat: endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("chat: decode reply: %w", err)
	}
	return body.Response, nil
}
