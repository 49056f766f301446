package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNotConfigured is returned when no gateway API key is set.
var ErrNotConfigured = errors.New("AI gateway API key not configured")

const (
	DefaultGatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	DefaultModel      = "google/gemini-2.5-flash"
)

// Client talks to an OpenAI-compatible chat-completions gateway.
type Client struct {
	URL         string
	APIKey      string
	Model       string
	Temperature float64
	HTTP        *http.Client
}

// NewClient creates a gateway client. Requests are bounded only by the caller's
// context; stopping a polling session cancels its in-flight call.
func NewClient(url, apiKey, model string) *Client {
	if url == "" {
		url = DefaultGatewayURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		URL:         url,
		APIKey:      apiKey,
		Model:       model,
		Temperature: 0.3,
		HTTP:        &http.Client{},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system + user exchange and returns the reply text.
// A single attempt is made; the caller decides whether to try again.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c.APIKey == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("AI gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("AI analysis failed: %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("AI gateway decode: %w", err)
	}
	if len(out.Choices) == 0 {
		// an empty envelope is a shape problem; the parser turns it into the fallback
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
