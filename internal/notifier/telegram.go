package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier talks to one chat through the Telegram Bot API.
type TelegramNotifier struct {
	APIBase  string
	BotToken string
	ChatID   string
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		APIBase:  defaultTelegramAPI,
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

// botReply is the envelope every Bot API method answers with.
type botReply[T any] struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      T      `json:"result"`
}

// callBot posts payload to a Bot API method and decodes its result.
func callBot[T any](ctx context.Context, t *TelegramNotifier, client *http.Client, method string, payload any) (T, error) {
	var zero T
	body, err := json.Marshal(payload)
	if err != nil {
		return zero, fmt.Errorf("marshal %s: %w", method, err)
	}

	base := t.APIBase
	if base == "" {
		base = defaultTelegramAPI
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", base, t.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	var reply botReply[T]
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return zero, fmt.Errorf("telegram %s: status %d: %w", method, resp.StatusCode, err)
	}
	if !reply.OK || resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode, reply.Description)
	}
	return reply.Result, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts text to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	_, err := callBot[json.RawMessage](ctx, t, t.Client, "sendMessage", sendMessageRequest{
		ChatID:    t.ChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	return err
}

// SendWithRetry retries Send up to maxRetries more times, doubling the wait
// from one second.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	wait := time.Second
	for attempt := 1; ; attempt++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		if attempt > maxRetries {
			return fmt.Errorf("telegram send failed after %d attempts: %w", attempt, err)
		}
		logrus.Warnf("telegram send failed (attempt %d/%d): %v, retrying in %v", attempt, maxRetries+1, err, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
}
