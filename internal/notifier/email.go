package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"
)

const (
	defaultResendURL = "https://api.resend.com/emails"
	defaultSender    = "AI Stock Trader <onboarding@resend.dev>"
	verifySubject    = "Verify your email - AI Stock Trader"
)

var verifyTemplate = template.Must(template.New("verify").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333; margin-bottom: 20px;">Verify Your Email</h1>
  <p style="color: #666; margin-bottom: 20px;">
    Thank you for signing up for AI Stock Trader! Please verify your email address by clicking the button below:
  </p>
  <a href="{{.VerificationURL}}"
     style="display: inline-block; background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 20px 0;">
    Verify Email
  </a>
  <p style="color: #999; font-size: 14px; margin-top: 20px;">
    If you didn't create an account, you can safely ignore this email.
  </p>
</div>
`))

// EmailResult is the provider's reply, passed through to the caller.
type EmailResult struct {
	OK   bool
	Body json.RawMessage
}

// EmailSender delivers transactional email through the Resend API.
type EmailSender struct {
	URL    string
	APIKey string
	From   string
	Client *http.Client
}

// NewEmailSender creates a sender; from defaults to the onboarding address.
func NewEmailSender(apiKey, from string) *EmailSender {
	if from == "" {
		from = defaultSender
	}
	return &EmailSender{
		URL:    defaultResendURL,
		APIKey: apiKey,
		From:   from,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SendVerification sends the verification link to req.Email. A provider
// rejection is reported through EmailResult.OK; transport failures are errors.
func (s *EmailSender) SendVerification(ctx context.Context, req VerificationRequest) (*EmailResult, error) {
	var body bytes.Buffer
	if err := verifyTemplate.Execute(&body, req); err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"from":    s.From,
		"to":      []string{req.Email},
		"subject": verifySubject,
		"html":    body.String(),
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("resend request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("resend read body: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("resend: status %d, non-JSON body", resp.StatusCode)
	}
	return &EmailResult{
		OK:   resp.StatusCode >= 200 && resp.StatusCode <= 299,
		Body: data,
	}, nil
}
