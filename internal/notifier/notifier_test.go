package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"TradeHelper/internal/model"
	"TradeHelper/internal/strategy"
)

func TestEmailSender_SendVerification(t *testing.T) {
	var payload map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"id":"email-123"}`))
	}))
	defer srv.Close()

	s := NewEmailSender("re_key", "")
	s.URL = srv.URL
	res, err := s.SendVerification(context.Background(), VerificationRequest{Email: "a@b.com", VerificationURL: "https://x.example/v?t=1&u=2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK || string(res.Body) != `{"id":"email-123"}` {
		t.Errorf("unexpected result %+v", res)
	}
	if auth != "Bearer re_key" {
		t.Errorf("unexpected auth %q", auth)
	}
	if payload["subject"] != verifySubject || payload["from"] != defaultSender {
		t.Errorf("unexpected payload %+v", payload)
	}
	if html, _ := payload["html"].(string); !strings.Contains(html, `href="https://x.example/v?t=1&amp;u=2"`) {
		t.Errorf("expected escaped link in body, got %s", html)
	}
}

func TestEmailSender_ProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to"}`))
	}))
	defer srv.Close()

	s := NewEmailSender("k", "")
	s.URL = srv.URL
	res, err := s.SendVerification(context.Background(), VerificationRequest{Email: "a@b.com", VerificationURL: "https://x.example"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OK {
		t.Error("expected rejection to be reported")
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	calls := 0
	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.HasSuffix(r.URL.Path, "/bottoken/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		text = body["text"]
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || text != "hello" {
		t.Errorf("expected one call with text, got %d %q", calls, text)
	}
}

func TestTelegramNotifier_RetriesAPIError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"ok":false,"description":"Too Many Requests"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestTelegramNotifier_SendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	err := n.Send(context.Background(), "hello")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Errorf("expected chat not found error, got %v", err)
	}
}

func TestTelegramNotifier_StartPolling(t *testing.T) {
	replies := make(chan string, 1)
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			if polls.Add(1) == 1 {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /sessions "}},{"update_id":8}]}`))
				return
			}
			var req getUpdatesRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Offset != 9 {
				t.Errorf("expected offset 9, got %d", req.Offset)
			}
			time.Sleep(20 * time.Millisecond)
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			replies <- body["text"]
			w.Write([]byte(`{"ok":true,"result":{}}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(cmd string) string { return "got " + cmd })
		close(done)
	}()

	select {
	case got := <-replies:
		if got != "got /sessions" {
			t.Errorf("unexpected reply %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply sent")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestFormatPositionAlert(t *testing.T) {
	s := model.Session{
		UserID:       "u1",
		Symbol:       "AAPL",
		Params:       model.TradeParams{InvestmentAmount: 1000, TargetProfit: 50, StopLossPercent: 5},
		Bought:       true,
		EntryPrice:   100,
		CurrentPrice: 110,
		LastAction:   model.PositionSellProfit,
		LastAnalysis: &model.Analysis{Recommendation: model.FallbackRecommendation(), Source: model.SourceFallback},
	}
	msg := FormatPositionAlert(s, strategy.Describe(s.Position()))
	for _, want := range []string{"Target reached", "AAPL", "P/L: +100.00 (+10.00%)", "[fallback]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("alert missing %q:\n%s", want, msg)
		}
	}

	s.LastAction = model.PositionSellLoss
	if msg := FormatPositionAlert(s, strategy.Snapshot{}); !strings.Contains(msg, "Stop loss hit") {
		t.Errorf("expected stop loss headline, got %s", msg)
	}
}

func TestFormatSessionList(t *testing.T) {
	if got := FormatSessionList(nil, nil); got != "No active sessions." {
		t.Errorf("unexpected empty list %q", got)
	}
	sessions := []model.Session{
		{UserID: "u1", Symbol: "AAPL", CurrentPrice: 101, Polling: true},
		{UserID: "u1", Symbol: "MSFT", CurrentPrice: 300, Bought: true, EntryPrice: 295},
	}
	got := FormatSessionList(sessions, map[string]int{"u1/AAPL": 7})
	if !strings.Contains(got, "next in 7s") || !strings.Contains(got, "holding @ $295.00") {
		t.Errorf("unexpected list:\n%s", got)
	}
}
