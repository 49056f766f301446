package notifier

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	longPollSeconds = 30
	pollRetryDelay  = 5 * time.Second
)

// CommandHandler answers one chat command. An empty reply sends nothing.
type CommandHandler func(command string) string

type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
	} `json:"message"`
}

type getUpdatesRequest struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// StartPolling long-polls for chat commands until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Timeout: (longPollSeconds + 5) * time.Second, Transport: t.Client.Transport}
	offset := 0
	for ctx.Err() == nil {
		updates, err := callBot[[]telegramUpdate](ctx, t, client, "getUpdates", getUpdatesRequest{
			Offset:         offset,
			Timeout:        longPollSeconds,
			AllowedUpdates: []string{"message"},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logrus.Warnf("telegram polling failed: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		for _, u := range updates {
			offset = u.UpdateID + 1
			t.dispatch(ctx, u, handler)
		}
	}
	logrus.Info("telegram polling stopped")
}

func (t *TelegramNotifier) dispatch(ctx context.Context, u telegramUpdate, handler CommandHandler) {
	if u.Message == nil {
		return
	}
	command := strings.TrimSpace(u.Message.Text)
	if command == "" {
		return
	}
	logrus.Infof("received command: %s", command)
	reply := handler(command)
	if reply == "" {
		return
	}
	if err := t.Send(ctx, reply); err != nil {
		logrus.Errorf("send reply: %v", err)
	}
}
