package server

import (
	"net/http"
	"time"

	"TradeHelper/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream relays poller updates for one session over a WebSocket. The first
// message is the current session state.
func (h *Handler) Stream(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	s, err := h.sessions.Get(user, c.Param("symbol"))
	if err != nil {
		fail(c, sessionStatus(err), err.Error())
		return
	}
	key := s.Key()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithField("session", key).Errorf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.poller.Subscribe(key)
	defer unsubscribe()

	// The client only ever sends close frames; reading detects the disconnect.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	first := scheduler.Update{Kind: scheduler.KindCountdown, Key: key, Countdown: h.poller.Countdown(key), Session: &s}
	if err := writeUpdate(conn, first); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeUpdate(conn, u); err != nil {
				logrus.WithField("session", key).Debugf("websocket write: %v", err)
				return
			}
		}
	}
}

func writeUpdate(conn *websocket.Conn, u scheduler.Update) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}
