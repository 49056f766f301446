package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"TradeHelper/internal/advisor"
	"TradeHelper/internal/collector"
	"TradeHelper/internal/model"
	"TradeHelper/internal/notifier"
	"TradeHelper/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const userHeader = "X-User-ID"

// Handler serves the HTTP API.
type Handler struct {
	analyzer Analyzer
	charter  Charter
	sessions *session.Manager
	poller   Poller
	mailer   Mailer
}

type errorResponse struct {
	Error string `json:"error"`
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// userID reads the caller from the header, or from ?user= for WebSocket clients
// that cannot set headers.
func userID(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(userHeader)); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("user"))
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

type analysisRequest struct {
	Symbol           string   `json:"symbol"`
	InvestmentAmount *float64 `json:"investmentAmount"`
	TargetProfit     *float64 `json:"targetProfit"`
	BoughtMode       bool     `json:"boughtMode"`
	InitialPrice     *float64 `json:"initialPrice"`
}

// StockAnalysis runs one on-demand recommendation.
func (h *Handler) StockAnalysis(c *gin.Context) {
	var body analysisRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if strings.TrimSpace(body.Symbol) == "" {
		fail(c, http.StatusBadRequest, "symbol is required")
		return
	}

	req := advisor.Request{UserID: userID(c), Symbol: body.Symbol, Bought: body.BoughtMode}
	if body.InvestmentAmount != nil && body.TargetProfit != nil {
		params := model.TradeParams{InvestmentAmount: *body.InvestmentAmount, TargetProfit: *body.TargetProfit}
		if params.Valid() {
			req.Params = &params
		}
	}
	if body.InitialPrice != nil {
		req.EntryPrice = *body.InitialPrice
	}

	report, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		logrus.WithField("symbol", body.Symbol).Errorf("stock analysis: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, report)
}

// SendVerificationEmail validates the request and relays it to the email provider.
// The provider's reply body is passed through unchanged.
func (h *Handler) SendVerificationEmail(c *gin.Context) {
	var raw map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&raw); err != nil || raw == nil {
		fail(c, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	email, _ := raw["email"].(string)
	link, _ := raw["verificationUrl"].(string)

	req, err := notifier.ValidateVerificationRequest(email, link)
	if err != nil {
		var verr *notifier.ValidationError
		if errors.As(err, &verr) {
			logrus.Infof("input validation failed: %s", verr.Message)
			fail(c, http.StatusBadRequest, verr.Message)
			return
		}
		fail(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	if h.mailer == nil {
		logrus.Error("verification email requested but no email sender is configured")
		fail(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}

	result, err := h.mailer.SendVerification(c.Request.Context(), req)
	if err != nil {
		logrus.Errorf("error sending verification email: %v", err)
		fail(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	status := http.StatusOK
	if !result.OK {
		status = http.StatusInternalServerError
	}
	c.Data(status, "application/json", result.Body)
}

// Chart returns resampled buckets for the requested interval.
func (h *Handler) Chart(c *gin.Context) {
	iv, err := model.ParseInterval(c.Query("interval"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	series, err := h.charter.Collect(c.Request.Context(), c.Param("symbol"), iv)
	if err != nil {
		if errors.Is(err, collector.ErrNoData) {
			fail(c, http.StatusNotFound, "Invalid stock symbol or no data available")
			return
		}
		logrus.WithField("symbol", c.Param("symbol")).Errorf("chart: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, series)
}

type sessionView struct {
	model.Session
	Running   bool `json:"running"`
	Countdown int  `json:"countdown"`
}

func (h *Handler) view(s model.Session) sessionView {
	return sessionView{Session: s, Running: h.poller.Running(s.Key()), Countdown: h.poller.Countdown(s.Key())}
}

// requireUser aborts with 400 when the caller is anonymous.
func requireUser(c *gin.Context) (string, bool) {
	id := userID(c)
	if id == "" {
		fail(c, http.StatusBadRequest, userHeader+" header is required")
		return "", false
	}
	return id, true
}

func sessionStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotBought), errors.Is(err, session.ErrAlreadyBought):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidParams), errors.Is(err, session.ErrNoPrice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) ListSessions(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	views := []sessionView{}
	for _, s := range h.sessions.List(user) {
		views = append(views, h.view(s))
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetSession(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	s, err := h.sessions.Get(user, c.Param("symbol"))
	if err != nil {
		fail(c, sessionStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

// StartSession stores the trade goals and begins polling.
func (h *Handler) StartSession(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var params model.TradeParams
	if err := c.ShouldBindJSON(&params); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	s, err := h.sessions.Start(user, c.Param("symbol"), params)
	if err != nil {
		fail(c, sessionStatus(err), err.Error())
		return
	}
	if err := h.poller.Start(s.Key()); err != nil {
		logrus.WithField("session", s.Key()).Errorf("start polling: %v", err)
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

func (h *Handler) StopSession(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	s, err := h.sessions.Get(user, c.Param("symbol"))
	if err != nil {
		fail(c, sessionStatus(err), err.Error())
		return
	}
	h.poller.Stop(s.Key())
	s, _ = h.sessions.Lookup(s.Key())
	c.JSON(http.StatusOK, h.view(s))
}

type priceRequest struct {
	Price float64 `json:"price"`
}

// bindPrice accepts an empty body, meaning the last seen price.
func bindPrice(c *gin.Context) (float64, bool) {
	var body priceRequest
	if c.Request.ContentLength == 0 {
		return 0, true
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "Invalid JSON in request body")
		return 0, false
	}
	return body.Price, true
}

func (h *Handler) Buy(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	price, ok := bindPrice(c)
	if !ok {
		return
	}
	s, err := h.sessions.Buy(c.Request.Context(), user, c.Param("symbol"), price)
	if err != nil {
		fail(c, sessionStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, h.view(s))
}

func (h *Handler) Sell(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	price, ok := bindPrice(c)
	if !ok {
		return
	}
	s, snap, err := h.sessions.Sell(c.Request.Context(), user, c.Param("symbol"), price)
	if err != nil {
		fail(c, sessionStatus(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": h.view(s), "result": snap})
}

// Reset stops polling and discards the session.
func (h *Handler) Reset(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	key := model.SessionKey(user, strings.ToUpper(strings.TrimSpace(c.Param("symbol"))))
	h.poller.Stop(key)
	if err := h.sessions.Reset(user, c.Param("symbol")); err != nil {
		fail(c, sessionStatus(err), err.Error())
		return
	}
	c.Status(http.StatusNoContent)
}
