package server

import (
	"context"

	"TradeHelper/internal/advisor"
	"TradeHelper/internal/collector"
	"TradeHelper/internal/model"
	"TradeHelper/internal/notifier"
	"TradeHelper/internal/scheduler"
	"TradeHelper/internal/session"

	"github.com/gin-gonic/gin"
)

// Analyzer runs one on-demand analysis.
type Analyzer interface {
	Analyze(ctx context.Context, req advisor.Request) (*advisor.Report, error)
}

// Charter fetches and resamples chart data.
type Charter interface {
	Collect(ctx context.Context, symbol string, iv model.Interval) (*collector.Series, error)
}

// Mailer sends verification email.
type Mailer interface {
	SendVerification(ctx context.Context, req notifier.VerificationRequest) (*notifier.EmailResult, error)
}

// Poller controls per-session polling.
type Poller interface {
	Start(key string) error
	Stop(key string)
	Running(key string) bool
	Countdown(key string) int
	Subscribe(key string) (<-chan scheduler.Update, func())
}

// Config wires the HTTP layer to its dependencies. Mailer may be nil.
type Config struct {
	Analyzer Analyzer
	Charter  Charter
	Sessions *session.Manager
	Poller   Poller
	Mailer   Mailer
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(cfg *Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), cors())

	h := &Handler{
		analyzer: cfg.Analyzer,
		charter:  cfg.Charter,
		sessions: cfg.Sessions,
		poller:   cfg.Poller,
		mailer:   cfg.Mailer,
	}

	router.GET("/healthz", h.Health)

	functions := router.Group("/functions/v1")
	{
		functions.POST("/stock-analysis", h.StockAnalysis)
		functions.POST("/send-verification-email", h.SendVerificationEmail)
	}

	api := router.Group("/api")
	api.GET("/chart/:symbol", h.Chart)
	registerSessionRoutes(api, h)

	return router
}

func registerSessionRoutes(router *gin.RouterGroup, h *Handler) {
	sessions := router.Group("/sessions")
	{
		sessions.GET("", h.ListSessions)
		sessions.GET("/:symbol", h.GetSession)
		sessions.GET("/:symbol/stream", h.Stream)
		sessions.POST("/:symbol/start", h.StartSession)
		sessions.POST("/:symbol/stop", h.StopSession)
		sessions.POST("/:symbol/buy", h.Buy)
		sessions.POST("/:symbol/sell", h.Sell)
		sessions.POST("/:symbol/reset", h.Reset)
	}
}
