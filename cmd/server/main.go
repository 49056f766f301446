package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"TradeHelper/internal/advisor"
	"TradeHelper/internal/collector"
	"TradeHelper/internal/config"
	"TradeHelper/internal/logger"
	"TradeHelper/internal/notifier"
	"TradeHelper/internal/recorder"
	"TradeHelper/internal/scheduler"
	"TradeHelper/internal/server"
	"TradeHelper/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger.Setup(cfg.Log.Level, os.Stdout)
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("config validation: %v", err)
	}
	logrus.Info("TradeHelper starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Market data
	var fetcher collector.Fetcher
	switch cfg.MarketData.Provider {
	case "alpaca":
		fetcher = collector.NewAlpacaFetcher(cfg.MarketData.AlpacaKey, cfg.MarketData.AlpacaSecret)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	fetcher = collector.NewRateLimited(fetcher, cfg.MarketData.RateLimit, cfg.MarketData.RateBurst)
	if cfg.MarketData.RedisAddr != "" {
		store := collector.NewRedisStore(cfg.MarketData.RedisAddr, cfg.MarketData.RedisPassword, cfg.MarketData.RedisDB)
		if err := store.Ping(ctx); err != nil {
			logrus.Warnf("redis unavailable, tick cache disabled: %v", err)
			store.Close()
		} else {
			defer store.Close()
			fetcher = &collector.CachedFetcher{Fetcher: fetcher, Store: store, TTL: cfg.MarketData.CacheTTL}
			logrus.Infof("tick cache enabled (ttl %s)", cfg.MarketData.CacheTTL)
		}
	}
	logrus.Infof("data source: %s", fetcher.Name())
	col := collector.NewCollector(fetcher)

	// Trade log
	rec := openRecorder(ctx, cfg)
	defer rec.Close()

	sessions, err := session.NewManager(cfg.Sessions.StateFile, rec)
	if err != nil {
		logrus.Fatalf("init session manager: %v", err)
	}

	client := advisor.NewClient(cfg.AI.GatewayURL, cfg.AI.APIKey, cfg.AI.Model)
	if cfg.AI.APIKey == "" {
		logrus.Warn("LOVABLE_API_KEY not set, analysis requests will fail")
	}
	adv := advisor.New(col, client, rec)

	// Telegram is optional
	var alerter scheduler.Alerter
	var tn *notifier.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		alerter = tn
	}

	poller := scheduler.NewPoller(ctx, adv, sessions, alerter, cfg.Polling.PeriodSeconds)
	if err := poller.Run(); err != nil {
		logrus.Fatalf("start poller: %v", err)
	}
	defer poller.Shutdown()

	if tn != nil {
		go tn.StartPolling(ctx, poller.HandleCommand)
		logrus.Info("Telegram polling started")
	}

	var mailer server.Mailer
	if cfg.Email.ResendAPIKey != "" {
		mailer = notifier.NewEmailSender(cfg.Email.ResendAPIKey, cfg.Email.From)
	} else {
		logrus.Warn("RESEND_API_KEY not set, verification email disabled")
	}

	gin.SetMode(cfg.Server.Mode)
	router := server.NewRouter(&server.Config{
		Analyzer: adv,
		Charter:  col,
		Sessions: sessions,
		Poller:   poller,
		Mailer:   mailer,
	})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logrus.Info("shutdown signal received, stopping...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("http shutdown: %v", err)
	}
	cancel()
	logrus.Info("TradeHelper stopped")
}

// openRecorder falls back to the noop recorder when the configured store
// cannot be opened, so analysis keeps working without history.
func openRecorder(ctx context.Context, cfg *config.Config) recorder.Recorder {
	switch cfg.Database.Driver {
	case "postgres":
		pr, err := recorder.NewPostgresRecorder(ctx, cfg.Database.PostgresURL, recorder.PoolConfig{
			MaxConns:        cfg.Database.MaxConns,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		})
		if err != nil {
			logrus.Warnf("init postgres recorder failed, using noop: %v", err)
			return recorder.NewNoopRecorder()
		}
		return pr
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			logrus.Warnf("create data dir: %v", err)
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			logrus.Warnf("init sqlite recorder failed, using noop: %v", err)
			return recorder.NewNoopRecorder()
		}
		return sr
	default:
		return recorder.NewNoopRecorder()
	}
}
