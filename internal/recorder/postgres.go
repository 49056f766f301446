package recorder

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TradeHelper/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PostgresRecorder persists trades to a hosted Postgres database.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// ensureSSLModeRequire adds sslmode=require when the URL does not set a mode.
func ensureSSLModeRequire(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		// pgx will surface the parse problem on connect
		return dbURL
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return strings.TrimSpace(u.String())
}

// NewPostgresRecorder connects, pings and creates the trades table if needed.
func NewPostgresRecorder(ctx context.Context, databaseURL string, cfg PoolConfig) (*PostgresRecorder, error) {
	poolCfg, err := pgxpool.ParseConfig(ensureSSLModeRequire(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	logrus.Infof("postgres recorder connected: %s", poolCfg.ConnConfig.Host)
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			action            TEXT NOT NULL,
			buy_price         DOUBLE PRECISION,
			sell_price        DOUBLE PRECISION,
			investment_amount DOUBLE PRECISION,
			target_profit     DOUBLE PRECISION,
			stop_loss_percent DOUBLE PRECISION,
			actual_profit     DOUBLE PRECISION,
			ai_recommendation TEXT,
			ai_confidence     DOUBLE PRECISION,
			bought_at         TIMESTAMPTZ,
			sold_at           TIMESTAMPTZ,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_user_symbol ON trades(user_id, symbol, created_at DESC)`,
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) RecordBuy(ctx context.Context, rec *model.TradeRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO trades
		(id, user_id, symbol, action, buy_price, sell_price,
		 investment_amount, target_profit, stop_loss_percent, actual_profit,
		 ai_recommendation, ai_confidence, bought_at, sold_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		rec.ID, rec.UserID, strings.ToUpper(rec.Symbol), string(rec.Action), rec.BuyPrice, rec.SellPrice,
		rec.InvestedAmount, rec.TargetProfit, rec.StopLossPercent, rec.ActualProfit,
		string(rec.AIRecommendation), rec.AIConfidence, rec.BoughtAt, rec.SoldAt, rec.CreatedAt,
	)
	return err
}

func (r *PostgresRecorder) RecordSell(ctx context.Context, sale Sale) error {
	tag, err := r.pool.Exec(ctx, `UPDATE trades
		SET action = $1, sell_price = $2, actual_profit = $3, sold_at = $4
		WHERE id = $5`,
		string(model.ActionSell), sale.SellPrice, sale.ActualProfit, sale.SoldAt, sale.TradeID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sell %s: %w", sale.TradeID, ErrTradeNotFound)
	}
	return nil
}

func (r *PostgresRecorder) RecentTrades(ctx context.Context, userID, symbol string, limit int) ([]model.TradeRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT
		id, user_id, symbol, action, buy_price, sell_price,
		COALESCE(investment_amount, 0), COALESCE(target_profit, 0), COALESCE(stop_loss_percent, 0), actual_profit,
		COALESCE(ai_recommendation, ''), COALESCE(ai_confidence, 0), bought_at, sold_at, created_at
		FROM trades WHERE user_id = $1 AND symbol = $2
		ORDER BY created_at DESC LIMIT $3`,
		userID, strings.ToUpper(symbol), limit,
	)
	if err != nil {
		return nil, err
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TradeRecord, error) {
		var (
			rec           model.TradeRecord
			action, aiRec string
		)
		err := row.Scan(&rec.ID, &rec.UserID, &rec.Symbol, &action, &rec.BuyPrice, &rec.SellPrice,
			&rec.InvestedAmount, &rec.TargetProfit, &rec.StopLossPercent, &rec.ActualProfit,
			&aiRec, &rec.AIConfidence, &rec.BoughtAt, &rec.SoldAt, &rec.CreatedAt)
		rec.Action = model.Action(action)
		rec.AIRecommendation = model.Action(aiRec)
		return rec, err
	})
}

func (r *PostgresRecorder) Close() error {
	logrus.Info("closing postgres pool")
	r.pool.Close()
	return nil
}
