package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"TradeHelper/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists trades to a local SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logrus.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id                TEXT PRIMARY KEY,
			user_id           TEXT NOT NULL,
			symbol            TEXT NOT NULL,
			action            TEXT NOT NULL,
			buy_price         REAL,
			sell_price        REAL,
			investment_amount REAL,
			target_profit     REAL,
			stop_loss_percent REAL,
			actual_profit     REAL,
			ai_recommendation TEXT,
			ai_confidence     REAL,
			bought_at         INTEGER,
			sold_at           INTEGER,
			created_at        INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_user_symbol ON trades(user_id, symbol, created_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func (r *SQLiteRecorder) RecordBuy(ctx context.Context, rec *model.TradeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO trades
		(id, user_id, symbol, action, buy_price, sell_price,
		 investment_amount, target_profit, stop_loss_percent, actual_profit,
		 ai_recommendation, ai_confidence, bought_at, sold_at, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.ID, rec.UserID, strings.ToUpper(rec.Symbol), string(rec.Action), rec.BuyPrice, rec.SellPrice,
		rec.InvestedAmount, rec.TargetProfit, rec.StopLossPercent, rec.ActualProfit,
		string(rec.AIRecommendation), rec.AIConfidence,
		unixOrNil(rec.BoughtAt), unixOrNil(rec.SoldAt), rec.CreatedAt.UnixMilli(),
	)
	return err
}

func (r *SQLiteRecorder) RecordSell(ctx context.Context, sale Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, err := r.db.ExecContext(ctx, `UPDATE trades
		SET action = ?, sell_price = ?, actual_profit = ?, sold_at = ?
		WHERE id = ?`,
		string(model.ActionSell), sale.SellPrice, sale.ActualProfit, sale.SoldAt.UnixMilli(), sale.TradeID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sell %s: %w", sale.TradeID, ErrTradeNotFound)
	}
	return nil
}

func (r *SQLiteRecorder) RecentTrades(ctx context.Context, userID, symbol string, limit int) ([]model.TradeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT
		id, user_id, symbol, action, buy_price, sell_price,
		investment_amount, target_profit, stop_loss_percent, actual_profit,
		ai_recommendation, ai_confidence, bought_at, sold_at, created_at
		FROM trades WHERE user_id = ? AND symbol = ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, strings.ToUpper(symbol), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TradeRecord
	for rows.Next() {
		var (
			rec               model.TradeRecord
			action, aiRec     string
			buy, sell, profit sql.NullFloat64
			boughtAt, soldAt  sql.NullInt64
			createdAt         int64
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Symbol, &action, &buy, &sell,
			&rec.InvestedAmount, &rec.TargetProfit, &rec.StopLossPercent, &profit,
			&aiRec, &rec.AIConfidence, &boughtAt, &soldAt, &createdAt); err != nil {
			return nil, err
		}
		rec.Action = model.Action(action)
		rec.AIRecommendation = model.Action(aiRec)
		rec.BuyPrice = nullFloat(buy)
		rec.SellPrice = nullFloat(sell)
		rec.ActualProfit = nullFloat(profit)
		rec.BoughtAt = nullTime(boughtAt)
		rec.SoldAt = nullTime(soldAt)
		rec.CreatedAt = time.UnixMilli(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func (r *SQLiteRecorder) Close() error {
	logrus.Info("closing sqlite recorder")
	return r.db.Close()
}
