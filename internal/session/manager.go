package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"TradeHelper/internal/advisor"
	"TradeHelper/internal/model"
	"TradeHelper/internal/recorder"
	"TradeHelper/internal/strategy"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrNotBought     = errors.New("no open position")
	ErrAlreadyBought = errors.New("position already open")
	ErrInvalidParams = errors.New("investment amount, target profit and stop-loss percent must be positive")
	ErrNoPrice       = errors.New("no price available")
	ErrStale         = errors.New("session changed since the analysis was requested")
)

// Manager owns every session and keeps them consistent with the trade log.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	filePath string
	recorder recorder.Recorder
	now      func() time.Time
}

// NewManager creates a Manager, loading state from disk when filePath is set.
func NewManager(filePath string, rec recorder.Recorder) (*Manager, error) {
	sessions := map[string]*model.Session{}
	if filePath != "" {
		loaded, err := LoadState(filePath)
		if err != nil {
			return nil, fmt.Errorf("load sessions: %w", err)
		}
		sessions = loaded
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Manager{sessions: sessions, filePath: filePath, recorder: rec, now: time.Now}, nil
}

func normalize(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }

// Start creates the session, or updates its goals, and marks it as polling.
func (m *Manager) Start(userID, symbol string, params model.TradeParams) (model.Session, error) {
	if !params.Valid() || params.StopLossPercent <= 0 {
		return model.Session{}, ErrInvalidParams
	}
	symbol = normalize(symbol)

	m.mu.Lock()
	defer m.mu.Unlock()

	key := model.SessionKey(userID, symbol)
	s, ok := m.sessions[key]
	if !ok {
		s = &model.Session{UserID: userID, Symbol: symbol, StartedAt: m.now()}
		m.sessions[key] = s
	}
	s.Params = params
	s.Revision++
	s.Polling = true
	s.UpdatedAt = m.now()
	m.save()
	return *s, nil
}

// SetPolling records whether the poller is running for the session.
func (m *Manager) SetPolling(key string, polling bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok && s.Polling != polling {
		s.Polling = polling
		s.UpdatedAt = m.now()
		m.save()
	}
}

// Buy opens a position at price, or at the last seen price when price is zero.
func (m *Manager) Buy(ctx context.Context, userID, symbol string, price float64) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[model.SessionKey(userID, normalize(symbol))]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	if s.Bought {
		return *s, ErrAlreadyBought
	}
	if price <= 0 {
		price = s.CurrentPrice
	}
	if price <= 0 {
		return *s, ErrNoPrice
	}

	now := m.now()
	rec := &model.TradeRecord{
		UserID:          s.UserID,
		Symbol:          s.Symbol,
		Action:          model.ActionBuy,
		BuyPrice:        &price,
		InvestedAmount:  s.Params.InvestmentAmount,
		TargetProfit:    s.Params.TargetProfit,
		StopLossPercent: s.Params.StopLossPercent,
		BoughtAt:        &now,
		CreatedAt:       now,
	}
	if s.LastAnalysis != nil {
		rec.AIRecommendation = s.LastAnalysis.Recommendation.Action
		rec.AIConfidence = s.LastAnalysis.Recommendation.Confidence
	}
	if err := m.recorder.RecordBuy(ctx, rec); err != nil {
		return *s, fmt.Errorf("record buy: %w", err)
	}

	s.Bought = true
	s.EntryPrice = price
	s.CurrentPrice = price
	s.TradeID = rec.ID
	s.LastAction = model.PositionHold
	s.Revision++
	s.UpdatedAt = now
	m.save()

	logrus.WithFields(logrus.Fields{"user": userID, "symbol": s.Symbol}).Infof("position opened at %.2f", price)
	return *s, nil
}

// Sell closes the open position and returns the realized figures.
func (m *Manager) Sell(ctx context.Context, userID, symbol string, price float64) (model.Session, strategy.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[model.SessionKey(userID, normalize(symbol))]
	if !ok {
		return model.Session{}, strategy.Snapshot{}, ErrNotFound
	}
	if !s.Bought {
		return *s, strategy.Snapshot{}, ErrNotBought
	}
	if price <= 0 {
		price = s.CurrentPrice
	}

	pos := s.Position()
	pos.CurrentPrice = price
	snap := strategy.Describe(pos)

	if s.TradeID != "" {
		err := m.recorder.RecordSell(ctx, recorder.Sale{
			TradeID:      s.TradeID,
			SellPrice:    price,
			ActualProfit: snap.CurrentProfit,
			SoldAt:       m.now(),
		})
		if err != nil {
			return *s, snap, fmt.Errorf("record sell: %w", err)
		}
	}

	s.Bought = false
	s.EntryPrice = 0
	s.TradeID = ""
	s.CurrentPrice = price
	s.LastAction = ""
	s.Revision++
	s.UpdatedAt = m.now()
	m.save()

	logrus.WithFields(logrus.Fields{"user": userID, "symbol": s.Symbol}).
		Infof("position closed at %.2f, profit %.2f", price, snap.CurrentProfit)
	return *s, snap, nil
}

// Reset discards the session without recording anything.
func (m *Manager) Reset(userID, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := model.SessionKey(userID, normalize(symbol))
	if _, ok := m.sessions[key]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, key)
	m.save()
	return nil
}

// Update is the result of applying one analysis to a session.
type Update struct {
	Session model.Session
	// Transition is set when the evaluator moved to a new sell signal.
	Transition bool
}

// ApplyReport stores a fresh analysis and price, then re-evaluates any open
// position. revision is the session revision the request was built from; a
// report for an older revision returns ErrStale and changes nothing.
func (m *Manager) ApplyReport(key string, revision uint64, rep *advisor.Report) (Update, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[key]
	if !ok {
		return Update{}, ErrNotFound
	}
	if s.Revision != revision {
		return Update{Session: *s}, ErrStale
	}
	analysis := rep.Analysis
	s.LastAnalysis = &analysis
	if rep.CurrentPrice > 0 {
		s.CurrentPrice = rep.CurrentPrice
	}
	s.UpdatedAt = m.now()

	var transition bool
	if pos := s.Position(); pos != nil {
		action := strategy.Evaluate(pos)
		transition = action != model.PositionHold && action != s.LastAction
		s.LastAction = action
	}
	m.save()
	return Update{Session: *s, Transition: transition}, nil
}

// Get returns a copy of the session.
func (m *Manager) Get(userID, symbol string) (model.Session, error) {
	return m.Lookup(model.SessionKey(userID, normalize(symbol)))
}

// Lookup returns a copy of the session stored under key.
func (m *Manager) Lookup(key string) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return model.Session{}, ErrNotFound
	}
	return *s, nil
}

// List returns the user's sessions ordered by symbol. An empty userID lists all.
func (m *Manager) List(userID string) []model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if userID == "" || s.UserID == userID {
			out = append(out, *s)
		}
	}
	slices.SortFunc(out, func(a, b model.Session) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

func (m *Manager) save() {
	if m.filePath == "" {
		return
	}
	if err := SaveState(m.filePath, m.sessions); err != nil {
		logrus.Errorf("failed to save session state: %v", err)
	}
}
