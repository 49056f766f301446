package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TradeHelper/internal/advisor"
	"TradeHelper/internal/model"
	"TradeHelper/internal/notifier"
	"TradeHelper/internal/session"
	"TradeHelper/internal/strategy"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DefaultPeriod is the seconds between analysis requests for a session.
const DefaultPeriod = 20

// Analyzer produces a fresh report for a session.
type Analyzer interface {
	Analyze(ctx context.Context, req advisor.Request) (*advisor.Report, error)
}

// Alerter delivers position alerts.
type Alerter interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

type run struct {
	entry      cron.EntryID
	countdown  int
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// Poller re-analyzes every running session on a fixed period and keeps a
// per-session countdown to the next request.
type Poller struct {
	cron     *cron.Cron
	analyzer Analyzer
	sessions *session.Manager
	alerter  Alerter
	period   int
	ctx      context.Context

	mu      sync.Mutex
	running map[string]*run
	subs    map[string]map[int]chan Update
	nextSub int
}

// NewPoller creates a Poller. alerter may be nil; period <= 0 uses DefaultPeriod.
func NewPoller(ctx context.Context, analyzer Analyzer, sessions *session.Manager, alerter Alerter, period int) *Poller {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Poller{
		cron:     cron.New(cron.WithSeconds()),
		analyzer: analyzer,
		sessions: sessions,
		alerter:  alerter,
		period:   period,
		ctx:      ctx,
		running:  map[string]*run{},
		subs:     map[string]map[int]chan Update{},
	}
}

// Run registers the countdown ticker, resumes sessions that were polling
// before a restart and starts the cron.
func (p *Poller) Run() error {
	if _, err := p.cron.AddFunc("@every 1s", p.tick); err != nil {
		return fmt.Errorf("register countdown: %w", err)
	}
	for _, s := range p.sessions.List("") {
		if !s.Polling {
			continue
		}
		if err := p.Start(s.Key()); err != nil {
			logrus.Warnf("resume polling %s: %v", s.Key(), err)
		}
	}
	p.cron.Start()
	logrus.Info("poller started")
	return nil
}

// Shutdown stops the cron and cancels all in-flight requests.
func (p *Poller) Shutdown() {
	p.mu.Lock()
	for key, r := range p.running {
		r.cancel()
		delete(p.running, key)
	}
	p.mu.Unlock()
	<-p.cron.Stop().Done()
	logrus.Info("poller stopped")
}

// Start begins polling the session stored under key and fires the first
// analysis immediately. Starting a running session is a no-op.
func (p *Poller) Start(key string) error {
	if _, err := p.sessions.Lookup(key); err != nil {
		return err
	}

	p.mu.Lock()
	if _, ok := p.running[key]; ok {
		p.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(p.ctx)
	r := &run{countdown: p.period, ctx: ctx, cancel: cancel}
	entry, err := p.cron.AddFunc(fmt.Sprintf("@every %ds", p.period), func() { p.trigger(key) })
	if err != nil {
		p.mu.Unlock()
		cancel()
		return fmt.Errorf("register poll for %s: %w", key, err)
	}
	r.entry = entry
	p.running[key] = r
	p.mu.Unlock()

	p.sessions.SetPolling(key, true)
	logrus.WithField("session", key).Infof("polling every %ds", p.period)
	go p.trigger(key)
	return nil
}

// Stop ends polling for key. Replies still in flight are discarded.
func (p *Poller) Stop(key string) {
	p.mu.Lock()
	r, ok := p.running[key]
	if ok {
		p.cron.Remove(r.entry)
		r.cancel()
		delete(p.running, key)
		p.publish(Update{Kind: KindStopped, Key: key})
	}
	p.mu.Unlock()

	if ok {
		p.sessions.SetPolling(key, false)
		logrus.WithField("session", key).Info("polling stopped")
	}
}

// Running reports whether key is being polled.
func (p *Poller) Running(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.running[key]
	return ok
}

// Countdown returns the seconds until the next request, or 0 when not running.
func (p *Poller) Countdown(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.running[key]; ok {
		return r.countdown
	}
	return 0
}

// tick advances every running countdown by one second, wrapping to the full
// period after zero.
func (p *Poller) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, r := range p.running {
		r.countdown--
		if r.countdown <= 0 {
			r.countdown = p.period
		}
		p.publish(Update{Kind: KindCountdown, Key: key, Countdown: r.countdown})
	}
}

// trigger issues one analysis request for key. Each request takes the next
// generation number; its reply is applied only if no newer request was issued
// and the session is still running.
func (p *Poller) trigger(key string) {
	p.mu.Lock()
	r, ok := p.running[key]
	if !ok {
		p.mu.Unlock()
		return
	}
	r.generation++
	gen := r.generation
	r.countdown = p.period
	ctx := r.ctx
	p.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"session": key, "generation": gen})

	s, err := p.sessions.Lookup(key)
	if err != nil {
		log.Warnf("session vanished: %v", err)
		p.Stop(key)
		return
	}
	req := advisor.Request{UserID: s.UserID, Symbol: s.Symbol, Bought: s.Bought, EntryPrice: s.EntryPrice}
	if s.Params.Valid() {
		params := s.Params
		req.Params = &params
	}

	rep, err := p.analyzer.Analyze(ctx, req)

	p.mu.Lock()
	current, ok := p.running[key]
	if !ok || current != r || current.generation != gen {
		p.mu.Unlock()
		log.Debug("discarding stale reply")
		return
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Errorf("analysis failed: %v", err)
		}
		p.publish(Update{Kind: KindError, Key: key, Generation: gen, Error: err.Error()})
		p.mu.Unlock()
		return
	}

	up, err := p.sessions.ApplyReport(key, s.Revision, rep)
	if errors.Is(err, session.ErrStale) {
		p.mu.Unlock()
		log.Debug("discarding reply issued before the position changed")
		return
	}
	if err != nil {
		p.mu.Unlock()
		log.Warnf("apply report: %v", err)
		return
	}
	sess := up.Session
	p.publish(Update{Kind: KindAnalysis, Key: key, Generation: gen, Session: &sess, Report: rep, Countdown: current.countdown})
	p.mu.Unlock()

	if up.Transition {
		p.alert(ctx, sess)
	}
}

func (p *Poller) alert(ctx context.Context, s model.Session) {
	pos := s.Position()
	if pos == nil {
		return
	}
	text := notifier.FormatPositionAlert(s, strategy.Describe(pos))
	logrus.WithFields(logrus.Fields{"user": s.UserID, "symbol": s.Symbol}).Infof("position signal %s", s.LastAction)
	p.mu.Lock()
	p.publish(Update{Kind: KindAlert, Key: s.Key(), Message: text, Session: &s})
	p.mu.Unlock()
	if p.alerter == nil {
		return
	}
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		if err := p.alerter.SendWithRetry(sendCtx, text, 3); err != nil {
			logrus.Errorf("send position alert: %v", err)
		}
	}()
}

// HandleCommand processes a chat command and returns a reply.
func (p *Poller) HandleCommand(command string) string {
	switch command {
	case "/sessions", "/status":
		sessions := p.sessions.List("")
		countdowns := make(map[string]int, len(sessions))
		for _, s := range sessions {
			countdowns[s.Key()] = p.Countdown(s.Key())
		}
		return notifier.FormatSessionList(sessions, countdowns)
	default:
		return "Available commands:\n• /sessions - list tracked sessions"
	}
}
