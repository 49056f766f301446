package scheduler

import (
	"TradeHelper/internal/advisor"
	"TradeHelper/internal/model"
)

// UpdateKind tags what an Update carries.
type UpdateKind string

const (
	KindCountdown UpdateKind = "countdown"
	KindAnalysis  UpdateKind = "analysis"
	KindAlert     UpdateKind = "alert"
	KindError     UpdateKind = "error"
	KindStopped   UpdateKind = "stopped"
)

// Update is pushed to subscribers of a session.
type Update struct {
	Kind       UpdateKind      `json:"type"`
	Key        string          `json:"session"`
	Generation uint64          `json:"generation,omitempty"`
	Countdown  int             `json:"countdown,omitempty"`
	Session    *model.Session  `json:"state,omitempty"`
	Report     *advisor.Report `json:"report,omitempty"`
	Message    string          `json:"message,omitempty"`
	Error      string          `json:"error,omitempty"`
}

const subscriberBuffer = 16

// Subscribe returns a channel of updates for key and a function that
// unsubscribes and closes it. Slow subscribers miss updates rather than
// blocking the poller.
func (p *Poller) Subscribe(key string) (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	if p.subs[key] == nil {
		p.subs[key] = map[int]chan Update{}
	}
	p.subs[key][id] = ch
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if c, ok := p.subs[key][id]; ok {
			delete(p.subs[key], id)
			if len(p.subs[key]) == 0 {
				delete(p.subs, key)
			}
			close(c)
		}
	}
}

// publish must be called with p.mu held.
func (p *Poller) publish(u Update) {
	for _, ch := range p.subs[u.Key] {
		select {
		case ch <- u:
		default:
		}
	}
}
