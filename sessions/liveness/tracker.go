package liveness

import (
	"context"
	"sync"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
)

// Source returns the caller's current cached session, or nil.
type Source interface {
	Current() *sessions.Session
}

type SourceFunc func() *sessions.Session

func (f SourceFunc) Current() *sessions.Session {
	return f()
}

// Tracker is the single coordinator behind every session warning. The coarse
// check decides state transitions; the fine ticker exists only while a
// warning is showing and only re-derives the remaining time from the last
// coarse result.
type Tracker struct {
	source Source
	clock  Clock
	warn   time.Duration
	coarse time.Duration
	fine   time.Duration
	reload chan struct{}

	mu     sync.RWMutex
	status Status
	subs   map[int]chan Status
	nextID int
}

type Option func(*Tracker)

func WithClock(clock Clock) Option {
	return func(t *Tracker) {
		t.clock = clock
	}
}

func NewTracker(source Source, cfg config.SessionConfig, opts ...Option) *Tracker {
	t := &Tracker{
		source: source,
		clock:  SystemClock{},
		warn:   cfg.GetWarnThreshold(),
		coarse: cfg.GetCoarseCheckInterval(),
		fine:   cfg.GetCountdownInterval(),
		reload: make(chan struct{}, 1),
		subs:   make(map[int]chan Status),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Status returns the latest published status.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Subscribe returns a channel carrying the most recent status. Slow readers
// only ever see the newest value. The returned func unsubscribes and closes
// the channel.
func (t *Tracker) Subscribe() (<-chan Status, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan Status, 1)
	t.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.subs, id)
			close(ch)
		})
	}
}

// Reload asks the running tracker to re-evaluate now, typically after the
// caller swapped its cached session for a refreshed one.
func (t *Tracker) Reload() {
	select {
	case t.reload <- struct{}{}:
	default:
	}
}

// Run drives the tracker until ctx is done. All tickers are stopped on return.
func (t *Tracker) Run(ctx context.Context) {
	coarse := t.clock.NewTicker(t.coarse)
	defer coarse.Stop()

	var fine Ticker
	var fineC <-chan time.Time
	stopFine := func() {
		if fine != nil {
			fine.Stop()
			fine, fineC = nil, nil
		}
	}
	defer stopFine()

	var base Status
	check := func() {
		base = Evaluate(t.source.Current(), t.clock.Now(), t.warn)
		if base.State == StateWarning {
			if fine == nil {
				fine = t.clock.NewTicker(t.fine)
				fineC = fine.Chan()
			}
		} else {
			stopFine()
		}
		t.publish(base)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-coarse.Chan():
			check()
		case <-t.reload:
			check()
		case <-fineC:
			remaining := base.Remaining - t.clock.Now().Sub(base.CheckedAt)
			if remaining <= 0 {
				check()
				continue
			}
			t.publish(Status{State: base.State, Remaining: remaining, CheckedAt: base.CheckedAt})
		}
	}
}

func (t *Tracker) publish(st Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = st
	for _, ch := range t.subs {
		select {
		case ch <- st:
		default:
			// drop the stale value so the newest one fits
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- st:
			default:
			}
		}
	}
}
