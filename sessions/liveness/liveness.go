// Package liveness watches a session's expiry and decides when a warning
// should be shown. It never refreshes anything itself.
package liveness

import (
	"fmt"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/sessions"
)

type State int

const (
	StateOK State = iota
	StateWarning
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateWarning:
		return "warning"
	case StateExpired:
		return "expired"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Status is a point-in-time evaluation of a session.
type Status struct {
	State     State
	Remaining time.Duration // Zero unless a live session was evaluated
	CheckedAt time.Time
}

// Warning reports whether a warning should be visible.
func (s Status) Warning() bool {
	return s.State == StateWarning
}

// Countdown renders Remaining as m:ss.
func (s Status) Countdown() string {
	return FormatCountdown(s.Remaining)
}

// Evaluate classifies sess against the warning threshold.
func Evaluate(sess *sessions.Session, now time.Time, warn time.Duration) Status {
	if sess == nil {
		return Status{State: StateOK, CheckedAt: now}
	}

	remaining := sess.Remaining(now)
	switch {
	case remaining <= 0:
		return Status{State: StateExpired, CheckedAt: now}
	case remaining < warn:
		return Status{State: StateWarning, Remaining: remaining, CheckedAt: now}
	default:
		return Status{State: StateOK, Remaining: remaining, CheckedAt: now}
	}
}

// FormatCountdown renders d as minutes and zero padded seconds, truncating
// partial seconds. Negative durations render as 0:00.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
