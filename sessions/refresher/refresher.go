// Package refresher implements the idempotent "ensure the session is fresh"
// operation shared by the gatekeeper, the banner's refresh action and the
// guards in front of long-running writes.
package refresher

import (
	"context"
	"fmt"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
)

type Outcome int

const (
	OutcomeNoSession Outcome = iota // Nothing to refresh
	OutcomeFresh                    // Far enough from expiry, backend not called
	OutcomeRefreshed                // Backend renewed the session and the store holds the new one
	OutcomeFailed                   // Backend or store failed, the stale session is untouched
	OutcomeExpired                  // Already past expiry, the user has to sign in again
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoSession:
		return "no_session"
	case OutcomeFresh:
		return "fresh"
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeFailed:
		return "failed"
	case OutcomeExpired:
		return "expired"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// OK reports whether the caller can carry on with a usable session.
func (o Outcome) OK() bool {
	return o == OutcomeFresh || o == OutcomeRefreshed
}

// Backend exchanges a session for a renewed one.
type Backend interface {
	Refresh(ctx context.Context, current sessions.Session) (sessions.Session, error)
}

// Recorder observes refresh outcomes (metrics).
type Recorder interface {
	RefreshOutcome(outcome string)
}

// Refresher is safe for concurrent use. Concurrent callers that all see a
// session close to expiry each issue their own backend call; the backend
// resolves them and the last successful reply written to the store wins.
type Refresher struct {
	backend   Backend
	store     sessions.Repo
	threshold time.Duration
	now       func() time.Time
	recorder  Recorder
}

type Option func(*Refresher)

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(r *Refresher) {
		r.now = now
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(r *Refresher) {
		r.recorder = recorder
	}
}

func New(backend Backend, store sessions.Repo, cfg config.SessionConfig, opts ...Option) *Refresher {
	r := &Refresher{
		backend:   backend,
		store:     store,
		threshold: cfg.GetRefreshThreshold(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold is the remaining time under which EnsureFresh calls the backend.
func (r *Refresher) Threshold() time.Duration {
	return r.threshold
}

// NeedsRefresh reports whether sess is live but inside the refresh window.
func (r *Refresher) NeedsRefresh(sess *sessions.Session) bool {
	if sess == nil {
		return false
	}
	remaining := sess.Remaining(r.now())
	return remaining > 0 && remaining < r.threshold
}

// EnsureFresh renews sess when it is inside the refresh window. The renewed
// session replaces the stored one; callers read it from there. A session
// deleted while the backend call was in flight stays deleted.
func (r *Refresher) EnsureFresh(ctx context.Context, sess *sessions.Session) (Outcome, error) {
	outcome, err := r.ensureFresh(ctx, sess)
	if r.recorder != nil {
		r.recorder.RefreshOutcome(outcome.String())
	}
	return outcome, err
}

func (r *Refresher) ensureFresh(ctx context.Context, sess *sessions.Session) (Outcome, error) {
	if sess == nil {
		return OutcomeNoSession, nil
	}

	remaining := sess.Remaining(r.now())
	if remaining >= r.threshold {
		return OutcomeFresh, nil
	}
	if remaining <= 0 {
		return OutcomeExpired, nil
	}
	if sess.RefreshToken == "" {
		return OutcomeFailed, apperrors.ErrNoRefreshToken
	}

	renewed, err := r.backend.Refresh(ctx, *sess)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("[refresher EnsureFresh] %w: %w", apperrors.ErrRefreshFailed, err)
	}

	renewed.ID = sess.ID
	if renewed.CreatedAt.IsZero() {
		renewed.CreatedAt = sess.CreatedAt
	}
	if renewed.User.ID == "" {
		renewed.User = sess.User
	}
	if err := r.store.Replace(ctx, renewed); err != nil {
		if apperrors.Is(err, apperrors.ErrSessionNotFound) {
			return OutcomeNoSession, fmt.Errorf("[refresher EnsureFresh] session signed out during refresh: %w", err)
		}
		return OutcomeFailed, fmt.Errorf("[refresher EnsureFresh] %w: store: %w", apperrors.ErrRefreshFailed, err)
	}
	return OutcomeRefreshed, nil
}
