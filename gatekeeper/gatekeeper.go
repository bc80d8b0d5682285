// Package gatekeeper decides, once per request and before any page logic,
// whether a request continues or is redirected to a login page.
package gatekeeper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jpilocastillo/m8bizz-sub004/internal/config"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/jpilocastillo/m8bizz-sub004/sessions/refresher"
	"github.com/rs/zerolog/log"
)

type Kind int

const (
	PublicPath Kind = iota
	RequiresAuth
	RequiresRole
	AuthRedirect
)

func (k Kind) String() string {
	switch k {
	case PublicPath:
		return "public_path"
	case RequiresAuth:
		return "requires_auth"
	case RequiresRole:
		return "requires_role"
	case AuthRedirect:
		return "auth_redirect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Action int

const (
	Continue Action = iota
	Redirect
)

func (a Action) String() string {
	if a == Redirect {
		return "redirect"
	}
	return "continue"
}

type Decision struct {
	Kind     Kind
	Action   Action
	Location string // Set when Action is Redirect
}

// RoleLookup returns the role stored for a user.
type RoleLookup interface {
	RoleFor(ctx context.Context, userID string) (string, error)
}

// Refresher is the subset of refresher.Refresher the gatekeeper uses.
type Refresher interface {
	NeedsRefresh(sess *sessions.Session) bool
	EnsureFresh(ctx context.Context, sess *sessions.Session) (refresher.Outcome, error)
}

// SessionLoader reads the request's session. A missing session is (nil, nil)
// or apperrors.ErrSessionNotFound.
type SessionLoader func(r *http.Request) (*sessions.Session, error)

type Recorder interface {
	GatekeeperDecision(kind, action string)
}

type Gatekeeper struct {
	rules          Rules
	roles          RoleLookup
	refresher      Refresher
	load           SessionLoader
	refreshTimeout time.Duration
	spawn          func(func())
	skipRefresh    func(*http.Request) bool
	now            func() time.Time
	recorder       Recorder
}

type Option func(*Gatekeeper)

// WithSpawner replaces the goroutine launcher used for background refreshes.
func WithSpawner(spawn func(func())) Option {
	return func(g *Gatekeeper) {
		g.spawn = spawn
	}
}

// WithoutBackgroundRefresh stops the middleware from spawning a refresh for
// requests matching skip: routes that end the session or refresh it
// themselves.
func WithoutBackgroundRefresh(skip func(*http.Request) bool) Option {
	return func(g *Gatekeeper) {
		g.skipRefresh = skip
	}
}

func WithNow(now func() time.Time) Option {
	return func(g *Gatekeeper) {
		g.now = now
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(g *Gatekeeper) {
		g.recorder = recorder
	}
}

func New(rules Rules, roles RoleLookup, refresh Refresher, load SessionLoader, cfg config.SessionConfig, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		rules:          rules,
		roles:          roles,
		refresher:      refresh,
		load:           load,
		refreshTimeout: cfg.GetBackgroundRefreshTimeout(),
		spawn:          func(f func()) { go f() },
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide classifies path. A session only counts when it has not expired.
func (g *Gatekeeper) Decide(ctx context.Context, path string, sess *sessions.Session) Decision {
	path = cleanPath(path)
	live := sessions.IsLive(sess, g.now())

	if path == g.rules.LoginPath {
		if live {
			return Decision{Kind: AuthRedirect, Action: Redirect, Location: g.rules.HomePath}
		}
		return Decision{Kind: PublicPath, Action: Continue}
	}

	if g.rules.isPublic(path) {
		return Decision{Kind: PublicPath, Action: Continue}
	}

	if rule, ok := g.rules.roleRuleFor(path); ok {
		if !live || !g.hasRole(ctx, sess.User.ID, rule.Role) {
			return Decision{Kind: RequiresRole, Action: Redirect, Location: rule.LoginPath}
		}
		return Decision{Kind: RequiresRole, Action: Continue}
	}

	if !live {
		return Decision{Kind: RequiresAuth, Action: Redirect, Location: g.rules.LoginPath}
	}
	return Decision{Kind: RequiresAuth, Action: Continue}
}

// hasRole fails closed: a lookup error and a different role are the same outcome.
func (g *Gatekeeper) hasRole(ctx context.Context, userID, want string) bool {
	role, err := g.roles.RoleFor(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("role lookup failed")
		return false
	}
	return role == want
}

// Middleware runs Decide on every request and attaches the live session to
// the request context for the handlers behind it.
func (g *Gatekeeper) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := g.load(r)
		if err != nil {
			if !apperrors.Is(err, apperrors.ErrSessionNotFound) {
				log.Err(err).Str("path", r.URL.Path).Msg("failed to load session")
			}
			sess = nil
		}

		decision := g.Decide(r.Context(), r.URL.Path, sess)
		if g.recorder != nil {
			g.recorder.GatekeeperDecision(decision.Kind.String(), decision.Action.String())
		}

		if g.refresher.NeedsRefresh(sess) && (g.skipRefresh == nil || !g.skipRefresh(r)) {
			g.refreshInBackground(r.Context(), *sess)
		}

		if decision.Action == Redirect {
			redirect(w, r, decision.Location)
			return
		}

		if sessions.IsLive(sess, g.now()) {
			r = r.WithContext(sessions.WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// refreshInBackground never blocks the request and never fails it.
func (g *Gatekeeper) refreshInBackground(parent context.Context, sess sessions.Session) {
	ctx := context.WithoutCancel(parent)
	g.spawn(func() {
		ctx, cancel := context.WithTimeout(ctx, g.refreshTimeout)
		defer cancel()

		outcome, err := g.refresher.EnsureFresh(ctx, &sess)
		if apperrors.Is(err, apperrors.ErrSessionNotFound) {
			log.Debug().Str("session_id", sess.ID).Msg("session signed out before background refresh finished")
			return
		}
		if err != nil {
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("background session refresh failed")
			return
		}
		log.Debug().Str("session_id", sess.ID).Stringer("outcome", outcome).Msg("background session refresh")
	})
}

// CookieLoader reads the session id from the named cookie and loads it from repo.
func CookieLoader(cookieName string, repo sessions.Repo) SessionLoader {
	return func(r *http.Request) (*sessions.Session, error) {
		cookie, err := r.Cookie(cookieName)
		if err != nil || cookie.Value == "" {
			return nil, nil
		}
		sess, err := repo.Get(r.Context(), cookie.Value)
		if err != nil {
			return nil, err
		}
		return &sess, nil
	}
}

func redirect(w http.ResponseWriter, r *http.Request, location string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", location)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
