package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jpilocastillo/m8bizz-sub004/internal/errors"
	"github.com/jpilocastillo/m8bizz-sub004/profiles"
	"github.com/jpilocastillo/m8bizz-sub004/sessions"
	"github.com/rs/zerolog/log"
)

// LoginSubmissionHandler signs the user in with the hosted auth service,
// stores the session under a fresh id and sets the session cookie.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			redirectWithError(w, r, RouteLogin, "Invalid form submission")
			return
		}

		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		next := safeRedirectTarget(r.FormValue("next"), s.access.HomePath)

		loginPage := s.rules.LoginPathFor(next)

		if email == "" || password == "" {
			redirectWithError(w, r, loginPage, "Email and password are required")
			return
		}

		sess, err := s.auth.SignIn(r.Context(), email, password)
		if err != nil {
			log.Warn().Err(err).Str("email", email).Msg("sign in failed")
			redirectWithError(w, r, loginPage, signInErrorMessage(err))
			return
		}

		sess.ID = uuid.NewString()
		sess.CreatedAt = s.now()
		if err := s.sessions.Upsert(r.Context(), sess); err != nil {
			log.Err(err).Str("user_id", sess.User.ID).Msg("failed to store session")
			redirectWithError(w, r, loginPage, "Sign in failed, please try again")
			return
		}

		s.ensureProfile(r.Context(), sess.User, sess.CreatedAt)

		s.SetSessionCookie(w, r, sess.ID)
		log.Info().Str("user_id", sess.User.ID).Msg("signed in")
		redirectSuccess(w, r, next)
	}
}

// ensureProfile creates a bare profile on first sign in. Existing rows, and the
// roles assigned to them, are left alone. Failures never block sign in.
func (s *Server) ensureProfile(ctx context.Context, user sessions.User, now time.Time) {
	_, err := s.profiles.GetByID(ctx, user.ID)
	if err == nil {
		return
	}
	if !apperrors.Is(err, apperrors.ErrProfileNotFound) {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("profile lookup failed on sign in")
		return
	}
	profile := &profiles.Profile{ID: user.ID, Email: user.Email, CreatedAt: now}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to create profile")
		return
	}
	log.Info().Str("user_id", user.ID).Msg("profile created")
}

func signInErrorMessage(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		return "Invalid email or password"
	case apperrors.Is(err, apperrors.ErrNotConfigured):
		return "Sign in is not available"
	default:
		return "Sign in failed, please try again"
	}
}

// LogoutHandler revokes the session upstream, forgets it locally and clears
// the cookie. Upstream failures are logged; the local session is removed anyway.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(s.config.GetSessionCookieName())
		if err == nil && cookie.Value != "" {
			s.endSession(r, cookie.Value)
		}
		s.ClearSessionCookie(w, r)
		redirectSuccess(w, r, s.access.LoginPath)
	}
}

func (s *Server) endSession(r *http.Request, sessionID string) {
	ctx := r.Context()
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrSessionNotFound) {
			log.Err(err).Msg("failed to load session for sign out")
		}
		return
	}
	if err := s.auth.SignOut(ctx, sess); err != nil {
		log.Warn().Err(err).Str("user_id", sess.User.ID).Msg("upstream sign out failed")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		log.Err(err).Str("user_id", sess.User.ID).Msg("failed to delete session")
	}
}
